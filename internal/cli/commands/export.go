package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/dbdeck/dbdeck/internal/export"
	"github.com/dbdeck/dbdeck/internal/workspace"
)

// NewExportCommand creates the export command group.
func NewExportCommand() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a table to CSV or the whole database to SQL",
		Long: `Export data out of a database. Exports stream row by row, so they work on
tables of any size. A failed export leaves the partial file in place and
reports how far it got; treat such files as invalid.`,
	}
	addDBFlag(cmd, &db)

	csvCmd := &cobra.Command{
		Use:   "csv <table>",
		Short: "Export one table as CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, _ := cmd.Flags().GetString("file")

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			path, err := exportPath(cc, out, db+"_"+args[0]+".csv")
			if err != nil {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ex := export.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ex.CSV(cmd.Context(), f, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported %q to %s\n", args[0], path)
			return nil
		},
	}
	csvCmd.Flags().StringP("file", "f", "", "Output file (default: <db>_<table>.csv in the export dir)")
	cmd.AddCommand(csvCmd)

	sqlCmd := &cobra.Command{
		Use:   "sql",
		Short: "Export the whole database as an SQL script",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out, _ := cmd.Flags().GetString("file")

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			path, err := exportPath(cc, out, db+".sql")
			if err != nil {
				return err
			}
			f, err := os.Create(path)
			if err != nil {
				return err
			}
			defer f.Close()

			ex := export.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ex.SQLDump(cmd.Context(), f); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Exported database %q to %s\n", db, path)
			return nil
		},
	}
	sqlCmd.Flags().StringP("file", "f", "", "Output file (default: <db>.sql in the export dir)")
	cmd.AddCommand(sqlCmd)

	return cmd
}

// exportPath resolves the output path: explicit flag, else the configured
// export dir, else the per-user default export dir.
func exportPath(cc *CommandContext, explicit, filename string) (string, error) {
	if explicit != "" {
		return explicit, nil
	}
	dir := cc.Cfg.ExportDir
	if dir == "" {
		var err error
		dir, err = workspace.DefaultExportDir()
		if err != nil {
			return "", err
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	return filepath.Join(dir, filename), nil
}
