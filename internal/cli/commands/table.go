package commands

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/schema"
)

// NewTableCommand creates the table command group.
func NewTableCommand() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "table",
		Short: "Inspect and change table structure",
	}
	addDBFlag(cmd, &db)

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			tables, err := cc.Catalog.ListTables(cmd.Context())
			if err != nil {
				return err
			}
			for _, t := range tables {
				fmt.Fprintln(cmd.OutOrStdout(), t)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "describe <table>",
		Short: "Show a table's columns and constraints",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			tbl, err := cc.Catalog.DescribeTable(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			t := table.NewWriter()
			t.SetOutputMirror(cmd.OutOrStdout())
			t.SetStyle(table.StyleLight)
			t.AppendHeader(table.Row{"column", "type", "constraints", "references"})
			for _, col := range tbl.Columns {
				t.AppendRow(table.Row{col.Name, col.Type, constraintSummary(col), refSummary(col)})
			}
			t.Render()
			return nil
		},
	})

	createCmd := &cobra.Command{
		Use:   "create <table>",
		Short: "Create a table from column specs",
		Long: `Create a table. Each -c flag defines one column:

  name TYPE [pk] [autoincrement] [notnull] [unique] [ref=table.column]`,
		Example: `  dbdeck table create users --db shop \
    -c "id INTEGER pk autoincrement" \
    -c "name TEXT notnull" \
    -c "email TEXT unique"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			specs, _ := cmd.Flags().GetStringArray("column")
			cols, err := schema.ParseColumnSpecs(specs)
			if err != nil {
				return err
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			ed := schema.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ed.CreateTable(cmd.Context(), args[0], cols); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Table %q created\n", args[0])
			return nil
		},
	}
	createCmd.Flags().StringArrayP("column", "c", nil, "Column spec (repeatable)")
	cmd.AddCommand(createCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "drop <table>",
		Short: "Drop a table and its data",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			ed := schema.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ed.DropTable(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Table %q dropped\n", args[0])
			return nil
		},
	})

	addColCmd := &cobra.Command{
		Use:   "add-column <table>",
		Short: "Add a column to an existing table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			spec, _ := cmd.Flags().GetString("column")
			col, err := schema.ParseColumnSpec(spec)
			if err != nil {
				return err
			}

			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			ed := schema.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ed.AddColumn(cmd.Context(), args[0], col); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Column %q added to %q\n", col.Name, args[0])
			return nil
		},
	}
	addColCmd.Flags().StringP("column", "c", "", "Column spec")
	_ = addColCmd.MarkFlagRequired("column")
	cmd.AddCommand(addColCmd)

	cmd.AddCommand(&cobra.Command{
		Use:   "drop-column <table> <column>",
		Short: "Remove a column (recreates the table)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			ed := schema.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ed.DropColumn(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Column %q removed from %q\n", args[1], args[0])
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add-fk <table> <column> <ref-table> <ref-column>",
		Short: "Attach a foreign key to a column (recreates the table)",
		Args:  cobra.ExactArgs(4),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			ed := schema.New(cc.Session, cc.Catalog, cc.Logger)
			if err := ed.AddForeignKey(cmd.Context(), args[0], args[1], args[2], args[3]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Foreign key %s.%s -> %s.%s added\n", args[0], args[1], args[2], args[3])
			return nil
		},
	})

	return cmd
}

func constraintSummary(col catalog.Column) string {
	var parts []string
	if col.PrimaryKey {
		parts = append(parts, "PK")
	}
	if col.AutoIncrement {
		parts = append(parts, "AUTOINCREMENT")
	}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " ")
}

func refSummary(col catalog.Column) string {
	if col.RefTable == "" {
		return ""
	}
	return col.RefTable + "." + col.RefColumn
}
