package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/editor"
)

// NewRowCommand creates the row command group.
func NewRowCommand() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "row",
		Short: "List, insert, update and delete rows",
	}
	addDBFlag(cmd, &db)

	listCmd := &cobra.Command{
		Use:   "list <table>",
		Short: "Show a table's rows",
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

			if _, err := cc.Catalog.DescribeTable(cmd.Context(), args[0]); err != nil {
				return err
			}
			res, err := cc.Session.Query(cmd.Context(), `SELECT * FROM `+catalog.Quote(args[0]))
			if err != nil {
				return err
			}
			return renderResult(cmd.OutOrStdout(), res, cc.Cfg.OutputFormat)
		},
	}
	cmd.AddCommand(listCmd)

	insertCmd := &cobra.Command{
		Use:   "insert <table>",
		Short: "Insert a row",
		Long: `Insert a row. Each -s flag sets one column; an empty value means NULL:

  dbdeck row insert users --db shop -s name=Alice -s age=30`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, _ := cmd.Flags().GetStringArray("set")
			values, err := parsePairs(sets)
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

			ed := editor.New(cc.Session, cc.Catalog)
			if err := ed.Insert(cmd.Context(), args[0], values); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Row inserted")
			return nil
		},
	}
	insertCmd.Flags().StringArrayP("set", "s", nil, "column=value pair (repeatable)")
	_ = insertCmd.MarkFlagRequired("set")
	cmd.AddCommand(insertCmd)

	updateCmd := &cobra.Command{
		Use:   "update <table>",
		Short: "Update the row identified by its primary key",
		Example: `  dbdeck row update users --db shop -k id=1 -s age=31
  # tables without a primary key are addressed by rowid:
  dbdeck row update log --db shop -k rowid=7 -s level=warn`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			sets, _ := cmd.Flags().GetStringArray("set")
			keys, _ := cmd.Flags().GetStringArray("key")
			values, err := parsePairs(sets)
			if err != nil {
				return err
			}
			key, err := parsePairs(keys)
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

			ed := editor.New(cc.Session, cc.Catalog)
			if err := ed.Update(cmd.Context(), args[0], key, values); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Row updated")
			return nil
		},
	}
	updateCmd.Flags().StringArrayP("set", "s", nil, "column=value pair (repeatable)")
	updateCmd.Flags().StringArrayP("key", "k", nil, "primary key column=value pair (repeatable)")
	_ = updateCmd.MarkFlagRequired("set")
	_ = updateCmd.MarkFlagRequired("key")
	cmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete <table>",
		Short: "Delete the row identified by its primary key",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, _ := cmd.Flags().GetStringArray("key")
			key, err := parsePairs(keys)
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

			ed := editor.New(cc.Session, cc.Catalog)
			if err := ed.Delete(cmd.Context(), args[0], key); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Row deleted")
			return nil
		},
	}
	deleteCmd.Flags().StringArrayP("key", "k", nil, "primary key column=value pair (repeatable)")
	_ = deleteCmd.MarkFlagRequired("key")
	cmd.AddCommand(deleteCmd)

	return cmd
}

// parsePairs turns repeated column=value flags into a map. The value may be
// empty (the NULL marker); the column may not.
func parsePairs(pairs []string) (map[string]string, error) {
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		col, val, ok := strings.Cut(p, "=")
		if !ok || col == "" {
			return nil, fmt.Errorf("invalid pair %q: want column=value", p)
		}
		out[col] = val
	}
	return out, nil
}
