package commands

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"
)

// NewQueryCommand creates the query command. With a SQL argument it runs one
// statement; without, it starts an interactive REPL.
func NewQueryCommand() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "query [sql]",
		Short: "Run SQL against a database, or start a REPL",
		Example: `  dbdeck query --db shop "SELECT * FROM users WHERE age > 21"
  dbdeck query --db shop -o json "SELECT count(*) AS n FROM users"
  dbdeck query --db shop   # interactive REPL`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			if len(args) == 1 {
				return runStatement(cmd, cc, args[0])
			}
			return runREPL(cmd, cc)
		},
	}
	addDBFlag(cmd, &db)

	return cmd
}

// runStatement executes one statement and renders the result. Statements
// without a result set go through Exec so rows-affected is reported.
func runStatement(cmd *cobra.Command, cc *CommandContext, sqlStr string) error {
	if returnsRows(sqlStr) {
		res, err := cc.Session.Query(cmd.Context(), sqlStr)
		if err != nil {
			return err
		}
		return renderResult(cmd.OutOrStdout(), res, cc.Cfg.OutputFormat)
	}

	n, err := cc.Session.Exec(cmd.Context(), sqlStr)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "(%d rows affected)\n", n)
	return nil
}

// returnsRows guesses whether a statement produces a result set.
func returnsRows(sqlStr string) bool {
	s := strings.ToUpper(strings.TrimSpace(sqlStr))
	for _, prefix := range []string{"SELECT", "WITH", "PRAGMA", "EXPLAIN", "VALUES"} {
		if strings.HasPrefix(s, prefix) {
			return true
		}
	}
	return false
}

// runREPL starts the interactive loop. Dot-commands cover the common
// introspection asks; everything else accumulates until a semicolon and runs
// as SQL.
func runREPL(cmd *cobra.Command, cc *CommandContext) error {
	historyFile := filepath.Join(filepath.Dir(cc.Session.Path()), ".dbdeck_history")

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "dbdeck> ",
		HistoryFile:     historyFile,
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer rl.Close()

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "dbdeck query REPL (%s)\n", cc.Session.Path())
	fmt.Fprintln(out, "Type .help for commands, .quit to exit")
	fmt.Fprintln(out)

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt("dbdeck> ")
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(line, ".") {
			if line == ".quit" || line == ".exit" {
				return nil
			}
			if err := dotCommand(cmd, cc, line); err != nil {
				fmt.Fprintf(out, "Error: %v\n", err)
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteString(" ")
		if !strings.HasSuffix(line, ";") {
			rl.SetPrompt("   ...> ")
			continue
		}

		stmt := strings.TrimSpace(buf.String())
		buf.Reset()
		rl.SetPrompt("dbdeck> ")

		if err := runStatement(cmd, cc, strings.TrimSuffix(stmt, ";")); err != nil {
			fmt.Fprintf(out, "Error: %v\n", err)
		}
	}
}

func dotCommand(cmd *cobra.Command, cc *CommandContext, line string) error {
	out := cmd.OutOrStdout()
	name, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch name {
	case ".help":
		fmt.Fprintln(out, ".tables          list tables")
		fmt.Fprintln(out, ".schema <table>  show a table's CREATE statement")
		fmt.Fprintln(out, ".quit            exit")
		return nil
	case ".tables":
		tables, err := cc.Catalog.ListTables(cmd.Context())
		if err != nil {
			return err
		}
		for _, t := range tables {
			fmt.Fprintln(out, t)
		}
		return nil
	case ".schema":
		if arg == "" {
			return fmt.Errorf("usage: .schema <table>")
		}
		ddl, err := cc.Catalog.TableSQL(cmd.Context(), arg)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s;\n", ddl)
		return nil
	default:
		return fmt.Errorf("unknown command %s (try .help)", name)
	}
}
