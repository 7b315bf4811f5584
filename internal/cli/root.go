// Package cli provides the command-line interface for dbdeck.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbdeck/dbdeck/internal/cli/commands"
	"github.com/dbdeck/dbdeck/internal/cli/config"
	"github.com/dbdeck/dbdeck/internal/session"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dbdeck",
		Short: "dbdeck - manage SQLite databases from the terminal",
		Long: `dbdeck manages SQLite database files: creating and deleting databases and
tables, editing rows, browsing data interactively, and exporting tables to
CSV or whole databases to SQL scripts.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}
			cmd.SetContext(context.WithValue(cmd.Context(), commands.ConfigKey{}, cfg))

			if cfg.Verbose {
				if f := config.FileUsed(); f != "" {
					fmt.Fprintf(os.Stderr, "Using config file: %s\n", f)
				}
			}
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./dbdeck.yaml)")
	rootCmd.PersistentFlags().String("data-dir", "", "Directory holding the .db files")
	rootCmd.PersistentFlags().String("export-dir", "", "Default directory for exports")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Query output format (table|csv|json|md)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"table", "csv", "json", "md"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))
	rootCmd.AddCommand(commands.NewDBCommand())
	rootCmd.AddCommand(commands.NewTableCommand())
	rootCmd.AddCommand(commands.NewRowCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewQueryCommand())
	rootCmd.AddCommand(commands.NewBrowseCommand())

	return rootCmd
}

// Execute runs the root command. Every error, including the typed taxonomy
// from internal/session, is rendered as a message here; nothing panics out of
// the CLI boundary. Validation problems get a distinct exit code so scripts
// can tell bad input from engine failures.
func Execute() int {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		var valErr *session.ValidationError
		if errors.As(err, &valErr) {
			return 2
		}
		return 1
	}
	return 0
}
