// Package commands implements the dbdeck subcommands. Each command maps to
// exactly one session, catalog, editor or exporter call; rendering and error
// reporting stay at this boundary.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/cli/config"
	"github.com/dbdeck/dbdeck/internal/session"
	"github.com/dbdeck/dbdeck/internal/workspace"
)

// ConfigKey is the context key under which the root command stores the
// loaded configuration.
type ConfigKey struct{}

// CommandContext bundles what a command needs to run.
type CommandContext struct {
	Cfg       *config.Config
	Workspace *workspace.Workspace
	Logger    *slog.Logger

	// Session and Catalog are set by OpenDatabase.
	Session *session.Session
	Catalog *catalog.Catalog
}

// NewCommandContext builds the shared command state from the root config.
// The returned cleanup closes the session if one was opened.
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg, ok := cmd.Context().Value(ConfigKey{}).(*config.Config)
	if !ok {
		return nil, nil, fmt.Errorf("configuration not loaded")
	}

	logger := slog.New(slog.DiscardHandler)
	if cfg.Verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		}))
	}

	ws, err := workspace.New(cfg.DataDir)
	if err != nil {
		return nil, nil, err
	}

	cc := &CommandContext{
		Cfg:       cfg,
		Workspace: ws,
		Logger:    logger,
		Session:   session.New(logger),
	}
	cleanup := func() { _ = cc.Session.Close() }
	return cc, cleanup, nil
}

// OpenDatabase opens the named workspace database on the command's session.
func (cc *CommandContext) OpenDatabase(cmd *cobra.Command, name string) error {
	if name == "" {
		return fmt.Errorf("no database given (use --db)")
	}
	if err := cc.Session.Open(cmd.Context(), cc.Workspace.Path(name)); err != nil {
		return err
	}
	cc.Catalog = catalog.New(cc.Session)
	return nil
}

// addDBFlag registers the --db flag shared by table, row, export, query and
// browse commands.
func addDBFlag(cmd *cobra.Command, db *string) {
	cmd.PersistentFlags().StringVar(db, "db", "", "Database name in the workspace")
}
