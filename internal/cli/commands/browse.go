package commands

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/dbdeck/dbdeck/internal/ui"
)

// NewBrowseCommand creates the browse command, the interactive terminal
// browser for a database.
func NewBrowseCommand() *cobra.Command {
	var db string

	cmd := &cobra.Command{
		Use:   "browse",
		Short: "Browse a database interactively",
		Long: `Open a terminal browser for a database: pick a table on the left, page
through its rows on the right. The view refreshes automatically when the
database file changes on disk. Browsing is read-only; use the row and table
commands to make changes.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			if err := cc.OpenDatabase(cmd, db); err != nil {
				return err
			}

			model, err := ui.NewBrowser(cmd.Context(), cc.Session, cc.Catalog, cc.Logger)
			if err != nil {
				return err
			}
			defer model.Close()

			p := tea.NewProgram(model, tea.WithAltScreen())
			_, err = p.Run()
			return err
		},
	}
	addDBFlag(cmd, &db)

	return cmd
}
