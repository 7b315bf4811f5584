// Package ui implements the interactive terminal browser: a table list pane
// and a rows pane, refreshed when the database file changes on disk. The
// browser is read-only; every database access goes through the injected
// session and catalog.
package ui

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
)

// rowLimit caps how many rows the rows pane loads at once. Browsing is for
// orientation; full exports go through the exporter.
const rowLimit = 500

type focusArea int

const (
	focusTables focusArea = iota
	focusRows
)

type tableItem string

func (t tableItem) Title() string       { return string(t) }
func (t tableItem) Description() string { return "" }
func (t tableItem) FilterValue() string { return string(t) }

// fileChangedMsg arrives when fsnotify reports a write to the database file.
type fileChangedMsg struct{}

// watchClosedMsg arrives when the watcher shuts down.
type watchClosedMsg struct{}

// Browser is the bubbletea model for the browse command.
type Browser struct {
	ctx    context.Context
	sess   *session.Session
	cat    *catalog.Catalog
	logger *slog.Logger

	tables  list.Model
	rows    table.Model
	focus   focusArea
	current string // table shown in the rows pane
	status  string
	width   int
	height  int

	watcher *fsnotify.Watcher
}

// NewBrowser builds the browser over an open session and starts watching the
// database file for outside changes.
func NewBrowser(ctx context.Context, sess *session.Session, cat *catalog.Catalog, logger *slog.Logger) (*Browser, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	names, err := cat.ListTables(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]list.Item, len(names))
	for i, n := range names {
		items[i] = tableItem(n)
	}

	delegate := list.NewDefaultDelegate()
	delegate.ShowDescription = false
	tl := list.New(items, delegate, 30, 20)
	tl.Title = "Tables"
	tl.SetShowHelp(false)
	tl.SetShowStatusBar(false)

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to start file watcher: %w", err)
	}
	if err := watcher.Add(sess.Path()); err != nil {
		watcher.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", sess.Path(), err)
	}

	b := &Browser{
		ctx:     ctx,
		sess:    sess,
		cat:     cat,
		logger:  logger,
		tables:  tl,
		focus:   focusTables,
		status:  fmt.Sprintf("%d tables", len(names)),
		watcher: watcher,
	}
	return b, nil
}

// Close releases the file watcher.
func (b *Browser) Close() {
	if b.watcher != nil {
		b.watcher.Close()
	}
}

// Init starts the watch loop.
func (b *Browser) Init() tea.Cmd {
	return b.waitForChange()
}

// waitForChange blocks on the watcher and turns write events into messages.
func (b *Browser) waitForChange() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-b.watcher.Events:
				if !ok {
					return watchClosedMsg{}
				}
				if ev.Op.Has(fsnotify.Write) {
					return fileChangedMsg{}
				}
			case _, ok := <-b.watcher.Errors:
				if !ok {
					return watchClosedMsg{}
				}
			}
		}
	}
}

// Update handles keys, resizes and file change notifications.
func (b *Browser) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		b.width = msg.Width
		b.height = msg.Height
		b.tables.SetSize(tableListWidth, msg.Height-3)
		b.rows.SetHeight(msg.Height - 5)
		return b, nil

	case fileChangedMsg:
		b.logger.Debug("database changed on disk, refreshing")
		b.refresh()
		return b, b.waitForChange()

	case watchClosedMsg:
		return b, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return b, tea.Quit
		case "r":
			b.refresh()
			return b, nil
		case "enter":
			if b.focus == focusTables {
				if item, ok := b.tables.SelectedItem().(tableItem); ok {
					b.showTable(string(item))
					b.focus = focusRows
				}
			}
			return b, nil
		case "esc":
			if b.focus == focusRows {
				b.focus = focusTables
				return b, nil
			}
			return b, tea.Quit
		}
	}

	var cmd tea.Cmd
	if b.focus == focusTables {
		b.tables, cmd = b.tables.Update(msg)
	} else {
		b.rows, cmd = b.rows.Update(msg)
	}
	return b, cmd
}

// refresh reloads the table list and, if a table is open, its rows.
func (b *Browser) refresh() {
	names, err := b.cat.ListTables(b.ctx)
	if err != nil {
		b.status = "refresh failed: " + err.Error()
		return
	}
	items := make([]list.Item, len(names))
	for i, n := range names {
		items[i] = tableItem(n)
	}
	b.tables.SetItems(items)
	b.status = fmt.Sprintf("%d tables", len(names))

	if b.current != "" {
		b.showTable(b.current)
	}
}

// showTable loads up to rowLimit rows of one table into the rows pane.
func (b *Browser) showTable(name string) {
	res, err := b.sess.Query(b.ctx,
		`SELECT * FROM `+catalog.Quote(name)+` LIMIT ?`, rowLimit)
	if err != nil {
		b.status = err.Error()
		return
	}

	cols := make([]table.Column, len(res.Columns))
	for i, c := range res.Columns {
		cols[i] = table.Column{Title: c, Width: columnWidth(c, res)}
	}
	rows := make([]table.Row, len(res.Rows))
	for i, row := range res.Rows {
		out := make(table.Row, len(res.Columns))
		for j, col := range res.Columns {
			out[j] = cellValue(row[col])
		}
		rows[i] = out
	}

	height := b.height - 5
	if height < 3 {
		height = 10
	}
	t := table.New(
		table.WithColumns(cols),
		table.WithRows(rows),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	t.SetStyles(rowTableStyles())

	b.rows = t
	b.current = name
	suffix := ""
	if len(res.Rows) == rowLimit {
		suffix = fmt.Sprintf(" (first %d)", rowLimit)
	}
	b.status = fmt.Sprintf("%s: %d rows%s", name, len(res.Rows), suffix)
}
