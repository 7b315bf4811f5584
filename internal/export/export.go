// Package export serializes table contents to CSV and whole databases to SQL
// scripts. Rows are streamed straight from the engine to the writer, so
// memory use does not grow with table size. A failed export leaves whatever
// was already written in place; the returned error carries the table and row
// index reached so the caller can report how far it got.
package export

import (
	"fmt"
	"log/slog"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
)

// Error reports where an export stopped.
type Error struct {
	Table string
	Row   int64 // rows successfully written before the failure
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("export of %s failed after %d rows: %v", e.Table, e.Row, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Exporter streams table data out of an open session.
type Exporter struct {
	sess   *session.Session
	cat    *catalog.Catalog
	logger *slog.Logger
}

// New returns an exporter bound to sess.
func New(sess *session.Session, cat *catalog.Catalog, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Exporter{sess: sess, cat: cat, logger: logger}
}
