// Package session owns the single open SQLite connection and all statement
// execution. Every component that touches the database goes through a Session;
// nothing else in the repository opens connections.
package session

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"

	_ "modernc.org/sqlite"
)

// Value types surfaced by Query: int64, float64, string, []byte and nil.
// The driver already maps SQLite storage classes onto these; Query only
// normalizes driver-specific byte slices for TEXT columns.

// Row is one record's column-name-to-value mapping.
type Row map[string]any

// Result is an ordered query result. Columns preserves the statement's
// column order, which map iteration would lose.
type Result struct {
	Columns []string
	Rows    []Row
}

// Session holds at most one open database handle at a time.
type Session struct {
	db     *sql.DB
	path   string
	logger *slog.Logger
}

// New returns a closed session. Open must be called before use.
func New(logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Session{logger: logger}
}

// Open connects to the SQLite database at path. If the session already has an
// open handle, the new database is verified first and the old handle is closed
// only after verification succeeds, so a failed Open leaves the previous
// handle untouched.
func (s *Session) Open(ctx context.Context, path string) error {
	if _, err := os.Stat(path); err != nil {
		return &FileError{Path: path, Err: err}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &FileError{Path: path, Err: err}
	}
	// Connection-scoped pragmas (foreign_keys) must hold for every statement,
	// so the pool is pinned to one connection.
	db.SetMaxOpenConns(1)

	if err := verify(ctx, db); err != nil {
		db.Close()
		return &FileError{Path: path, Err: err}
	}

	if s.db != nil {
		s.logger.Debug("closing previous handle", "path", s.path)
		s.db.Close()
	}

	s.db = db
	s.path = path
	s.logger.Debug("database opened", "path", path)
	return nil
}

// verify checks that the handle really points at an SQLite database and
// enables foreign key enforcement. A non-database file fails here: the driver
// reports "file is not a database" on the first real read.
func verify(ctx context.Context, db *sql.DB) error {
	if err := db.PingContext(ctx); err != nil {
		return err
	}
	var n int
	if err := db.QueryRowContext(ctx, `SELECT count(*) FROM sqlite_master`).Scan(&n); err != nil {
		return err
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		return err
	}
	return nil
}

// OpenDB attaches an existing handle, bypassing file checks. Used with
// in-memory databases and driver mocks in tests.
func (s *Session) OpenDB(db *sql.DB, path string) {
	if s.db != nil {
		s.db.Close()
	}
	db.SetMaxOpenConns(1)
	s.db = db
	s.path = path
}

// Close releases the handle. Idempotent.
func (s *Session) Close() error {
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	s.path = ""
	return err
}

// IsOpen reports whether the session has an open handle.
func (s *Session) IsOpen() bool { return s.db != nil }

// Path returns the path of the open database, or "" when closed.
func (s *Session) Path() string { return s.path }

// Exec runs a single statement that returns no rows. Data values must be
// passed as args, never interpolated. Returns rows affected.
func (s *Session) Exec(ctx context.Context, sqlStr string, args ...any) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("no database open")
	}
	res, err := s.db.ExecContext(ctx, sqlStr, args...)
	if err != nil {
		return 0, &SqlError{Stmt: sqlStr, Err: err}
	}
	n, _ := res.RowsAffected()
	return n, nil
}

// Query runs a statement and materializes the ordered result set. For
// result sets that should not be held in memory, use Stream.
func (s *Session) Query(ctx context.Context, sqlStr string, args ...any) (*Result, error) {
	res := &Result{}
	err := s.Stream(ctx, sqlStr, args, func(row Row) error {
		res.Rows = append(res.Rows, row)
		return nil
	}, &res.Columns)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Stream runs a query and hands rows to fn one at a time. If cols is non-nil
// it receives the column order before the first row. fn returning an error
// aborts iteration and the error is returned unwrapped so callers can layer
// their own failure context on top.
func (s *Session) Stream(ctx context.Context, sqlStr string, args []any, fn func(Row) error, cols *[]string) error {
	if s.db == nil {
		return fmt.Errorf("no database open")
	}

	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return &SqlError{Stmt: sqlStr, Err: err}
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return &SqlError{Stmt: sqlStr, Err: err}
	}
	if cols != nil {
		*cols = columns
	}

	types, err := rows.ColumnTypes()
	if err != nil {
		return &SqlError{Stmt: sqlStr, Err: err}
	}

	for rows.Next() {
		values := make([]any, len(columns))
		ptrs := make([]any, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return &SqlError{Stmt: sqlStr, Err: err}
		}

		row := make(Row, len(columns))
		for i, col := range columns {
			row[col] = normalize(values[i], types[i])
		}
		if err := fn(row); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return &SqlError{Stmt: sqlStr, Err: err}
	}
	return nil
}

// Tx runs fn inside a transaction, rolling back if fn returns an error.
// Statements inside fn see the engine's errors wrapped as SqlError.
func (s *Session) Tx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	if s.db == nil {
		return fmt.Errorf("no database open")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return &SqlError{Err: err}
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return &SqlError{Err: err}
	}
	return nil
}

// normalize converts TEXT values the driver returned as []byte into string,
// leaving BLOB columns alone.
func normalize(v any, t *sql.ColumnType) any {
	b, ok := v.([]byte)
	if !ok {
		return v
	}
	switch t.DatabaseTypeName() {
	case "BLOB", "":
		return b
	default:
		return string(b)
	}
}
