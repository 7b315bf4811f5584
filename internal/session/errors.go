package session

import (
	"fmt"
	"strings"
)

// FileError reports a database file that could not be opened, created or
// removed, or a path that is not a valid SQLite database.
type FileError struct {
	Path string
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("database file %s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// SqlError reports a statement rejected by the engine: bad syntax, a
// constraint violation or a type mismatch. The engine's own message is
// preserved in Err.
type SqlError struct {
	Stmt string
	Err  error
}

func (e *SqlError) Error() string {
	return fmt.Sprintf("sql error: %v", e.Err)
}

func (e *SqlError) Unwrap() error { return e.Err }

// ValidationError reports user input that failed column-type checks before
// reaching the engine. Fields maps column name to the reason it was rejected.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	cols := make([]string, 0, len(e.Fields))
	for col, reason := range e.Fields {
		cols = append(cols, fmt.Sprintf("%s (%s)", col, reason))
	}
	return "invalid input: " + strings.Join(cols, ", ")
}

// NotFoundError reports a table, row or database that no longer exists.
type NotFoundError struct {
	Kind string // "table", "row", "database"
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Kind, e.Name)
}

// AmbiguousRowError reports an update or delete whose target row cannot be
// uniquely identified because the table has no primary key and no rowid.
type AmbiguousRowError struct {
	Table string
}

func (e *AmbiguousRowError) Error() string {
	return fmt.Sprintf("table %s has no primary key or rowid; cannot identify a single row", e.Table)
}
