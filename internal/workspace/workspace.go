// Package workspace manages the directory where database files live and the
// default directory for exports. Databases are addressed by name; the .db
// extension and the root directory are implementation details kept here.
package workspace

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/dbdeck/dbdeck/internal/session"
)

// Workspace is rooted at a single databases directory.
type Workspace struct {
	root string
}

// New returns a workspace rooted at dir, creating it if needed.
func New(dir string) (*Workspace, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &session.FileError{Path: dir, Err: err}
	}
	return &Workspace{root: dir}, nil
}

// DefaultRoot returns the per-user databases directory: $XDG_DATA_HOME/dbdeck
// or ~/.local/share/dbdeck, following the platform convention the os package
// encodes in UserConfigDir's sibling.
func DefaultRoot() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "dbdeck", "databases")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", "databases")
	}
	return filepath.Join(home, ".local", "share", "dbdeck", "databases")
}

// DefaultExportDir returns the default destination for CSV and SQL exports,
// creating it on first use.
func DefaultExportDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	dir := filepath.Join(home, "Documents", "dbdeck-exports")
	if _, err := os.Stat(filepath.Join(home, "Documents")); err != nil {
		dir = filepath.Join(home, "dbdeck-exports")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &session.FileError{Path: dir, Err: err}
	}
	return dir, nil
}

// Root returns the databases directory.
func (w *Workspace) Root() string { return w.root }

// Path returns the file path for a database name.
func (w *Workspace) Path(name string) string {
	return filepath.Join(w.root, name+".db")
}

// List returns the database names in the workspace, sorted.
func (w *Workspace) List() ([]string, error) {
	entries, err := os.ReadDir(w.root)
	if err != nil {
		return nil, &session.FileError{Path: w.root, Err: err}
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".db") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".db"))
	}
	sort.Strings(names)
	return names, nil
}

// Create makes a new empty database file. Fails if the name is already taken.
func (w *Workspace) Create(name string) error {
	if strings.TrimSpace(name) == "" {
		return &session.ValidationError{Fields: map[string]string{"name": "cannot be empty"}}
	}
	path := w.Path(name)
	if _, err := os.Stat(path); err == nil {
		return &session.FileError{Path: path, Err: fmt.Errorf("database %q already exists", name)}
	}

	// Opening alone does not write the file; a no-op pragma forces creation
	// so the database shows up in List immediately.
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return &session.FileError{Path: path, Err: err}
	}
	defer db.Close()
	if _, err := db.Exec(`PRAGMA user_version = 0`); err != nil {
		os.Remove(path)
		return &session.FileError{Path: path, Err: err}
	}
	return nil
}

// Delete removes a database file.
func (w *Workspace) Delete(name string) error {
	path := w.Path(name)
	if _, err := os.Stat(path); err != nil {
		return &session.NotFoundError{Kind: "database", Name: name}
	}
	if err := os.Remove(path); err != nil {
		return &session.FileError{Path: path, Err: err}
	}
	return nil
}
