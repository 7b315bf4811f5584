package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/session"
)

func newTestWorkspace(t *testing.T) *Workspace {
	t.Helper()
	w, err := New(filepath.Join(t.TempDir(), "databases"))
	require.NoError(t, err)
	return w
}

func TestNewCreatesRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b", "databases")
	w, err := New(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, w.Root())

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
}

func TestCreateListDelete(t *testing.T) {
	w := newTestWorkspace(t)

	names, err := w.List()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, w.Create("inventory"))
	require.NoError(t, w.Create("accounts"))

	names, err = w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts", "inventory"}, names)

	require.NoError(t, w.Delete("inventory"))

	names, err = w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"accounts"}, names)
}

func TestCreateWritesOpenableDatabase(t *testing.T) {
	w := newTestWorkspace(t)
	require.NoError(t, w.Create("fresh"))

	s := session.New(nil)
	require.NoError(t, s.Open(context.Background(), w.Path("fresh")))
	defer s.Close()

	_, err := s.Exec(context.Background(), `CREATE TABLE t (id INTEGER PRIMARY KEY)`)
	assert.NoError(t, err)
}

func TestCreateDuplicate(t *testing.T) {
	w := newTestWorkspace(t)
	require.NoError(t, w.Create("dup"))

	var fe *session.FileError
	err := w.Create("dup")
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, w.Path("dup"), fe.Path)
}

func TestCreateEmptyName(t *testing.T) {
	w := newTestWorkspace(t)

	var valErr *session.ValidationError
	assert.ErrorAs(t, w.Create("  "), &valErr)
}

func TestDeleteMissing(t *testing.T) {
	w := newTestWorkspace(t)

	var nf *session.NotFoundError
	err := w.Delete("ghost")
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "database", nf.Kind)
	assert.Equal(t, "ghost", nf.Name)
}

func TestListSkipsForeignFiles(t *testing.T) {
	w := newTestWorkspace(t)
	require.NoError(t, w.Create("real"))
	require.NoError(t, os.WriteFile(filepath.Join(w.Root(), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(w.Root(), "backup.db"), 0o755))

	names, err := w.List()
	require.NoError(t, err)
	assert.Equal(t, []string{"real"}, names)
}

func TestDefaultRootHonorsXDG(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/tmp/xdg")
	assert.Equal(t, filepath.Join("/tmp/xdg", "dbdeck", "databases"), DefaultRoot())
}
