package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCmd executes the CLI with args against an isolated workspace and returns
// combined output.
func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("DBDECK_DATA_DIR", filepath.Join(dir, "databases"))
	return dir
}

func TestDatabaseLifecycle(t *testing.T) {
	isolate(t)

	out, err := runCmd(t, "db", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No databases")

	out, err = runCmd(t, "db", "create", "shop")
	require.NoError(t, err)
	assert.Contains(t, out, `Database "shop" created`)

	out, err = runCmd(t, "db", "list")
	require.NoError(t, err)
	assert.Equal(t, "shop\n", out)

	_, err = runCmd(t, "db", "delete", "shop")
	require.NoError(t, err)

	_, err = runCmd(t, "db", "delete", "shop")
	require.Error(t, err)
}

func TestTableAndRowWorkflow(t *testing.T) {
	dir := isolate(t)

	_, err := runCmd(t, "db", "create", "shop")
	require.NoError(t, err)

	_, err = runCmd(t, "table", "create", "users", "--db", "shop",
		"-c", "id INTEGER pk autoincrement",
		"-c", "name TEXT notnull",
		"-c", "age INTEGER")
	require.NoError(t, err)

	out, err := runCmd(t, "table", "list", "--db", "shop")
	require.NoError(t, err)
	assert.Equal(t, "users\n", out)

	_, err = runCmd(t, "row", "insert", "users", "--db", "shop",
		"-s", "name=Alice", "-s", "age=30")
	require.NoError(t, err)
	_, err = runCmd(t, "row", "insert", "users", "--db", "shop",
		"-s", "name=Bob", "-s", "age=")
	require.NoError(t, err)

	out, err = runCmd(t, "query", "--db", "shop", "-o", "csv",
		"SELECT id, name, age FROM users ORDER BY id")
	require.NoError(t, err)
	assert.Equal(t, "id,name,age\n1,Alice,30\n2,Bob,\n", out)

	_, err = runCmd(t, "row", "update", "users", "--db", "shop",
		"-k", "id=2", "-s", "age=25")
	require.NoError(t, err)
	_, err = runCmd(t, "row", "delete", "users", "--db", "shop", "-k", "id=1")
	require.NoError(t, err)

	out, err = runCmd(t, "query", "--db", "shop", "-o", "csv",
		"SELECT name, age FROM users")
	require.NoError(t, err)
	assert.Equal(t, "name,age\nBob,25\n", out)

	target := filepath.Join(dir, "users.csv")
	_, err = runCmd(t, "export", "csv", "users", "--db", "shop", "-f", target)
	require.NoError(t, err)
	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "id,name,age\n2,Bob,25\n", string(data))
}

func TestBadInputFails(t *testing.T) {
	isolate(t)

	_, err := runCmd(t, "db", "create", "shop")
	require.NoError(t, err)
	_, err = runCmd(t, "table", "create", "users", "--db", "shop",
		"-c", "id INTEGER pk", "-c", "age INTEGER")
	require.NoError(t, err)

	// Type mismatch is caught before the statement is built.
	_, err = runCmd(t, "row", "insert", "users", "--db", "shop", "-s", "age=abc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "age")

	// Opening a database that does not exist fails cleanly.
	_, err = runCmd(t, "table", "list", "--db", "ghost")
	require.Error(t, err)
}

func TestConfigFileDataDir(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	data := filepath.Join(dir, "elsewhere")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "dbdeck.yaml"),
		[]byte("data_dir: "+data+"\n"), 0o644))

	_, err := runCmd(t, "db", "create", "fromfile")
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(data, "fromfile.db"))
	assert.NoError(t, err)
}
