package catalog

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/session"
)

func newTestCatalog(t *testing.T) (*session.Session, *Catalog) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	s := session.New(nil)
	s.OpenDB(db, ":memory:")
	t.Cleanup(func() { _ = s.Close() })
	return s, New(s)
}

func mustExec(t *testing.T, s *session.Session, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		_, err := s.Exec(context.Background(), stmt)
		require.NoError(t, err)
	}
}

func TestListTables(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	tables, err := cat.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	mustExec(t, s,
		`CREATE TABLE users (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE orders (id INTEGER PRIMARY KEY)`,
	)

	tables, err = cat.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, tables, "enumeration order, not sorted")
}

func TestListTablesSkipsInternal(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	// AUTOINCREMENT creates the sqlite_sequence bookkeeping table.
	mustExec(t, s,
		`CREATE TABLE items (id INTEGER PRIMARY KEY AUTOINCREMENT, name TEXT)`,
		`INSERT INTO items (name) VALUES ('x')`,
	)

	tables, err := cat.ListTables(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"items"}, tables)
}

func TestDescribeTable(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s,
		`CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			email TEXT NOT NULL UNIQUE,
			age INTEGER,
			bio BLOB
		)`,
	)

	tbl, err := cat.DescribeTable(ctx, "users")
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 4)

	id := tbl.Columns[0]
	assert.Equal(t, "id", id.Name)
	assert.Equal(t, "INTEGER", id.Type)
	assert.True(t, id.PrimaryKey)
	assert.True(t, id.AutoIncrement)

	email := tbl.Columns[1]
	assert.True(t, email.NotNull)
	assert.True(t, email.Unique)
	assert.False(t, email.PrimaryKey)

	age := tbl.Columns[2]
	assert.False(t, age.NotNull)
	assert.False(t, age.Unique)

	assert.Equal(t, []string{"id"}, tbl.PrimaryKey())
}

func TestDescribeTableForeignKeys(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s,
		`CREATE TABLE users (id INTEGER PRIMARY KEY)`,
		`CREATE TABLE orders (
			id INTEGER PRIMARY KEY,
			user_id INTEGER,
			FOREIGN KEY (user_id) REFERENCES users(id)
		)`,
	)

	tbl, err := cat.DescribeTable(ctx, "orders")
	require.NoError(t, err)

	userID, ok := tbl.Column("user_id")
	require.True(t, ok)
	assert.Equal(t, "users", userID.RefTable)
	assert.Equal(t, "id", userID.RefColumn)
}

func TestDescribeTableCompositePK(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s,
		`CREATE TABLE membership (
			user_id INTEGER,
			group_id INTEGER,
			PRIMARY KEY (user_id, group_id)
		)`,
	)

	tbl, err := cat.DescribeTable(ctx, "membership")
	require.NoError(t, err)
	assert.Equal(t, []string{"user_id", "group_id"}, tbl.PrimaryKey())
	for _, col := range tbl.Columns {
		assert.False(t, col.AutoIncrement)
	}
}

func TestDescribeTableNotFound(t *testing.T) {
	_, cat := newTestCatalog(t)

	_, err := cat.DescribeTable(context.Background(), "ghosts")
	var nf *session.NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "table", nf.Kind)
	assert.Equal(t, "ghosts", nf.Name)
}

func TestDescribeTableAfterDrop(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s, `CREATE TABLE temp_data (id INTEGER PRIMARY KEY)`)
	_, err := cat.DescribeTable(ctx, "temp_data")
	require.NoError(t, err)

	mustExec(t, s, `DROP TABLE temp_data`)

	tables, err := cat.ListTables(ctx)
	require.NoError(t, err)
	assert.NotContains(t, tables, "temp_data")

	_, err = cat.DescribeTable(ctx, "temp_data")
	var nf *session.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestTableSQL(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s, `CREATE TABLE notes (id INTEGER PRIMARY KEY, body TEXT)`)

	ddl, err := cat.TableSQL(ctx, "notes")
	require.NoError(t, err)
	assert.Contains(t, ddl, "CREATE TABLE notes")

	_, err = cat.TableSQL(ctx, "missing")
	var nf *session.NotFoundError
	assert.ErrorAs(t, err, &nf)
}

func TestKeyColumns(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s,
		`CREATE TABLE users (id INTEGER PRIMARY KEY, email TEXT UNIQUE, name TEXT)`,
	)

	keys, err := cat.KeyColumns(ctx, "users")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"id", "email"}, keys)
}

func TestDistinctValues(t *testing.T) {
	ctx := context.Background()
	s, cat := newTestCatalog(t)

	mustExec(t, s,
		`CREATE TABLE tags (name TEXT)`,
		`INSERT INTO tags (name) VALUES ('b'), ('a'), ('b'), ('c')`,
	)

	values, err := cat.DistinctValues(ctx, "tags", "name")
	require.NoError(t, err)
	assert.Equal(t, []any{"a", "b", "c"}, values)
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"users", `"users"`},
		{`weird"name`, `"weird""name"`},
		{"with space", `"with space"`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quote(tt.in))
	}
}
