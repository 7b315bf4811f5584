package schema

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
	"github.com/dbdeck/dbdeck/internal/testutil"
)

func newTestEditor(t *testing.T) (*session.Session, *catalog.Catalog, *Editor) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	s := session.New(testutil.NewTestLogger(t))
	s.OpenDB(db, ":memory:")
	t.Cleanup(func() { _ = s.Close() })

	cat := catalog.New(s)
	return s, cat, New(s, cat, testutil.NewTestLogger(t))
}

func TestCreateTable(t *testing.T) {
	ctx := context.Background()
	_, cat, ed := newTestEditor(t)

	cols := []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true, AutoIncrement: true},
		{Name: "name", Type: "TEXT", NotNull: true},
		{Name: "email", Type: "TEXT", Unique: true},
	}
	require.NoError(t, ed.CreateTable(ctx, "users", cols))

	tbl, err := cat.DescribeTable(ctx, "users")
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 3)
	assert.True(t, tbl.Columns[0].AutoIncrement)
	assert.True(t, tbl.Columns[1].NotNull)
	assert.True(t, tbl.Columns[2].Unique)
}

func TestCreateTableValidation(t *testing.T) {
	ctx := context.Background()
	_, _, ed := newTestEditor(t)

	var valErr *session.ValidationError
	err := ed.CreateTable(ctx, "  ", []catalog.Column{{Name: "id", Type: "INTEGER"}})
	require.ErrorAs(t, err, &valErr)

	err = ed.CreateTable(ctx, "empty", nil)
	require.ErrorAs(t, err, &valErr)
}

func TestDropTable(t *testing.T) {
	ctx := context.Background()
	_, cat, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "t", []catalog.Column{{Name: "id", Type: "INTEGER"}}))
	require.NoError(t, ed.DropTable(ctx, "t"))

	tables, err := cat.ListTables(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)

	var nf *session.NotFoundError
	assert.ErrorAs(t, ed.DropTable(ctx, "t"), &nf)
}

func TestAddColumn(t *testing.T) {
	ctx := context.Background()
	_, cat, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "t", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
	}))
	require.NoError(t, ed.AddColumn(ctx, "t", catalog.Column{Name: "note", Type: "TEXT"}))

	tbl, err := cat.DescribeTable(ctx, "t")
	require.NoError(t, err)
	_, ok := tbl.Column("note")
	assert.True(t, ok)

	var valErr *session.ValidationError
	err = ed.AddColumn(ctx, "t", catalog.Column{Name: "k", Type: "INTEGER", PrimaryKey: true})
	assert.ErrorAs(t, err, &valErr)
}

func TestDropColumnPreservesData(t *testing.T) {
	ctx := context.Background()
	s, cat, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "people", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "name", Type: "TEXT"},
		{Name: "shoe_size", Type: "INTEGER"},
	}))
	_, err := s.Exec(ctx, `INSERT INTO people (id, name, shoe_size) VALUES (1, 'Ada', 38), (2, 'Lin', 43)`)
	require.NoError(t, err)

	require.NoError(t, ed.DropColumn(ctx, "people", "shoe_size"))

	tbl, err := cat.DescribeTable(ctx, "people")
	require.NoError(t, err)
	require.Len(t, tbl.Columns, 2)

	res, err := s.Query(ctx, `SELECT id, name FROM people ORDER BY id`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, "Ada", res.Rows[0]["name"])
	assert.Equal(t, "Lin", res.Rows[1]["name"])
}

func TestDropColumnRefusals(t *testing.T) {
	ctx := context.Background()
	_, _, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "users", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "name", Type: "TEXT"},
	}))
	require.NoError(t, ed.CreateTable(ctx, "orders", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "user_id", Type: "INTEGER", RefTable: "users", RefColumn: "id"},
	}))
	require.NoError(t, ed.CreateTable(ctx, "single", []catalog.Column{
		{Name: "only", Type: "TEXT"},
	}))

	var valErr *session.ValidationError
	assert.ErrorAs(t, ed.DropColumn(ctx, "users", "id"), &valErr, "primary key column")
	assert.ErrorAs(t, ed.DropColumn(ctx, "users", "id"), &valErr)
	assert.ErrorAs(t, ed.DropColumn(ctx, "single", "only"), &valErr, "last column")

	// id is referenced by orders.user_id: the name column can go, id cannot.
	err := ed.DropColumn(ctx, "users", "name")
	assert.NoError(t, err)

	var nf *session.NotFoundError
	assert.ErrorAs(t, ed.DropColumn(ctx, "users", "ghost"), &nf)
}

func TestDropColumnReferencedByForeignKey(t *testing.T) {
	ctx := context.Background()
	_, _, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "users", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "code", Type: "TEXT", Unique: true},
	}))
	require.NoError(t, ed.CreateTable(ctx, "badges", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "user_code", Type: "TEXT", RefTable: "users", RefColumn: "code"},
	}))

	var valErr *session.ValidationError
	err := ed.DropColumn(ctx, "users", "code")
	require.ErrorAs(t, err, &valErr)
	assert.Contains(t, err.Error(), "badges")
}

func TestAddForeignKey(t *testing.T) {
	ctx := context.Background()
	s, cat, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "teams", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
	}))
	require.NoError(t, ed.CreateTable(ctx, "players", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "team_id", Type: "INTEGER"},
	}))
	_, err := s.Exec(ctx, `INSERT INTO teams (id) VALUES (1)`)
	require.NoError(t, err)
	_, err = s.Exec(ctx, `INSERT INTO players (id, team_id) VALUES (1, 1)`)
	require.NoError(t, err)

	require.NoError(t, ed.AddForeignKey(ctx, "players", "team_id", "teams", "id"))

	// Existing data survives the recreate.
	res, err := s.Query(ctx, `SELECT team_id FROM players`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)

	// The constraint is live: an orphan insert now fails.
	_, err = s.Exec(ctx, `INSERT INTO players (id, team_id) VALUES (2, 99)`)
	var sqlErr *session.SqlError
	assert.ErrorAs(t, err, &sqlErr)

	tbl, err := cat.DescribeTable(ctx, "players")
	require.NoError(t, err)
	teamID, ok := tbl.Column("team_id")
	require.True(t, ok)
	assert.Equal(t, "teams", teamID.RefTable)
}

func TestAddForeignKeyInvalidTarget(t *testing.T) {
	ctx := context.Background()
	_, _, ed := newTestEditor(t)

	require.NoError(t, ed.CreateTable(ctx, "users", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "name", Type: "TEXT"},
	}))
	require.NoError(t, ed.CreateTable(ctx, "pets", []catalog.Column{
		{Name: "id", Type: "INTEGER", PrimaryKey: true},
		{Name: "owner_name", Type: "TEXT"},
	}))

	// users.name is neither a primary key nor unique.
	var valErr *session.ValidationError
	err := ed.AddForeignKey(ctx, "pets", "owner_name", "users", "name")
	require.ErrorAs(t, err, &valErr)
}
