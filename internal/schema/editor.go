// Package schema mutates table structure: creating and dropping tables,
// adding and removing columns, and attaching foreign keys. SQLite's ALTER
// TABLE is limited, so column removal and foreign key addition recreate the
// table under a transaction and copy the data across.
package schema

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
)

// Editor applies schema changes through a session.
type Editor struct {
	sess   *session.Session
	cat    *catalog.Catalog
	logger *slog.Logger
}

// New returns an editor bound to sess.
func New(sess *session.Session, cat *catalog.Catalog, logger *slog.Logger) *Editor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Editor{sess: sess, cat: cat, logger: logger}
}

// CreateTable creates a new table from column definitions.
func (e *Editor) CreateTable(ctx context.Context, table string, cols []catalog.Column) error {
	if strings.TrimSpace(table) == "" {
		return &session.ValidationError{Fields: map[string]string{"table": "name cannot be empty"}}
	}
	if len(cols) == 0 {
		return &session.ValidationError{Fields: map[string]string{"columns": "at least one column required"}}
	}
	ddl := BuildCreateTable(table, cols)
	e.logger.Debug("creating table", "table", table)
	_, err := e.sess.Exec(ctx, ddl)
	return err
}

// DropTable removes a table and its data.
func (e *Editor) DropTable(ctx context.Context, table string) error {
	if _, err := e.cat.DescribeTable(ctx, table); err != nil {
		return err
	}
	_, err := e.sess.Exec(ctx, fmt.Sprintf(`DROP TABLE %s`, catalog.Quote(table)))
	return err
}

// AddColumn appends a column via ALTER TABLE. SQLite rejects NOT NULL columns
// without a default on non-empty tables; that engine error is surfaced as-is.
func (e *Editor) AddColumn(ctx context.Context, table string, col catalog.Column) error {
	if col.PrimaryKey || col.RefTable != "" {
		return &session.ValidationError{Fields: map[string]string{
			col.Name: "primary and foreign keys cannot be added to an existing table with ADD COLUMN",
		}}
	}
	_, err := e.sess.Exec(ctx, fmt.Sprintf(`ALTER TABLE %s ADD COLUMN %s`,
		catalog.Quote(table), buildColumnDef(col)))
	return err
}

// DropColumn removes a column by recreating the table without it. Primary key
// columns and columns referenced by another table's foreign key are refused.
func (e *Editor) DropColumn(ctx context.Context, table, column string) error {
	tbl, err := e.cat.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	if _, ok := tbl.Column(column); !ok {
		return &session.NotFoundError{Kind: "column", Name: column}
	}
	for _, pk := range tbl.PrimaryKey() {
		if pk == column {
			return &session.ValidationError{Fields: map[string]string{
				column: "cannot remove a primary key column",
			}}
		}
	}
	if len(tbl.Columns) == 1 {
		return &session.ValidationError{Fields: map[string]string{
			column: "cannot remove the last column of a table",
		}}
	}
	if ref, err := e.referencedBy(ctx, table, column); err != nil {
		return err
	} else if ref != "" {
		return &session.ValidationError{Fields: map[string]string{
			column: fmt.Sprintf("referenced by a foreign key in table %s", ref),
		}}
	}

	var keep []catalog.Column
	for _, c := range tbl.Columns {
		if c.Name != column {
			keep = append(keep, c)
		}
	}

	return e.recreate(ctx, table, BuildCreateTable(table, keep), columnNames(keep))
}

// AddForeignKey attaches a foreign key to an existing column by splicing the
// constraint into the stored CREATE statement and recreating the table.
func (e *Editor) AddForeignKey(ctx context.Context, table, column, refTable, refColumn string) error {
	tbl, err := e.cat.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	if _, ok := tbl.Column(column); !ok {
		return &session.NotFoundError{Kind: "column", Name: column}
	}
	keys, err := e.cat.KeyColumns(ctx, refTable)
	if err != nil {
		return err
	}
	valid := false
	for _, k := range keys {
		if k == refColumn {
			valid = true
		}
	}
	if !valid {
		return &session.ValidationError{Fields: map[string]string{
			column: fmt.Sprintf("%s.%s is not a primary key or unique column", refTable, refColumn),
		}}
	}

	ddl, err := e.cat.TableSQL(ctx, table)
	if err != nil {
		return err
	}
	i := strings.LastIndex(ddl, ")")
	if i < 0 {
		return fmt.Errorf("unexpected schema for table %s: %q", table, ddl)
	}
	clause := fmt.Sprintf(",\n  FOREIGN KEY (%s) REFERENCES %s(%s)",
		catalog.Quote(column), catalog.Quote(refTable), catalog.Quote(refColumn))
	newDDL := ddl[:i] + clause + ddl[i:]

	return e.recreate(ctx, table, newDDL, columnNames(tbl.Columns))
}

// recreate replaces table with a fresh one built from ddl, copying the named
// columns across. Foreign key enforcement is suspended around the swap; the
// pragma is a no-op inside a transaction, so it brackets one.
func (e *Editor) recreate(ctx context.Context, table, ddl string, cols []string) error {
	tmp := fmt.Sprintf("%s_old_%s", table, uuid.New().String()[:8])
	colList := strings.Join(quoteAll(cols), ", ")

	if _, err := e.sess.Exec(ctx, `PRAGMA foreign_keys = OFF`); err != nil {
		return err
	}
	defer e.sess.Exec(ctx, `PRAGMA foreign_keys = ON`)

	e.logger.Debug("recreating table", "table", table, "temp", tmp)

	return e.sess.Tx(ctx, func(tx *sql.Tx) error {
		steps := []string{
			fmt.Sprintf(`ALTER TABLE %s RENAME TO %s`, catalog.Quote(table), catalog.Quote(tmp)),
			ddl,
			fmt.Sprintf(`INSERT INTO %s (%s) SELECT %s FROM %s`,
				catalog.Quote(table), colList, colList, catalog.Quote(tmp)),
			fmt.Sprintf(`DROP TABLE %s`, catalog.Quote(tmp)),
		}
		for _, stmt := range steps {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return &session.SqlError{Stmt: stmt, Err: err}
			}
		}
		return nil
	})
}

// referencedBy returns the name of a table holding a foreign key that points
// at table.column, or "" when none does.
func (e *Editor) referencedBy(ctx context.Context, table, column string) (string, error) {
	tables, err := e.cat.ListTables(ctx)
	if err != nil {
		return "", err
	}
	for _, other := range tables {
		if other == table {
			continue
		}
		desc, err := e.cat.DescribeTable(ctx, other)
		if err != nil {
			return "", err
		}
		for _, c := range desc.Columns {
			if c.RefTable == table && c.RefColumn == column {
				return other, nil
			}
		}
	}
	return "", nil
}

func columnNames(cols []catalog.Column) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

func quoteAll(names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = catalog.Quote(n)
	}
	return out
}
