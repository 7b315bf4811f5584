// Package catalog provides read-only schema introspection over an open
// session. Descriptors are derived from the engine's own metadata on every
// call and never cached, so they stay correct when the schema changes
// underneath us.
package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbdeck/dbdeck/internal/session"
)

// Column describes one column of a table.
type Column struct {
	Name          string
	Type          string
	NotNull       bool
	PrimaryKey    bool
	Unique        bool
	AutoIncrement bool
	// RefTable and RefColumn are set when the column carries a foreign key.
	RefTable  string
	RefColumn string
}

// Table is an ordered table descriptor.
type Table struct {
	Name    string
	Columns []Column
}

// PrimaryKey returns the names of the primary key columns in order.
func (t *Table) PrimaryKey() []string {
	var pk []string
	for _, c := range t.Columns {
		if c.PrimaryKey {
			pk = append(pk, c.Name)
		}
	}
	return pk
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Catalog reads schema metadata through a session.
type Catalog struct {
	sess *session.Session
}

// New returns a catalog bound to sess.
func New(sess *session.Session) *Catalog {
	return &Catalog{sess: sess}
}

// ListTables returns user table names in the engine's enumeration order,
// skipping SQLite's internal tables.
func (c *Catalog) ListTables(ctx context.Context) ([]string, error) {
	res, err := c.sess.Query(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%'`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	names := make([]string, 0, len(res.Rows))
	for _, row := range res.Rows {
		names = append(names, row["name"].(string))
	}
	return names, nil
}

// DescribeTable returns the full descriptor for one table, combining
// table_info, index_list/index_info and foreign_key_list pragmas with the
// stored CREATE statement (for AUTOINCREMENT, which no pragma exposes).
func (c *Catalog) DescribeTable(ctx context.Context, name string) (*Table, error) {
	res, err := c.sess.Query(ctx, fmt.Sprintf(`PRAGMA table_info(%s)`, Quote(name)))
	if err != nil {
		return nil, err
	}
	if len(res.Rows) == 0 {
		return nil, &session.NotFoundError{Kind: "table", Name: name}
	}

	tbl := &Table{Name: name}
	for _, row := range res.Rows {
		tbl.Columns = append(tbl.Columns, Column{
			Name:       row["name"].(string),
			Type:       asString(row["type"]),
			NotNull:    asInt(row["notnull"]) != 0,
			PrimaryKey: asInt(row["pk"]) != 0,
		})
	}

	if err := c.markUnique(ctx, tbl); err != nil {
		return nil, err
	}
	if err := c.markForeignKeys(ctx, tbl); err != nil {
		return nil, err
	}

	pk := tbl.PrimaryKey()
	if len(pk) == 1 {
		if col, ok := tbl.Column(pk[0]); ok && strings.EqualFold(col.Type, "INTEGER") {
			ddl, err := c.TableSQL(ctx, name)
			if err != nil {
				return nil, err
			}
			col.AutoIncrement = strings.Contains(strings.ToUpper(ddl), "AUTOINCREMENT")
		}
	}

	return tbl, nil
}

// markUnique flags columns covered by explicit single-column UNIQUE indexes.
// Auto-indexes created for primary keys are skipped.
func (c *Catalog) markUnique(ctx context.Context, tbl *Table) error {
	res, err := c.sess.Query(ctx, fmt.Sprintf(`PRAGMA index_list(%s)`, Quote(tbl.Name)))
	if err != nil {
		return err
	}
	for _, idx := range res.Rows {
		if asInt(idx["unique"]) != 1 || asString(idx["origin"]) != "u" {
			continue
		}
		info, err := c.sess.Query(ctx, fmt.Sprintf(`PRAGMA index_info(%s)`, Quote(asString(idx["name"]))))
		if err != nil {
			return err
		}
		if len(info.Rows) != 1 {
			// Multi-column unique constraints are not representable on a
			// single column descriptor.
			continue
		}
		if col, ok := tbl.Column(asString(info.Rows[0]["name"])); ok {
			col.Unique = true
		}
	}
	return nil
}

func (c *Catalog) markForeignKeys(ctx context.Context, tbl *Table) error {
	res, err := c.sess.Query(ctx, fmt.Sprintf(`PRAGMA foreign_key_list(%s)`, Quote(tbl.Name)))
	if err != nil {
		return err
	}
	for _, fk := range res.Rows {
		if col, ok := tbl.Column(asString(fk["from"])); ok {
			col.RefTable = asString(fk["table"])
			col.RefColumn = asString(fk["to"])
		}
	}
	return nil
}

// TableSQL returns the stored CREATE TABLE statement for a table.
func (c *Catalog) TableSQL(ctx context.Context, name string) (string, error) {
	res, err := c.sess.Query(ctx,
		`SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?`, name)
	if err != nil {
		return "", err
	}
	if len(res.Rows) == 0 {
		return "", &session.NotFoundError{Kind: "table", Name: name}
	}
	return asString(res.Rows[0]["sql"]), nil
}

// KeyColumns returns the columns that are primary keys or carry a unique
// constraint. These are the only valid targets for a foreign key reference.
func (c *Catalog) KeyColumns(ctx context.Context, table string) ([]string, error) {
	tbl, err := c.DescribeTable(ctx, table)
	if err != nil {
		return nil, err
	}
	var keys []string
	for _, col := range tbl.Columns {
		if col.PrimaryKey || col.Unique {
			keys = append(keys, col.Name)
		}
	}
	return keys, nil
}

// DistinctValues returns the distinct values of one column, ordered. Used to
// offer valid choices when entering a foreign key value.
func (c *Catalog) DistinctValues(ctx context.Context, table, column string) ([]any, error) {
	res, err := c.sess.Query(ctx, fmt.Sprintf(
		`SELECT DISTINCT %s AS v FROM %s ORDER BY 1`, Quote(column), Quote(table)))
	if err != nil {
		return nil, err
	}
	values := make([]any, 0, len(res.Rows))
	for _, row := range res.Rows {
		values = append(values, row["v"])
	}
	return values, nil
}

// Quote escapes an identifier for use in SQL. Identifiers cannot be bound as
// parameters, so every table or column name interpolated into a statement
// goes through here.
func Quote(ident string) string {
	return `"` + strings.ReplaceAll(ident, `"`, `""`) + `"`
}

func asString(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case []byte:
		return string(s)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", s)
	}
}

func asInt(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case float64:
		return int64(n)
	default:
		return 0
	}
}
