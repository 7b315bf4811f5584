// Package editor translates loosely-typed field input into parameterized
// INSERT, UPDATE and DELETE statements. Validation happens against the
// catalog's column descriptors before any SQL is built, so bad input never
// reaches the engine.
package editor

import (
	"context"
	"fmt"
	"strings"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
)

// Editor builds and executes row mutations through a session.
type Editor struct {
	sess *session.Session
	cat  *catalog.Catalog
}

// New returns a row editor bound to sess.
func New(sess *session.Session, cat *catalog.Catalog) *Editor {
	return &Editor{sess: sess, cat: cat}
}

// ParseRow validates raw field input against the table descriptor and returns
// typed values in column order. Every offending column is collected into a
// single ValidationError.
func ParseRow(tbl *catalog.Table, input map[string]string) ([]string, []any, error) {
	bad := map[string]string{}
	var cols []string
	var vals []any

	for name := range input {
		if _, ok := tbl.Column(name); !ok {
			bad[name] = "no such column"
		}
	}

	for _, col := range tbl.Columns {
		raw, ok := input[col.Name]
		if !ok {
			continue
		}
		v, err := ParseValue(col.Type, raw)
		if err != nil {
			bad[col.Name] = err.Error()
			continue
		}
		if v == nil && col.NotNull && !col.AutoIncrement {
			bad[col.Name] = "NULL not allowed"
			continue
		}
		cols = append(cols, col.Name)
		vals = append(vals, v)
	}

	if len(bad) > 0 {
		return nil, nil, &session.ValidationError{Fields: bad}
	}
	return cols, vals, nil
}

// Insert adds a new row. Columns absent from input take their defaults.
func (e *Editor) Insert(ctx context.Context, table string, input map[string]string) error {
	tbl, err := e.cat.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	cols, vals, err := ParseRow(tbl, input)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return &session.ValidationError{Fields: map[string]string{"row": "no values given"}}
	}

	quoted := make([]string, len(cols))
	marks := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = catalog.Quote(c)
		marks[i] = "?"
	}
	stmt := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		catalog.Quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))

	_, err = e.sess.Exec(ctx, stmt, vals...)
	return err
}

// Update modifies the row identified by key. The key must name every primary
// key column, or "rowid" when the table has none.
func (e *Editor) Update(ctx context.Context, table string, key, input map[string]string) error {
	tbl, err := e.cat.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	cols, vals, err := ParseRow(tbl, input)
	if err != nil {
		return err
	}
	if len(cols) == 0 {
		return &session.ValidationError{Fields: map[string]string{"row": "no values given"}}
	}
	where, keyVals, err := e.rowTarget(ctx, tbl, key)
	if err != nil {
		return err
	}

	set := make([]string, len(cols))
	for i, c := range cols {
		set[i] = catalog.Quote(c) + " = ?"
	}
	stmt := fmt.Sprintf(`UPDATE %s SET %s WHERE %s`,
		catalog.Quote(table), strings.Join(set, ", "), where)

	n, err := e.sess.Exec(ctx, stmt, append(vals, keyVals...)...)
	if err != nil {
		return err
	}
	if n == 0 {
		return &session.NotFoundError{Kind: "row", Name: describeKey(key)}
	}
	return nil
}

// Delete removes the row identified by key.
func (e *Editor) Delete(ctx context.Context, table string, key map[string]string) error {
	tbl, err := e.cat.DescribeTable(ctx, table)
	if err != nil {
		return err
	}
	where, keyVals, err := e.rowTarget(ctx, tbl, key)
	if err != nil {
		return err
	}

	stmt := fmt.Sprintf(`DELETE FROM %s WHERE %s`, catalog.Quote(table), where)
	n, err := e.sess.Exec(ctx, stmt, keyVals...)
	if err != nil {
		return err
	}
	if n == 0 {
		return &session.NotFoundError{Kind: "row", Name: describeKey(key)}
	}
	return nil
}

// rowTarget builds the WHERE clause that pins down exactly one row. Tables
// without a primary key fall back to rowid; WITHOUT ROWID tables with no
// primary key cannot exist, but a rowid key is still rejected if the table
// was created WITHOUT ROWID and the caller passed one anyway.
func (e *Editor) rowTarget(ctx context.Context, tbl *catalog.Table, key map[string]string) (string, []any, error) {
	pk := tbl.PrimaryKey()

	if len(pk) == 0 {
		raw, ok := key["rowid"]
		if !ok {
			ddl, err := e.cat.TableSQL(ctx, tbl.Name)
			if err != nil {
				return "", nil, err
			}
			if strings.Contains(strings.ToUpper(ddl), "WITHOUT ROWID") {
				return "", nil, &session.AmbiguousRowError{Table: tbl.Name}
			}
			return "", nil, &session.ValidationError{Fields: map[string]string{
				"rowid": "table has no primary key; identify the row by rowid",
			}}
		}
		v, err := ParseValue("INTEGER", raw)
		if err != nil || v == nil {
			return "", nil, &session.ValidationError{Fields: map[string]string{"rowid": "must be an integer"}}
		}
		return "rowid = ?", []any{v}, nil
	}

	bad := map[string]string{}
	var clauses []string
	var vals []any
	for _, name := range pk {
		raw, ok := key[name]
		if !ok {
			bad[name] = "primary key value required"
			continue
		}
		col, _ := tbl.Column(name)
		v, err := ParseValue(col.Type, raw)
		if err != nil {
			bad[name] = err.Error()
			continue
		}
		clauses = append(clauses, catalog.Quote(name)+" = ?")
		vals = append(vals, v)
	}
	if len(bad) > 0 {
		return "", nil, &session.ValidationError{Fields: bad}
	}
	return strings.Join(clauses, " AND "), vals, nil
}

func describeKey(key map[string]string) string {
	var parts []string
	for k, v := range key {
		parts = append(parts, k+"="+v)
	}
	return strings.Join(parts, ",")
}
