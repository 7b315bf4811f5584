package export

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
)

// SQLDump writes the whole database as an SQL script: for each table, in
// enumeration order, the stored CREATE TABLE statement followed by one INSERT
// per row. The script is wrapped in a transaction so replaying it into a
// fresh database is all-or-nothing.
func (e *Exporter) SQLDump(ctx context.Context, w io.Writer) error {
	tables, err := e.cat.ListTables(ctx)
	if err != nil {
		return err
	}

	if _, err := io.WriteString(w, "BEGIN TRANSACTION;\n"); err != nil {
		return &Error{Err: err}
	}

	for _, table := range tables {
		if err := e.dumpTable(ctx, w, table); err != nil {
			return err
		}
	}

	if _, err := io.WriteString(w, "COMMIT;\n"); err != nil {
		return &Error{Err: err}
	}
	e.logger.Debug("sql dump complete", "tables", len(tables))
	return nil
}

func (e *Exporter) dumpTable(ctx context.Context, w io.Writer, table string) error {
	ddl, err := e.cat.TableSQL(ctx, table)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "%s;\n", ddl); err != nil {
		return &Error{Table: table, Err: err}
	}

	var written int64
	var cols []string
	stmt := `SELECT * FROM ` + catalog.Quote(table)
	err = e.sess.Stream(ctx, stmt, nil, func(row session.Row) error {
		values := make([]string, len(cols))
		for i, col := range cols {
			values[i] = Literal(row[col])
		}
		_, werr := fmt.Fprintf(w, "INSERT INTO %s VALUES (%s);\n",
			catalog.Quote(table), strings.Join(values, ", "))
		if werr != nil {
			return &Error{Table: table, Row: written, Err: werr}
		}
		written++
		return nil
	}, &cols)
	if err != nil {
		if _, ok := err.(*Error); ok {
			return err
		}
		return &Error{Table: table, Row: written, Err: err}
	}
	return nil
}

// Literal renders a value as an SQLite literal: NULL, bare numerics, quoted
// text with embedded quotes doubled, or an X'..' blob literal.
func Literal(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return "X'" + hex.EncodeToString(x) + "'"
	case string:
		return "'" + strings.ReplaceAll(x, "'", "''") + "'"
	default:
		return "'" + strings.ReplaceAll(fmt.Sprintf("%v", x), "'", "''") + "'"
	}
}
