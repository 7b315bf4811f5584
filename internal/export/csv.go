package export

import (
	"context"
	"encoding/csv"
	"encoding/hex"
	"fmt"
	"io"
	"strconv"

	"github.com/dbdeck/dbdeck/internal/catalog"
	"github.com/dbdeck/dbdeck/internal/session"
)

// CSV writes one table as RFC 4180 CSV: a header line of column names, then
// one line per row. NULL becomes an empty field, blobs are hex-encoded.
func (e *Exporter) CSV(ctx context.Context, w io.Writer, table string) error {
	if _, err := e.cat.DescribeTable(ctx, table); err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	var written int64
	var cols []string
	headerDone := false

	stmt := `SELECT * FROM ` + catalog.Quote(table)
	err := e.sess.Stream(ctx, stmt, nil, func(row session.Row) error {
		if !headerDone {
			if err := cw.Write(cols); err != nil {
				return &Error{Table: table, Row: written, Err: err}
			}
			headerDone = true
		}
		record := make([]string, len(cols))
		for i, col := range cols {
			record[i] = csvField(row[col])
		}
		if err := cw.Write(record); err != nil {
			return &Error{Table: table, Row: written, Err: err}
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

	// Empty tables still get their header.
	if !headerDone {
		if err := cw.Write(cols); err != nil {
			return &Error{Table: table, Row: 0, Err: err}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return &Error{Table: table, Row: written, Err: err}
	}
	e.logger.Debug("csv export complete", "table", table, "rows", written)
	return nil
}

// csvField renders one value for a CSV cell. Quoting is the csv writer's job;
// this only turns typed values into text.
func csvField(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case []byte:
		return hex.EncodeToString(x)
	case string:
		return x
	default:
		return fmt.Sprintf("%v", x)
	}
}
