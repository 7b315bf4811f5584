package schema

import (
	"fmt"
	"strings"

	"github.com/dbdeck/dbdeck/internal/catalog"
)

// ParseColumnSpec parses one column definition of the form
//
//	name TYPE [pk] [autoincrement] [notnull] [unique] [ref=table.column]
//
// e.g. "id INTEGER pk autoincrement" or "owner INTEGER ref=users.id".
func ParseColumnSpec(spec string) (catalog.Column, error) {
	fields := strings.Fields(spec)
	if len(fields) < 2 {
		return catalog.Column{}, fmt.Errorf("column spec %q: want at least \"name TYPE\"", spec)
	}

	col := catalog.Column{Name: fields[0], Type: strings.ToUpper(fields[1])}
	for _, opt := range fields[2:] {
		switch {
		case strings.EqualFold(opt, "pk"):
			col.PrimaryKey = true
		case strings.EqualFold(opt, "autoincrement"):
			col.AutoIncrement = true
		case strings.EqualFold(opt, "notnull"):
			col.NotNull = true
		case strings.EqualFold(opt, "unique"):
			col.Unique = true
		case strings.HasPrefix(strings.ToLower(opt), "ref="):
			target := opt[len("ref="):]
			table, column, ok := strings.Cut(target, ".")
			if !ok || table == "" || column == "" {
				return catalog.Column{}, fmt.Errorf("column spec %q: ref wants table.column, got %q", spec, target)
			}
			col.RefTable = table
			col.RefColumn = column
		default:
			return catalog.Column{}, fmt.Errorf("column spec %q: unknown option %q", spec, opt)
		}
	}

	if col.AutoIncrement && (!col.PrimaryKey || !strings.EqualFold(col.Type, "INTEGER")) {
		return catalog.Column{}, fmt.Errorf("column spec %q: autoincrement requires an INTEGER primary key", spec)
	}
	return col, nil
}

// ParseColumnSpecs parses a list of specs, requiring at least one column.
func ParseColumnSpecs(specs []string) ([]catalog.Column, error) {
	if len(specs) == 0 {
		return nil, fmt.Errorf("no columns given")
	}
	cols := make([]catalog.Column, 0, len(specs))
	for _, s := range specs {
		col, err := ParseColumnSpec(s)
		if err != nil {
			return nil, err
		}
		cols = append(cols, col)
	}
	return cols, nil
}
