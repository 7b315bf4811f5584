package schema

import (
	"fmt"
	"strings"

	"github.com/dbdeck/dbdeck/internal/catalog"
)

// BuildCreateTable generates the CREATE TABLE statement for a set of column
// definitions. A single primary key is declared inline (with AUTOINCREMENT
// when requested); multiple primary key columns become a composite
// PRIMARY KEY clause. Foreign key clauses follow the column list.
func BuildCreateTable(table string, cols []catalog.Column) string {
	var defs []string
	var pk []string
	var fks []string

	single := singlePK(cols)

	for _, col := range cols {
		parts := []string{catalog.Quote(col.Name), col.Type}
		if col.PrimaryKey && single {
			parts = append(parts, "PRIMARY KEY")
			if col.AutoIncrement {
				parts = append(parts, "AUTOINCREMENT")
			}
		} else if col.PrimaryKey {
			pk = append(pk, catalog.Quote(col.Name))
		}
		if col.NotNull {
			parts = append(parts, "NOT NULL")
		}
		if col.Unique {
			parts = append(parts, "UNIQUE")
		}
		defs = append(defs, strings.Join(parts, " "))

		if col.RefTable != "" && col.RefColumn != "" {
			fks = append(fks, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s(%s)",
				catalog.Quote(col.Name), catalog.Quote(col.RefTable), catalog.Quote(col.RefColumn)))
		}
	}

	if len(pk) > 0 {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pk, ", ")))
	}
	defs = append(defs, fks...)

	return fmt.Sprintf("CREATE TABLE %s (\n  %s\n)", catalog.Quote(table), strings.Join(defs, ",\n  "))
}

func singlePK(cols []catalog.Column) bool {
	n := 0
	for _, c := range cols {
		if c.PrimaryKey {
			n++
		}
	}
	return n == 1
}

// buildColumnDef renders one column definition for ALTER TABLE ADD COLUMN.
// Primary key and foreign key attributes are not representable there.
func buildColumnDef(col catalog.Column) string {
	parts := []string{catalog.Quote(col.Name), col.Type}
	if col.NotNull {
		parts = append(parts, "NOT NULL")
	}
	if col.Unique {
		parts = append(parts, "UNIQUE")
	}
	return strings.Join(parts, " ")
}
