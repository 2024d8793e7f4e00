package sqlite

import (
	"fmt"
	"strings"

	"merchantetl/internal/schema"
)

// sqlType maps a logical column type onto a SQLite column type. Dates and
// timestamps are ISO-8601 text; money and rates take NUMERIC affinity.
func sqlType(kind string) string {
	switch kind {
	case schema.TypeBigint:
		return "INTEGER"
	case schema.TypeDecimal, schema.TypeRate:
		return "NUMERIC"
	case schema.TypeDate, schema.TypeTimestamp:
		return "TEXT"
	default:
		return "TEXT"
	}
}

// createTableSQL renders CREATE TABLE IF NOT EXISTS for one table
// definition. CURRENT_TIMESTAMP is UTC in SQLite, which is exactly what the
// audit columns want.
func createTableSQL(t schema.TableDef) string {
	lines := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(sqlIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(sqlType(c.Type))
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.DefaultNowUTC {
			sb.WriteString(" DEFAULT CURRENT_TIMESTAMP")
		}
		lines = append(lines, sb.String())
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(mapIdent(t.PrimaryKey), ", ")))
	}
	if fk := t.ForeignKey; fk != nil {
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(mapIdent(fk.Columns), ", "),
			sqlIdent(fk.RefTable),
			strings.Join(mapIdent(fk.RefColumns), ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		sqlIdent(t.Name), strings.Join(lines, ",\n  "))
}
