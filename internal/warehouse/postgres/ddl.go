package postgres

import (
	"fmt"
	"strings"

	"merchantetl/internal/schema"
)

// sqlType maps a logical column type onto a Postgres column type.
//
//	text      -> TEXT
//	date      -> DATE
//	bigint    -> BIGINT
//	decimal   -> NUMERIC(14,2)
//	rate      -> NUMERIC(5,4)
//	timestamp -> TIMESTAMPTZ
func sqlType(kind string) string {
	switch kind {
	case schema.TypeDate:
		return "DATE"
	case schema.TypeBigint:
		return "BIGINT"
	case schema.TypeDecimal:
		return "NUMERIC(14,2)"
	case schema.TypeRate:
		return "NUMERIC(5,4)"
	case schema.TypeTimestamp:
		return "TIMESTAMPTZ"
	default:
		return "TEXT"
	}
}

// createTableSQL renders CREATE TABLE IF NOT EXISTS for one table
// definition, emitting the primary and foreign keys as table constraints.
func createTableSQL(t schema.TableDef) string {
	lines := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(pgIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(sqlType(c.Type))
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.DefaultNowUTC {
			sb.WriteString(" DEFAULT now()")
		}
		lines = append(lines, sb.String())
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(mapIdent(t.PrimaryKey), ", ")))
	}
	if fk := t.ForeignKey; fk != nil {
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(mapIdent(fk.Columns), ", "),
			pgIdent(fk.RefTable),
			strings.Join(mapIdent(fk.RefColumns), ", ")))
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (\n  %s\n);",
		pgIdent(t.Name), strings.Join(lines, ",\n  "))
}
