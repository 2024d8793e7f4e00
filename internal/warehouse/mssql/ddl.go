package mssql

import (
	"fmt"
	"strings"

	"merchantetl/internal/schema"
)

// sqlType maps a logical column type onto a SQL Server column type. Text
// stays at NVARCHAR(255) rather than MAX because key columns must be
// indexable.
func sqlType(kind string) string {
	switch kind {
	case schema.TypeDate:
		return "DATE"
	case schema.TypeBigint:
		return "BIGINT"
	case schema.TypeDecimal:
		return "DECIMAL(14,2)"
	case schema.TypeRate:
		return "DECIMAL(5,4)"
	case schema.TypeTimestamp:
		return "DATETIME2"
	default:
		return "NVARCHAR(255)"
	}
}

// createTableSQL renders a guarded CREATE TABLE for one table definition.
// T-SQL has no IF NOT EXISTS on CREATE TABLE, so the statement checks
// OBJECT_ID first.
func createTableSQL(t schema.TableDef) string {
	lines := make([]string, 0, len(t.Columns)+2)
	for _, c := range t.Columns {
		var sb strings.Builder
		sb.WriteString(msIdent(c.Name))
		sb.WriteByte(' ')
		sb.WriteString(sqlType(c.Type))
		if c.NotNull {
			sb.WriteString(" NOT NULL")
		}
		if c.DefaultNowUTC {
			sb.WriteString(" DEFAULT SYSUTCDATETIME()")
		}
		lines = append(lines, sb.String())
	}
	if len(t.PrimaryKey) > 0 {
		lines = append(lines, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(mapIdent(t.PrimaryKey), ", ")))
	}
	if fk := t.ForeignKey; fk != nil {
		lines = append(lines, fmt.Sprintf("FOREIGN KEY (%s) REFERENCES %s (%s)",
			strings.Join(mapIdent(fk.Columns), ", "),
			msIdent(fk.RefTable),
			strings.Join(mapIdent(fk.RefColumns), ", ")))
	}
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nCREATE TABLE %s (\n  %s\n);",
		t.Name, msIdent(t.Name), strings.Join(lines, ",\n  "))
}
