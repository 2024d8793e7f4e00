package mssql

import (
	"strings"
	"testing"

	"merchantetl/internal/schema"
)

// TestSQLType verifies each logical type maps to the intended SQL Server
// type, with indexable text columns.
func TestSQLType(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{schema.TypeText, "NVARCHAR(255)"},
		{schema.TypeDate, "DATE"},
		{schema.TypeBigint, "BIGINT"},
		{schema.TypeDecimal, "DECIMAL(14,2)"},
		{schema.TypeRate, "DECIMAL(5,4)"},
		{schema.TypeTimestamp, "DATETIME2"},
		{"mystery", "NVARCHAR(255)"},
	}
	for _, tt := range tests {
		if got := sqlType(tt.in); got != tt.want {
			t.Fatalf("sqlType(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestCreateTableSQL verifies the OBJECT_ID guard and the rendered
// constraints for both warehouse tables.
func TestCreateTableSQL(t *testing.T) {
	t.Parallel()

	dimSQL := createTableSQL(schema.DimMerchants())
	for _, w := range []string{
		"IF OBJECT_ID(N'dim_merchants', N'U') IS NULL",
		"CREATE TABLE [dim_merchants]",
		"[merchant_id] NVARCHAR(255) NOT NULL",
		"[created_at_utc] DATETIME2 NOT NULL DEFAULT SYSUTCDATETIME()",
		"PRIMARY KEY ([merchant_id])",
	} {
		if !strings.Contains(dimSQL, w) {
			t.Fatalf("dim DDL %q missing %q", dimSQL, w)
		}
	}

	factSQL := createTableSQL(schema.FactDailyMerchantMetrics())
	for _, w := range []string{
		"IF OBJECT_ID(N'fact_daily_merchant_metrics', N'U') IS NULL",
		"[metric_date] DATE NOT NULL",
		"[gross_amount] DECIMAL(14,2) NOT NULL",
		"[approval_rate] DECIMAL(5,4) NOT NULL",
		"PRIMARY KEY ([metric_date], [merchant_id])",
		"FOREIGN KEY ([merchant_id]) REFERENCES [dim_merchants] ([merchant_id])",
	} {
		if !strings.Contains(factSQL, w) {
			t.Fatalf("fact DDL %q missing %q", factSQL, w)
		}
	}
}
