package schema

// Logical column types. Each sink backend maps them to its own SQL types at
// render time.
const (
	TypeText      = "text"
	TypeDate      = "date"
	TypeBigint    = "bigint"
	TypeDecimal   = "decimal"   // money amount, 2 dp
	TypeRate      = "rate"      // ratio in [0,1], 4 dp
	TypeTimestamp = "timestamp" // UTC instant
)

// ColumnDef describes a single column in a warehouse table. Quoting and type
// mapping happen at render time in the backend packages.
type ColumnDef struct {
	Name    string
	Type    string
	NotNull bool

	// DefaultNowUTC marks audit columns that default to the load instant in
	// UTC; each backend renders its own expression for it.
	DefaultNowUTC bool
}

// ForeignKeyDef declares a reference from one table to another.
type ForeignKeyDef struct {
	Columns    []string
	RefTable   string
	RefColumns []string
}

// TableDef is an ordered column list plus key metadata for one table.
type TableDef struct {
	Name       string
	Columns    []ColumnDef
	PrimaryKey []string
	ForeignKey *ForeignKeyDef
}

// DimMerchants is the merchant dimension table.
func DimMerchants() TableDef {
	return TableDef{
		Name: "dim_merchants",
		Columns: []ColumnDef{
			{Name: "merchant_id", Type: TypeText, NotNull: true},
			{Name: "merchant_name", Type: TypeText, NotNull: true},
			{Name: "category", Type: TypeText},
			{Name: "city", Type: TypeText},
			{Name: "state", Type: TypeText},
			{Name: "created_at_utc", Type: TypeTimestamp, NotNull: true, DefaultNowUTC: true},
		},
		PrimaryKey: []string{"merchant_id"},
	}
}

// FactDailyMerchantMetrics is the daily per-merchant metrics fact table.
func FactDailyMerchantMetrics() TableDef {
	return TableDef{
		Name: "fact_daily_merchant_metrics",
		Columns: []ColumnDef{
			{Name: "metric_date", Type: TypeDate, NotNull: true},
			{Name: "merchant_id", Type: TypeText, NotNull: true},
			{Name: "txn_count", Type: TypeBigint, NotNull: true},
			{Name: "approved_txn_count", Type: TypeBigint, NotNull: true},
			{Name: "declined_txn_count", Type: TypeBigint, NotNull: true},
			{Name: "gross_amount", Type: TypeDecimal, NotNull: true},
			{Name: "approved_amount", Type: TypeDecimal, NotNull: true},
			{Name: "approval_rate", Type: TypeRate, NotNull: true},
			{Name: "avg_ticket", Type: TypeDecimal, NotNull: true},
			{Name: "loaded_at_utc", Type: TypeTimestamp, NotNull: true, DefaultNowUTC: true},
		},
		PrimaryKey: []string{"metric_date", "merchant_id"},
		ForeignKey: &ForeignKeyDef{
			Columns:    []string{"merchant_id"},
			RefTable:   "dim_merchants",
			RefColumns: []string{"merchant_id"},
		},
	}
}

// MerchantColumns is the stage and merge column order for the dimension,
// excluding the audit timestamp.
func MerchantColumns() []string {
	return []string{"merchant_id", "merchant_name", "category", "city", "state"}
}

// FactColumns is the fixed stage and merge column order for the fact table,
// excluding the audit timestamp. Loads must present columns in exactly this
// order.
func FactColumns() []string {
	return []string{
		"metric_date", "merchant_id",
		"txn_count", "approved_txn_count", "declined_txn_count",
		"gross_amount", "approved_amount",
		"approval_rate", "avg_ticket",
	}
}
