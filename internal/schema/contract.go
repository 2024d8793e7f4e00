package schema

// Field describes one input column for validation purposes.
type Field struct {
	// Name is the canonical column name after header canonicalization.
	Name string

	// Type is one of "text", "decimal", "timestamp".
	Type string

	// Required rejects the row when the value is missing or blank, and the
	// whole input when the column is absent from the header.
	Required bool

	// Enum, when non-empty, lists the only values the field may carry.
	Enum []string

	// Positive applies to decimal fields: the parsed value must be > 0.
	Positive bool
}

// Contract describes the columns one input file must provide.
type Contract struct {
	Name   string
	Fields []Field
}

// RequiredColumns returns the names of required fields in declaration order.
func (c Contract) RequiredColumns() []string {
	var out []string
	for _, f := range c.Fields {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}

// MissingColumns returns the required columns absent from header, in
// declaration order. An empty result means the header satisfies the
// contract.
func (c Contract) MissingColumns(header []string) []string {
	present := make(map[string]struct{}, len(header))
	for _, h := range header {
		present[h] = struct{}{}
	}
	var missing []string
	for _, f := range c.Fields {
		if !f.Required {
			continue
		}
		if _, ok := present[f.Name]; !ok {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// MerchantsContract is the input contract for the merchant file.
func MerchantsContract() Contract {
	return Contract{
		Name: "merchants",
		Fields: []Field{
			{Name: "merchant_id", Type: "text", Required: true},
			{Name: "merchant_name", Type: "text", Required: true},
			{Name: "category", Type: "text"},
			{Name: "city", Type: "text"},
			{Name: "state", Type: "text"},
		},
	}
}

// TransactionsContract is the input contract for the transaction file.
func TransactionsContract() Contract {
	return Contract{
		Name: "transactions",
		Fields: []Field{
			{Name: "transaction_id", Type: "text", Required: true},
			{Name: "merchant_id", Type: "text", Required: true},
			{Name: "txn_ts_utc", Type: "timestamp", Required: true},
			{Name: "amount", Type: "decimal", Required: true, Positive: true},
			{Name: "status", Type: "text", Required: true, Enum: []string{StatusApproved, StatusDeclined}},
			{Name: "payment_method", Type: "text"},
		},
	}
}
