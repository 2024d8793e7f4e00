// Package schema defines the warehouse row types, the input contracts
// enforced on extracted files, and the table definitions shared by every
// sink backend.
package schema

import "time"

// Transaction status values after case normalization.
const (
	StatusApproved = "APPROVED"
	StatusDeclined = "DECLINED"
)

// Merchant is one dimension row. Attributes other than the key are mutable
// run to run; the upsert overwrites them.
type Merchant struct {
	MerchantID   string  `db:"merchant_id"`
	MerchantName string  `db:"merchant_name"`
	Category     *string `db:"category"`
	City         *string `db:"city"`
	State        *string `db:"state"`
}

// Transaction is one validated, typed transaction. Raw CSV rows become
// Transactions only after the validate stage; invalid rows never reach this
// type.
type Transaction struct {
	TransactionID string    `db:"transaction_id"`
	MerchantID    string    `db:"merchant_id"`
	TxnTS         time.Time `db:"txn_ts_utc"`
	Amount        float64   `db:"amount"`
	Status        string    `db:"status"`
	PaymentMethod *string   `db:"payment_method"`
}

// Approved reports whether the transaction settled as approved.
func (t Transaction) Approved() bool { return t.Status == StatusApproved }

// MetricDate returns the UTC calendar day the transaction belongs to, as
// midnight UTC.
func (t Transaction) MetricDate() time.Time {
	u := t.TxnTS.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// DailyMetric is one fact row: all activity for one merchant on one UTC
// calendar day. MetricDate holds midnight UTC of that day.
type DailyMetric struct {
	MetricDate       time.Time `db:"metric_date"`
	MerchantID       string    `db:"merchant_id"`
	TxnCount         int64     `db:"txn_count"`
	ApprovedTxnCount int64     `db:"approved_txn_count"`
	DeclinedTxnCount int64     `db:"declined_txn_count"`
	GrossAmount      float64   `db:"gross_amount"`
	ApprovedAmount   float64   `db:"approved_amount"`
	ApprovalRate     float64   `db:"approval_rate"`
	AvgTicket        float64   `db:"avg_ticket"`
}

// ReportRow is one row of the fact-to-dimension join exported for BI use.
type ReportRow struct {
	MetricDate       time.Time
	MerchantID       string
	MerchantName     string
	Category         *string
	City             *string
	State            *string
	TxnCount         int64
	ApprovedTxnCount int64
	DeclinedTxnCount int64
	GrossAmount      float64
	ApprovedAmount   float64
	ApprovalRate     float64
	AvgTicket        float64
}
