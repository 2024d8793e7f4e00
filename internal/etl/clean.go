package etl

import (
	"time"

	"github.com/rs/zerolog"

	"merchantetl/internal/schema"
	"merchantetl/internal/transformer"
	"merchantetl/internal/transformer/builtin"
	"merchantetl/pkg/records"
)

// rejectSamples caps how many rejected rows are logged in full; the rest are
// only counted.
const rejectSamples = 3

// cleanMerchants normalizes the raw dimension rows, drops duplicate
// merchant_ids keeping the first, and rejects rows without an id or a name.
// Deduping here keeps a repeated id from double-staging into the merge.
func cleanMerchants(raw []records.Record, log zerolog.Logger) []schema.Merchant {
	cleaned := transformer.Chain{
		builtin.Normalize{},
		builtin.DeDup{Keys: []string{"merchant_id"}},
		builtin.Validate{
			Contract: schema.MerchantsContract(),
			Reject:   rejectLogger(log, "merchants"),
		},
	}.Apply(raw)

	out := make([]schema.Merchant, 0, len(cleaned))
	for _, r := range cleaned {
		out = append(out, schema.Merchant{
			MerchantID:   r.String("merchant_id"),
			MerchantName: r.String("merchant_name"),
			Category:     optString(r, "category"),
			City:         optString(r, "city"),
			State:        optString(r, "state"),
		})
	}
	return out
}

// cleanTransactions dedupes by transaction_id keeping the first occurrence
// in input order, validates and types the survivors, and restricts
// merchant_id to the known set. It returns the typed rows plus the count
// after dedupe; rejected = afterDedupe - len(rows).
func cleanTransactions(raw []records.Record, known map[string]struct{}, log zerolog.Logger) ([]schema.Transaction, int) {
	deduped := transformer.Chain{
		builtin.Normalize{Upper: []string{"status"}},
		builtin.DeDup{Keys: []string{"transaction_id"}},
	}.Apply(raw)
	afterDedupe := len(deduped)

	valid := builtin.Validate{
		Contract:   schema.TransactionsContract(),
		KnownField: "merchant_id",
		Known:      known,
		Reject:     rejectLogger(log, "transactions"),
	}.Apply(deduped)

	out := make([]schema.Transaction, 0, len(valid))
	for _, r := range valid {
		// Validate coerced these in place; the assertions cannot fail for
		// rows it let through.
		ts, _ := r["txn_ts_utc"].(time.Time)
		amount, _ := r["amount"].(float64)
		out = append(out, schema.Transaction{
			TransactionID: r.String("transaction_id"),
			MerchantID:    r.String("merchant_id"),
			TxnTS:         ts,
			Amount:        amount,
			Status:        r.String("status"),
			PaymentMethod: optString(r, "payment_method"),
		})
	}
	return out, afterDedupe
}

// merchantSet collects the ids that will exist in the dimension after the
// load, which is exactly the set transactions may reference.
func merchantSet(ms []schema.Merchant) map[string]struct{} {
	set := make(map[string]struct{}, len(ms))
	for _, m := range ms {
		set[m.MerchantID] = struct{}{}
	}
	return set
}

// rejectLogger returns a Reject callback that logs the first few rejections
// in full and then goes quiet. Counting rejects is the caller's job; this is
// diagnostics only.
func rejectLogger(log zerolog.Logger, table string) func(builtin.RejectedRow) {
	var n int
	return func(r builtin.RejectedRow) {
		n++
		if n > rejectSamples {
			if n == rejectSamples+1 {
				log.Debug().Str("table", table).Msg("further rejections suppressed")
			}
			return
		}
		perr := &ParseError{Field: r.Field, Value: r.Value, Reason: r.Reason}
		log.Warn().Str("table", table).Str("cause", perr.Error()).Msg("row rejected")
	}
}

// optString returns a pointer to the field's string value, or nil when the
// field is absent or blank.
func optString(r records.Record, key string) *string {
	if !r.Has(key) {
		return nil
	}
	s := r.String(key)
	if s == "" {
		return nil
	}
	return &s
}
