// Package aggregate groups validated transactions into daily per-merchant
// metric rows. The functions here are pure and deterministic: the same
// transactions always produce the same rows in the same order.
package aggregate

import (
	"math"
	"sort"
	"time"

	"merchantetl/internal/schema"
)

// groupKey identifies one output row. The date is midnight UTC, constructed
// uniformly by Transaction.MetricDate, so it is safe as a map key.
type groupKey struct {
	date       time.Time
	merchantID string
}

// accumulator carries the running totals for one group.
type accumulator struct {
	txnCount       int64
	approvedCount  int64
	declinedCount  int64
	grossAmount    float64
	approvedAmount float64
}

// Daily builds exactly one metric row per (UTC calendar day, merchant) seen
// in txns. Declined transactions count toward txn_count and gross_amount;
// only approved ones contribute to approved_amount. Rows come back sorted by
// (metric_date, merchant_id) so loads are deterministic.
func Daily(txns []schema.Transaction) []schema.DailyMetric {
	groups := make(map[groupKey]*accumulator)
	for _, tx := range txns {
		k := groupKey{date: tx.MetricDate(), merchantID: tx.MerchantID}
		acc := groups[k]
		if acc == nil {
			acc = &accumulator{}
			groups[k] = acc
		}
		acc.txnCount++
		acc.grossAmount += tx.Amount
		if tx.Approved() {
			acc.approvedCount++
			acc.approvedAmount += tx.Amount
		} else {
			acc.declinedCount++
		}
	}

	out := make([]schema.DailyMetric, 0, len(groups))
	for k, acc := range groups {
		// Groups only form from existing rows, so txnCount > 0 here.
		out = append(out, schema.DailyMetric{
			MetricDate:       k.date,
			MerchantID:       k.merchantID,
			TxnCount:         acc.txnCount,
			ApprovedTxnCount: acc.approvedCount,
			DeclinedTxnCount: acc.declinedCount,
			GrossAmount:      Round2(acc.grossAmount),
			ApprovedAmount:   Round2(acc.approvedAmount),
			ApprovalRate:     Round4(float64(acc.approvedCount) / float64(acc.txnCount)),
			AvgTicket:        Round2(acc.grossAmount / float64(acc.txnCount)),
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].MetricDate.Equal(out[j].MetricDate) {
			return out[i].MetricDate.Before(out[j].MetricDate)
		}
		return out[i].MerchantID < out[j].MerchantID
	})
	return out
}

// Round2 rounds to 2 decimal places, half away from zero.
func Round2(v float64) float64 { return math.Round(v*100) / 100 }

// Round4 rounds to 4 decimal places, half away from zero.
func Round4(v float64) float64 { return math.Round(v*10000) / 10000 }
