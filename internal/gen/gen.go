// Package gen produces the deterministic demo dataset: seven fixed
// merchants and a configurable window of synthetic card transactions,
// plus two known-bad rows that exercise the cleaning stage. The same
// options always produce byte-identical CSV output.
package gen

import (
	"encoding/csv"
	"fmt"
	"io"
	"math/rand"
	"strconv"
	"time"

	"merchantetl/internal/aggregate"
	"merchantetl/internal/schema"
)

// Transaction stream defaults: 30 days of 250 rows starting 2026-01-01.
const (
	DefaultSeed   int64 = 42
	DefaultDays         = 30
	DefaultPerDay       = 250
)

// DefaultStart is the first day of the generated window.
var DefaultStart = time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)

const (
	minAmount     = 3.50
	maxAmount     = 250.00
	approvedShare = 0.85
)

var paymentMethods = [...]string{"CARD", "WALLET"}

var demoMerchants = []schema.Merchant{
	{MerchantID: "m_1001", MerchantName: "Sunrise Coffee", Category: ptr("Cafe"), City: ptr("Costa Mesa"), State: ptr("CA")},
	{MerchantID: "m_1002", MerchantName: "Ocean Threads", Category: ptr("Retail"), City: ptr("Huntington Beach"), State: ptr("CA")},
	{MerchantID: "m_1003", MerchantName: "FitLab Gym", Category: ptr("Fitness"), City: ptr("Irvine"), State: ptr("CA")},
	{MerchantID: "m_1004", MerchantName: "ByteMart Electronics", Category: ptr("Electronics"), City: ptr("Anaheim"), State: ptr("CA")},
	{MerchantID: "m_1005", MerchantName: "Taco Town", Category: ptr("Restaurant"), City: ptr("Santa Ana"), State: ptr("CA")},
	{MerchantID: "m_1006", MerchantName: "Green Bowl", Category: ptr("Restaurant"), City: ptr("Tustin"), State: ptr("CA")},
	{MerchantID: "m_1007", MerchantName: "Peak Outdoors", Category: ptr("Retail"), City: ptr("Laguna Beach"), State: ptr("CA")},
}

func ptr(s string) *string { return &s }

// Options control the synthetic transaction stream. The zero value uses
// the defaults above. Seed is a pointer so an explicit zero seed stays
// distinguishable from the unset field.
type Options struct {
	Seed   *int64
	Start  time.Time
	Days   int
	PerDay int
}

// Seed wraps a seed value for Options.
func Seed(v int64) *int64 { return &v }

func (o Options) withDefaults() Options {
	if o.Seed == nil {
		o.Seed = Seed(DefaultSeed)
	}
	if o.Start.IsZero() {
		o.Start = DefaultStart
	}
	if o.Days <= 0 {
		o.Days = DefaultDays
	}
	if o.PerDay <= 0 {
		o.PerDay = DefaultPerDay
	}
	return o
}

// Merchants returns the seven fixed demo merchants in a fresh slice.
func Merchants() []schema.Merchant {
	out := make([]schema.Merchant, len(demoMerchants))
	copy(out, demoMerchants)
	return out
}

// WriteMerchants writes the merchants CSV, header included.
func WriteMerchants(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"merchant_id", "merchant_name", "category", "city", "state"}); err != nil {
		return fmt.Errorf("write merchants header: %w", err)
	}
	for _, m := range demoMerchants {
		rec := []string{m.MerchantID, m.MerchantName, *m.Category, *m.City, *m.State}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write merchant %s: %w", m.MerchantID, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush merchants: %w", err)
	}
	return nil
}

// WriteTransactions writes the transactions CSV, header included, and
// returns the number of data rows written. Timestamps are RFC3339 UTC,
// amounts two-decimal, status drawn 85/15 approved/declined. Two bad rows
// are always appended: one referencing an unknown merchant and one with a
// negative amount.
func WriteTransactions(w io.Writer, opts Options) (int, error) {
	opts = opts.withDefaults()
	rng := rand.New(rand.NewSource(*opts.Seed))

	cw := csv.NewWriter(w)
	header := []string{"transaction_id", "merchant_id", "txn_ts_utc", "amount", "status", "payment_method"}
	if err := cw.Write(header); err != nil {
		return 0, fmt.Errorf("write transactions header: %w", err)
	}

	rows := 0
	id := 1
	for day := 0; day < opts.Days; day++ {
		dayStart := opts.Start.AddDate(0, 0, day)
		for n := 0; n < opts.PerDay; n++ {
			m := demoMerchants[rng.Intn(len(demoMerchants))]
			ts := dayStart.Add(time.Duration(rng.Intn(1440))*time.Minute +
				time.Duration(rng.Intn(60))*time.Second)
			amount := aggregate.Round2(minAmount + rng.Float64()*(maxAmount-minAmount))
			status := schema.StatusApproved
			if rng.Float64() >= approvedShare {
				status = schema.StatusDeclined
			}
			method := paymentMethods[rng.Intn(len(paymentMethods))]

			rec := []string{
				fmt.Sprintf("t_%06d", id),
				m.MerchantID,
				ts.Format(time.RFC3339),
				strconv.FormatFloat(amount, 'f', 2, 64),
				status,
				method,
			}
			if err := cw.Write(rec); err != nil {
				return rows, fmt.Errorf("write transaction %d: %w", id, err)
			}
			id++
			rows++
		}
	}

	bad := [][]string{
		{"t_bad_1", "m_9999", "2026-01-10T10:00:00Z", "10.00", "APPROVED", "CARD"},
		{"t_bad_2", "m_1001", "2026-01-15T12:00:00Z", "-5.00", "APPROVED", "CARD"},
	}
	for _, rec := range bad {
		if err := cw.Write(rec); err != nil {
			return rows, fmt.Errorf("write transaction %s: %w", rec[0], err)
		}
		rows++
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return rows, fmt.Errorf("flush transactions: %w", err)
	}
	return rows, nil
}
