package aggregate

import (
	"strconv"
	"testing"
	"time"

	"merchantetl/internal/schema"
)

func tx(id, merchant, ts string, amount float64, status string) schema.Transaction {
	parsed, err := time.Parse(time.RFC3339, ts)
	if err != nil {
		panic("bad test timestamp " + ts)
	}
	return schema.Transaction{
		TransactionID: id,
		MerchantID:    merchant,
		TxnTS:         parsed,
		Amount:        amount,
		Status:        status,
	}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

/*
Daily semantics verified here:
  - one approved and one declined transaction for the same merchant and day
    collapse into a single row with both counted, gross summing both, and
    approved_amount holding only the approved one,
  - grouping follows the UTC calendar date of the instant,
  - rows come back sorted by (metric_date, merchant_id),
  - approved + declined always equals txn_count and the rate stays in [0,1].
*/
func TestDaily(t *testing.T) {
	t.Parallel()

	t.Run("mixed_status_single_group", func(t *testing.T) {
		t.Parallel()

		rows := Daily([]schema.Transaction{
			tx("t_1", "m_1", "2026-01-01T10:00:00Z", 10.00, schema.StatusApproved),
			tx("t_2", "m_1", "2026-01-01T11:00:00Z", 20.00, schema.StatusDeclined),
		})
		if len(rows) != 1 {
			t.Fatalf("rows = %d, want 1 group", len(rows))
		}

		got := rows[0]
		if !got.MetricDate.Equal(day(2026, 1, 1)) || got.MerchantID != "m_1" {
			t.Fatalf("group key = (%v, %s), want (2026-01-01, m_1)", got.MetricDate, got.MerchantID)
		}
		if got.TxnCount != 2 || got.ApprovedTxnCount != 1 || got.DeclinedTxnCount != 1 {
			t.Fatalf("counts = (%d, %d, %d), want (2, 1, 1)",
				got.TxnCount, got.ApprovedTxnCount, got.DeclinedTxnCount)
		}
		if got.GrossAmount != 30.00 || got.ApprovedAmount != 10.00 {
			t.Fatalf("amounts = (%v, %v), want (30.00, 10.00)", got.GrossAmount, got.ApprovedAmount)
		}
		if got.ApprovalRate != 0.5 {
			t.Fatalf("approval_rate = %v, want 0.5", got.ApprovalRate)
		}
		if got.AvgTicket != 15.00 {
			t.Fatalf("avg_ticket = %v, want 15.00", got.AvgTicket)
		}
	})

	t.Run("groups_by_utc_day", func(t *testing.T) {
		t.Parallel()

		// 23:30Z and 00:30Z the next day are different groups even though
		// they are an hour apart.
		rows := Daily([]schema.Transaction{
			tx("t_1", "m_1", "2026-01-01T23:30:00Z", 5.00, schema.StatusApproved),
			tx("t_2", "m_1", "2026-01-02T00:30:00Z", 5.00, schema.StatusApproved),
		})
		if len(rows) != 2 {
			t.Fatalf("rows = %d, want a group per UTC day", len(rows))
		}
		if !rows[0].MetricDate.Equal(day(2026, 1, 1)) || !rows[1].MetricDate.Equal(day(2026, 1, 2)) {
			t.Fatalf("dates = (%v, %v), want consecutive days", rows[0].MetricDate, rows[1].MetricDate)
		}
	})

	t.Run("sorted_by_date_then_merchant", func(t *testing.T) {
		t.Parallel()

		rows := Daily([]schema.Transaction{
			tx("t_1", "m_2", "2026-01-02T10:00:00Z", 1.00, schema.StatusApproved),
			tx("t_2", "m_1", "2026-01-02T10:00:00Z", 1.00, schema.StatusApproved),
			tx("t_3", "m_9", "2026-01-01T10:00:00Z", 1.00, schema.StatusApproved),
		})
		if len(rows) != 3 {
			t.Fatalf("rows = %d, want 3", len(rows))
		}
		order := []struct {
			date     time.Time
			merchant string
		}{
			{day(2026, 1, 1), "m_9"},
			{day(2026, 1, 2), "m_1"},
			{day(2026, 1, 2), "m_2"},
		}
		for i, want := range order {
			if !rows[i].MetricDate.Equal(want.date) || rows[i].MerchantID != want.merchant {
				t.Fatalf("row %d = (%v, %s), want (%v, %s)",
					i, rows[i].MetricDate, rows[i].MerchantID, want.date, want.merchant)
			}
		}
	})

	t.Run("rate_rounded_to_4dp", func(t *testing.T) {
		t.Parallel()

		rows := Daily([]schema.Transaction{
			tx("t_1", "m_1", "2026-01-01T10:00:00Z", 1.00, schema.StatusApproved),
			tx("t_2", "m_1", "2026-01-01T10:00:00Z", 1.00, schema.StatusDeclined),
			tx("t_3", "m_1", "2026-01-01T10:00:00Z", 1.00, schema.StatusDeclined),
		})
		if got := rows[0].ApprovalRate; got != 0.3333 {
			t.Fatalf("approval_rate = %v, want 0.3333", got)
		}

		rows = Daily([]schema.Transaction{
			tx("t_1", "m_1", "2026-01-01T10:00:00Z", 1.00, schema.StatusApproved),
			tx("t_2", "m_1", "2026-01-01T10:00:00Z", 1.00, schema.StatusApproved),
			tx("t_3", "m_1", "2026-01-01T10:00:00Z", 1.00, schema.StatusDeclined),
		})
		if got := rows[0].ApprovalRate; got != 0.6667 {
			t.Fatalf("approval_rate = %v, want 0.6667 (half away from zero)", got)
		}
	})

	t.Run("counts_reconcile", func(t *testing.T) {
		t.Parallel()

		var txns []schema.Transaction
		for i := 0; i < 100; i++ {
			status := schema.StatusApproved
			if i%3 == 0 {
				status = schema.StatusDeclined
			}
			merchant := "m_" + strconv.Itoa(i%7)
			hour := i % 24
			txns = append(txns, tx(
				"t_"+strconv.Itoa(i), merchant,
				"2026-01-0"+strconv.Itoa(1+i%5)+"T"+pad(hour)+":00:00Z",
				float64(i%50)+0.99, status,
			))
		}

		for _, row := range Daily(txns) {
			if row.ApprovedTxnCount+row.DeclinedTxnCount != row.TxnCount {
				t.Fatalf("row %v/%s: %d + %d != %d", row.MetricDate, row.MerchantID,
					row.ApprovedTxnCount, row.DeclinedTxnCount, row.TxnCount)
			}
			if row.ApprovalRate < 0 || row.ApprovalRate > 1 {
				t.Fatalf("approval_rate %v outside [0,1]", row.ApprovalRate)
			}
			if row.TxnCount < 1 {
				t.Fatalf("emitted group with txn_count %d", row.TxnCount)
			}
		}
	})

	t.Run("empty_input", func(t *testing.T) {
		t.Parallel()

		if rows := Daily(nil); len(rows) != 0 {
			t.Fatalf("rows = %d, want none for empty input", len(rows))
		}
	})
}

func pad(h int) string {
	if h < 10 {
		return "0" + strconv.Itoa(h)
	}
	return strconv.Itoa(h)
}

func TestRounding(t *testing.T) {
	t.Parallel()

	// Dyadic fractions are exact in binary, so the half-away behavior is
	// observable without float noise.
	if got := Round2(0.125); got != 0.13 {
		t.Fatalf("Round2(0.125) = %v, want 0.13", got)
	}
	if got := Round2(-0.125); got != -0.13 {
		t.Fatalf("Round2(-0.125) = %v, want -0.13 (away from zero)", got)
	}
	if got := Round2(0.375); got != 0.38 {
		t.Fatalf("Round2(0.375) = %v, want 0.38", got)
	}
	if got := Round4(0.00015625); got != 0.0002 {
		t.Fatalf("Round4(0.00015625) = %v, want 0.0002", got)
	}
	if got := Round2(10); got != 10 {
		t.Fatalf("Round2(10) = %v, want 10", got)
	}
}

func BenchmarkDaily(b *testing.B) {
	const n = 50000
	txns := make([]schema.Transaction, n)
	for i := 0; i < n; i++ {
		status := schema.StatusApproved
		if i%5 == 0 {
			status = schema.StatusDeclined
		}
		txns[i] = schema.Transaction{
			TransactionID: "t_" + strconv.Itoa(i),
			MerchantID:    "m_" + strconv.Itoa(i%20),
			TxnTS:         time.Date(2026, 1, 1+i%28, i%24, 0, 0, 0, time.UTC),
			Amount:        float64(i%200) + 0.50,
			Status:        status,
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Daily(txns)
	}
}
