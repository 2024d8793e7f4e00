// Package etl sequences one full pipeline pass: extract both CSV inputs,
// clean and validate, aggregate daily metrics, and load the warehouse.
// The run is single-threaded and synchronous; a stage failure aborts it
// before later stages commit anything.
package etl

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"merchantetl/internal/aggregate"
	"merchantetl/internal/config"
	"merchantetl/internal/logger"
	"merchantetl/internal/metrics"
	"merchantetl/internal/schema"
	"merchantetl/internal/warehouse"
	"merchantetl/pkg/records"
)

// Job names the pipeline in metrics labels and Pushgateway grouping.
const Job = "merchant_etl"

// RunStats counts what one run saw and loaded at each stage boundary.
type RunStats struct {
	TxnsTotal        int64
	TxnsAfterDedupe  int64
	TxnsValid        int64
	TxnsRejected     int64
	MerchantsLoaded  int64
	DailyRows        int64
	FactRowsUpserted int64
}

// Summary renders the block printed to stdout after a fully successful run.
func (s *RunStats) Summary() string {
	rows := []struct {
		name  string
		value int64
	}{
		{"txns_total", s.TxnsTotal},
		{"txns_after_dedupe", s.TxnsAfterDedupe},
		{"txns_valid", s.TxnsValid},
		{"txns_rejected", s.TxnsRejected},
		{"merchants_loaded", s.MerchantsLoaded},
		{"daily_rows", s.DailyRows},
		{"fact_rows_upserted", s.FactRowsUpserted},
	}
	var b strings.Builder
	b.WriteString("===== ETL RUN SUMMARY =====\n")
	for _, r := range rows {
		fmt.Fprintf(&b, "%-22s: %d\n", r.name, r.value)
	}
	return b.String()
}

// openWarehouse is a seam for tests; production points at warehouse.Open.
var openWarehouse = warehouse.Open

// Run executes one pipeline pass over cfg's inputs and sink and returns the
// stage counters. On any error the returned stats are nil; whatever the
// failing stage had not committed is rolled back, while stages committed
// earlier (merchants before a facts failure) stay committed.
func Run(ctx context.Context, cfg *config.Config) (*RunStats, error) {
	log := logger.FromContext(ctx)

	if err := cfg.ValidateInputs(); err != nil {
		return nil, err
	}
	if err := cfg.ValidateSink(); err != nil {
		return nil, err
	}

	stats := &RunStats{}

	// Extract both inputs.
	start := time.Now()
	merchRecs, err := extract(ctx, cfg.MerchantsCSV, schema.MerchantsContract(), log)
	var txnRecs []records.Record
	if err == nil {
		txnRecs, err = extract(ctx, cfg.TransactionsCSV, schema.TransactionsContract(), log)
	}
	metrics.RecordStep(Job, "extract", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	stats.TxnsTotal = int64(len(txnRecs))
	metrics.RecordRow(Job, "txns_read", stats.TxnsTotal)

	// Clean: normalize, dedupe, validate, type.
	start = time.Now()
	merchants := cleanMerchants(merchRecs, log)
	txns, afterDedupe := cleanTransactions(txnRecs, merchantSet(merchants), log)
	stats.TxnsAfterDedupe = int64(afterDedupe)
	stats.TxnsValid = int64(len(txns))
	stats.TxnsRejected = stats.TxnsAfterDedupe - stats.TxnsValid
	metrics.RecordStep(Job, "clean", nil, time.Since(start))
	metrics.RecordRow(Job, "duplicates", stats.TxnsTotal-stats.TxnsAfterDedupe)
	metrics.RecordRow(Job, "valid", stats.TxnsValid)
	metrics.RecordRow(Job, "rejected", stats.TxnsRejected)
	log.Info().
		Int64("total", stats.TxnsTotal).
		Int64("after_dedupe", stats.TxnsAfterDedupe).
		Int64("valid", stats.TxnsValid).
		Int64("rejected", stats.TxnsRejected).
		Int("merchants", len(merchants)).
		Msg("cleaned")

	// Aggregate into one row per (UTC day, merchant).
	start = time.Now()
	daily := aggregate.Daily(txns)
	stats.DailyRows = int64(len(daily))
	metrics.RecordStep(Job, "aggregate", nil, time.Since(start))
	metrics.RecordRow(Job, "daily_rows", stats.DailyRows)
	log.Info().Int64("rows", stats.DailyRows).Msg("aggregated")

	// Load.
	start = time.Now()
	err = load(ctx, cfg, merchants, daily, stats, log)
	metrics.RecordStep(Job, "load", err, time.Since(start))
	if err != nil {
		return nil, err
	}

	return stats, nil
}

// load merges the dimension rows and then the fact rows, each in its own
// transaction. Merchants go first so the fact foreign key has its targets.
// A facts failure leaves the already committed merchants in place.
func load(ctx context.Context, cfg *config.Config, merchants []schema.Merchant, daily []schema.DailyMetric, stats *RunStats, log zerolog.Logger) error {
	repo, err := openWarehouse(ctx, cfg.DBDriver, cfg.SinkDSN())
	if err != nil {
		return &SinkError{Stage: "open warehouse", Err: err}
	}
	defer repo.Close()

	dim := schema.DimMerchants()
	fact := schema.FactDailyMerchantMetrics()

	n, err := repo.UpsertMerchants(ctx, merchants)
	if err != nil {
		return &SinkError{Stage: "load merchants", Err: err}
	}
	stats.MerchantsLoaded = n
	metrics.RecordUpsert(Job, dim.Name, n)
	log.Info().Int64("rows", n).Str("table", dim.Name).Msg("merged")

	n, err = repo.UpsertDailyMetrics(ctx, daily)
	if err != nil {
		return &SinkError{Stage: "load facts", Err: err}
	}
	stats.FactRowsUpserted = n
	metrics.RecordUpsert(Job, fact.Name, n)
	log.Info().Int64("rows", n).Str("table", fact.Name).Msg("merged")
	return nil
}
