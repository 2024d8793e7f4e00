// Command exportcsv writes the fact-to-dimension join to a CSV file for
// BI tools: one row per merchant per day with all measures.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"merchantetl/internal/config"
	"merchantetl/internal/logger"
	"merchantetl/internal/warehouse"

	_ "merchantetl/internal/warehouse/all"
)

var flagOut = flag.String("out", "tableau/daily_merchant_metrics.csv", "Output CSV path")

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)

	if err := cfg.ValidateSink(); err != nil {
		log.Error().Err(err).Msg("invalid sink configuration")
		os.Exit(1)
	}

	ctx := context.Background()
	repo, err := warehouse.Open(ctx, cfg.DBDriver, cfg.SinkDSN())
	if err != nil {
		log.Error().Err(err).Msg("open warehouse")
		os.Exit(1)
	}
	defer repo.Close()

	report, err := repo.MetricsReport(ctx)
	if err != nil {
		log.Error().Err(err).Msg("read report")
		os.Exit(1)
	}

	if dir := filepath.Dir(*flagOut); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			log.Error().Err(err).Str("dir", dir).Msg("create output directory")
			os.Exit(1)
		}
	}
	f, err := os.Create(*flagOut)
	if err != nil {
		log.Error().Err(err).Msg("create output file")
		os.Exit(1)
	}

	cw := csv.NewWriter(f)
	header := []string{
		"metric_date", "merchant_id", "merchant_name", "category", "city", "state",
		"txn_count", "approved_txn_count", "declined_txn_count",
		"gross_amount", "approved_amount", "approval_rate", "avg_ticket",
	}
	if err := cw.Write(header); err != nil {
		log.Error().Err(err).Msg("write header")
		os.Exit(1)
	}
	for _, r := range report {
		rec := []string{
			r.MetricDate.Format("2006-01-02"),
			r.MerchantID,
			r.MerchantName,
			orEmpty(r.Category),
			orEmpty(r.City),
			orEmpty(r.State),
			strconv.FormatInt(r.TxnCount, 10),
			strconv.FormatInt(r.ApprovedTxnCount, 10),
			strconv.FormatInt(r.DeclinedTxnCount, 10),
			strconv.FormatFloat(r.GrossAmount, 'f', 2, 64),
			strconv.FormatFloat(r.ApprovedAmount, 'f', 2, 64),
			strconv.FormatFloat(r.ApprovalRate, 'f', 4, 64),
			strconv.FormatFloat(r.AvgTicket, 'f', 2, 64),
		}
		if err := cw.Write(rec); err != nil {
			log.Error().Err(err).Msg("write row")
			os.Exit(1)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.Error().Err(err).Msg("flush output")
		os.Exit(1)
	}
	if err := f.Close(); err != nil {
		log.Error().Err(err).Msg("close output")
		os.Exit(1)
	}

	fmt.Printf("exported %d rows to %s\n", len(report), *flagOut)
}

func orEmpty(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
