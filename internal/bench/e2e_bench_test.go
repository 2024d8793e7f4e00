package bench

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"merchantetl/internal/config"
	"merchantetl/internal/etl"
	"merchantetl/internal/gen"
	"merchantetl/internal/logger"
	"merchantetl/internal/warehouse"

	_ "merchantetl/internal/warehouse/sqlite"
)

// BenchmarkRunSQLite exercises the whole pipeline against a file-backed
// sqlite warehouse: extract both CSVs, clean, aggregate, stage and merge.
//
// Inputs are a reduced cut of the demo dataset (5 days x 200 rows) written
// once; every iteration replays the same load, so the benchmark measures
// the steady-state upsert path rather than first-insert growth.
//
// Run with:
//
//	go test -run=^$ -bench ^BenchmarkRunSQLite$ -benchtime 10x ./internal/bench
func BenchmarkRunSQLite(b *testing.B) {
	dir := b.TempDir()
	mPath := filepath.Join(dir, "merchants.csv")
	tPath := filepath.Join(dir, "transactions.csv")

	mf, err := os.Create(mPath)
	if err != nil {
		b.Fatalf("create merchants: %v", err)
	}
	if err := gen.WriteMerchants(mf); err != nil {
		b.Fatalf("write merchants: %v", err)
	}
	if err := mf.Close(); err != nil {
		b.Fatalf("close merchants: %v", err)
	}

	tf, err := os.Create(tPath)
	if err != nil {
		b.Fatalf("create transactions: %v", err)
	}
	if _, err := gen.WriteTransactions(tf, gen.Options{Days: 5, PerDay: 200}); err != nil {
		b.Fatalf("write transactions: %v", err)
	}
	if err := tf.Close(); err != nil {
		b.Fatalf("close transactions: %v", err)
	}

	cfg := &config.Config{
		MerchantsCSV:    mPath,
		TransactionsCSV: tPath,
		DBDriver:        config.DriverSQLite,
		DSN:             filepath.Join(dir, "warehouse.db"),
	}
	ctx := logger.WithContext(context.Background(), logger.NewWithWriter(io.Discard, "error"))

	repo, err := warehouse.Open(ctx, cfg.DBDriver, cfg.SinkDSN())
	if err != nil {
		b.Fatalf("open warehouse: %v", err)
	}
	if err := repo.EnsureSchema(ctx); err != nil {
		b.Fatalf("ensure schema: %v", err)
	}
	repo.Close()

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := etl.Run(ctx, cfg); err != nil {
			b.Fatalf("run: %v", err)
		}
	}
}
