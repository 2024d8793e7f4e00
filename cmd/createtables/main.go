// Command createtables creates the warehouse tables when they are absent.
// Existing tables are left untouched, so re-running is safe.
package main

import (
	"context"
	"fmt"
	"os"

	"merchantetl/internal/config"
	"merchantetl/internal/logger"
	"merchantetl/internal/schema"
	"merchantetl/internal/warehouse"

	_ "merchantetl/internal/warehouse/all"
)

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

	if err := repo.EnsureSchema(ctx); err != nil {
		log.Error().Err(err).Msg("create tables")
		os.Exit(1)
	}
	fmt.Printf("tables created (or already existed): %s, %s\n",
		schema.DimMerchants().Name, schema.FactDailyMerchantMetrics().Name)
}
