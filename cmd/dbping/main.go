// Command dbping checks warehouse connectivity with the configured driver
// and DSN, and reports the round trip time.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"merchantetl/internal/config"
	"merchantetl/internal/logger"
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
	start := time.Now()

	repo, err := warehouse.Open(ctx, cfg.DBDriver, cfg.SinkDSN())
	if err != nil {
		log.Error().Err(err).Msg("open warehouse")
		os.Exit(1)
	}
	defer repo.Close()

	if err := repo.Ping(ctx); err != nil {
		log.Error().Err(err).Msg("ping failed")
		os.Exit(1)
	}

	fmt.Println("connected successfully")
	fmt.Printf("driver:     %s\n", cfg.DBDriver)
	fmt.Printf("round trip: %s\n", time.Since(start).Truncate(time.Millisecond))
}
