// Command etl runs one batch load: merchants and transactions CSVs in,
// daily per-merchant metrics merged into the warehouse, summary on stdout.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"merchantetl/internal/config"
	"merchantetl/internal/etl"
	"merchantetl/internal/logger"
	"merchantetl/internal/metrics"
	"merchantetl/internal/metrics/datadog"
	"merchantetl/internal/metrics/prompush"

	// register all warehouse backends with the factory.
	// config specifies which to use but we build in support for all of them.
	_ "merchantetl/internal/warehouse/all"
)

func main() {
	cfg := config.Load()
	log := logger.New(cfg.LogLevel)
	ctx := logger.WithContext(context.Background(), log)

	// Metrics backend: flag → env → default(none). Init failures degrade to
	// the nop backend instead of blocking the load.
	switch cfg.MetricsBackend {
	case "prometheus":
		b, err := prompush.NewBackend(etl.Job, cfg.PushgatewayURL)
		if err != nil {
			log.Warn().Err(err).Msg("metrics init failed; continuing without metrics")
		} else {
			metrics.SetBackend(b)
			log.Info().Str("pushgateway", cfg.PushgatewayURL).Msg("metrics: prometheus push enabled")
		}
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{Addr: cfg.StatsdAddr})
		if err != nil {
			log.Warn().Err(err).Msg("metrics init failed; continuing without metrics")
		} else {
			metrics.SetBackend(b)
			log.Info().Str("statsd", cfg.StatsdAddr).Msg("metrics: datadog enabled")
		}
	case "", "none":
		// nop backend stays
	default:
		log.Warn().Str("backend", cfg.MetricsBackend).Msg("unknown metrics backend; continuing without metrics")
	}

	start := time.Now()
	stats, runErr := etl.Run(ctx, cfg)

	if err := metrics.Flush(); err != nil {
		log.Warn().Err(err).Msg("metrics flush failed")
	}

	if runErr != nil {
		log.Error().Err(runErr).Msg("etl run failed")
		os.Exit(1)
	}

	log.Info().
		Str("elapsed", time.Since(start).Truncate(time.Millisecond).String()).
		Msg("etl run complete")
	fmt.Print(stats.Summary())
}
