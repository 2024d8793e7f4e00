// Command verify prints warehouse row counts and the most recent fact rows
// as a quick check that a load landed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"merchantetl/internal/config"
	"merchantetl/internal/logger"
	"merchantetl/internal/schema"
	"merchantetl/internal/warehouse"

	_ "merchantetl/internal/warehouse/all"
)

var flagLimit = flag.Int("limit", 10, "How many recent fact rows to print")

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

	counts, err := repo.Counts(ctx)
	if err != nil {
		log.Error().Err(err).Msg("count rows")
		os.Exit(1)
	}
	fmt.Printf("%s rows: %d\n", schema.DimMerchants().Name, counts.Merchants)
	fmt.Printf("%s rows: %d\n", schema.FactDailyMerchantMetrics().Name, counts.DailyMetrics)

	recent, err := repo.RecentMetrics(ctx, *flagLimit)
	if err != nil {
		log.Error().Err(err).Msg("read recent metrics")
		os.Exit(1)
	}

	fmt.Printf("\nMost recent %d fact rows:\n", len(recent))
	for _, m := range recent {
		fmt.Printf("%s  %-8s txns=%-4d approved=%-4d declined=%-4d gross=%10.2f approved_amount=%10.2f rate=%.4f avg_ticket=%8.2f\n",
			m.MetricDate.Format("2006-01-02"), m.MerchantID,
			m.TxnCount, m.ApprovedTxnCount, m.DeclinedTxnCount,
			m.GrossAmount, m.ApprovedAmount, m.ApprovalRate, m.AvgTicket)
	}
}
