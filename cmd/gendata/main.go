// Command gendata writes the deterministic demo dataset as two CSV files:
// data/merchants.csv and data/transactions.csv. The same seed always
// produces the same bytes.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"golang.org/x/sync/errgroup"

	"merchantetl/internal/gen"
)

var (
	flagDir    = flag.String("dir", "data", "Output directory for the generated CSVs")
	flagDays   = flag.Int("days", gen.DefaultDays, "Days of transactions to generate")
	flagPerDay = flag.Int("per-day", gen.DefaultPerDay, "Transactions per day")
	flagSeed   = flag.Int64("seed", gen.DefaultSeed, "Random seed")
)

func main() {
	flag.Parse()

	if err := os.MkdirAll(*flagDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create %s: %v\n", *flagDir, err)
		os.Exit(1)
	}

	mPath := filepath.Join(*flagDir, "merchants.csv")
	tPath := filepath.Join(*flagDir, "transactions.csv")

	var txns int
	var g errgroup.Group
	g.Go(func() error {
		return writeFile(mPath, gen.WriteMerchants)
	})
	g.Go(func() error {
		return writeFile(tPath, func(w io.Writer) error {
			n, err := gen.WriteTransactions(w, gen.Options{
				Seed:   gen.Seed(*flagSeed),
				Days:   *flagDays,
				PerDay: *flagPerDay,
			})
			txns = n
			return err
		})
	})
	if err := g.Wait(); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	fmt.Println("generated data:")
	fmt.Printf("merchants:    %d rows (%s)\n", len(gen.Merchants()), mPath)
	fmt.Printf("transactions: %d rows (%s)\n", txns, tPath)
}

func writeFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", path, err)
	}
	return nil
}
