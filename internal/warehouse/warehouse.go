// Package warehouse defines the repository contract for the merchant
// warehouse and a factory for its concrete backends.
//
// The warehouse holds two tables: the dim_merchants dimension and the
// fact_daily_merchant_metrics fact. Backend packages (postgres, mssql,
// sqlite) implement Repository and register a Factory from init; callers
// blank-import merchantetl/internal/warehouse/all and open a repository by
// driver name, staying backend-agnostic from that point on.
package warehouse

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"merchantetl/internal/schema"
)

// Counts reports the number of rows currently stored per warehouse table.
type Counts struct {
	Merchants    int64
	DailyMetrics int64
}

// Repository is the storage contract shared by all warehouse backends.
//
// Upserts are idempotent: replaying a batch leaves the tables in the same
// state. Each upsert stages its rows and merges them inside a single
// transaction, so a failed load leaves the target table untouched. Batches
// must be unique by their key columns; the cleaning stage guarantees that.
type Repository interface {
	// Ping verifies the connection is usable.
	Ping(ctx context.Context) error

	// EnsureSchema creates the dimension and fact tables when absent.
	EnsureSchema(ctx context.Context) error

	// UpsertMerchants inserts or updates dimension rows keyed by
	// merchant_id and reports how many rows were staged.
	UpsertMerchants(ctx context.Context, merchants []schema.Merchant) (int64, error)

	// UpsertDailyMetrics inserts or replaces fact rows keyed by
	// (metric_date, merchant_id) and reports how many rows were staged.
	UpsertDailyMetrics(ctx context.Context, metrics []schema.DailyMetric) (int64, error)

	// Counts returns the current row count of each table.
	Counts(ctx context.Context) (Counts, error)

	// RecentMetrics returns up to limit fact rows ordered by metric_date
	// descending, then gross_amount descending.
	RecentMetrics(ctx context.Context, limit int) ([]schema.DailyMetric, error)

	// MetricsReport returns every fact row joined with its merchant
	// attributes, ordered by (metric_date, merchant_id).
	MetricsReport(ctx context.Context) ([]schema.ReportRow, error)

	// Close releases the underlying connections.
	Close()
}

// Factory opens a Repository for one backend given its DSN.
type Factory func(ctx context.Context, dsn string) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under the given driver name. It is
// called from backend packages' init functions; registering a name twice
// replaces the earlier factory.
func Register(driver string, fn Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[driver] = fn
}

// Open constructs a Repository for the named driver. The driver must have
// been registered, typically by importing merchantetl/internal/warehouse/all.
func Open(ctx context.Context, driver, dsn string) (Repository, error) {
	mu.RLock()
	fn, ok := factories[driver]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("warehouse: unknown driver %q (registered: %s)",
			driver, strings.Join(Drivers(), ", "))
	}
	return fn(ctx, dsn)
}

// Drivers lists the registered driver names in sorted order.
func Drivers() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(factories))
	for name := range factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
