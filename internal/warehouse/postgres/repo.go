// Package postgres implements the warehouse repository on PostgreSQL using
// pgx v5. Loads COPY their rows into a session temp table and merge them
// into the target inside one transaction per entity.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"merchantetl/internal/schema"
	"merchantetl/internal/warehouse"
)

var (
	dim  = schema.DimMerchants()
	fact = schema.FactDailyMerchantMetrics()
)

// Repository is the PostgreSQL-backed warehouse.
type Repository struct {
	pool *pgxpool.Pool
}

var _ warehouse.Repository = (*Repository)(nil)

// NewRepository opens a pgx pool for the given DSN. The pool connects
// lazily; call Ping to verify the server is reachable.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	return &Repository{pool: pool}, nil
}

// Ping implements warehouse.Repository.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: ping: %w", err)
	}
	return nil
}

// Close implements warehouse.Repository.
func (r *Repository) Close() {
	if r.pool != nil {
		r.pool.Close()
	}
}

// EnsureSchema creates both tables when missing. The dimension comes first
// so the fact table's foreign key resolves.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, td := range []schema.TableDef{dim, fact} {
		if _, err := r.pool.Exec(ctx, createTableSQL(td)); err != nil {
			return fmt.Errorf("postgres: create %s: %w", td.Name, err)
		}
	}
	return nil
}

// UpsertMerchants merges dimension rows on merchant_id, overwriting the
// descriptive columns of merchants already present.
func (r *Repository) UpsertMerchants(ctx context.Context, merchants []schema.Merchant) (int64, error) {
	if len(merchants) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(merchants))
	for i, m := range merchants {
		rows[i] = []any{m.MerchantID, m.MerchantName, m.Category, m.City, m.State}
	}
	stage := "stage_" + dim.Name
	return r.stageAndMerge(ctx, dim.Name, stage, schema.MerchantColumns(), rows,
		upsertMerchantsSQL(stage))
}

// UpsertDailyMetrics merges fact rows keyed by (metric_date, merchant_id),
// overwriting the metric columns of rows already present.
func (r *Repository) UpsertDailyMetrics(ctx context.Context, metrics []schema.DailyMetric) (int64, error) {
	if len(metrics) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = []any{
			m.MetricDate, m.MerchantID,
			m.TxnCount, m.ApprovedTxnCount, m.DeclinedTxnCount,
			m.GrossAmount, m.ApprovedAmount,
			m.ApprovalRate, m.AvgTicket,
		}
	}
	stage := "stage_" + fact.Name
	return r.stageAndMerge(ctx, fact.Name, stage, schema.FactColumns(), rows,
		upsertMetricsSQL(stage))
}

// stageAndMerge copies rows into a temp table shaped after the target, then
// runs the merge statement, all inside one transaction. The temp table is
// dropped on commit, so pooled sessions never collide on reuse.
func (r *Repository) stageAndMerge(
	ctx context.Context,
	target, stage string,
	cols []string,
	rows [][]any,
	merge string,
) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: acquire: %w", err)
	}
	defer conn.Release()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s ON COMMIT DROP AS SELECT %s FROM %s WHERE false",
		pgIdent(stage), strings.Join(mapIdent(cols), ", "), pgIdent(target),
	)
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, fmt.Errorf("postgres: create stage for %s: %w", target, err)
	}

	staged, err := tx.CopyFrom(ctx, pgx.Identifier{stage}, cols, pgx.CopyFromRows(rows))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Detail != "" {
			return 0, fmt.Errorf("postgres: copy into %s: %s (%s)", stage, pgErr.Detail, pgErr.SQLState())
		}
		return 0, fmt.Errorf("postgres: copy into %s: %w", stage, err)
	}

	if _, err := tx.Exec(ctx, merge); err != nil {
		return 0, fmt.Errorf("postgres: merge into %s: %w", target, err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit %s: %w", target, err)
	}
	return staged, nil
}

// upsertMerchantsSQL merges staged rows into the dimension. Existing
// merchants keep their created_at_utc; only descriptive columns move.
func upsertMerchantsSQL(stage string) string {
	cols := schema.MerchantColumns()
	set := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
	}
	quoted := strings.Join(mapIdent(cols), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT %s FROM %s\nON CONFLICT (%s) DO UPDATE SET %s",
		pgIdent(dim.Name), quoted, quoted, pgIdent(stage),
		pgIdent("merchant_id"), strings.Join(set, ", "),
	)
}

// upsertMetricsSQL merges the staged batch into the fact table on the
// composite key. Matched rows refresh the metric columns only; loaded_at_utc
// keeps its first-load stamp, so replaying an identical batch leaves the
// table byte-stable.
func upsertMetricsSQL(stage string) string {
	cols := schema.FactColumns()
	keys, metrics := cols[:2], cols[2:]
	set := make([]string, 0, len(metrics))
	for _, c := range metrics {
		set = append(set, fmt.Sprintf("%s = EXCLUDED.%s", pgIdent(c), pgIdent(c)))
	}
	quoted := strings.Join(mapIdent(cols), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT %s FROM %s\nON CONFLICT (%s) DO UPDATE SET %s",
		pgIdent(fact.Name), quoted, quoted, pgIdent(stage),
		strings.Join(mapIdent(keys), ", "), strings.Join(set, ", "),
	)
}

// Counts implements warehouse.Repository.
func (r *Repository) Counts(ctx context.Context) (warehouse.Counts, error) {
	var c warehouse.Counts
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM "+pgIdent(dim.Name)).Scan(&c.Merchants); err != nil {
		return c, fmt.Errorf("postgres: count %s: %w", dim.Name, err)
	}
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM "+pgIdent(fact.Name)).Scan(&c.DailyMetrics); err != nil {
		return c, fmt.Errorf("postgres: count %s: %w", fact.Name, err)
	}
	return c, nil
}

// RecentMetrics implements warehouse.Repository.
func (r *Repository) RecentMetrics(ctx context.Context, limit int) ([]schema.DailyMetric, error) {
	q := fmt.Sprintf(`
		SELECT metric_date, merchant_id, txn_count, approved_txn_count, declined_txn_count,
		       gross_amount, approved_amount, approval_rate, avg_ticket
		  FROM %s
		 ORDER BY metric_date DESC, gross_amount DESC
		 LIMIT $1`, pgIdent(fact.Name))
	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: recent metrics: %w", err)
	}
	defer rows.Close()

	var out []schema.DailyMetric
	for rows.Next() {
		var m schema.DailyMetric
		if err := rows.Scan(
			&m.MetricDate, &m.MerchantID,
			&m.TxnCount, &m.ApprovedTxnCount, &m.DeclinedTxnCount,
			&m.GrossAmount, &m.ApprovedAmount,
			&m.ApprovalRate, &m.AvgTicket,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan metric: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: recent metrics rows: %w", err)
	}
	return out, nil
}

// MetricsReport implements warehouse.Repository.
func (r *Repository) MetricsReport(ctx context.Context) ([]schema.ReportRow, error) {
	q := fmt.Sprintf(`
		SELECT f.metric_date, f.merchant_id, m.merchant_name, m.category, m.city, m.state,
		       f.txn_count, f.approved_txn_count, f.declined_txn_count,
		       f.gross_amount, f.approved_amount, f.approval_rate, f.avg_ticket
		  FROM %s f
		  JOIN %s m ON m.merchant_id = f.merchant_id
		 ORDER BY f.metric_date, f.merchant_id`, pgIdent(fact.Name), pgIdent(dim.Name))
	rows, err := r.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("postgres: metrics report: %w", err)
	}
	defer rows.Close()

	var out []schema.ReportRow
	for rows.Next() {
		var row schema.ReportRow
		if err := rows.Scan(
			&row.MetricDate, &row.MerchantID, &row.MerchantName,
			&row.Category, &row.City, &row.State,
			&row.TxnCount, &row.ApprovedTxnCount, &row.DeclinedTxnCount,
			&row.GrossAmount, &row.ApprovedAmount,
			&row.ApprovalRate, &row.AvgTicket,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan report row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: metrics report rows: %w", err)
	}
	return out, nil
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = pgIdent(c)
	}
	return out
}
