// Package sqlite implements the warehouse repository on SQLite through
// database/sql and the modernc driver. There is no bulk-load API, so loads
// fill a temp stage table with a prepared INSERT and merge with an UPSERT,
// one transaction per entity. Dates are stored as ISO-8601 text.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"merchantetl/internal/schema"
	"merchantetl/internal/warehouse"
)

const dateLayout = "2006-01-02"

var (
	dim  = schema.DimMerchants()
	fact = schema.FactDailyMerchantMetrics()
)

// Repository is the SQLite-backed warehouse.
type Repository struct {
	db *sql.DB
}

var _ warehouse.Repository = (*Repository)(nil)

// NewRepository opens the database file named by dsn, creating it when
// absent. The pool is pinned to one connection: SQLite allows a single
// writer, and the session PRAGMA then covers every statement.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: dsn must not be empty")
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.ExecContext(ctx, "PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: enable foreign keys: %w", err)
	}
	return &Repository{db: db}, nil
}

// Ping implements warehouse.Repository.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("sqlite: ping: %w", err)
	}
	return nil
}

// Close implements warehouse.Repository.
func (r *Repository) Close() {
	if r.db != nil {
		_ = r.db.Close()
	}
}

// EnsureSchema creates both tables when missing, dimension first so the
// fact table's foreign key resolves.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	for _, td := range []schema.TableDef{dim, fact} {
		if _, err := r.db.ExecContext(ctx, createTableSQL(td)); err != nil {
			return fmt.Errorf("sqlite: create %s: %w", td.Name, err)
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
		rows[i] = []any{m.MerchantID, m.MerchantName, optStr(m.Category), optStr(m.City), optStr(m.State)}
	}
	stage := "stage_" + dim.Name
	return r.stageAndMerge(ctx, dim.Name, stage, schema.MerchantColumns(), rows,
		upsertMerchantsSQL(stage))
}

// UpsertDailyMetrics replaces fact rows keyed by (metric_date, merchant_id).
func (r *Repository) UpsertDailyMetrics(ctx context.Context, metrics []schema.DailyMetric) (int64, error) {
	if len(metrics) == 0 {
		return 0, nil
	}
	rows := make([][]any, len(metrics))
	for i, m := range metrics {
		rows[i] = []any{
			m.MetricDate.UTC().Format(dateLayout), m.MerchantID,
			m.TxnCount, m.ApprovedTxnCount, m.DeclinedTxnCount,
			m.GrossAmount, m.ApprovedAmount,
			m.ApprovalRate, m.AvgTicket,
		}
	}
	stage := "stage_" + fact.Name
	return r.stageAndMerge(ctx, fact.Name, stage, schema.FactColumns(), rows,
		upsertMetricsSQL(stage))
}

// stageAndMerge fills a temp stage table with a prepared INSERT and runs
// the merge statement, all inside one transaction. The stale stage is
// dropped first because temp tables outlive transactions on the pinned
// connection.
func (r *Repository) stageAndMerge(
	ctx context.Context,
	target, stage string,
	cols []string,
	rows [][]any,
	merge string,
) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS temp."+sqlIdent(stage)); err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: drop stale stage: %w", err)
	}
	create := fmt.Sprintf(
		"CREATE TEMP TABLE %s AS SELECT %s FROM %s WHERE 0",
		sqlIdent(stage), strings.Join(mapIdent(cols), ", "), sqlIdent(target),
	)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: create stage for %s: %w", target, err)
	}

	placeholders := strings.TrimRight(strings.Repeat("?, ", len(cols)), ", ")
	insert := fmt.Sprintf("INSERT INTO temp.%s (%s) VALUES (%s)",
		sqlIdent(stage), strings.Join(mapIdent(cols), ", "), placeholders)
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: prepare stage insert: %w", err)
	}

	var staged int64
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("sqlite: stage row %d: %w", i, err)
		}
		staged++
	}
	if err := stmt.Close(); err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: close stage insert: %w", err)
	}

	if _, err := tx.ExecContext(ctx, merge); err != nil {
		rollback()
		return 0, fmt.Errorf("sqlite: merge into %s: %w", target, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit %s: %w", target, err)
	}
	return staged, nil
}

// upsertMerchantsSQL merges the stage into the dimension. The WHERE clause
// on the SELECT is required to parse the trailing ON CONFLICT. Existing
// merchants keep their created_at_utc.
func upsertMerchantsSQL(stage string) string {
	cols := schema.MerchantColumns()
	set := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		set = append(set, fmt.Sprintf("%s = excluded.%s", sqlIdent(c), sqlIdent(c)))
	}
	quoted := strings.Join(mapIdent(cols), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT %s FROM temp.%s WHERE true\nON CONFLICT(%s) DO UPDATE SET %s",
		sqlIdent(dim.Name), quoted, quoted, sqlIdent(stage),
		sqlIdent("merchant_id"), strings.Join(set, ", "),
	)
}

// upsertMetricsSQL merges the stage into the fact table on the composite
// key. Matched rows refresh the metric columns only; loaded_at_utc keeps
// its first-load stamp, so replaying an identical batch leaves the table
// byte-stable.
func upsertMetricsSQL(stage string) string {
	cols := schema.FactColumns()
	keys, metrics := cols[:2], cols[2:]

	set := make([]string, 0, len(metrics))
	for _, c := range metrics {
		set = append(set, fmt.Sprintf("%s = excluded.%s", sqlIdent(c), sqlIdent(c)))
	}

	quoted := strings.Join(mapIdent(cols), ", ")
	return fmt.Sprintf(
		"INSERT INTO %s (%s)\nSELECT %s FROM temp.%s WHERE true\nON CONFLICT(%s) DO UPDATE SET %s",
		sqlIdent(fact.Name), quoted, quoted, sqlIdent(stage),
		strings.Join(mapIdent(keys), ", "), strings.Join(set, ", "),
	)
}

// Counts implements warehouse.Repository.
func (r *Repository) Counts(ctx context.Context) (warehouse.Counts, error) {
	var c warehouse.Counts
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sqlIdent(dim.Name)).Scan(&c.Merchants); err != nil {
		return c, fmt.Errorf("sqlite: count %s: %w", dim.Name, err)
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+sqlIdent(fact.Name)).Scan(&c.DailyMetrics); err != nil {
		return c, fmt.Errorf("sqlite: count %s: %w", fact.Name, err)
	}
	return c, nil
}

// RecentMetrics implements warehouse.Repository. ISO dates sort
// lexicographically, so ORDER BY on the text column stays chronological.
func (r *Repository) RecentMetrics(ctx context.Context, limit int) ([]schema.DailyMetric, error) {
	q := fmt.Sprintf(`
		SELECT metric_date, merchant_id, txn_count, approved_txn_count, declined_txn_count,
		       gross_amount, approved_amount, approval_rate, avg_ticket
		  FROM %s
		 ORDER BY metric_date DESC, gross_amount DESC
		 LIMIT ?`, sqlIdent(fact.Name))
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite: recent metrics: %w", err)
	}
	defer rows.Close()

	var out []schema.DailyMetric
	for rows.Next() {
		var (
			m   schema.DailyMetric
			day string
		)
		if err := rows.Scan(
			&day, &m.MerchantID,
			&m.TxnCount, &m.ApprovedTxnCount, &m.DeclinedTxnCount,
			&m.GrossAmount, &m.ApprovedAmount,
			&m.ApprovalRate, &m.AvgTicket,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan metric: %w", err)
		}
		if m.MetricDate, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("sqlite: parse metric_date %q: %w", day, err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: recent metrics rows: %w", err)
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
		 ORDER BY f.metric_date, f.merchant_id`, sqlIdent(fact.Name), sqlIdent(dim.Name))
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("sqlite: metrics report: %w", err)
	}
	defer rows.Close()

	var out []schema.ReportRow
	for rows.Next() {
		var (
			row schema.ReportRow
			day string
		)
		if err := rows.Scan(
			&day, &row.MerchantID, &row.MerchantName,
			&row.Category, &row.City, &row.State,
			&row.TxnCount, &row.ApprovedTxnCount, &row.DeclinedTxnCount,
			&row.GrossAmount, &row.ApprovedAmount,
			&row.ApprovalRate, &row.AvgTicket,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scan report row: %w", err)
		}
		if row.MetricDate, err = time.Parse(dateLayout, day); err != nil {
			return nil, fmt.Errorf("sqlite: parse metric_date %q: %w", day, err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: metrics report rows: %w", err)
	}
	return out, nil
}

// optStr unwraps optional text fields for binding; nil stays NULL.
func optStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// sqlIdent safely quotes an identifier with double quotes, escaping ".
func sqlIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }

// mapIdent maps a list of column names to their quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = sqlIdent(c)
	}
	return out
}
