// Package mssql implements the warehouse repository on Microsoft SQL Server
// using the go-mssqldb bulk copy API. Loads bulk-insert into a session temp
// table (#stage) and MERGE into the target inside one transaction per
// entity.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"
	"github.com/microsoft/go-mssqldb/msdsn"

	"merchantetl/internal/schema"
	"merchantetl/internal/warehouse"
)

var (
	dim  = schema.DimMerchants()
	fact = schema.FactDailyMerchantMetrics()
)

// Repository is the SQL Server-backed warehouse.
type Repository struct {
	db *sql.DB
}

var _ warehouse.Repository = (*Repository)(nil)

// NewRepository validates the DSN and opens a lazy connection pool. Call
// Ping to verify the server is reachable.
func NewRepository(ctx context.Context, dsn string) (*Repository, error) {
	// Validate the DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(dsn); err != nil {
		return nil, fmt.Errorf("mssql: dsn: %w", err)
	}
	db, err := sql.Open("sqlserver", dsn)
	if err != nil {
		return nil, fmt.Errorf("mssql: open: %w", err)
	}
	return &Repository{db: db}, nil
}

// Ping implements warehouse.Repository.
func (r *Repository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("mssql: ping: %w", err)
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
			return fmt.Errorf("mssql: create %s: %w", td.Name, err)
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
	return r.stageAndMerge(ctx, dim.Name, schema.MerchantColumns(), rows, mergeMerchantsSQL)
}

// UpsertDailyMetrics replaces fact rows keyed by (metric_date, merchant_id).
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
	return r.stageAndMerge(ctx, fact.Name, schema.FactColumns(), rows, mergeMetricsSQL)
}

// stageAndMerge bulk-copies rows into a #temp table shaped after the
// target, then runs the MERGE, all inside one transaction. The stale stage
// is dropped first because #temp tables outlive transactions on pooled
// sessions.
func (r *Repository) stageAndMerge(
	ctx context.Context,
	target string,
	cols []string,
	rows [][]any,
	mergeSQL func(stage string) string,
) (int64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("mssql: begin tx: %w", err)
	}
	rollback := func() { _ = tx.Rollback() }

	stage := "#stage_" + target
	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS "+msIdent(stage)); err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: drop stale stage: %w", err)
	}
	create := fmt.Sprintf(
		"SELECT TOP 0 %s INTO %s FROM %s",
		strings.Join(mapIdent(cols), ", "), msIdent(stage), msIdent(target),
	)
	if _, err := tx.ExecContext(ctx, create); err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: create stage for %s: %w", target, err)
	}

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(stage, mssql.BulkOptions{}, cols...))
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			rollback()
			return 0, fmt.Errorf("mssql: bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: bulk finalize: %w", err)
	}
	staged, err := res.RowsAffected()
	if err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: rows affected: %w", err)
	}

	if _, err := tx.ExecContext(ctx, mergeSQL(stage)); err != nil {
		rollback()
		return 0, fmt.Errorf("mssql: merge into %s: %w", target, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("mssql: commit %s: %w", target, err)
	}
	return staged, nil
}

// mergeMerchantsSQL merges the stage into the dimension. Existing merchants
// keep their created_at_utc; only descriptive columns move.
func mergeMerchantsSQL(stage string) string {
	cols := schema.MerchantColumns()
	set := make([]string, 0, len(cols)-1)
	for _, c := range cols[1:] {
		set = append(set, fmt.Sprintf("T.%s = S.%s", msIdent(c), msIdent(c)))
	}
	return fmt.Sprintf(
		`MERGE %s AS T
USING %s AS S
   ON T.%s = S.%s
 WHEN MATCHED THEN UPDATE SET %s
 WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);`,
		msIdent(dim.Name), msIdent(stage),
		msIdent("merchant_id"), msIdent("merchant_id"),
		strings.Join(set, ", "),
		strings.Join(mapIdent(cols), ", "),
		strings.Join(prefixIdent("S.", cols), ", "),
	)
}

// mergeMetricsSQL merges the stage into the fact table on the composite
// key. Matched rows refresh the metric columns only; loaded_at_utc keeps
// its first-load stamp, so replaying an identical batch leaves the table
// byte-stable.
func mergeMetricsSQL(stage string) string {
	cols := schema.FactColumns()
	keys, metrics := cols[:2], cols[2:]

	on := make([]string, 0, len(keys))
	for _, c := range keys {
		on = append(on, fmt.Sprintf("T.%s = S.%s", msIdent(c), msIdent(c)))
	}
	set := make([]string, 0, len(metrics))
	for _, c := range metrics {
		set = append(set, fmt.Sprintf("T.%s = S.%s", msIdent(c), msIdent(c)))
	}

	return fmt.Sprintf(
		`MERGE %s AS T
USING %s AS S
   ON %s
 WHEN MATCHED THEN UPDATE SET %s
 WHEN NOT MATCHED THEN INSERT (%s) VALUES (%s);`,
		msIdent(fact.Name), msIdent(stage),
		strings.Join(on, " AND "),
		strings.Join(set, ", "),
		strings.Join(mapIdent(cols), ", "),
		strings.Join(prefixIdent("S.", cols), ", "),
	)
}

// Counts implements warehouse.Repository.
func (r *Repository) Counts(ctx context.Context) (warehouse.Counts, error) {
	var c warehouse.Counts
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT_BIG(*) FROM "+msIdent(dim.Name)).Scan(&c.Merchants); err != nil {
		return c, fmt.Errorf("mssql: count %s: %w", dim.Name, err)
	}
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT_BIG(*) FROM "+msIdent(fact.Name)).Scan(&c.DailyMetrics); err != nil {
		return c, fmt.Errorf("mssql: count %s: %w", fact.Name, err)
	}
	return c, nil
}

// RecentMetrics implements warehouse.Repository.
func (r *Repository) RecentMetrics(ctx context.Context, limit int) ([]schema.DailyMetric, error) {
	q := fmt.Sprintf(`
		SELECT TOP (@p1) metric_date, merchant_id, txn_count, approved_txn_count, declined_txn_count,
		       gross_amount, approved_amount, approval_rate, avg_ticket
		  FROM %s
		 ORDER BY metric_date DESC, gross_amount DESC`, msIdent(fact.Name))
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("mssql: recent metrics: %w", err)
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
			return nil, fmt.Errorf("mssql: scan metric: %w", err)
		}
		out = append(out, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql: recent metrics rows: %w", err)
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
		 ORDER BY f.metric_date, f.merchant_id`, msIdent(fact.Name), msIdent(dim.Name))
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("mssql: metrics report: %w", err)
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
			return nil, fmt.Errorf("mssql: scan report row: %w", err)
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("mssql: metrics report rows: %w", err)
	}
	return out, nil
}

// optStr unwraps optional text fields for bulk copy; nil stays NULL.
func optStr(p *string) any {
	if p == nil {
		return nil
	}
	return *p
}

// msIdent safely quotes a SQL Server identifier using [brackets], escaping ].
func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

// mapIdent maps a list of column names to their bracket-quoted forms.
func mapIdent(cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = msIdent(c)
	}
	return out
}

// prefixIdent quotes each column and prefixes it with the given alias.
func prefixIdent(prefix string, cols []string) []string {
	out := make([]string, len(cols))
	for i, c := range cols {
		out[i] = prefix + msIdent(c)
	}
	return out
}
