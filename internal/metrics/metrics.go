// Package metrics records operational counters and timings from the ETL run
// behind a pluggable Backend. The default backend is a nop, so every call
// site stays unconditional; cmd/etl installs a real backend (prompush or
// datadog) when one is configured. The pattern mirrors the warehouse driver
// registry: the run logic sees only this package, concrete systems live in
// subpackages.
package metrics

import "time"

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the sink for counters and duration observations. Flush pushes
// buffered data for backends that need it (Pushgateway, statsd).
type Backend interface {
	IncCounter(name string, delta float64, labels Labels)
	ObserveHistogram(name string, value float64, labels Labels)
	Flush() error
}

type nopBackend struct{}

func (nopBackend) IncCounter(string, float64, Labels)       {}
func (nopBackend) ObserveHistogram(string, float64, Labels) {}
func (nopBackend) Flush() error                             { return nil }

var backend Backend = nopBackend{}

// SetBackend installs a concrete backend. Nil keeps the current one.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	backend = b
}

// Flush delegates to the current backend.
func Flush() error {
	return backend.Flush()
}

// RecordStep emits one stage execution: a count under etl_step_total and its
// duration under etl_step_duration_seconds, labeled with the step name and
// success/failure derived from err.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	lbls := Labels{"job": job, "step": step, "status": status}
	backend.IncCounter("etl_step_total", 1, lbls)
	backend.ObserveHistogram("etl_step_duration_seconds", d.Seconds(), lbls)
}

// RecordRow adds delta to etl_records_total for one kind of row event. Kinds
// mirror the run summary: txns_read, duplicates, valid, rejected, daily_rows.
// Non-positive deltas are dropped so callers can pass raw differences.
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	backend.IncCounter("etl_records_total", float64(delta), Labels{
		"job":  job,
		"kind": kind,
	})
}

// RecordUpsert counts rows merged into a warehouse table.
func RecordUpsert(job, table string, rows int64) {
	if rows <= 0 {
		return
	}
	backend.IncCounter("etl_rows_upserted_total", float64(rows), Labels{
		"job":   job,
		"table": table,
	})
}
