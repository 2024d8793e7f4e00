// Package prompush pushes pipeline metrics to a Prometheus Pushgateway.
//
// A batch run has no lifetime to scrape, so instead of an HTTP endpoint the
// backend accumulates counters and summaries in its own registry and pushes
// the lot once, on Flush, grouped under the job name. Everything
// Prometheus-specific stays in this package; the run logic only sees
// metrics.Backend.
package prompush

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"merchantetl/internal/metrics"
)

// Backend collects run metrics into a private registry for one push.
type Backend struct {
	gatewayURL string // e.g. http://pushgateway:9091
	jobName    string // Pushgateway grouping key

	reg *prometheus.Registry

	stepCounter   *prometheus.CounterVec // etl_step_total{step,status}
	stepDuration  *prometheus.SummaryVec // etl_step_duration_seconds{step,status}
	recordCounter *prometheus.CounterVec // etl_records_total{kind}
	upsertCounter *prometheus.CounterVec // etl_rows_upserted_total{table}
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend builds a backend pushing to gatewayURL under jobName. The job
// label is the Pushgateway grouping key, so the collectors carry only the
// per-series labels.
func NewBackend(jobName, gatewayURL string) (*Backend, error) {
	if gatewayURL == "" {
		return nil, fmt.Errorf("prompush: gateway URL is required")
	}
	if jobName == "" {
		jobName = "merchant_etl"
	}

	b := &Backend{
		gatewayURL: gatewayURL,
		jobName:    jobName,
		reg:        prometheus.NewRegistry(),
		stepCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_step_total",
			Help: "Pipeline stage executions, partitioned by step and status.",
		}, []string{"step", "status"}),
		stepDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "etl_step_duration_seconds",
			Help:       "Pipeline stage durations in seconds, partitioned by step and status.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"step", "status"}),
		recordCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_records_total",
			Help: "Record counts per kind (txns_read, duplicates, rejected, valid, daily_rows).",
		}, []string{"kind"}),
		upsertCounter: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "etl_rows_upserted_total",
			Help: "Rows merged into the warehouse, partitioned by target table.",
		}, []string{"table"}),
	}

	for _, c := range []prometheus.Collector{
		b.stepCounter, b.stepDuration, b.recordCounter, b.upsertCounter,
	} {
		if err := b.reg.Register(c); err != nil {
			return nil, fmt.Errorf("prompush: register collector: %w", err)
		}
	}
	return b, nil
}

// IncCounter implements metrics.Backend, routing by metric name. Names
// outside the fixed set are dropped; the facade only emits these three.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	switch name {
	case "etl_step_total":
		if b.stepCounter != nil {
			b.stepCounter.WithLabelValues(labels["step"], labels["status"]).Add(delta)
		}
	case "etl_records_total":
		if b.recordCounter != nil {
			b.recordCounter.WithLabelValues(labels["kind"]).Add(delta)
		}
	case "etl_rows_upserted_total":
		if b.upsertCounter != nil {
			b.upsertCounter.WithLabelValues(labels["table"]).Add(delta)
		}
	}
}

// ObserveHistogram implements metrics.Backend. Only the stage duration
// summary exists; other names are dropped.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if name != "etl_step_duration_seconds" || b.stepDuration == nil {
		return
	}
	b.stepDuration.WithLabelValues(labels["step"], labels["status"]).Observe(value)
}

// Flush pushes the registry to the Pushgateway under the job group.
func (b *Backend) Flush() error {
	return push.New(b.gatewayURL, b.jobName).
		Gatherer(b.reg).
		Push()
}
