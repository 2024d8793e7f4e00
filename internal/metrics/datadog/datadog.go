// Package datadog emits pipeline metrics over DogStatsD. Labels become
// Datadog tags; counters map to Count and histograms to Histogram. The
// package keeps the statsd dependency out of the run logic, which only sees
// metrics.Backend.
package datadog

import (
	"fmt"
	"sort"

	"github.com/DataDog/datadog-go/v5/statsd"

	"merchantetl/internal/metrics"
)

// Config holds the DogStatsD connection settings.
type Config struct {
	// Addr is the agent address: "host:port" or "unix:///path/to/socket".
	Addr string

	// Namespace prefixes every metric name, e.g. "merchant_etl.".
	Namespace string

	// GlobalTags ride on every emission, e.g. "env:prod".
	GlobalTags []string
}

// Backend forwards metrics.Backend calls to a DogStatsD client.
type Backend struct {
	client statsd.ClientInterface
}

var _ metrics.Backend = (*Backend)(nil)

// NewBackend dials the agent at cfg.Addr. An empty Addr is a configuration
// error, not a silent nop; callers that want no metrics should not install
// a backend at all.
func NewBackend(cfg Config) (*Backend, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("datadog: Addr is required")
	}

	var opts []statsd.Option
	if cfg.Namespace != "" {
		opts = append(opts, statsd.WithNamespace(cfg.Namespace))
	}
	if len(cfg.GlobalTags) > 0 {
		opts = append(opts, statsd.WithTags(cfg.GlobalTags))
	}

	c, err := statsd.New(cfg.Addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("datadog: create client: %w", err)
	}
	return &Backend{client: c}, nil
}

// newWithClient wires an explicit client; tests use it with a fake.
func newWithClient(c statsd.ClientInterface) *Backend { return &Backend{client: c} }

// IncCounter implements metrics.Backend. Fractional deltas are truncated;
// the pipeline only emits whole-row counts.
func (b *Backend) IncCounter(name string, delta float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Count(name, int64(delta), tagsFor(labels), 1)
}

// ObserveHistogram implements metrics.Backend.
func (b *Backend) ObserveHistogram(name string, value float64, labels metrics.Labels) {
	if b.client == nil {
		return
	}
	_ = b.client.Histogram(name, value, tagsFor(labels), 1)
}

// Flush implements metrics.Backend. The statsd client buffers datagrams, so
// a batch run must drain them before exiting; Close flushes and releases the
// socket in one step.
func (b *Backend) Flush() error {
	if b.client == nil {
		return nil
	}
	return b.client.Close()
}

// tagsFor renders labels as "key:value" tags in sorted key order, so a given
// label set always produces the same tag list.
func tagsFor(lbls metrics.Labels) []string {
	if len(lbls) == 0 {
		return nil
	}
	keys := make([]string, 0, len(lbls))
	for k := range lbls {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	tags := make([]string, 0, len(keys))
	for _, k := range keys {
		tags = append(tags, k+":"+lbls[k])
	}
	return tags
}
