package datadog

import (
	"reflect"
	"testing"

	"github.com/DataDog/datadog-go/v5/statsd"

	"merchantetl/internal/metrics"
)

// fakeClient records statsd calls. Embedding NoOpClient satisfies the rest
// of the wide client interface.
type fakeClient struct {
	statsd.NoOpClient

	counts     []countCall
	histograms []histCall
	closed     int
}

type countCall struct {
	name  string
	value int64
	tags  []string
}

type histCall struct {
	name  string
	value float64
	tags  []string
}

func (f *fakeClient) Count(name string, value int64, tags []string, rate float64) error {
	f.counts = append(f.counts, countCall{name, value, tags})
	return nil
}

func (f *fakeClient) Histogram(name string, value float64, tags []string, rate float64) error {
	f.histograms = append(f.histograms, histCall{name, value, tags})
	return nil
}

func (f *fakeClient) Close() error {
	f.closed++
	return nil
}

// TestNewBackendRequiresAddr pins the fail-fast on a blank agent address.
func TestNewBackendRequiresAddr(t *testing.T) {
	t.Parallel()

	b, err := NewBackend(Config{})
	if err == nil {
		t.Fatalf("NewBackend(empty Addr) error = nil, want non-nil")
	}
	if b != nil {
		t.Fatalf("NewBackend(empty Addr) backend = %v, want nil", b)
	}
}

// TestBackendForwardsCalls checks counters and histograms reach the client
// with labels rendered as sorted key:value tags.
func TestBackendForwardsCalls(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := newWithClient(fc)

	b.IncCounter("etl_records_total", 42, metrics.Labels{"kind": "valid", "job": "merchant_etl"})
	b.ObserveHistogram("etl_step_duration_seconds", 1.25, metrics.Labels{"step": "load"})

	if len(fc.counts) != 1 {
		t.Fatalf("counts = %d calls, want 1", len(fc.counts))
	}
	c := fc.counts[0]
	if c.name != "etl_records_total" || c.value != 42 {
		t.Fatalf("count = %s/%d, want etl_records_total/42", c.name, c.value)
	}
	if want := []string{"job:merchant_etl", "kind:valid"}; !reflect.DeepEqual(c.tags, want) {
		t.Fatalf("tags = %v, want %v (sorted)", c.tags, want)
	}

	if len(fc.histograms) != 1 {
		t.Fatalf("histograms = %d calls, want 1", len(fc.histograms))
	}
	h := fc.histograms[0]
	if h.name != "etl_step_duration_seconds" || h.value != 1.25 {
		t.Fatalf("histogram = %s/%v, want etl_step_duration_seconds/1.25", h.name, h.value)
	}
	if want := []string{"step:load"}; !reflect.DeepEqual(h.tags, want) {
		t.Fatalf("histogram tags = %v, want %v", h.tags, want)
	}
}

// TestFlushClosesClient verifies Flush drains and closes exactly once per
// call, and that a nil-client backend is a safe no-op throughout.
func TestFlushClosesClient(t *testing.T) {
	t.Parallel()

	fc := &fakeClient{}
	b := newWithClient(fc)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}
	if fc.closed != 1 {
		t.Fatalf("closed = %d, want 1", fc.closed)
	}

	empty := &Backend{}
	empty.IncCounter("etl_step_total", 1, nil)
	empty.ObserveHistogram("etl_step_duration_seconds", 1, nil)
	if err := empty.Flush(); err != nil {
		t.Fatalf("Flush() on empty backend error = %v", err)
	}
}
