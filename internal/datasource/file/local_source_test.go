package file

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// TestLocalOpen covers the three paths a run can hit: a readable file, a
// missing file, and a context that is already done at call time.
func TestLocalOpen(t *testing.T) {
	t.Parallel()

	t.Run("reads_content", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "merchants.csv")
		const payload = "merchant_id,merchant_name\nm_1001,Blue Bottle"
		if err := os.WriteFile(p, []byte(payload), 0o644); err != nil {
			t.Fatalf("write fixture: %v", err)
		}

		rc, err := NewLocal(p).Open(context.Background())
		if err != nil {
			t.Fatalf("Open() error: %v", err)
		}
		defer rc.Close()

		got, err := io.ReadAll(rc)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if string(got) != payload {
			t.Fatalf("content = %q, want %q", got, payload)
		}
	})

	t.Run("missing_file_wraps_not_exist", func(t *testing.T) {
		t.Parallel()

		p := filepath.Join(t.TempDir(), "absent.csv")
		rc, err := NewLocal(p).Open(context.Background())
		if rc != nil {
			rc.Close()
		}
		if !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("errors.Is(err, os.ErrNotExist) = false, err = %v", err)
		}
		if !strings.Contains(err.Error(), p) {
			t.Fatalf("error %q does not name the path", err)
		}
	})

	t.Run("done_context_short_circuits", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := NewLocal("unused.csv").Open(ctx)
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("err = %v, want context.Canceled", err)
		}
	})
}

func TestLocalName(t *testing.T) {
	t.Parallel()

	if got := NewLocal("data/transactions.csv").Name(); got != "data/transactions.csv" {
		t.Fatalf("Name() = %q, want the configured path", got)
	}
}

// BenchmarkLocalOpen measures open+close of a small file, the per-input cost
// paid once per run.
func BenchmarkLocalOpen(b *testing.B) {
	p := filepath.Join(b.TempDir(), "data.csv")
	if err := os.WriteFile(p, []byte("a,b\n1,2"), 0o644); err != nil {
		b.Fatalf("write fixture: %v", err)
	}

	src := NewLocal(p)
	ctx := context.Background()

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		rc, err := src.Open(ctx)
		if err != nil {
			b.Fatal(err)
		}
		if err := rc.Close(); err != nil {
			b.Fatal(err)
		}
	}
}
