package etl

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"merchantetl/internal/logger"
	"merchantetl/internal/schema"
)

// writeInput drops content into a fresh temp file and returns its path.
func writeInput(tb testing.TB, name, content string) string {
	tb.Helper()
	path := filepath.Join(tb.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		tb.Fatalf("write %s: %v", name, err)
	}
	return path
}

// testLogger returns a logger that stays quiet during tests.
func testLogger() zerolog.Logger {
	return logger.NewWithWriter(io.Discard, "error")
}

// TestExtractReadsRows parses a merchants file, including a UTF-8 BOM on the
// header, and checks canonical keys and nil for blank cells.
func TestExtractReadsRows(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "merchants.csv",
		"\uFEFFmerchant_id,merchant_name,category,city,state\n"+
			"m_1,Corner Cafe,cafe,Portland,OR\n"+
			"m_2,Bodega Two,,Austin,TX\n")

	recs, err := extract(context.Background(), path, schema.MerchantsContract(), testLogger())
	if err != nil {
		t.Fatalf("extract() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if got := recs[0].String("merchant_id"); got != "m_1" {
		t.Fatalf("recs[0][merchant_id] = %q, want m_1", got)
	}
	if got := recs[1].String("merchant_name"); got != "Bodega Two" {
		t.Fatalf("recs[1][merchant_name] = %q, want Bodega Two", got)
	}
	// Blank cells load as nil, not "".
	if recs[1].Has("category") {
		t.Fatalf("recs[1][category] = %v, want nil", recs[1]["category"])
	}
}

// TestExtractSchemaError checks that a missing required column fails with a
// *SchemaError naming the source file and the column.
func TestExtractSchemaError(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "transactions.csv",
		"transaction_id,merchant_id,txn_ts_utc,amount,payment_method\n"+
			"t_1,m_1,2026-01-01T10:00:00Z,10.00,CARD\n")

	_, err := extract(context.Background(), path, schema.TransactionsContract(), testLogger())

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if se.Source != path {
		t.Fatalf("Source = %q, want %q", se.Source, path)
	}
	if !reflect.DeepEqual(se.Missing, []string{"status"}) {
		t.Fatalf("Missing = %v, want [status]", se.Missing)
	}
}

// TestExtractEmptyFile verifies that a zero-byte input reports every
// required column of the contract as missing.
func TestExtractEmptyFile(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "transactions.csv", "")

	_, err := extract(context.Background(), path, schema.TransactionsContract(), testLogger())

	var se *SchemaError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	want := []string{"transaction_id", "merchant_id", "txn_ts_utc", "amount", "status"}
	if !reflect.DeepEqual(se.Missing, want) {
		t.Fatalf("Missing = %v, want %v", se.Missing, want)
	}
}

// TestExtractOpenError checks that a nonexistent path surfaces the
// filesystem error, not a schema one.
func TestExtractOpenError(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "nope.csv")

	_, err := extract(context.Background(), path, schema.MerchantsContract(), testLogger())
	if err == nil {
		t.Fatalf("extract() error = nil, want open failure")
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("errors.Is(err, os.ErrNotExist) = false for %v", err)
	}
	var se *SchemaError
	if errors.As(err, &se) {
		t.Fatalf("open failure surfaced as *SchemaError: %v", err)
	}
}

// TestExtractSkipsMalformedRows verifies that a short row is dropped and
// logged while the rest of the file parses.
func TestExtractSkipsMalformedRows(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "merchants.csv",
		"merchant_id,merchant_name,category,city,state\n"+
			"m_1,Corner Cafe,cafe,Portland,OR\n"+
			"m_2,too short\n"+
			"m_3,Bodega,,,\n")

	var buf bytes.Buffer
	log := logger.NewWithWriter(&buf, "warn")

	recs, err := extract(context.Background(), path, schema.MerchantsContract(), log)
	if err != nil {
		t.Fatalf("extract() error = %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("len(recs) = %d, want 2", len(recs))
	}
	if !strings.Contains(buf.String(), "malformed row skipped") {
		t.Fatalf("log output missing skip warning: %s", buf.String())
	}
}

// TestExtractCancelledContext confirms a done context short-circuits before
// any file access.
func TestExtractCancelledContext(t *testing.T) {
	t.Parallel()

	path := writeInput(t, "merchants.csv", "merchant_id,merchant_name\nm_1,Cafe\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := extract(ctx, path, schema.MerchantsContract(), testLogger())
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}
