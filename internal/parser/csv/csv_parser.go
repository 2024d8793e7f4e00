// Package csv parses delimited text into records keyed by canonical column
// names. The first row is always treated as the header; header cells are
// lowercased, de-accented, and mapped to snake_case so downstream code can
// rely on a stable vocabulary regardless of how the export spelled them.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"merchantetl/pkg/records"
)

// Options configures parsing. All fields are optional.
type Options struct {
	// Comma is the field delimiter. Zero means ','.
	Comma rune

	// TrimSpace trims leading and trailing whitespace from every cell.
	TrimSpace bool

	// HeaderMap renames canonicalized source headers to final keys, for
	// inputs whose column names differ from the warehouse vocabulary.
	// Keys are post-canonicalization names.
	HeaderMap map[string]string

	// OnSkip, when set, receives each malformed row that was dropped,
	// with its 1-based line number. Skipped rows are counted either way.
	OnSkip func(line int, err error)
}

// Parser parses CSV input according to Options. A Parser may be reused
// across inputs but is not safe for concurrent use.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads all rows from r. It returns the parsed records, the canonical
// header in source column order, and the number of malformed rows that were
// skipped. Rows whose width does not match the header, or that fail CSV
// parsing, are skipped and counted rather than failing the whole input.
// Empty cells become nil values. An input with no bytes at all yields no
// records and a nil header.
func (p *Parser) Parse(r io.Reader) ([]records.Record, []string, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1

	head, err := cr.Read()
	if err == io.EOF {
		return nil, nil, 0, nil
	}
	if err != nil {
		return nil, nil, 0, fmt.Errorf("read csv header: %w", err)
	}
	header := canonicalHeader(head, p.opt.HeaderMap)

	var (
		out     []records.Record
		skipped int
	)
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			p.skip(line, err)
			skipped++
			continue
		}
		if len(row) != len(header) {
			p.skip(line, fmt.Errorf("want %d fields, got %d", len(header), len(row)))
			skipped++
			continue
		}

		rec := make(records.Record, len(row))
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[header[i]] = emptyToNil(val)
		}
		out = append(out, rec)
	}
	return out, header, skipped, nil
}

func (p *Parser) skip(line int, err error) {
	if p.opt.OnSkip != nil {
		p.opt.OnSkip(line, err)
	}
}

// emptyToNil converts an empty string to nil so blank cells load as NULL.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
