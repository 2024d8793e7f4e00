// Package builtin contains the pipeline's reusable record transformers:
// Normalize for whitespace and case cleanup, DeDup for keep-first identity
// deduplication, and Validate for contract checks with in-place coercion.
package builtin

import (
	"strings"

	"merchantetl/pkg/records"
)

// nbsp is U+00A0 NO-BREAK SPACE, which exports sometimes use as padding.
const nbsp = " "

// Normalize trims surrounding whitespace from every string value, converting
// no-break spaces to plain spaces first, and uppercases the fields listed in
// Upper. Values that trim down to nothing become nil so the pipeline has a
// single representation for blank. Records are mutated in place.
type Normalize struct {
	// Upper lists fields whose values are case-normalized to upper, such as
	// transaction status codes.
	Upper []string
}

func (n Normalize) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for k, v := range r {
			s, ok := v.(string)
			if !ok {
				continue
			}
			if strings.Contains(s, nbsp) {
				s = strings.ReplaceAll(s, nbsp, " ")
			}
			s = strings.TrimSpace(s)
			if s == "" {
				r[k] = nil
			} else {
				r[k] = s
			}
		}
		for _, k := range n.Upper {
			if s, ok := r[k].(string); ok {
				r[k] = strings.ToUpper(s)
			}
		}
	}
	return in
}
