package builtin

import (
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"merchantetl/pkg/records"
)

// DeDup drops records whose key fields match an earlier record, keeping the
// first occurrence in input order. The seen-set stores xxh3 hashes of the
// joined key rather than the keys themselves, so memory stays flat on wide
// keys. Records missing a key field pass through untouched; rejecting those
// is the validate stage's job.
type DeDup struct {
	// Keys are the field names forming the record identity,
	// e.g. ["transaction_id"].
	Keys []string
}

func (d DeDup) Apply(in []records.Record) []records.Record {
	if len(in) == 0 || len(d.Keys) == 0 {
		return in
	}

	seen := make(map[uint64]struct{}, len(in))
	out := in[:0]
	for _, r := range in {
		key, ok := d.keyOf(r)
		if !ok {
			out = append(out, r)
			continue
		}
		h := xxh3.HashString(key)
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, r)
	}
	return out
}

// keyOf joins the key field values with an unlikely separator, with a
// distinct sentinel for nil. A missing field (as opposed to a nil value)
// removes the record from the dedup domain.
func (d DeDup) keyOf(r records.Record) (string, bool) {
	var b strings.Builder
	for _, k := range d.Keys {
		v, ok := r[k]
		if !ok {
			return "", false
		}
		if b.Len() > 0 {
			b.WriteByte('\x1f')
		}
		switch t := v.(type) {
		case nil:
			b.WriteByte('\x00')
		case string:
			b.WriteString(t)
		default:
			b.WriteString(fmt.Sprint(t))
		}
	}
	return b.String(), true
}
