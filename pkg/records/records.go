// Package records defines the row representation shared by the parser and
// the transformer chain: an untyped field map keyed by canonical column name.
package records

import "fmt"

// Record is a single parsed row. Values start out as strings (or nil for
// empty cells) exactly as read from the source; typed stages convert them.
type Record map[string]any

// String returns the field rendered as a string, or "" when absent or nil.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Has reports whether the field is present with a non-nil value.
func (r Record) Has(key string) bool {
	v, ok := r[key]
	return ok && v != nil
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
