package builtin

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"merchantetl/internal/schema"
	"merchantetl/pkg/records"
)

// TimestampLayouts are the layouts accepted for timestamp fields, tried in
// order. Layouts without a zone are taken as UTC; zoned instants are
// converted to UTC. The bare date layout yields midnight.
var TimestampLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
}

// RejectedRow describes one record dropped by Validate: the raw record, the
// first failing field, its value, and why.
type RejectedRow struct {
	Raw    records.Record
	Field  string
	Value  string
	Reason string
}

// Validate checks records against a schema.Contract and coerces the typed
// fields of survivors in place: decimal fields become float64, timestamp
// fields become UTC time.Time. Invalid records are dropped and reported via
// Reject, never repaired.
type Validate struct {
	Contract schema.Contract

	// KnownField, together with Known, restricts one field to an allow-set.
	// The run uses it to enforce that every transaction references an
	// extracted merchant.
	KnownField string
	Known      map[string]struct{}

	// Reject, when set, receives each dropped record.
	Reject func(RejectedRow)
}

func (v Validate) Apply(in []records.Record) []records.Record {
	out := in[:0]
	for _, r := range in {
		if rej, ok := v.check(r); ok {
			out = append(out, r)
		} else if v.Reject != nil {
			v.Reject(rej)
		}
	}
	return out
}

// check validates one record against the contract and coerces typed values
// in place. On failure it reports the first violated constraint.
func (v Validate) check(r records.Record) (RejectedRow, bool) {
	for _, f := range v.Contract.Fields {
		val, exists := r[f.Name]
		if !exists || val == nil || val == "" {
			if f.Required {
				return RejectedRow{Raw: r, Field: f.Name, Reason: "required value missing"}, false
			}
			continue
		}

		s, isStr := val.(string)
		if !isStr {
			// Already coerced by an earlier pass.
			continue
		}

		if len(f.Enum) > 0 && !contains(f.Enum, s) {
			reason := fmt.Sprintf("value not in {%s}", strings.Join(f.Enum, ", "))
			return RejectedRow{Raw: r, Field: f.Name, Value: s, Reason: reason}, false
		}

		switch f.Type {
		case "decimal":
			amt, err := strconv.ParseFloat(s, 64)
			if err != nil || math.IsNaN(amt) || math.IsInf(amt, 0) {
				return RejectedRow{Raw: r, Field: f.Name, Value: s, Reason: "not a finite decimal"}, false
			}
			if f.Positive && amt <= 0 {
				return RejectedRow{Raw: r, Field: f.Name, Value: s, Reason: "must be greater than zero"}, false
			}
			r[f.Name] = amt
		case "timestamp":
			ts, ok := parseTimestamp(s)
			if !ok {
				return RejectedRow{Raw: r, Field: f.Name, Value: s, Reason: "not a recognized timestamp"}, false
			}
			r[f.Name] = ts
		}
	}

	if v.KnownField != "" {
		s, _ := r[v.KnownField].(string)
		if _, ok := v.Known[s]; !ok {
			return RejectedRow{Raw: r, Field: v.KnownField, Value: s, Reason: "not in the known set"}, false
		}
	}
	return RejectedRow{}, true
}

// parseTimestamp tries each accepted layout in order, returning a UTC
// instant.
func parseTimestamp(s string) (time.Time, bool) {
	for _, layout := range TimestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), true
		}
	}
	return time.Time{}, false
}

func contains(set []string, s string) bool {
	for _, v := range set {
		if v == s {
			return true
		}
	}
	return false
}
