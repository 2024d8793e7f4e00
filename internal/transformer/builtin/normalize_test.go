package builtin

import (
	"reflect"
	"testing"

	"merchantetl/pkg/records"
)

/*
Normalize semantics verified here:
  - U+00A0 NO-BREAK SPACE becomes an ASCII space, then edges are trimmed,
  - values that trim down to nothing become nil,
  - fields listed in Upper are case-normalized to upper,
  - non-string values pass through unchanged,
  - records are mutated in place and the slice is reused.
*/
func TestNormalizeApply(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		upper []string
		in    []records.Record
		want  []records.Record
	}{
		{
			name: "trims_edges",
			in:   []records.Record{{"merchant_name": "  Blue Bottle\t"}},
			want: []records.Record{{"merchant_name": "Blue Bottle"}},
		},
		{
			name: "nbsp_replaced_then_trimmed",
			in:   []records.Record{{"city": nbsp + "Oakland" + nbsp}},
			want: []records.Record{{"city": "Oakland"}},
		},
		{
			name: "internal_nbsp_becomes_space",
			in:   []records.Record{{"merchant_name": "Blue" + nbsp + "Bottle"}},
			want: []records.Record{{"merchant_name": "Blue Bottle"}},
		},
		{
			name: "blank_becomes_nil",
			in:   []records.Record{{"category": "   ", "state": ""}},
			want: []records.Record{{"category": nil, "state": nil}},
		},
		{
			name:  "upper_fields_case_normalized",
			upper: []string{"status"},
			in:    []records.Record{{"status": " approved ", "merchant_id": "m_1"}},
			want:  []records.Record{{"status": "APPROVED", "merchant_id": "m_1"}},
		},
		{
			name: "non_strings_untouched",
			in:   []records.Record{{"amount": 10.5, "count": 3, "note": nil}},
			want: []records.Record{{"amount": 10.5, "count": 3, "note": nil}},
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			out := Normalize{Upper: tt.upper}.Apply(tt.in)

			if !reflect.DeepEqual(out, tt.want) {
				t.Fatalf("Apply() mismatch:\n got: %#v\nwant: %#v", out, tt.want)
			}
			// In place: same slice header, same map identities.
			if &out[0] != &tt.in[0] {
				t.Fatalf("Apply() reallocated the slice")
			}
		})
	}
}

func BenchmarkNormalizeApply(b *testing.B) {
	const n = 10000
	in := make([]records.Record, n)
	for i := 0; i < n; i++ {
		in[i] = records.Record{
			"transaction_id": "t_000001",
			"status":         " approved ",
			"amount":         "10.00",
		}
	}
	norm := Normalize{Upper: []string{"status"}}

	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		_ = norm.Apply(in)
	}
}
