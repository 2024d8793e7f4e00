// Package transformer defines the record cleaning stage of the pipeline: a
// single-method interface plus a Chain combinator. Concrete transforms live
// in the builtin subpackage.
package transformer

import "merchantetl/pkg/records"

// Transformer rewrites or filters a batch of records. Implementations may
// mutate records and reslice the input in place.
type Transformer interface {
	Apply([]records.Record) []records.Record
}

// Chain is an ordered list of transformers applied left to right.
type Chain []Transformer

func (c Chain) Apply(in []records.Record) []records.Record {
	out := in
	for _, t := range c {
		out = t.Apply(out)
	}
	return out
}
