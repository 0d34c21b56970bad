// Package transformer defines the in-memory record transformation stages the
// pipeline runs between parsing and validation.
package transformer

import "scantransfer/pkg/records"

// Transformer rewrites a batch of records and returns the (possibly same)
// batch. Implementations may mutate records in place.
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
