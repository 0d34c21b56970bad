// Package schema defines the declarative row contracts the validation engine
// runs against: which canonical columns a report carries, which of them must
// be non-null, which cheap pattern checks apply, and the process-wide column
// type specification that drives coercion.
package schema

import (
	"fmt"
	"strings"
)

// Kind identifies the semantic target type of a column.
type Kind string

const (
	KindString      Kind = "string"
	KindInt         Kind = "int"
	KindDate        Kind = "date"
	KindTimestampTZ Kind = "timestamptz"
)

// Validation is a cheap pre-coercion check for one column. The pattern is
// evaluated against present values only; missing values are the not-null
// checker's responsibility, so the same root cause is never reported twice.
type Validation struct {
	Column  string
	Kind    string // currently always "numeric"
	Pattern string // anchored regular expression
}

// Schema describes one report contract. Columns fixes the retained column set
// and the output ordering. NotNull lists columns that must hold a non-blank
// value. Validations are an ordered slice, not a map, so the sequence in
// which diagnostics are appended is deterministic.
type Schema struct {
	Name        string
	Columns     []string
	NotNull     []string
	Validations []Validation
}

// ColumnType declares the coercion target for one canonical column.
type ColumnType struct {
	Name      string
	Kind      Kind
	MaxLength int // rune budget for KindString; 0 means unbounded
}

// TypeSpec is the ordered, process-wide column type mapping. It is the single
// source of truth for coercion; its order fixes the sequence in which
// coercion diagnostics are appended to a row.
type TypeSpec []ColumnType

// Lookup returns the type declaration for the named column.
func (ts TypeSpec) Lookup(name string) (ColumnType, bool) {
	for _, ct := range ts {
		if ct.Name == name {
			return ct, true
		}
	}
	return ColumnType{}, false
}

// Covers verifies that every column the schema declares has a type mapping.
// A gap is a configuration error: processing must be refused before any row
// is touched rather than surfacing per-row diagnostics.
func (ts TypeSpec) Covers(s Schema) error {
	var missing []string
	for _, col := range s.Columns {
		if _, ok := ts.Lookup(col); !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("type spec lacks definitions for schema %q columns: %s",
			s.Name, strings.Join(missing, ", "))
	}
	return nil
}
