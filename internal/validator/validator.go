// Package validator implements the schema-driven validation and type-coercion
// engine. It consumes a batch of canonically-keyed records and partitions it
// into clean rows (typed values, schema column set only) and invalid rows
// (domain-cleaned string values plus row number and accumulated diagnostic).
//
// Row-level failures are never Go errors: every constraint and coercion
// failure is appended to the offending row's diagnostic and the row lands in
// the invalid partition. The only errors Validate returns are configuration
// problems detected before any row is touched.
package validator

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"scantransfer/internal/schema"
	"scantransfer/pkg/records"
)

// FragmentKind classifies a diagnostic fragment by the stage that produced it.
type FragmentKind string

const (
	FragNotNull FragmentKind = "not_null"
	FragPattern FragmentKind = "pattern"
	FragType    FragmentKind = "type"
)

// Fragment is a single constraint or coercion failure for one row. Fragments
// accumulate in stage order (not-null, then pattern, then coercion in type
// spec order) and are joined to text only at the partition boundary.
type Fragment struct {
	Kind    FragmentKind
	Column  string
	Message string
}

// InvalidRow couples a rejected row with its diagnostics. Fields holds the
// domain-cleaned string values restricted to the schema's columns. RowNumber
// is the 1-based position in the source file with the header on line 1, so
// the first data row is 2. Records carrying a parser-assigned source line
// (records.LineKey) report that line, so rows skipped during parsing do not
// shift the numbers of everything after them; records without one fall back
// to their batch position.
type InvalidRow struct {
	Fields     records.Record
	RowNumber  int
	Fragments  []Fragment
	Diagnostic string
}

// Result is the partition of one batch. Every input row lands in exactly one
// of the two slices, in input order.
type Result struct {
	Clean   []records.Record
	Invalid []InvalidRow
}

// Validator validates batches of one report contract against the shared type
// spec. Construct it with Schema and Types set; internal metadata (compiled
// patterns, coercers) is built once on first use. A built Validator is
// read-only and safe to share across concurrently processed batches.
type Validator struct {
	Schema schema.Schema
	Types  schema.TypeSpec

	metaOnce sync.Once
	metaErr  error
	patterns []compiledPattern
	coercers []columnCoercer
}

type compiledPattern struct {
	column  string
	message string
	re      *regexp.Regexp
}

type columnCoercer struct {
	column string
	co     coercer
}

// buildMeta compiles per-column metadata and runs the setup-time checks: type
// spec coverage and pattern validity. Any failure here is a configuration
// error and is returned from every subsequent Validate call.
func (v *Validator) buildMeta() error {
	v.metaOnce.Do(func() {
		if err := v.Types.Covers(v.Schema); err != nil {
			v.metaErr = err
			return
		}
		for _, val := range v.Schema.Validations {
			if val.Kind != "numeric" {
				v.metaErr = fmt.Errorf("schema %q: unsupported validation kind %q for %s",
					v.Schema.Name, val.Kind, val.Column)
				return
			}
			re, err := regexp.Compile(val.Pattern)
			if err != nil {
				v.metaErr = fmt.Errorf("schema %q: pattern for %s: %w", v.Schema.Name, val.Column, err)
				return
			}
			// The employee identifier gets a more specific message than the
			// generic numeric one.
			msg := fmt.Sprintf("Invalid %s (must be numeric)", val.Column)
			if val.Column == "employee_id" {
				msg = fmt.Sprintf("Invalid %s (must be 7 digits)", val.Column)
			}
			v.patterns = append(v.patterns, compiledPattern{column: val.Column, message: msg, re: re})
		}
		for _, ct := range v.Types {
			co, err := coercerFor(ct)
			if err != nil {
				v.metaErr = err
				return
			}
			v.coercers = append(v.coercers, columnCoercer{column: ct.Name, co: co})
		}
	})
	return v.metaErr
}

// Validate partitions batch into clean and invalid rows. The batch is assumed
// to be canonically keyed and domain-cleaned; Validate itself never rewrites
// input values, it only reads them and builds fresh output records.
func (v *Validator) Validate(batch []records.Record) (Result, error) {
	if err := v.buildMeta(); err != nil {
		return Result{}, err
	}

	frags := make([][]Fragment, len(batch))
	coerced := make([]records.Record, len(batch))

	// NOT NULL constraints: missing, or blank after trimming.
	for _, col := range v.Schema.NotNull {
		for i, r := range batch {
			if isBlank(r, col) {
				frags[i] = append(frags[i], Fragment{
					Kind:    FragNotNull,
					Column:  col,
					Message: "NOT NULL violation: " + col,
				})
			}
		}
	}

	// Pattern validations fire only for present values; a missing value was
	// already the not-null checker's to report. Values are matched untrimmed,
	// so stray whitespace fails the pattern.
	for _, p := range v.patterns {
		for i, r := range batch {
			s, present := presentString(r, p.column)
			if !present {
				continue
			}
			if !p.re.MatchString(s) {
				frags[i] = append(frags[i], Fragment{
					Kind:    FragPattern,
					Column:  p.column,
					Message: p.message,
				})
			}
		}
	}

	// Type coercion in type spec order. A blank-after-trim value is NULL for
	// this stage and coerces to missing; a column's failure never blocks the
	// evaluation of other columns on the same row. Values that are already
	// typed (a re-validated clean batch) pass through unchanged.
	for _, cc := range v.coercers {
		for i, r := range batch {
			orig, exists := r[cc.column]
			if !exists || orig == nil {
				continue
			}
			if coerced[i] == nil {
				coerced[i] = make(records.Record)
			}
			raw, isStr := orig.(string)
			if !isStr {
				coerced[i][cc.column] = orig
				continue
			}
			trimmed := strings.TrimSpace(raw)
			if trimmed == "" {
				coerced[i][cc.column] = nil
				continue
			}
			val, problem := cc.co.coerce(trimmed)
			if problem != "" {
				frags[i] = append(frags[i], Fragment{
					Kind:    FragType,
					Column:  cc.column,
					Message: fmt.Sprintf("Invalid %s (%s)", cc.column, problem),
				})
				continue
			}
			coerced[i][cc.column] = val
		}
	}

	// Partition. Clean rows carry coerced values; invalid rows keep their
	// cleaned string form for diagnostic transparency. Both are restricted to
	// the schema's declared columns.
	var res Result
	for i, r := range batch {
		if len(frags[i]) == 0 {
			clean := make(records.Record, len(v.Schema.Columns))
			for _, col := range v.Schema.Columns {
				orig, exists := r[col]
				if !exists {
					continue
				}
				if cv, ok := coerced[i][col]; ok {
					clean[col] = cv
				} else {
					clean[col] = orig
				}
			}
			res.Clean = append(res.Clean, clean)
			continue
		}

		inv := InvalidRow{
			Fields:     make(records.Record, len(v.Schema.Columns)),
			RowNumber:  r.Line(i + 2),
			Fragments:  frags[i],
			Diagnostic: JoinFragments(frags[i]),
		}
		for _, col := range v.Schema.Columns {
			if orig, exists := r[col]; exists {
				inv.Fields[col] = orig
			}
		}
		res.Invalid = append(res.Invalid, inv)
	}
	return res, nil
}

// JoinFragments renders the accumulated diagnostic text: fragment messages in
// append order, separated by "; ", no trailing separator.
func JoinFragments(frags []Fragment) string {
	if len(frags) == 0 {
		return ""
	}
	parts := make([]string, len(frags))
	for i, f := range frags {
		parts[i] = f.Message
	}
	return strings.Join(parts, "; ")
}

// isBlank reports whether the column is missing or blank after trimming.
// Non-string values (already typed) are never blank.
func isBlank(r records.Record, col string) bool {
	v, exists := r[col]
	if !exists || v == nil {
		return true
	}
	if s, isStr := v.(string); isStr {
		return strings.TrimSpace(s) == ""
	}
	return false
}

// presentString returns the string form of a present (non-missing) value.
func presentString(r records.Record, col string) (string, bool) {
	v, exists := r[col]
	if !exists || v == nil {
		return "", false
	}
	if s, isStr := v.(string); isStr {
		return s, true
	}
	return fmt.Sprint(v), true
}
