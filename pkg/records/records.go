// Package records defines the in-memory row representation shared by the
// parser, transformer, validator, and storage layers.
package records

// Record is a single tabular row keyed by canonical column name. A missing
// cell is represented by an absent key or a nil value; parsers store
// empty cells as nil so every downstream stage shares one notion of NULL.
// Values start out as strings and may be replaced by typed values (int64,
// time.Time) once coercion succeeds.
type Record map[string]any

// LineKey stores a record's 1-based source line (header on line 1). Parsers
// set it so diagnostics keep pointing at the original file position even
// when structurally broken rows were skipped during parsing. The key is not
// a schema column; stages that emit schema-shaped output drop it.
const LineKey = "_source_line"

// Line returns the source line stored under LineKey, or fallback when the
// record does not carry one.
func (r Record) Line(fallback int) int {
	if n, ok := r[LineKey].(int); ok {
		return n
	}
	return fallback
}

// String returns the string stored under key. ok is false when the key is
// absent, nil, or holds a non-string value.
func (r Record) String(key string) (string, bool) {
	v, exists := r[key]
	if !exists || v == nil {
		return "", false
	}
	s, isStr := v.(string)
	return s, isStr
}

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	out := make(Record, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}
