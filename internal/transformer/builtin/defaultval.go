package builtin

import (
	"strings"

	"scantransfer/pkg/records"
)

// Default fills a missing or blank field with a fixed value. The pipeline
// uses it to apply a caller-supplied scan_date override before validation;
// records that already carry a non-blank value are left alone.
type Default struct {
	Field string
	Value string
}

func (d Default) Apply(in []records.Record) []records.Record {
	if d.Field == "" || d.Value == "" {
		return in
	}
	for _, r := range in {
		v, exists := r[d.Field]
		if !exists || v == nil {
			r[d.Field] = d.Value
			continue
		}
		if s, isStr := v.(string); isStr && strings.TrimSpace(s) == "" {
			r[d.Field] = d.Value
		}
	}
	return in
}
