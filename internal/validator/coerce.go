package validator

import (
	"fmt"
	"math"
	"strconv"
	"time"
	"unicode/utf8"

	"scantransfer/internal/schema"
)

// DateLayout is the only calendar-date form accepted on input and the form
// clean dates are serialized back to.
const DateLayout = "2006-01-02"

// coercer converts one trimmed, non-empty cell into its target Go type. On
// failure it returns a short problem phrase instead of an error; the caller
// formats the full row diagnostic.
type coercer interface {
	coerce(trimmed string) (any, string)
}

func coercerFor(ct schema.ColumnType) (coercer, error) {
	switch ct.Kind {
	case schema.KindString:
		return stringCoercer{max: ct.MaxLength}, nil
	case schema.KindInt:
		return intCoercer{}, nil
	case schema.KindDate:
		return dateCoercer{}, nil
	case schema.KindTimestampTZ:
		return timestampCoercer{}, nil
	default:
		return nil, fmt.Errorf("unsupported column type %q for %s", ct.Kind, ct.Name)
	}
}

// stringCoercer keeps the trimmed text, enforcing the rune budget when one is
// declared.
type stringCoercer struct{ max int }

func (c stringCoercer) coerce(trimmed string) (any, string) {
	if c.max > 0 && utf8.RuneCountInString(trimmed) > c.max {
		return nil, fmt.Sprintf("max %d chars", c.max)
	}
	return trimmed, ""
}

// fracTolerance is the slack allowed when deciding whether a parsed float is
// an integer value, so "2.0" loads as 2 while "2.5" is rejected.
const fracTolerance = 1e-8

// intCoercer accepts anything that parses as a number with no meaningful
// fractional part; exports that render counts as "2.0" still load as 2.
type intCoercer struct{}

func (intCoercer) coerce(trimmed string) (any, string) {
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return i, ""
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return nil, "must be integer"
	}
	r := math.Round(f)
	if math.Abs(f-r) > fracTolerance {
		return nil, "must be integer"
	}
	return int64(r), ""
}

// dateCoercer parses strictly against the canonical calendar-date layout.
// The parsed value carries no time of day.
type dateCoercer struct{}

func (dateCoercer) coerce(trimmed string) (any, string) {
	t, err := time.Parse(DateLayout, trimmed)
	if err != nil {
		return nil, "must be YYYY-MM-DD"
	}
	return t, ""
}

// naiveLayouts are ISO-8601 forms without a zone offset; values matching them
// are taken as UTC. Fractional seconds are optional in all of them.
var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// timestampCoercer parses ISO-8601 timestamps into timezone-aware instants.
// Values with an explicit offset keep it; naive values are assumed UTC.
type timestampCoercer struct{}

func (timestampCoercer) coerce(trimmed string) (any, string) {
	if t, err := time.Parse(time.RFC3339Nano, trimmed); err == nil {
		return t, ""
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, time.UTC); err == nil {
			return t, ""
		}
	}
	return nil, "must be ISO 8601 timestamp"
}
