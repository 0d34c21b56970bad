package validator

import (
	"testing"
	"time"

	"scantransfer/internal/schema"
)

/*
TestIntCoercer covers the numeric edge cases: plain ints, float renderings,
scientific notation, values near the fractional tolerance, and garbage.
*/
func TestIntCoercer(t *testing.T) {
	c := intCoercer{}
	cases := []struct {
		in      string
		want    int64
		problem bool
	}{
		{"0", 0, false},
		{"42", 42, false},
		{"-7", -7, false},
		{"2.0", 2, false},
		{"2.000000001", 2, false}, // inside tolerance
		{"1e3", 1000, false},
		{"2.5", 0, true},
		{"2.01", 0, true},
		{"abc", 0, true},
		{"1 2", 0, true},
		{"9223372036854775807", 9223372036854775807, false},
	}
	for _, tc := range cases {
		got, problem := c.coerce(tc.in)
		if (problem != "") != tc.problem {
			t.Errorf("coerce(%q) problem = %q; want failure=%v", tc.in, problem, tc.problem)
			continue
		}
		if !tc.problem && got != tc.want {
			t.Errorf("coerce(%q) = %#v; want %d", tc.in, got, tc.want)
		}
	}
}

/*
TestStringCoercer verifies the rune budget counts characters, not bytes.
*/
func TestStringCoercer(t *testing.T) {
	c := stringCoercer{max: 3}
	if _, problem := c.coerce("abcd"); problem != "max 3 chars" {
		t.Errorf("problem = %q; want max 3 chars", problem)
	}
	if got, problem := c.coerce("あいう"); problem != "" || got != "あいう" {
		t.Errorf("3 multibyte runes rejected: (%#v, %q)", got, problem)
	}
	unbounded := stringCoercer{}
	if _, problem := unbounded.coerce("any length at all"); problem != "" {
		t.Errorf("unbounded string rejected: %q", problem)
	}
}

/*
TestDateCoercer checks strict layout handling: padded ISO dates only.
*/
func TestDateCoercer(t *testing.T) {
	c := dateCoercer{}
	if got, problem := c.coerce("2024-02-29"); problem != "" {
		t.Errorf("leap day rejected: %q", problem)
	} else if got.(time.Time) != time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC) {
		t.Errorf("got %v", got)
	}
	for _, bad := range []string{"2023-02-29", "2024-1-1", "29-06-2024", "2024/06/29", "20240629"} {
		if _, problem := c.coerce(bad); problem == "" {
			t.Errorf("coerce(%q) accepted; want rejection", bad)
		}
	}
}

/*
TestTimestampCoercer checks the accepted ISO-8601 forms and UTC defaulting.
*/
func TestTimestampCoercer(t *testing.T) {
	c := timestampCoercer{}
	utc := time.Date(2024, 6, 29, 10, 30, 0, 0, time.UTC)
	accepted := map[string]time.Time{
		"2024-06-29T10:30:00Z":          utc,
		"2024-06-29T10:30:00":           utc,
		"2024-06-29 10:30:00":           utc,
		"2024-06-29T10:30:00.500":       utc.Add(500 * time.Millisecond),
		"2024-06-29":                    time.Date(2024, 6, 29, 0, 0, 0, 0, time.UTC),
		"2024-06-29T19:30:00+09:00":     utc,
		"2024-06-29T10:30:00.000000001": utc.Add(time.Nanosecond),
	}
	for in, want := range accepted {
		got, problem := c.coerce(in)
		if problem != "" {
			t.Errorf("coerce(%q) rejected: %q", in, problem)
			continue
		}
		if !got.(time.Time).Equal(want) {
			t.Errorf("coerce(%q) = %v; want instant %v", in, got, want)
		}
	}
	for _, bad := range []string{"29/06/2024", "today", "2024-06-29T99:00:00"} {
		if _, problem := c.coerce(bad); problem != "must be ISO 8601 timestamp" {
			t.Errorf("coerce(%q) problem = %q; want rejection", bad, problem)
		}
	}
}

/*
TestCoercerFor rejects unknown kinds as configuration errors.
*/
func TestCoercerFor(t *testing.T) {
	if _, err := coercerFor(schema.ColumnType{Name: "x", Kind: "uuid"}); err == nil {
		t.Fatal("coercerFor(uuid) = nil error; want failure")
	}
}
