package csv

import (
	"reflect"
	"strings"
	"testing"

	"scantransfer/pkg/records"
)

/*
TestParse_HeaderCanonicalization verifies BOM stripping, alias resolution,
and blank-cell-to-nil conversion on a realistic scan report fragment.
*/
func TestParse_HeaderCanonicalization(t *testing.T) {
	aliases := map[string]string{
		"sspc":       "point_card_id",
		"unnamed_11": "scan_date",
	}
	input := "\uFEFFSSPC,Store ID,Unnamed: 11\n" +
		"PC01,123,2024-06-29\n" +
		"PC02,,\n"

	p := NewParser(Options{Aliases: aliases})
	got, skipped, err := p.Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 0 {
		t.Fatalf("skipped = %d; want 0", skipped)
	}
	want := []records.Record{
		{"point_card_id": "PC01", "store_id": "123", "scan_date": "2024-06-29", records.LineKey: 2},
		{"point_card_id": "PC02", "store_id": nil, "scan_date": nil, records.LineKey: 3},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse = %#v; want %#v", got, want)
	}
}

/*
TestParse_WidthMismatch verifies rows with the wrong field count are skipped
and counted instead of failing the file, and that surviving rows keep their
original source line so a skip never shifts the numbering of later rows.
*/
func TestParse_WidthMismatch(t *testing.T) {
	input := "a,b\n1,2\n1,2,3\n4,5\n"
	got, skipped, err := NewParser(Options{}).Parse(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if skipped != 1 {
		t.Errorf("skipped = %d; want 1", skipped)
	}
	want := []records.Record{
		{"a": "1", "b": "2", records.LineKey: 2},
		{"a": "4", "b": "5", records.LineKey: 4},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse = %#v; want %#v", got, want)
	}
}

/*
TestParse_Options covers the delimiter and trim options plus the empty-input
case.
*/
func TestParse_Options(t *testing.T) {
	got, _, err := NewParser(Options{Comma: ';', TrimSpace: true}).
		Parse(strings.NewReader("A;B\n x ;y\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	want := []records.Record{{"a": "x", "b": "y", records.LineKey: 2}}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("Parse = %#v; want %#v", got, want)
	}

	empty, skipped, err := NewParser(Options{}).Parse(strings.NewReader(""))
	if err != nil || skipped != 0 || empty != nil {
		t.Fatalf("empty input: (%#v, %d, %v)", empty, skipped, err)
	}
}

/*
TestParse_TrimSpaceBlankBecomesNil verifies that a whitespace-only cell
becomes missing when trimming is enabled, and stays a string otherwise.
*/
func TestParse_TrimSpaceBlankBecomesNil(t *testing.T) {
	trimmed, _, err := NewParser(Options{TrimSpace: true}).
		Parse(strings.NewReader("a\n\" \"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if trimmed[0]["a"] != nil {
		t.Errorf("trimmed blank = %#v; want nil", trimmed[0]["a"])
	}

	raw, _, err := NewParser(Options{}).Parse(strings.NewReader("a\n\" \"\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if raw[0]["a"] != " " {
		t.Errorf("raw blank = %#v; want \" \"", raw[0]["a"])
	}
}
