package schema

import (
	"path/filepath"
	"regexp"
	"strings"
)

// ScanReportColumns is the canonical column ordering for scan report files,
// mirroring the warehouse table definition.
var ScanReportColumns = []string{
	"scan_date",
	"point_card_id",
	"store_id",
	"employee_id",
	"shoe_sold",
	"shoe_exist_in_db",
	"shoes_marked_sold_rwa",
	"insole_sold",
	"shoe_functional",
	"size_recommendation",
	"safesize_code",
	"scanner_id",
	"created_at",
}

// Aliases maps canonicalized source headers to schema column names. The
// unnamed_* entries absorb the junk headers some exports produce for the
// trailing scan-date column.
var Aliases = map[string]string{
	"sspc":                        "point_card_id",
	"store_id":                    "store_id",
	"employee_id":                 "employee_id",
	"shoe_sold":                   "shoe_sold",
	"shoe_exist_in_database":      "shoe_exist_in_db",
	"shoes_marked_as_sold_in_rwa": "shoes_marked_sold_rwa",
	"insole_sold":                 "insole_sold",
	"shoe_functionally":           "shoe_functional",
	"shoe_functional":             "shoe_functional",
	"size_recommendation":         "size_recommendation",
	"safesize_code":               "safesize_code",
	"scanner_id":                  "scanner_id",
	"scan_date":                   "scan_date",
	"unnamed_11":                  "scan_date",
}

// ScanReportTypes is the process-wide type spec. It must cover every column
// any scan-report schema references; Covers enforces that at setup time.
var ScanReportTypes = TypeSpec{
	{Name: "scan_date", Kind: KindDate},
	{Name: "point_card_id", Kind: KindString, MaxLength: 16},
	{Name: "store_id", Kind: KindString, MaxLength: 6},
	{Name: "employee_id", Kind: KindString, MaxLength: 7},
	{Name: "shoe_sold", Kind: KindInt},
	{Name: "shoe_exist_in_db", Kind: KindInt},
	{Name: "shoes_marked_sold_rwa", Kind: KindInt},
	{Name: "insole_sold", Kind: KindInt},
	{Name: "shoe_functional", Kind: KindInt},
	{Name: "size_recommendation", Kind: KindInt},
	{Name: "safesize_code", Kind: KindString, MaxLength: 50},
	{Name: "scanner_id", Kind: KindString, MaxLength: 50},
	{Name: "created_at", Kind: KindTimestampTZ},
}

// Schemas registers the known report contracts keyed by file stem.
var Schemas = map[string]Schema{
	"scan_report_daily":  scanReportSchema("scan_report_daily"),
	"scan_report_weekly": scanReportSchema("scan_report_weekly"),
}

func scanReportSchema(name string) Schema {
	return Schema{
		Name:    name,
		Columns: ScanReportColumns,
		NotNull: []string{"scan_date", "store_id", "employee_id", "safesize_code"},
		Validations: []Validation{
			{Column: "store_id", Kind: "numeric", Pattern: `^[0-9]+$`},
			{Column: "employee_id", Kind: "numeric", Pattern: `^[0-9]{7}$`},
		},
	}
}

// ForFile resolves the schema for a report file from its base name. Both the
// bare stem ("scan_report_daily.csv") and the dated object key the downloader
// writes ("scan_report_daily_20240628.xlsx") match.
func ForFile(filename string) (Schema, bool) {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	if s, ok := Schemas[stem]; ok {
		return s, true
	}
	stem = datedStem.ReplaceAllString(stem, "")
	s, ok := Schemas[stem]
	return s, ok
}

var datedStem = regexp.MustCompile(`_[0-9]{8}$`)
