// Package builtin contains the reusable transformers the scan-report
// pipeline is assembled from: column-targeted domain cleaning, default
// filling, and intra-batch de-duplication.
package builtin

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"

	"scantransfer/pkg/records"
)

// CleanFunc rewrites one cell value. keep=false turns the cell into a missing
// value (nil); whether that is a problem is the not-null checker's decision,
// not the cleaner's.
type CleanFunc func(value string) (cleaned string, keep bool)

// Clean applies business-specific, column-targeted rewrites ahead of generic
// validation. Columns without a registered func are left untouched; columns
// absent from a record stay absent. Adding a rule for a new column is a map
// entry, not a pipeline change.
type Clean struct {
	Funcs map[string]CleanFunc
}

func (c Clean) Apply(in []records.Record) []records.Record {
	for _, r := range in {
		for col, fn := range c.Funcs {
			v, exists := r[col]
			if !exists || v == nil {
				continue
			}
			s, isStr := v.(string)
			if !isStr {
				continue
			}
			if cleaned, keep := fn(s); keep {
				r[col] = cleaned
			} else {
				r[col] = nil
			}
		}
	}
	return in
}

// CleanStoreID normalizes store identifiers. NFKC compatibility folding maps
// full-width digits, spaces, and parentheses to their ASCII equivalents;
// parentheses introduced by text qualifiers are removed, all whitespace is
// collapsed away, and leading zeros from import quirks are stripped. An
// identifier that ends up empty becomes missing.
func CleanStoreID(value string) (string, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return "", false
	}

	text = norm.NFKC.String(text)
	text = strings.NewReplacer("(", "", ")", "").Replace(text)
	text = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, text)
	text = strings.TrimLeft(text, "0")

	if text == "" {
		return "", false
	}
	return text, true
}

// CleanScannerID trims scanner identifiers while keeping the NULL allowance:
// a value that is blank after trimming becomes missing.
func CleanScannerID(value string) (string, bool) {
	text := strings.TrimSpace(value)
	return text, text != ""
}

// ScanReportCleaners is the default cleaning registry for scan report files.
func ScanReportCleaners() map[string]CleanFunc {
	return map[string]CleanFunc{
		"store_id":   CleanStoreID,
		"scanner_id": CleanScannerID,
	}
}
