// Package csvout writes the clean and invalid halves of a validated batch as
// CSV files. Clean output renders typed values back into canonical text, so a
// clean file can be re-ingested and validates with zero findings; invalid
// output appends the diagnostic and original row number so an operator can
// line findings up with the source report.
package csvout

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"scantransfer/internal/schema"
	"scantransfer/internal/validator"
	"scantransfer/pkg/records"
)

// WriteClean renders clean records as CSV. Columns follow the schema's
// declared order; any extra record keys come after, sorted, so output stays
// byte-stable across runs.
func WriteClean(w io.Writer, sch schema.Schema, types schema.TypeSpec, recs []records.Record) error {
	cols := orderColumns(sch, recs)

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(cols))
	for _, rec := range recs {
		for i, c := range cols {
			row[i] = formatValue(types, c, rec[c])
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteInvalid renders invalid rows as CSV with the cleaned field values plus
// trailing _error and _row_number columns.
func WriteInvalid(w io.Writer, sch schema.Schema, rows []validator.InvalidRow) error {
	cols := make([]string, 0, len(sch.Columns)+2)
	cols = append(cols, sch.Columns...)
	cols = append(cols, "_error", "_row_number")

	cw := csv.NewWriter(w)
	if err := cw.Write(cols); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	row := make([]string, len(cols))
	for _, ir := range rows {
		for i, c := range sch.Columns {
			row[i] = formatValue(nil, c, ir.Fields[c])
		}
		row[len(cols)-2] = ir.Diagnostic
		row[len(cols)-1] = strconv.Itoa(ir.RowNumber)
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write record: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// orderColumns returns the schema columns followed by any extra record keys
// in sorted order.
func orderColumns(sch schema.Schema, recs []records.Record) []string {
	cols := append([]string(nil), sch.Columns...)
	declared := make(map[string]bool, len(cols))
	for _, c := range cols {
		declared[c] = true
	}

	extraSet := map[string]bool{}
	for _, rec := range recs {
		for k := range rec {
			if !declared[k] && !extraSet[k] {
				extraSet[k] = true
			}
		}
	}
	extra := make([]string, 0, len(extraSet))
	for k := range extraSet {
		extra = append(extra, k)
	}
	sort.Strings(extra)
	return append(cols, extra...)
}

// formatValue renders one cell. Typed values format per their column kind;
// missing values become empty cells.
func formatValue(types schema.TypeSpec, col string, v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case time.Time:
		if ct, ok := types.Lookup(col); ok && ct.Kind == schema.KindDate {
			return t.Format(validator.DateLayout)
		}
		return t.Format(time.RFC3339)
	default:
		return fmt.Sprint(t)
	}
}
