// Package xlsx materializes scan-report batches from Excel workbooks. The
// vendor delivers daily and weekly reports as .xlsx, so this is the primary
// ingest format; cells are read as display strings and blanks become nil,
// matching the CSV parser's shape exactly.
package xlsx

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"scantransfer/internal/columns"
	"scantransfer/pkg/records"
)

// Options configures the Excel parser.
type Options struct {
	// Sheet selects the worksheet to read. Empty means the first sheet.
	Sheet string

	// Aliases maps canonicalized source headers to schema column names.
	Aliases map[string]string
}

// Parser parses a single worksheet into a batch of records.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the selected sheet, canonicalizes the first row as the header,
// and converts each following row to a record. Excel omits trailing empty
// cells, so short rows are padded to the header width; rows wider than the
// header are truncated to it. The skip count is always zero for Excel input
// since the worksheet grid cannot produce width errors the way a malformed
// CSV line can.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, 0, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheet := p.opt.Sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, 0, fmt.Errorf("read sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, 0, nil
	}
	keys := columns.Normalize(rows[0], p.opt.Aliases)

	var out []records.Record
	for n, row := range rows[1:] {
		rec := make(records.Record, len(keys)+1)
		rec[records.LineKey] = n + 2
		for i, key := range keys {
			var val string
			if i < len(row) {
				val = strings.TrimSpace(row[i])
			}
			if val == "" {
				rec[key] = nil
			} else {
				rec[key] = val
			}
		}
		out = append(out, rec)
	}
	return out, 0, nil
}
