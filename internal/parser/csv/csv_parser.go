// Package csv materializes scan-report batches from CSV sources. It tolerates
// a UTF-8 byte order mark on the header, canonicalizes headers through the
// alias table, and stores blank cells as nil so the validation engine sees a
// single notion of NULL.
package csv

import (
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"scantransfer/internal/columns"
	"scantransfer/pkg/records"
)

// Options configures the CSV parser. All fields are optional; zero values get
// sensible defaults.
type Options struct {
	// Comma is the field delimiter; ',' when zero.
	Comma rune

	// Aliases maps canonicalized source headers to schema column names.
	Aliases map[string]string

	// TrimSpace trims leading/trailing space from each cell value.
	TrimSpace bool
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs, but Parser itself is not concurrency-safe.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser { return &Parser{opt: opt} }

// Parse reads the header row, canonicalizes it, and converts each data row to
// a record keyed by canonical column name. Rows whose width differs from the
// header are skipped and counted rather than failing the file. Each record
// carries its source line under records.LineKey, so diagnostics downstream
// keep pointing at the original file position across skips.
func (p *Parser) Parse(r io.Reader) ([]records.Record, int, error) {
	cr := csv.NewReader(r)
	if p.opt.Comma != 0 {
		cr.Comma = p.opt.Comma
	}
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, 0, nil
	}
	if err != nil {
		return nil, 0, fmt.Errorf("read header: %w", err)
	}
	keys := columns.Normalize(header, p.opt.Aliases)

	var out []records.Record
	var skipped int
	for line := 2; ; line++ {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("skipping row %d: %v", line, err)
			skipped++
			continue
		}
		if len(row) != len(keys) {
			log.Printf("skipping row %d: expected %d fields, got %d", line, len(keys), len(row))
			skipped++
			continue
		}
		rec := make(records.Record, len(row)+1)
		for i, val := range row {
			if p.opt.TrimSpace {
				val = strings.TrimSpace(val)
			}
			rec[keys[i]] = emptyToNil(val)
		}
		rec[records.LineKey] = line
		out = append(out, rec)
	}
	return out, skipped, nil
}

// emptyToNil converts an empty string to nil; other values pass through.
func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
