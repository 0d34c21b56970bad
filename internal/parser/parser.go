// Package parser defines the contract for materializing a batch of records
// from raw report bytes. Concrete formats live in subpackages.
package parser

import (
	"io"

	"scantransfer/pkg/records"
)

// Parser turns a source stream into a batch. The second return value counts
// rows skipped for structural reasons (width mismatch, unparseable line);
// structural skips never become row-level diagnostics.
type Parser interface {
	Parse(r io.Reader) ([]records.Record, int, error)
}
