// Package storage defines the sink abstraction for clean scan records.
// Concrete sinks live in subpackages; the pipeline depends only on
// Repository so runs without a database still work.
package storage

import (
	"context"

	"scantransfer/pkg/records"
)

// Repository loads one report's clean records for the date window it covers.
// Load replaces the window: whatever the table already holds for
// [startDate, endDate] is removed before the new records go in, so re-running
// a report is safe. Dates are YYYY-MM-DD. It returns the number of records
// loaded.
type Repository interface {
	Load(ctx context.Context, startDate, endDate string, recs []records.Record) (int64, error)
}
