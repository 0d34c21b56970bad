// Package datasource abstracts where report bytes come from. The transfer job
// reads the same scan reports either from a local drop directory or from the
// vendor's HTTP endpoint; both are exposed through Source so the ingest path
// does not care which.
package datasource

import (
	"context"
	"io"
)

// Source yields a single report's bytes. Implementations must allow repeated
// Open calls; each call returns a fresh reader.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
