// Package file implements a local filesystem report source, used when scan
// reports are dropped into a directory by an upstream sync job.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a report file from local disk.
type Local struct{ path string }

// NewLocal binds a Local source to path. The file is not touched until Open.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open returns a reader over the file. A context already canceled at call
// time short-circuits without touching the filesystem; filesystem errors are
// wrapped with the path and remain inspectable with errors.Is (for example
// errors.Is(err, os.ErrNotExist) for a report that has not landed yet).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
