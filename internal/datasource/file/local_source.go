// Package file reads pipeline inputs from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens a single file from local disk.
type Local struct{ path string }

// NewLocal returns a Local source for path. The path is not checked until
// Open is called.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name returns the configured path.
func (l *Local) Name() string { return l.path }

// Open opens the file for reading. A context that is already done short
// circuits before any filesystem access. Failures wrap the underlying os
// error so callers can still use errors.Is(err, os.ErrNotExist).
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
