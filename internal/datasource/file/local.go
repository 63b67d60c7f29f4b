// Package file implements the local-filesystem input source for the
// transform commands.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
)

// Local opens input files from the local disk.
type Local struct{ path string }

// NewLocal returns a Local source bound to path.
func NewLocal(path string) *Local { return &Local{path: path} }

// Open opens the configured path for reading. A context that is already
// canceled returns the context error without touching the filesystem.
// Filesystem errors are wrapped with the path while remaining inspectable
// via errors.Is (e.g. os.ErrNotExist).
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	return f, nil
}
