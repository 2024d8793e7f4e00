// Package datasource abstracts where input bytes come from so the pipeline
// can read CSVs from local disk or over HTTP without caring which.
package datasource

import (
	"context"
	"io"
	"strings"

	"merchantetl/internal/datasource/file"
	"merchantetl/internal/datasource/httpds"
)

// Source is a named stream of input bytes. Open respects context
// cancellation; the caller owns the returned ReadCloser.
type Source interface {
	// Name identifies the source in logs and errors, typically a path or URL.
	Name() string
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ForPath returns a Source for location. http:// and https:// locations are
// fetched with retrying GETs; anything else is treated as a local filesystem
// path.
func ForPath(location string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return httpds.NewRemote(location)
	}
	return file.NewLocal(location)
}
