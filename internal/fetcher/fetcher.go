// Package fetcher downloads open-data payloads over HTTP with per-host rate
// limiting and retries.
package fetcher

import (
	"context"
	"fmt"
	"io"
)

// Fetcher downloads remote resources.
type Fetcher interface {
	// Download fetches url and returns the response body. The caller closes it.
	Download(ctx context.Context, url string) (io.ReadCloser, error)
}

// StatusError is returned for a non-200 response that was not retried or
// still failed after retries.
type StatusError struct {
	URL  string
	Code int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d from %s", e.Code, e.URL)
}
