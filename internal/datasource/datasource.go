// Package datasource abstracts where catalog exports come from. The pipeline
// only sees an io.ReadCloser; file paths, stdin, and compression live behind
// this interface.
package datasource

import (
	"context"
	"io"
)

type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}
