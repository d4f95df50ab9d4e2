// Package archive keeps raw provider webhook payloads in object storage so
// dropped or misparsed deliveries can be replayed or inspected later.
// Archiving is always best-effort.
package archive

import (
	"context"
	"io"
)

type Store interface {
	Put(ctx context.Context, key string, body io.Reader, contentType string) error
	// Check probes the store for the health endpoint.
	Check(ctx context.Context) error
}

// Noop is used when no bucket is configured.
type Noop struct{}

func (Noop) Put(context.Context, string, io.Reader, string) error { return nil }
func (Noop) Check(context.Context) error                          { return nil }

var _ Store = (*Noop)(nil)
