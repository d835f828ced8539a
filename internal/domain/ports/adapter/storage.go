package adapter

import (
	"context"
	"io"
)

// DocumentStorage stores verification documents out of process.
type DocumentStorage interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error
	Remove(ctx context.Context, key string) error
}
