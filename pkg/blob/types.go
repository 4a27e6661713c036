package blob

import (
	"context"
	"errors"
	"io"
)

var (
	ErrNotFound   = errors.New("blob not found")
	ErrInvalidKey = errors.New("invalid blob key")
)

// BlobStore is where archived snapshots are written.
type BlobStore interface {
	// Put writes content under key, replacing any previous blob.
	Put(ctx context.Context, key string, reader io.Reader) error

	// Get opens the blob under key. The caller closes it.
	Get(ctx context.Context, key string) (io.ReadCloser, error)

	// List returns the keys under prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)

	Delete(ctx context.Context, key string) error
}
