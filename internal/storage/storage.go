package storage

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound indicates the requested blob does not exist.
var ErrNotFound = errors.New("blob not found")

// BlobStore persists uploaded video files and their thumbnails. Keys are
// slash-separated paths of the form <ownerID>/<filename>.
type BlobStore interface {
	// Save streams the reader into the store and returns the byte count.
	// Partially written blobs are removed when the copy fails, including
	// when the context is canceled mid-write.
	Save(ctx context.Context, key string, r io.Reader) (int64, error)
	// Stat returns the blob size, or ErrNotFound.
	Stat(ctx context.Context, key string) (int64, error)
	// Open returns a reader over bytes [start, end] (end inclusive).
	// A negative end reads through the last byte.
	Open(ctx context.Context, key string, start, end int64) (io.ReadCloser, error)
	// Remove deletes the blob. Removing a missing blob returns ErrNotFound.
	Remove(ctx context.Context, key string) error
}
