package blobstore

import "context"

// Store resolves chunk identifiers returned by the vector index into
// their full text content.
type Store interface {
	// FetchText returns the stored text for a chunk id. Missing chunks
	// return ErrNotFound rather than an empty string.
	FetchText(ctx context.Context, chunkID string) (string, error)
}
