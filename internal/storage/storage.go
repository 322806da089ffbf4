package storage

import "context"

// Store is the blob store used for QR images, videos and thumbnails.
// Implementations must bound each call with a timeout and surface
// domain.ErrStorageUnavailable when the backend cannot be reached.
type Store interface {
	// Upload stores data under objectKey and returns the key back
	Upload(ctx context.Context, objectKey string, data []byte, contentType string) (string, error)
	// URL returns the full public URL for a stored object key
	URL(objectKey string) string
}
