package blob

import "context"

// BlobStore holds uploaded sticker images and returns the URL clients use to
// fetch them back.
type BlobStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}
