package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LocalBlobStore writes uploads to a directory served by the HTTP file
// server. Used when no S3 bucket is configured.
type LocalBlobStore struct {
	dir     string
	baseURL string
}

func NewLocalBlobStore(dir string, baseURL string) (*LocalBlobStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &LocalBlobStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

func (b *LocalBlobStore) Put(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	// Keys are generated server side, but reject path traversal anyway
	if key != filepath.Base(key) {
		return "", fmt.Errorf("invalid blob key '%s'", key)
	}

	path := filepath.Join(b.dir, key)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return b.URL(key), nil
}

func (b *LocalBlobStore) Delete(ctx context.Context, key string) error {
	if key != filepath.Base(key) {
		return fmt.Errorf("invalid blob key '%s'", key)
	}
	return os.Remove(filepath.Join(b.dir, key))
}

func (b *LocalBlobStore) URL(key string) string {
	return b.baseURL + "/" + key
}
