package service

import (
	"context"
	"errors"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/gofrs/uuid/v5"
)

const maxUploadBytes = 5 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
}

var unsafeFilenameChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// UploadImage stores a sticker image and returns its public URL. The key is
// uuid-prefixed so concurrent uploads of the same filename never collide.
func (s *Service) UploadImage(ctx context.Context, filename string, contentType string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty upload")
	}
	if len(data) > maxUploadBytes {
		return "", errors.New("image exceeds 5MB limit")
	}
	if !allowedImageTypes[strings.ToLower(contentType)] {
		return "", errors.New("only jpeg, png and gif images are allowed")
	}

	id, err := uuid.NewV4()
	if err != nil {
		return "", err
	}

	base := unsafeFilenameChars.ReplaceAllString(filepath.Base(filename), "_")
	if base == "" || base == "." {
		base = "image"
	}
	key := id.String() + "-" + base

	return s.Blob.Put(ctx, key, contentType, data)
}
