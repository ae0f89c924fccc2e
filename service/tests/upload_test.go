package service_test

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

// fakeBlob records uploads in memory.
type fakeBlob struct {
	keys []string
	fail bool
}

func (f *fakeBlob) Put(ctx context.Context, key string, contentType string, data []byte) (string, error) {
	if f.fail {
		return "", assert.AnError
	}
	f.keys = append(f.keys, key)
	return "https://cdn.example/" + key, nil
}

func (f *fakeBlob) Delete(ctx context.Context, key string) error { return nil }
func (f *fakeBlob) URL(key string) string                        { return "https://cdn.example/" + key }

func TestUploadImage_Success(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)
	fb := &fakeBlob{}
	svc.Blob = fb

	url, err := svc.UploadImage(context.Background(), "cat.png", "image/png", []byte("png-bytes"))

	assert.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "https://cdn.example/"))
	assert.Len(t, fb.keys, 1)
	// uuid prefix keeps concurrent same-name uploads apart
	assert.True(t, strings.HasSuffix(fb.keys[0], "-cat.png"))
	assert.Greater(t, len(fb.keys[0]), len("-cat.png"))
}

func TestUploadImage_TooLarge(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)
	fb := &fakeBlob{}
	svc.Blob = fb

	big := bytes.Repeat([]byte{0xff}, 5*1024*1024+1)
	_, err := svc.UploadImage(context.Background(), "big.jpg", "image/jpeg", big)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "5MB")
	assert.Empty(t, fb.keys)
}

func TestUploadImage_WrongContentType(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)
	svc.Blob = &fakeBlob{}

	for _, contentType := range []string{"image/svg+xml", "text/html", "application/pdf", ""} {
		_, err := svc.UploadImage(context.Background(), "file", contentType, []byte("data"))
		assert.Error(t, err, "expected rejection for %q", contentType)
	}
}

func TestUploadImage_SanitizesFilename(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)
	fb := &fakeBlob{}
	svc.Blob = fb

	_, err := svc.UploadImage(context.Background(), "../../etc/pass wd.png", "image/png", []byte("data"))

	assert.NoError(t, err)
	assert.Len(t, fb.keys, 1)
	assert.NotContains(t, fb.keys[0], "/")
	assert.NotContains(t, fb.keys[0], " ")
}

func TestUploadImage_Empty(t *testing.T) {
	svc, _, _, _, _, _ := setupService(t)
	svc.Blob = &fakeBlob{}

	_, err := svc.UploadImage(context.Background(), "cat.gif", "image/gif", nil)
	assert.Error(t, err)
}
