package client

import "log"

// Image is the decoded image resource for a sticker, opaque to the
// engine; the renderer decides what it actually is.
type Image any

// ImageLoader fetches and decodes an image by URL.
type ImageLoader interface {
	Load(url string) (Image, error)
}

// imageCache loads each URL at most once. Stickers frequently share an
// image (placing the same sticker twice, or a remote update echoing a
// known URL), so entries are reused rather than refetched.
type imageCache struct {
	loader ImageLoader
	images map[string]Image
}

func newImageCache(loader ImageLoader) *imageCache {
	return &imageCache{
		loader: loader,
		images: make(map[string]Image),
	}
}

func (c *imageCache) get(url string) Image {
	if img, ok := c.images[url]; ok {
		return img
	}
	if c.loader == nil {
		return nil
	}
	img, err := c.loader.Load(url)
	if err != nil {
		log.Printf("Failed to load image %s: %v", url, err)
		return nil
	}
	c.images[url] = img
	return img
}
