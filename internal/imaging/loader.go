package imaging

import (
	"fmt"
	"image"
	"image/draw"
	"os"
	"sync"

	"github.com/disintegration/imaging"
)

// ImageCache provides thread-safe caching of grayscale images to avoid
// redundant disk reads and conversions.
//
// The cache stores *image.Gray values keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy
// without disk I/O.
//
// # Example Usage
//
//	cache := imaging.NewImageCache()
//	img, err := cache.Load("/data/frames/harbor-frame00012.png")
//	if err != nil {
//	    return err
//	}
//	mask := polar.ExtractMask(img)
type ImageCache struct {
	mu     sync.RWMutex
	images map[string]*image.Gray
}

// NewImageCache creates and initializes a new empty image cache.
func NewImageCache() *ImageCache {
	return &ImageCache{
		images: make(map[string]*image.Gray),
	}
}

// Load retrieves a grayscale image from the cache or loads it from disk.
//
// Color images are converted with the standard luminance weights. The image is
// cached using the exact path string provided.
func (c *ImageCache) Load(path string) (*image.Gray, error) {
	c.mu.RLock()
	if img, ok := c.images[path]; ok {
		c.mu.RUnlock()
		return img, nil
	}
	c.mu.RUnlock()

	img, err := LoadGray(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.images[path] = img
	c.mu.Unlock()

	return img, nil
}

// Clear removes all images from the cache.
func (c *ImageCache) Clear() {
	c.mu.Lock()
	c.images = make(map[string]*image.Gray)
	c.mu.Unlock()
}

// Evict removes a specific image from the cache by its path.
// If the path is not in the cache, this method does nothing.
func (c *ImageCache) Evict(path string) {
	c.mu.Lock()
	delete(c.images, path)
	c.mu.Unlock()
}

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// LoadGray decodes the image at path and converts it to grayscale.
func LoadGray(path string) (*image.Gray, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}

	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %w", err)
	}

	return ToGray(img), nil
}

// ToGray returns img as an *image.Gray with bounds starting at (0,0).
//
// A *image.Gray already anchored at the origin is returned unchanged; anything
// else is copied.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Bounds().Min == (image.Point{}) {
		return g
	}

	b := img.Bounds()
	out := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}
