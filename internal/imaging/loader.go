package imaging

import (
	"fmt"
	"image"
	"sync"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// ImageCache provides thread-safe caching of decoded grayscale images to avoid
// redundant disk reads.
//
// The cache stores *image.Gray values keyed by their file path. Once an image
// is loaded, subsequent Load() calls for the same path return the cached copy
// without disk I/O. Cached images must be treated as read-only.
//
// # Memory Management
//
// Cached images remain in memory until explicitly removed via Evict() or Clear().
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

// Load retrieves a grayscale image from the cache or loads it from disk if not
// cached. Errors wrap feature.ErrInvalidInput.
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

// Len returns the number of cached images.
func (c *ImageCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.images)
}

// Clear removes all images from the cache, freeing the associated memory.
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

// LoadGray opens an image file (PNG, JPEG, GIF, BMP, TIFF) and converts it to
// 8-bit grayscale.
//
// # Errors
//
//   - Returns an error wrapping feature.ErrInvalidInput if the file does not
//     exist, cannot be decoded, or has zero width or height
func LoadGray(path string) (*image.Gray, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open image %s: %v", feature.ErrInvalidInput, path, err)
	}

	gray := ToGray(img)
	if err := ValidateGray(gray); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return gray, nil
}

// ToGray converts any image to *image.Gray with its bounds moved to the origin.
//
// Conversion goes through imaging.Grayscale, which weights channels with
// 0.299R + 0.587G + 0.114B. Images that already are *image.Gray at the origin
// are returned unchanged.
func ToGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok && g.Rect.Min == (image.Point{}) {
		return g
	}

	nrgba := imaging.Grayscale(img)
	bounds := nrgba.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	for y := 0; y < bounds.Dy(); y++ {
		src := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+bounds.Dx()*4]
		dst := gray.Pix[y*gray.Stride : y*gray.Stride+bounds.Dx()]
		for x := range dst {
			dst[x] = src[x*4]
		}
	}
	return gray
}

// ValidateGray returns feature.ErrInvalidInput for nil or zero-area images.
func ValidateGray(img *image.Gray) error {
	if img == nil {
		return fmt.Errorf("%w: nil image", feature.ErrInvalidInput)
	}
	if img.Rect.Empty() {
		return fmt.Errorf("%w: empty image %v", feature.ErrInvalidInput, img.Rect)
	}
	return nil
}

// DimensionsResult contains the width and height of an image.
type DimensionsResult struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Dimensions returns the size of a loaded image.
func Dimensions(img image.Image) DimensionsResult {
	b := img.Bounds()
	return DimensionsResult{Width: b.Dx(), Height: b.Dy()}
}
