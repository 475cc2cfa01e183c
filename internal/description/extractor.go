package description

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

// Extractor computes one descriptor per keypoint.
//
// Compute must return exactly len(kps) rows in keypoint order. Keypoints the
// strategy cannot describe get an all-zero row instead of being dropped.
type Extractor interface {
	// Name returns the registry name of the strategy (e.g. "BRIEF").
	Name() string

	// Type is the numeric family of the produced rows.
	Type() feature.DescriptorType

	// Size is the row length: bytes for binary, float32 values for float.
	Size() int

	// Compute describes kps in img.
	Compute(img *image.Gray, kps []feature.Keypoint) (*feature.Descriptors, error)
}

// Factory builds an extractor.
type Factory func() (Extractor, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"BRIEF": func() (Extractor, error) { return &brief{}, nil },
		"ORB":   func() (Extractor, error) { return &orb{}, nil },
		"SIFT":  func() (Extractor, error) { return &sift{}, nil },
	}
)

// Register adds a strategy under name (case-insensitive). Registering an
// existing name replaces it.
func Register(name string, f Factory) {
	registryMu.Lock()
	registry[strings.ToUpper(name)] = f
	registryMu.Unlock()
}

// New returns the extractor registered under name. Unknown names return an
// error wrapping feature.ErrUnsupportedStrategy.
func New(name string) (Extractor, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToUpper(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: descriptor %q (available: %s)",
			feature.ErrUnsupportedStrategy, name, strings.Join(Names(), ", "))
	}
	return f()
}

// Names returns the registered descriptor names in sorted order.
func Names() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()

	names := make([]string, 0, len(registry))
	for n := range registry {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func validate(name string, img *image.Gray) error {
	if err := imaging.ValidateGray(img); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

// inside reports whether a keypoint lies at least border pixels away from
// every image edge.
func inside(k feature.Keypoint, width, height int, border float64) bool {
	return k.X >= border && k.Y >= border &&
		k.X < float64(width)-border && k.Y < float64(height)-border
}
