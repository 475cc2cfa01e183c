package detection

import (
	"fmt"
	"image"
	"sort"
	"strings"
	"sync"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

// Detector finds keypoints in a grayscale image.
//
// Implementations must be deterministic for a fixed image and configuration
// and must return feature.ErrInvalidInput for nil or empty images.
type Detector interface {
	// Name returns the registry name of the strategy (e.g. "SHITOMASI").
	Name() string

	// Detect returns the keypoints found in img. An image without salient
	// points yields an empty slice and a nil error.
	Detect(img *image.Gray) ([]feature.Keypoint, error)
}

// Options tunes the built-in strategies. Zero fields fall back to
// DefaultOptions values; each strategy only reads the fields it uses.
type Options struct {
	// BlockSize is the neighbourhood used for the structure tensor. Zero
	// selects the strategy default (4 for SHITOMASI, 2 for HARRIS).
	BlockSize int `json:"block_size,omitempty"`

	// ApertureSize is the Sobel aperture (HARRIS). Only 3 is supported.
	ApertureSize int `json:"aperture_size,omitempty"`

	// QualityLevel is the minimum accepted corner quality relative to the
	// best corner in the image (SHITOMASI).
	QualityLevel float64 `json:"quality_level,omitempty"`

	// MinDistance is the minimum Euclidean distance between returned corners
	// (SHITOMASI). Defaults to BlockSize.
	MinDistance float64 `json:"min_distance,omitempty"`

	// MaxCorners caps the SHITOMASI output. Zero derives the cap from the
	// image area and MinDistance.
	MaxCorners int `json:"max_corners,omitempty"`

	// HarrisK is the free parameter of the Harris response.
	HarrisK float64 `json:"harris_k,omitempty"`

	// MinResponse is the threshold on the normalized (0..255) Harris response.
	MinResponse float64 `json:"min_response,omitempty"`

	// FASTThreshold is the intensity difference for the FAST segment test
	// (FAST, ORB).
	FASTThreshold int `json:"fast_threshold,omitempty"`

	// MaxFeatures is the number of ORB keypoints retained.
	MaxFeatures int `json:"max_features,omitempty"`

	// Octaves is the number of SIFT scale-space octaves.
	Octaves int `json:"octaves,omitempty"`

	// ContrastThreshold filters weak SIFT extrema (relative, as in Lowe's paper).
	ContrastThreshold float64 `json:"contrast_threshold,omitempty"`
}

// DefaultOptions returns the parameters used by the reference configuration.
func DefaultOptions() Options {
	return Options{
		ApertureSize:      3,
		QualityLevel:      0.01,
		HarrisK:           0.04,
		MinResponse:       100,
		FASTThreshold:     30,
		MaxFeatures:       500,
		Octaves:           2,
		ContrastThreshold: 0.04,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.ApertureSize <= 0 {
		o.ApertureSize = d.ApertureSize
	}
	if o.QualityLevel <= 0 {
		o.QualityLevel = d.QualityLevel
	}
	if o.HarrisK <= 0 {
		o.HarrisK = d.HarrisK
	}
	if o.MinResponse <= 0 {
		o.MinResponse = d.MinResponse
	}
	if o.FASTThreshold <= 0 {
		o.FASTThreshold = d.FASTThreshold
	}
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = d.MaxFeatures
	}
	if o.Octaves <= 0 {
		o.Octaves = d.Octaves
	}
	if o.ContrastThreshold <= 0 {
		o.ContrastThreshold = d.ContrastThreshold
	}
	return o
}

// Factory builds a detector from options.
type Factory func(Options) (Detector, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{
		"SHITOMASI": newShiTomasi,
		"HARRIS":    newHarris,
		"FAST":      newFAST,
		"ORB":       newORB,
		"SIFT":      newSIFT,
	}
)

// Register adds a strategy under name (case-insensitive). Registering an
// existing name replaces it.
func Register(name string, f Factory) {
	registryMu.Lock()
	registry[strings.ToUpper(name)] = f
	registryMu.Unlock()
}

// New returns the detector registered under name.
//
// Unknown names return an error wrapping feature.ErrUnsupportedStrategy.
// No image is touched.
func New(name string, opts Options) (Detector, error) {
	registryMu.RLock()
	f, ok := registry[strings.ToUpper(name)]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: detector %q (available: %s)",
			feature.ErrUnsupportedStrategy, name, strings.Join(Names(), ", "))
	}
	return f(opts.withDefaults())
}

// Names returns the registered detector names in sorted order.
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

// validate checks the image and returns its float plane dimensions.
func validate(name string, img *image.Gray) (width, height int, err error) {
	if err := imaging.ValidateGray(img); err != nil {
		return 0, 0, fmt.Errorf("%s: %w", name, err)
	}
	b := img.Bounds()
	return b.Dx(), b.Dy(), nil
}
