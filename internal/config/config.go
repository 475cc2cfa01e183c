// Package config loads the tracker configuration from the environment.
//
// Values come from TRACKER_* environment variables, optionally seeded from
// a .env file. Command-line flags in cmd/feature-tracker override them.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
	"github.com/ironsheep/feature-tracker/internal/logger"
	"github.com/ironsheep/feature-tracker/internal/tracking"
)

// DefaultROI is the reference region of interest (the preceding vehicle in
// the KITTI sequence).
var DefaultROI = feature.Rect{X: 535, Y: 180, Width: 180, Height: 150}

// Config holds every recognised option.
type Config struct {
	Detector   string
	Descriptor string
	// Metric is "binary" or "float". Empty derives it from the descriptor.
	Metric   string
	Selector string
	Ratio    float64
	Buffer   int
	// ROI is nil when tracking is not restricted.
	ROI         *feature.Rect
	KeypointCap int
	Visualize   bool

	ImageDir    string
	ImagePrefix string
	ImageExt    string
	Start       int
	End         int
	FillWidth   int

	OutputDir string
	LogLevel  string
}

// Load reads the configuration from the environment. When envFile is not
// empty it is loaded first; variables already set in the environment win.
// A missing envFile is not an error. Numeric and boolean variables that do
// not parse fail with feature.ErrInvalidInput, naming every bad variable.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	roi, err := ParseROI(getEnv("TRACKER_ROI", DefaultROI.String()))
	if err != nil {
		return nil, err
	}

	var env envReader
	cfg := &Config{
		Detector:    getEnv("TRACKER_DETECTOR", "SHITOMASI"),
		Descriptor:  getEnv("TRACKER_DESCRIPTOR", "BRIEF"),
		Metric:      getEnv("TRACKER_METRIC", ""),
		Selector:    getEnv("TRACKER_SELECTOR", "knn-ratio"),
		Ratio:       env.asFloat("TRACKER_RATIO", 0.8),
		Buffer:      env.asInt("TRACKER_BUFFER", 2),
		ROI:         roi,
		KeypointCap: env.asInt("TRACKER_KEYPOINT_CAP", 0),
		Visualize:   env.asBool("TRACKER_VISUALIZE", false),
		ImageDir:    getEnv("TRACKER_IMAGE_DIR", "images/KITTI/2011_09_26/image_00/data"),
		ImagePrefix: getEnv("TRACKER_IMAGE_PREFIX", "000000"),
		ImageExt:    getEnv("TRACKER_IMAGE_EXT", ".png"),
		Start:       env.asInt("TRACKER_START", 0),
		End:         env.asInt("TRACKER_END", 9),
		FillWidth:   env.asInt("TRACKER_FILL_WIDTH", 4),
		OutputDir:   getEnv("TRACKER_OUTPUT_DIR", "output"),
		LogLevel:    getEnv("TRACKER_LOG_LEVEL", "info"),
	}
	if err := errors.Join(env.errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports the first malformed value.
func (c *Config) Validate() error {
	if c.Detector == "" {
		return fmt.Errorf("%w: detector is empty", feature.ErrInvalidInput)
	}
	if c.Descriptor == "" {
		return fmt.Errorf("%w: descriptor is empty", feature.ErrInvalidInput)
	}
	if c.Ratio <= 0 || c.Ratio > 1 {
		return fmt.Errorf("%w: ratio %v outside (0, 1]", feature.ErrInvalidInput, c.Ratio)
	}
	if c.Buffer < 1 {
		return fmt.Errorf("%w: buffer capacity %d < 1", feature.ErrInvalidInput, c.Buffer)
	}
	if c.KeypointCap < 0 {
		return fmt.Errorf("%w: keypoint cap %d < 0", feature.ErrInvalidInput, c.KeypointCap)
	}
	if c.ROI != nil && (c.ROI.Width <= 0 || c.ROI.Height <= 0) {
		return fmt.Errorf("%w: empty region of interest %s", feature.ErrInvalidInput, c.ROI)
	}
	if c.End < c.Start {
		return fmt.Errorf("%w: end index %d before start %d", feature.ErrInvalidInput, c.End, c.Start)
	}
	if c.FillWidth < 0 {
		return fmt.Errorf("%w: fill width %d < 0", feature.ErrInvalidInput, c.FillWidth)
	}
	if _, err := logger.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%w: %v", feature.ErrInvalidInput, err)
	}
	return nil
}

// Pipeline returns the tracking configuration for the selected strategies.
func (c *Config) Pipeline() tracking.Config {
	return tracking.Config{
		Detector:       c.Detector,
		Descriptor:     c.Descriptor,
		Metric:         c.Metric,
		Selector:       c.Selector,
		Ratio:          c.Ratio,
		BufferCapacity: c.Buffer,
		ROI:            c.ROI,
		KeypointCap:    c.KeypointCap,
	}
}

// Sequence returns the frame source described by the image settings.
func (c *Config) Sequence() *imaging.Sequence {
	return &imaging.Sequence{
		Dir:       c.ImageDir,
		Prefix:    c.ImagePrefix,
		Ext:       c.ImageExt,
		Start:     c.Start,
		End:       c.End,
		FillWidth: c.FillWidth,
	}
}

// ParseROI accepts "x,y,w,h" or "none" (or an empty string) for no region.
func ParseROI(s string) (*feature.Rect, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "none") {
		return nil, nil
	}
	r, err := feature.ParseRect(s)
	if err != nil {
		return nil, fmt.Errorf("%w: region of interest: %v", feature.ErrInvalidInput, err)
	}
	return &r, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed variables and records every value that does not
// parse instead of silently using the default.
type envReader struct {
	errs []error
}

func (r *envReader) fail(key, value, kind string) {
	r.errs = append(r.errs, fmt.Errorf("%w: %s=%q is not %s", feature.ErrInvalidInput, key, value, kind))
}

func (r *envReader) asInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intValue, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.fail(key, value, "an integer")
		return defaultValue
	}
	return intValue
}

func (r *envReader) asFloat(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		r.fail(key, value, "a number")
		return defaultValue
	}
	return f
}

func (r *envReader) asBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(strings.TrimSpace(value))
	if err != nil {
		r.fail(key, value, "a boolean")
		return defaultValue
	}
	return b
}
