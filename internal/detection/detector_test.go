package detection

import (
	"errors"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

var builtinDetectors = []string{"FAST", "HARRIS", "ORB", "SHITOMASI", "SIFT"}

// uniformGray creates a single-intensity grayscale image
func uniformGray(width, height int, v uint8) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, width, height))
	for i := range img.Pix {
		img.Pix[i] = v
	}
	return img
}

// squareImage creates a white image with a filled black square spanning
// [x0, x1) x [y0, y1)
func squareImage(width, height, x0, y0, x1, y1 int) *image.Gray {
	img := uniformGray(width, height, 255)
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return img
}

// blobImage creates a black image with a filled white disc
func blobImage(width, height, cx, cy, radius int) *image.Gray {
	img := uniformGray(width, height, 0)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			dx, dy := x-cx, y-cy
			if dx*dx+dy*dy <= radius*radius {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

// nearest returns the distance from (x, y) to the closest keypoint
func nearest(kps []feature.Keypoint, x, y float64) float64 {
	best := math.Inf(1)
	for _, k := range kps {
		if d := math.Hypot(k.X-x, k.Y-y); d < best {
			best = d
		}
	}
	return best
}

func assertSquareCorners(t *testing.T, kps []feature.Keypoint, x0, y0, x1, y1 int, tol float64) {
	t.Helper()
	corners := [][2]float64{
		{float64(x0), float64(y0)},
		{float64(x1 - 1), float64(y0)},
		{float64(x0), float64(y1 - 1)},
		{float64(x1 - 1), float64(y1 - 1)},
	}
	for _, c := range corners {
		assert.LessOrEqual(t, nearest(kps, c[0], c[1]), tol, "no keypoint near corner %v", c)
	}
}

func TestNames(t *testing.T) {
	names := Names()
	for _, want := range builtinDetectors {
		assert.Contains(t, names, want)
	}
	assert.IsIncreasing(t, names)
}

func TestNew_Unknown(t *testing.T) {
	det, err := New("UNKNOWN", DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, det)
	assert.True(t, errors.Is(err, feature.ErrUnsupportedStrategy))
	assert.Contains(t, err.Error(), "SHITOMASI")
}

func TestNew_CaseInsensitive(t *testing.T) {
	det, err := New("shiTomasi", DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, "SHITOMASI", det.Name())
}

func TestRegister(t *testing.T) {
	Register("test-fixed", func(Options) (Detector, error) { return &fast{threshold: 10}, nil })
	defer func() {
		registryMu.Lock()
		delete(registry, "TEST-FIXED")
		registryMu.Unlock()
	}()

	det, err := New("TEST-FIXED", Options{})
	require.NoError(t, err)
	assert.Equal(t, "FAST", det.Name())
}

func TestDetect_InvalidImage(t *testing.T) {
	for _, name := range builtinDetectors {
		t.Run(name, func(t *testing.T) {
			det, err := New(name, DefaultOptions())
			require.NoError(t, err)

			_, err = det.Detect(nil)
			assert.True(t, errors.Is(err, feature.ErrInvalidInput), "nil image: %v", err)

			_, err = det.Detect(image.NewGray(image.Rectangle{}))
			assert.True(t, errors.Is(err, feature.ErrInvalidInput), "empty image: %v", err)
		})
	}
}

func TestDetect_UniformImage(t *testing.T) {
	img := uniformGray(64, 64, 128)
	for _, name := range builtinDetectors {
		t.Run(name, func(t *testing.T) {
			det, err := New(name, DefaultOptions())
			require.NoError(t, err)

			kps, err := det.Detect(img)
			require.NoError(t, err)
			assert.NotNil(t, kps)
			assert.Empty(t, kps)
		})
	}
}

func TestDetect_Deterministic(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	for _, name := range builtinDetectors {
		t.Run(name, func(t *testing.T) {
			det, err := New(name, DefaultOptions())
			require.NoError(t, err)

			first, err := det.Detect(img)
			require.NoError(t, err)
			second, err := det.Detect(img)
			require.NoError(t, err)

			if diff := cmp.Diff(first, second); diff != "" {
				t.Errorf("Detect not deterministic (-first +second):\n%s", diff)
			}
		})
	}
}

func TestShiTomasi_SquareCorners(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	det, err := New("SHITOMASI", DefaultOptions())
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(kps), 4)

	assertSquareCorners(t, kps, 20, 20, 44, 44, 3)
	for i := 1; i < len(kps); i++ {
		assert.GreaterOrEqual(t, kps[i-1].Response, kps[i].Response, "not sorted by quality")
	}
	for _, k := range kps {
		assert.Equal(t, 4.0, k.Size)
		assert.False(t, k.HasAngle())
	}
}

func TestShiTomasi_MinDistance(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	opts := DefaultOptions()
	opts.MinDistance = 10
	det, err := New("SHITOMASI", opts)
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	for i := range kps {
		for j := i + 1; j < len(kps); j++ {
			d := math.Hypot(kps[i].X-kps[j].X, kps[i].Y-kps[j].Y)
			assert.GreaterOrEqual(t, d, 10.0)
		}
	}
}

func TestShiTomasi_MaxCorners(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	opts := DefaultOptions()
	opts.MaxCorners = 2
	det, err := New("SHITOMASI", opts)
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	assert.Len(t, kps, 2)
}

func TestHarris_SquareCorners(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	det, err := New("HARRIS", DefaultOptions())
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	require.NotEmpty(t, kps)

	assertSquareCorners(t, kps, 20, 20, 44, 44, 3)
	for _, k := range kps {
		assert.Greater(t, k.Response, 100.0)
		assert.LessOrEqual(t, k.Response, 255.0)
		assert.Equal(t, 6.0, k.Size)
	}
}

// embed copies img into a larger frame filled with fill and returns the
// sub-image covering the copy, so its bounds start at (pad, pad)
func embed(img *image.Gray, pad int, fill uint8) *image.Gray {
	b := img.Bounds()
	frame := uniformGray(b.Dx()+2*pad, b.Dy()+2*pad, fill)
	for y := 0; y < b.Dy(); y++ {
		for x := 0; x < b.Dx(); x++ {
			frame.SetGray(x+pad, y+pad, img.GrayAt(x, y))
		}
	}
	return frame.SubImage(image.Rect(pad, pad, pad+b.Dx(), pad+b.Dy())).(*image.Gray)
}

func TestDetect_SubImage(t *testing.T) {
	square := squareImage(64, 64, 20, 20, 44, 44)
	blob := blobImage(64, 64, 32, 32, 4)

	for _, name := range builtinDetectors {
		t.Run(name, func(t *testing.T) {
			origin, fill := square, uint8(255)
			if name == "SIFT" {
				origin, fill = blob, 0
			}
			sub := embed(origin, 10, fill)
			require.Equal(t, image.Pt(10, 10), sub.Bounds().Min)

			det, err := New(name, DefaultOptions())
			require.NoError(t, err)

			want, err := det.Detect(origin)
			require.NoError(t, err)
			require.NotEmpty(t, want)
			got, err := det.Detect(sub)
			require.NoError(t, err)

			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("sub-image keypoints differ (-origin +sub):\n%s", diff)
			}
		})
	}
}

func TestFAST_SquareCorners(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	det, err := New("FAST", DefaultOptions())
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	assertSquareCorners(t, kps, 20, 20, 44, 44, 3)

	// Straight edges fail the 9-pixel arc test.
	assert.Greater(t, nearest(kps, 32, 20), 3.0)
	assert.Greater(t, nearest(kps, 20, 32), 3.0)
}

func TestSegmentScore(t *testing.T) {
	img := squareImage(32, 32, 10, 10, 22, 22)

	// Inside corner: 11 of 16 circle pixels are bright.
	assert.Greater(t, segmentScore(img, 10, 10, 30), 0.0)
	// Middle of the top edge: only 7 bright pixels.
	assert.Equal(t, 0.0, segmentScore(img, 16, 10, 30))
	// Flat region.
	assert.Equal(t, 0.0, segmentScore(img, 16, 16, 30))

	// Coordinates are relative to the bounds of a sub-image.
	sub := squareImage(40, 40, 14, 14, 26, 26).SubImage(image.Rect(4, 4, 36, 36)).(*image.Gray)
	assert.Equal(t, segmentScore(img, 10, 10, 30), segmentScore(sub, 10, 10, 30))
	assert.Equal(t, 0.0, segmentScore(sub, 16, 16, 30))
}

func TestHasArc(t *testing.T) {
	var ring [16]int
	for i := 12; i < 16+5; i++ {
		ring[i%16] = 1
	}
	// Nine pixels wrapping around index 0.
	assert.True(t, hasArc(ring, func(v int) bool { return v == 1 }))

	ring = [16]int{}
	for i := 0; i < 8; i++ {
		ring[i] = 1
	}
	assert.False(t, hasArc(ring, func(v int) bool { return v == 1 }))
}

func TestORB_SquareCorners(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	det, err := New("ORB", DefaultOptions())
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	assertSquareCorners(t, kps, 20, 20, 44, 44, 3)

	for _, k := range kps {
		assert.Equal(t, 31.0, k.Size)
		assert.True(t, k.HasAngle())
		assert.GreaterOrEqual(t, k.Angle, 0.0)
		assert.Less(t, k.Angle, 360.0)
	}
}

func TestORB_MaxFeatures(t *testing.T) {
	img := squareImage(64, 64, 20, 20, 44, 44)
	opts := DefaultOptions()
	opts.MaxFeatures = 2
	det, err := New("ORB", opts)
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(kps), 2)
}

func TestIntensityCentroidAngle(t *testing.T) {
	// Bright right half: the centroid lies along +X.
	plane := make([][]float64, 31)
	for y := range plane {
		plane[y] = make([]float64, 31)
		for x := 16; x < 31; x++ {
			plane[y][x] = 255
		}
	}
	angle := IntensityCentroidAngle(plane, 31, 31, 15, 15, 15)
	assert.InDelta(t, 0.0, angle, 1e-9)

	// Bright bottom half: +Y is 90 degrees.
	for y := range plane {
		for x := range plane[y] {
			plane[y][x] = 0
			if y >= 16 {
				plane[y][x] = 255
			}
		}
	}
	angle = IntensityCentroidAngle(plane, 31, 31, 15, 15, 15)
	assert.InDelta(t, 90.0, angle, 1e-9)
}

func TestSIFT_Blob(t *testing.T) {
	img := blobImage(64, 64, 32, 32, 4)
	det, err := New("SIFT", DefaultOptions())
	require.NoError(t, err)

	kps, err := det.Detect(img)
	require.NoError(t, err)
	require.NotEmpty(t, kps)
	assert.LessOrEqual(t, nearest(kps, 32, 32), 3.0)

	for _, k := range kps {
		assert.Greater(t, k.Size, 0.0)
		assert.GreaterOrEqual(t, k.Octave, 0)
		assert.Less(t, k.Octave, 2)
		assert.GreaterOrEqual(t, k.Angle, 0.0)
		assert.Less(t, k.Angle, 360.0)
	}
}

func TestIsEdgeLike(t *testing.T) {
	// A ridge along Y: strong curvature in X only.
	ridge := [][]float64{
		{0, 5, 0},
		{0, 5, 0},
		{0, 5, 0},
	}
	assert.True(t, isEdgeLike(ridge, 1, 1))

	// An isotropic peak.
	peak := [][]float64{
		{0, 1, 0},
		{1, 5, 1},
		{0, 1, 0},
	}
	assert.False(t, isEdgeLike(peak, 1, 1))
}
