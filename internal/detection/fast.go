package detection

import (
	"image"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// circle16 is the Bresenham circle of radius 3 used by the segment test,
// clockwise from the top.
var circle16 = [16][2]int{
	{0, -3}, {1, -3}, {2, -2}, {3, -1},
	{3, 0}, {3, 1}, {2, 2}, {1, 3},
	{0, 3}, {-1, 3}, {-2, 2}, {-3, 1},
	{-3, 0}, {-3, -1}, {-2, -2}, {-1, -3},
}

const (
	fastArc    = 9
	fastBorder = 3
	fastSize   = 7
)

// fast implements the FAST-9/16 segment-test corner detector.
type fast struct {
	threshold int
}

func newFAST(o Options) (Detector, error) {
	return &fast{threshold: o.FASTThreshold}, nil
}

func (d *fast) Name() string { return "FAST" }

// Detect returns FAST corners after 3x3 non-maximum suppression, in raster
// order.
func (d *fast) Detect(img *image.Gray) ([]feature.Keypoint, error) {
	if _, _, err := validate(d.Name(), img); err != nil {
		return nil, err
	}
	return fastCorners(img, d.threshold, fastBorder), nil
}

// fastCorners runs the segment test on every pixel at least border pixels
// from the image edge (border >= 3) and suppresses non-maximal scores.
func fastCorners(img *image.Gray, threshold, border int) []feature.Keypoint {
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	if border < fastBorder {
		border = fastBorder
	}

	score := make([][]float64, height)
	for y := range score {
		score[y] = make([]float64, width)
	}

	for y := border; y < height-border; y++ {
		for x := border; x < width-border; x++ {
			score[y][x] = segmentScore(img, x, y, threshold)
		}
	}

	kps := make([]feature.Keypoint, 0)
	for y := border; y < height-border; y++ {
		for x := border; x < width-border; x++ {
			s := score[y][x]
			if s <= 0 || !localMax3x3(score, x, y, width, height) {
				continue
			}
			kps = append(kps, feature.Keypoint{
				X:        float64(x),
				Y:        float64(y),
				Size:     fastSize,
				Response: s,
				Angle:    feature.NoAngle,
			})
		}
	}
	return kps
}

// segmentScore returns 0 when (x, y) fails the segment test. Otherwise it
// returns the larger of the summed excess brightness or darkness over the
// threshold across the circle pixels. x and y are relative to the image
// bounds, so sub-images score the same as their origin-based copies.
func segmentScore(img *image.Gray, x, y, threshold int) float64 {
	origin := img.Bounds().Min
	x, y = x+origin.X, y+origin.Y

	center := int(img.GrayAt(x, y).Y)
	hi := center + threshold
	lo := center - threshold

	var ring [16]int
	for i, off := range circle16 {
		ring[i] = int(img.GrayAt(x+off[0], y+off[1]).Y)
	}

	// Quick rejection on the compass points: a 9-arc must cover at least two
	// of pixels 0, 4, 8, 12.
	brightQuick, darkQuick := 0, 0
	for _, i := range [4]int{0, 4, 8, 12} {
		if ring[i] > hi {
			brightQuick++
		} else if ring[i] < lo {
			darkQuick++
		}
	}
	if brightQuick < 2 && darkQuick < 2 {
		return 0
	}

	if !hasArc(ring, func(v int) bool { return v > hi }) &&
		!hasArc(ring, func(v int) bool { return v < lo }) {
		return 0
	}

	var bright, dark float64
	for _, v := range ring {
		if v > hi {
			bright += float64(v - hi)
		} else if v < lo {
			dark += float64(lo - v)
		}
	}
	if bright > dark {
		return bright
	}
	return dark
}

// hasArc reports whether fastArc contiguous ring pixels (with wrap-around)
// satisfy pred.
func hasArc(ring [16]int, pred func(int) bool) bool {
	run := 0
	for i := 0; i < 16+fastArc-1; i++ {
		if pred(ring[i%16]) {
			run++
			if run >= fastArc {
				return true
			}
		} else {
			run = 0
		}
	}
	return false
}
