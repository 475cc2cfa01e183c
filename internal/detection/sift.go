package detection

import (
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/feature-tracker/internal/feature"
	imgutil "github.com/ironsheep/feature-tracker/internal/imaging"
)

const (
	siftSigma          = 1.6
	siftIntervals      = 3
	siftBorder         = 5
	siftEdgeRatio      = 10.0
	siftOrientBins     = 36
	siftOrientSigmaMul = 1.5
)

// sift detects difference-of-Gaussians blobs across a small scale space.
type sift struct {
	octaves   int
	threshold float64
}

func newSIFT(o Options) (Detector, error) {
	return &sift{
		octaves:   o.Octaves,
		threshold: 0.5 * o.ContrastThreshold / siftIntervals * 255,
	}, nil
}

func (d *sift) Name() string { return "SIFT" }

// Detect builds Octaves octaves of siftIntervals+3 Gaussian levels each
// (octave n is the base image downsampled by 2^n), finds 26-neighbour
// extrema of the difference-of-Gaussians stack, rejects low-contrast and
// edge-like responses and assigns the dominant gradient orientation.
//
// Keypoint coordinates and sizes are expressed in base image pixels.
// Extrema are located at pixel precision.
func (d *sift) Detect(img *image.Gray) ([]feature.Keypoint, error) {
	width, height, err := validate(d.Name(), img)
	if err != nil {
		return nil, err
	}

	kps := make([]feature.Keypoint, 0)
	k := math.Pow(2, 1.0/siftIntervals)

	for o := 0; o < d.octaves; o++ {
		ow, oh := width>>o, height>>o
		if ow < 2*siftBorder+3 || oh < 2*siftBorder+3 {
			break
		}

		base := img
		if o > 0 {
			base = imgutil.ToGray(imaging.Resize(img, ow, oh, imaging.Box))
		}

		levels := siftIntervals + 3
		gauss := make([][][]float64, levels)
		sigmas := make([]float64, levels)
		for i := 0; i < levels; i++ {
			sigmas[i] = siftSigma * math.Pow(k, float64(i))
			gauss[i] = imgutil.GaussianPlane(base, sigmas[i])
		}

		dog := make([][][]float64, levels-1)
		for i := range dog {
			dog[i] = make([][]float64, oh)
			for y := 0; y < oh; y++ {
				dog[i][y] = make([]float64, ow)
				for x := 0; x < ow; x++ {
					dog[i][y][x] = gauss[i+1][y][x] - gauss[i][y][x]
				}
			}
		}

		scale := float64(int(1) << o)
		for i := 1; i <= siftIntervals; i++ {
			for y := siftBorder; y < oh-siftBorder; y++ {
				for x := siftBorder; x < ow-siftBorder; x++ {
					v := dog[i][y][x]
					if math.Abs(v) <= d.threshold {
						continue
					}
					if !isScaleSpaceExtremum(dog, i, x, y) {
						continue
					}
					if isEdgeLike(dog[i], x, y) {
						continue
					}

					angle := dominantOrientation(gauss[i], ow, oh, x, y, sigmas[i])
					kps = append(kps, feature.Keypoint{
						X:        float64(x) * scale,
						Y:        float64(y) * scale,
						Size:     2 * sigmas[i] * scale,
						Response: math.Abs(v),
						Angle:    angle,
						Octave:   o,
					})
				}
			}
		}
	}

	return kps, nil
}

// isScaleSpaceExtremum reports whether dog[i][y][x] is a maximum (positive
// values) or minimum (negative values) of its 26 neighbours in the adjacent
// levels. Equal neighbours do not disqualify a point.
func isScaleSpaceExtremum(dog [][][]float64, i, x, y int) bool {
	v := dog[i][y][x]
	for di := -1; di <= 1; di++ {
		for dy := -1; dy <= 1; dy++ {
			for dx := -1; dx <= 1; dx++ {
				if di == 0 && dy == 0 && dx == 0 {
					continue
				}
				n := dog[i+di][y+dy][x+dx]
				if v > 0 && n > v {
					return false
				}
				if v < 0 && n < v {
					return false
				}
			}
		}
	}
	return v != 0
}

// isEdgeLike applies the Hessian principal-curvature test with ratio
// siftEdgeRatio.
func isEdgeLike(d [][]float64, x, y int) bool {
	v2 := 2 * d[y][x]
	dxx := d[y][x+1] + d[y][x-1] - v2
	dyy := d[y+1][x] + d[y-1][x] - v2
	dxy := (d[y+1][x+1] - d[y+1][x-1] - d[y-1][x+1] + d[y-1][x-1]) / 4

	tr := dxx + dyy
	det := dxx*dyy - dxy*dxy
	if det <= 0 {
		return true
	}
	r := siftEdgeRatio
	return tr*tr*r >= (r+1)*(r+1)*det
}

// dominantOrientation returns the peak of a Gaussian-weighted 36-bin
// gradient orientation histogram around (cx, cy), refined by a parabola
// through the neighbouring bins. Angles are in degrees in [0,360).
func dominantOrientation(plane [][]float64, width, height, cx, cy int, sigma float64) float64 {
	weightSigma := siftOrientSigmaMul * sigma
	radius := int(math.Round(3 * weightSigma))
	denom := -1 / (2 * weightSigma * weightSigma)

	var hist [siftOrientBins]float64
	for dy := -radius; dy <= radius; dy++ {
		y := cy + dy
		if y <= 0 || y >= height-1 {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			x := cx + dx
			if x <= 0 || x >= width-1 {
				continue
			}
			gx := plane[y][x+1] - plane[y][x-1]
			gy := plane[y+1][x] - plane[y-1][x]
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}
			ori := math.Atan2(gy, gx) * 180 / math.Pi
			if ori < 0 {
				ori += 360
			}
			bin := int(ori*siftOrientBins/360) % siftOrientBins
			hist[bin] += math.Exp(float64(dx*dx+dy*dy)*denom) * mag
		}
	}

	best := 0
	for b := 1; b < siftOrientBins; b++ {
		if hist[b] > hist[best] {
			best = b
		}
	}
	if hist[best] == 0 {
		return 0
	}

	left := hist[(best+siftOrientBins-1)%siftOrientBins]
	right := hist[(best+1)%siftOrientBins]
	offset := 0.0
	if d := left - 2*hist[best] + right; d != 0 {
		offset = 0.5 * (left - right) / d
	}

	angle := (float64(best) + 0.5 + offset) * 360 / siftOrientBins
	angle = math.Mod(angle, 360)
	if angle < 0 {
		angle += 360
	}
	return angle
}
