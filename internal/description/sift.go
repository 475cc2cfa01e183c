package description

import (
	"image"
	"math"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

const (
	siftWidth     = 4
	siftBins      = 8
	siftLength    = siftWidth * siftWidth * siftBins
	siftScale     = 3.0
	siftMagClip   = 0.2
	siftBaseSigma = 1.6
)

// sift computes 128-value gradient orientation histograms (4x4 cells of 8
// bins) in a window scaled by keypoint size and rotated by its orientation.
// Rows are L2-normalized, clipped at 0.2 and normalized again.
type sift struct{}

func (e *sift) Name() string                 { return "SIFT" }
func (e *sift) Type() feature.DescriptorType { return feature.Float }
func (e *sift) Size() int                    { return siftLength }

func (e *sift) Compute(img *image.Gray, kps []feature.Keypoint) (*feature.Descriptors, error) {
	if err := validate(e.Name(), img); err != nil {
		return nil, err
	}

	desc := feature.NewFloatDescriptors(len(kps), siftLength)
	if len(kps) == 0 {
		return desc, nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	plane := imaging.GaussianPlane(img, siftBaseSigma)

	for i, k := range kps {
		if !inside(k, width, height, 1) || k.Size <= 0 {
			continue
		}
		siftRow(plane, width, height, k, desc.Float[i])
	}
	return desc, nil
}

// siftRow fills row with the descriptor of k. Samples falling outside the
// image are skipped.
func siftRow(plane [][]float64, width, height int, k feature.Keypoint, row []float32) {
	angle := 0.0
	if k.HasAngle() {
		angle = k.Angle
	}
	theta := angle * math.Pi / 180
	sin, cos := math.Sincos(theta)

	// Keypoint size is twice the detection scale.
	cell := siftScale * k.Size / 2
	radius := int(math.Round(cell * math.Sqrt2 * (siftWidth + 1) / 2))
	weightDenom := -1 / (2 * (siftWidth / 2.0) * (siftWidth / 2.0))
	binsPerRad := siftBins / (2 * math.Pi)

	var hist [siftLength]float64
	cx, cy := int(math.Round(k.X)), int(math.Round(k.Y))

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

			// Offset in the keypoint frame, in cell units.
			rx := (float64(dx)*cos + float64(dy)*sin) / cell
			ry := (-float64(dx)*sin + float64(dy)*cos) / cell
			rbin := ry + siftWidth/2.0 - 0.5
			cbin := rx + siftWidth/2.0 - 0.5
			if rbin <= -1 || rbin >= siftWidth || cbin <= -1 || cbin >= siftWidth {
				continue
			}

			gx := plane[y][x+1] - plane[y][x-1]
			gy := plane[y+1][x] - plane[y-1][x]
			mag := math.Hypot(gx, gy)
			if mag == 0 {
				continue
			}
			ori := math.Atan2(gy, gx) - theta
			for ori < 0 {
				ori += 2 * math.Pi
			}
			for ori >= 2*math.Pi {
				ori -= 2 * math.Pi
			}

			w := mag * math.Exp((rx*rx+ry*ry)*weightDenom)
			accumulate(&hist, rbin, cbin, ori*binsPerRad, w)
		}
	}

	normalizeClip(hist[:], row)
}

// accumulate spreads w over the eight neighbouring (row, column, orientation)
// bins with trilinear weights.
func accumulate(hist *[siftLength]float64, rbin, cbin, obin, w float64) {
	r0 := int(math.Floor(rbin))
	c0 := int(math.Floor(cbin))
	o0 := int(math.Floor(obin))
	dr := rbin - float64(r0)
	dc := cbin - float64(c0)
	do := obin - float64(o0)

	for ri := 0; ri <= 1; ri++ {
		r := r0 + ri
		if r < 0 || r >= siftWidth {
			continue
		}
		wr := w * (1 - dr)
		if ri == 1 {
			wr = w * dr
		}
		for ci := 0; ci <= 1; ci++ {
			c := c0 + ci
			if c < 0 || c >= siftWidth {
				continue
			}
			wc := wr * (1 - dc)
			if ci == 1 {
				wc = wr * dc
			}
			for oi := 0; oi <= 1; oi++ {
				o := (o0 + oi) % siftBins
				wo := wc * (1 - do)
				if oi == 1 {
					wo = wc * do
				}
				hist[(r*siftWidth+c)*siftBins+o] += wo
			}
		}
	}
}

// normalizeClip writes hist to row scaled to unit length, with every value
// clipped at siftMagClip and the result renormalized. An empty histogram
// leaves row zeroed.
func normalizeClip(hist []float64, row []float32) {
	norm := 0.0
	for _, v := range hist {
		norm += v * v
	}
	if norm == 0 {
		return
	}
	norm = math.Sqrt(norm)

	clipped := 0.0
	for i, v := range hist {
		v = math.Min(v/norm, siftMagClip)
		hist[i] = v
		clipped += v * v
	}
	clipped = math.Sqrt(clipped)
	for i, v := range hist {
		row[i] = float32(v / clipped)
	}
}
