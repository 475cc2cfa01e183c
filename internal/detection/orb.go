package detection

import (
	"image"
	"math"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

const (
	orbPatchSize      = 31
	orbEdgeThreshold  = 31
	orbHarrisBlock    = 7
	orbFASTThreshold  = 20
	orbCentroidRadius = orbPatchSize / 2
)

// orb detects oriented FAST keypoints ranked by Harris response.
type orb struct {
	maxFeatures int
	harrisK     float64
}

func newORB(o Options) (Detector, error) {
	return &orb{maxFeatures: o.MaxFeatures, harrisK: o.HarrisK}, nil
}

func (d *orb) Name() string { return "ORB" }

// Detect runs FAST (threshold 20) away from the patch border, scores each
// corner with the Harris response over a 7x7 block, keeps the MaxFeatures
// strongest and assigns the intensity-centroid orientation.
//
// Only a single pyramid level is searched.
func (d *orb) Detect(img *image.Gray) ([]feature.Keypoint, error) {
	width, height, err := validate(d.Name(), img)
	if err != nil {
		return nil, err
	}

	border := orbEdgeThreshold/2 + 1
	candidates := fastCorners(img, orbFASTThreshold, border)
	if len(candidates) == 0 {
		return candidates, nil
	}

	plane := imaging.Plane(img)
	gx, gy := imaging.Sobel(plane, width, height)

	for i := range candidates {
		candidates[i].Response = harrisAt(gx, gy, int(candidates[i].X), int(candidates[i].Y),
			width, height, d.harrisK)
		candidates[i].Size = orbPatchSize
	}

	kps := feature.RetainBest(candidates, d.maxFeatures)
	for i := range kps {
		kps[i].Angle = IntensityCentroidAngle(plane, width, height, kps[i].X, kps[i].Y, orbCentroidRadius)
	}
	return kps, nil
}

// harrisAt evaluates the Harris response over an orbHarrisBlock window
// centred at (cx, cy).
func harrisAt(gx, gy [][]float64, cx, cy, width, height int, k float64) float64 {
	r := orbHarrisBlock / 2
	var a, b, c float64
	for y := cy - r; y <= cy+r; y++ {
		py := imaging.Clamp(y, 0, height-1)
		for x := cx - r; x <= cx+r; x++ {
			px := imaging.Clamp(x, 0, width-1)
			dx, dy := gx[py][px], gy[py][px]
			a += dx * dx
			b += dx * dy
			c += dy * dy
		}
	}
	return a*c - b*b - k*(a+c)*(a+c)
}

// IntensityCentroidAngle returns the orientation in degrees [0,360) of the
// vector from (cx, cy) to the intensity centroid of the disc of the given
// radius. Pixels outside the plane are clamped.
func IntensityCentroidAngle(plane [][]float64, width, height int, cx, cy float64, radius int) float64 {
	x0, y0 := int(math.Round(cx)), int(math.Round(cy))
	var m01, m10 float64
	for v := -radius; v <= radius; v++ {
		py := imaging.Clamp(y0+v, 0, height-1)
		for u := -radius; u <= radius; u++ {
			if u*u+v*v > radius*radius {
				continue
			}
			px := imaging.Clamp(x0+u, 0, width-1)
			val := plane[py][px]
			m10 += float64(u) * val
			m01 += float64(v) * val
		}
	}

	angle := math.Atan2(m01, m10) * 180 / math.Pi
	if angle < 0 {
		angle += 360
	}
	return angle
}
