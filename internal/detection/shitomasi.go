package detection

import (
	"image"
	"math"
	"sort"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// shiTomasi implements the minimum-eigenvalue ("good features to track")
// corner detector.
type shiTomasi struct {
	blockSize    int
	qualityLevel float64
	minDistance  float64
	maxCorners   int
}

func newShiTomasi(o Options) (Detector, error) {
	block := o.BlockSize
	if block <= 0 {
		block = 4
	}
	minDist := o.MinDistance
	if minDist <= 0 {
		minDist = float64(block)
	}
	return &shiTomasi{
		blockSize:    block,
		qualityLevel: o.QualityLevel,
		minDistance:  minDist,
		maxCorners:   o.MaxCorners,
	}, nil
}

func (d *shiTomasi) Name() string { return "SHITOMASI" }

// Detect returns corners sorted by descending quality.
//
// # Algorithm
//
//  1. Structure tensor over BlockSize windows, response = smaller eigenvalue
//  2. Discard responses below QualityLevel * max response
//  3. Keep 3x3 local maxima (the outermost pixel ring is skipped)
//  4. Sort by response, greedily accept corners at least MinDistance apart
//  5. Stop at MaxCorners (default: width*height / MinDistance)
func (d *shiTomasi) Detect(img *image.Gray) ([]feature.Keypoint, error) {
	width, height, err := validate(d.Name(), img)
	if err != nil {
		return nil, err
	}

	st := newStructureTensor(img, d.blockSize)

	eig := make([][]float64, height)
	maxVal := 0.0
	for y := 0; y < height; y++ {
		eig[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			v := st.minEigen(x, y)
			eig[y][x] = v
			if v > maxVal {
				maxVal = v
			}
		}
	}
	if maxVal <= 0 {
		return []feature.Keypoint{}, nil
	}

	threshold := maxVal * d.qualityLevel
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if eig[y][x] < threshold {
				eig[y][x] = 0
			}
		}
	}

	type candidate struct {
		x, y int
		v    float64
	}
	candidates := make([]candidate, 0)
	for y := 1; y < height-1; y++ {
		for x := 1; x < width-1; x++ {
			if eig[y][x] > 0 && localMax3x3(eig, x, y, width, height) {
				candidates = append(candidates, candidate{x, y, eig[y][x]})
			}
		}
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].v > candidates[j].v
	})

	maxCorners := d.maxCorners
	if maxCorners <= 0 {
		maxCorners = int(float64(width*height) / math.Max(1, d.minDistance))
	}

	minDist2 := d.minDistance * d.minDistance
	corners := make([]feature.Keypoint, 0)
	for _, c := range candidates {
		if len(corners) >= maxCorners {
			break
		}
		tooClose := false
		for _, k := range corners {
			dx := k.X - float64(c.x)
			dy := k.Y - float64(c.y)
			if dx*dx+dy*dy < minDist2 {
				tooClose = true
				break
			}
		}
		if tooClose {
			continue
		}
		corners = append(corners, feature.Keypoint{
			X:        float64(c.x),
			Y:        float64(c.y),
			Size:     float64(d.blockSize),
			Response: c.v,
			Angle:    feature.NoAngle,
		})
	}

	return corners, nil
}
