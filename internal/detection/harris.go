package detection

import (
	"image"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// harris implements the Harris corner detector with overlap-based
// non-maximum suppression.
type harris struct {
	blockSize    int
	apertureSize int
	k            float64
	minResponse  float64
}

func newHarris(o Options) (Detector, error) {
	block := o.BlockSize
	if block <= 0 {
		block = 2
	}
	return &harris{
		blockSize:    block,
		apertureSize: o.ApertureSize,
		k:            o.HarrisK,
		minResponse:  o.MinResponse,
	}, nil
}

func (d *harris) Name() string { return "HARRIS" }

// Detect scans the min-max normalized (0..255) Harris response in raster
// order. Every pixel above MinResponse becomes a candidate of size
// 2*ApertureSize; a candidate that overlaps an accepted keypoint replaces it
// when stronger and is dropped otherwise.
func (d *harris) Detect(img *image.Gray) ([]feature.Keypoint, error) {
	width, height, err := validate(d.Name(), img)
	if err != nil {
		return nil, err
	}

	st := newStructureTensor(img, d.blockSize)

	resp := make([][]float64, height)
	minVal, maxVal := 0.0, 0.0
	for y := 0; y < height; y++ {
		resp[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			v := st.harris(x, y, d.k)
			resp[y][x] = v
			if (x == 0 && y == 0) || v < minVal {
				minVal = v
			}
			if (x == 0 && y == 0) || v > maxVal {
				maxVal = v
			}
		}
	}
	if maxVal-minVal <= 0 {
		return []feature.Keypoint{}, nil
	}
	scale := 255 / (maxVal - minVal)

	kps := make([]feature.Keypoint, 0)
	size := float64(2 * d.apertureSize)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			norm := (resp[y][x] - minVal) * scale
			if norm <= d.minResponse {
				continue
			}

			candidate := feature.Keypoint{
				X:        float64(x),
				Y:        float64(y),
				Size:     size,
				Response: norm,
				Angle:    feature.NoAngle,
			}

			overlaps := false
			for i := range kps {
				if feature.Overlap(candidate, kps[i]) > 0 {
					overlaps = true
					if candidate.Response > kps[i].Response {
						kps[i] = candidate
						break
					}
				}
			}
			if !overlaps {
				kps = append(kps, candidate)
			}
		}
	}

	return kps, nil
}
