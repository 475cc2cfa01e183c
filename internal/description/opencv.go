//go:build gocv

package description

import (
	"fmt"
	"image"
	"math"

	"gocv.io/x/gocv"

	"github.com/ironsheep/feature-tracker/internal/detection"
	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

const (
	briskBytes = 64
	akazeBytes = 61
)

func init() {
	Register("BRISK", func() (Extractor, error) { return &opencvExtractor{name: "BRISK", size: briskBytes}, nil })
	Register("AKAZE", func() (Extractor, error) { return &opencvExtractor{name: "AKAZE", size: akazeBytes}, nil })
}

// descriptorComputer is the subset of the gocv feature2d types used here.
type descriptorComputer interface {
	Compute(src gocv.Mat, mask gocv.Mat, kps []gocv.KeyPoint) ([]gocv.KeyPoint, gocv.Mat)
	Close() error
}

// opencvExtractor delegates to an OpenCV binary descriptor.
//
// AKAZE descriptors require keypoints produced by the AKAZE detector.
type opencvExtractor struct {
	name string
	size int
}

func (e *opencvExtractor) Name() string                 { return e.name }
func (e *opencvExtractor) Type() feature.DescriptorType { return feature.Binary }
func (e *opencvExtractor) Size() int                    { return e.size }

// Compute runs the OpenCV extractor and realigns its rows with kps. OpenCV
// silently removes keypoints it cannot describe; those get zero rows here.
func (e *opencvExtractor) Compute(img *image.Gray, kps []feature.Keypoint) (*feature.Descriptors, error) {
	if err := validate(e.Name(), img); err != nil {
		return nil, err
	}

	desc := feature.NewBinaryDescriptors(len(kps), e.size)
	if len(kps) == 0 {
		return desc, nil
	}

	mat, err := imaging.GrayMat(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", e.name, err)
	}
	defer mat.Close()

	mask := gocv.NewMat()
	defer mask.Close()

	ext := e.newComputer()
	defer ext.Close()

	kept, rows := ext.Compute(mat, mask, detection.ToOpenCV(kps))
	defer rows.Close()

	cols := rows.Cols()
	if cols > e.size {
		cols = e.size
	}
	for r, target := range realign(kps, kept) {
		if target < 0 {
			continue
		}
		for c := 0; c < cols; c++ {
			desc.Binary[target][c] = rows.GetUCharAt(r, c)
		}
	}
	return desc, nil
}

func (e *opencvExtractor) newComputer() descriptorComputer {
	if e.name == "AKAZE" {
		a := gocv.NewAKAZE()
		return &a
	}
	b := gocv.NewBRISK()
	return &b
}

// realign maps every kept keypoint to its index in the original slice, or
// -1 when no original point matches. OpenCV preserves relative order when
// filtering, so a single forward scan suffices.
func realign(original []feature.Keypoint, kept []gocv.KeyPoint) []int {
	const tol = 1e-3

	out := make([]int, len(kept))
	j := 0
	for i, k := range kept {
		out[i] = -1
		for j < len(original) {
			o := original[j]
			j++
			if math.Abs(o.X-k.X) < tol && math.Abs(o.Y-k.Y) < tol {
				out[i] = j - 1
				break
			}
		}
	}
	return out
}
