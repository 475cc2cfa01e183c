//go:build gocv

package detection

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

func init() {
	Register("BRISK", func(Options) (Detector, error) { return &opencvDetector{name: "BRISK"}, nil })
	Register("AKAZE", func(Options) (Detector, error) { return &opencvDetector{name: "AKAZE"}, nil })
}

// keypointDetector is the subset of the gocv feature2d types used here.
type keypointDetector interface {
	Detect(src gocv.Mat) []gocv.KeyPoint
	Close() error
}

// opencvDetector runs an OpenCV feature2d detector with default parameters.
type opencvDetector struct {
	name string
}

func (d *opencvDetector) Name() string { return d.name }

func (d *opencvDetector) Detect(img *image.Gray) ([]feature.Keypoint, error) {
	mat, err := imaging.GrayMat(img)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	defer mat.Close()

	det := d.newDetector()
	defer det.Close()

	return FromOpenCV(det.Detect(mat)), nil
}

func (d *opencvDetector) newDetector() keypointDetector {
	if d.name == "AKAZE" {
		a := gocv.NewAKAZE()
		return &a
	}
	b := gocv.NewBRISK()
	return &b
}

// FromOpenCV converts gocv keypoints. OpenCV marks a missing orientation with
// -1, which matches feature.NoAngle.
func FromOpenCV(kps []gocv.KeyPoint) []feature.Keypoint {
	out := make([]feature.Keypoint, len(kps))
	for i, k := range kps {
		out[i] = feature.Keypoint{
			X:        k.X,
			Y:        k.Y,
			Size:     k.Size,
			Response: k.Response,
			Angle:    k.Angle,
			Octave:   k.Octave,
		}
	}
	return out
}

// ToOpenCV converts keypoints to their gocv form.
func ToOpenCV(kps []feature.Keypoint) []gocv.KeyPoint {
	out := make([]gocv.KeyPoint, len(kps))
	for i, k := range kps {
		out[i] = gocv.KeyPoint{
			X:        k.X,
			Y:        k.Y,
			Size:     k.Size,
			Angle:    k.Angle,
			Response: k.Response,
			Octave:   k.Octave,
			ClassID:  -1,
		}
	}
	return out
}
