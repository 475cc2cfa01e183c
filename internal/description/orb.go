package description

import (
	"image"
	"math"

	"github.com/ironsheep/feature-tracker/internal/detection"
	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

const (
	orbBytes     = 32
	orbPatchSize = 31
	orbSmoothing = 2.0
)

// orbBorder keeps the rotated patch inside the image for any angle.
var orbBorder = math.Ceil(float64(orbPatchSize/2)*math.Sqrt2) + 1

var orbPattern = newPattern(0x4f5242, orbBytes*8, orbPatchSize/5.0, orbPatchSize/2-2)

// orb computes steered BRIEF descriptors: the test pattern is rotated by the
// keypoint orientation before sampling. Keypoints without an orientation get
// one from the intensity centroid of their patch.
type orb struct{}

func (e *orb) Name() string                 { return "ORB" }
func (e *orb) Type() feature.DescriptorType { return feature.Binary }
func (e *orb) Size() int                    { return orbBytes }

func (e *orb) Compute(img *image.Gray, kps []feature.Keypoint) (*feature.Descriptors, error) {
	if err := validate(e.Name(), img); err != nil {
		return nil, err
	}

	desc := feature.NewBinaryDescriptors(len(kps), orbBytes)
	if len(kps) == 0 {
		return desc, nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	raw := imaging.Plane(img)
	plane := imaging.GaussianPlane(img, orbSmoothing)

	for i, k := range kps {
		if !inside(k, width, height, orbBorder) {
			continue
		}

		angle := k.Angle
		if !k.HasAngle() {
			angle = detection.IntensityCentroidAngle(raw, width, height, k.X, k.Y, orbPatchSize/2)
		}
		theta := angle * math.Pi / 180
		sin, cos := math.Sincos(theta)

		row := desc.Binary[i]
		for bit, p := range orbPattern {
			a := imaging.Bilinear(plane, width, height,
				k.X+p.x1*cos-p.y1*sin, k.Y+p.x1*sin+p.y1*cos)
			c := imaging.Bilinear(plane, width, height,
				k.X+p.x2*cos-p.y2*sin, k.Y+p.x2*sin+p.y2*cos)
			if a < c {
				row[bit/8] |= 1 << uint(bit%8)
			}
		}
	}
	return desc, nil
}
