package description

import (
	"image"
	"math"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

const (
	briefBytes     = 32
	briefPatchSize = 48
	briefKernel    = 9
	briefSmoothing = 2.0
	briefBorder    = briefPatchSize/2 + briefKernel/2
)

var briefPattern = newPattern(0x42524945, briefBytes*8, briefPatchSize/5.0, briefPatchSize/2-1)

// brief computes 256-bit BRIEF descriptors over a 48x48 patch of a
// Gaussian-smoothed image. Orientation is ignored.
type brief struct{}

func (e *brief) Name() string                 { return "BRIEF" }
func (e *brief) Type() feature.DescriptorType { return feature.Binary }
func (e *brief) Size() int                    { return briefBytes }

func (e *brief) Compute(img *image.Gray, kps []feature.Keypoint) (*feature.Descriptors, error) {
	if err := validate(e.Name(), img); err != nil {
		return nil, err
	}

	desc := feature.NewBinaryDescriptors(len(kps), briefBytes)
	if len(kps) == 0 {
		return desc, nil
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	plane := imaging.GaussianPlane(img, briefSmoothing)

	for i, k := range kps {
		if !inside(k, width, height, briefBorder) {
			continue
		}
		cx, cy := int(math.Round(k.X)), int(math.Round(k.Y))
		row := desc.Binary[i]
		for bit, p := range briefPattern {
			a := plane[cy+int(p.y1)][cx+int(p.x1)]
			c := plane[cy+int(p.y2)][cx+int(p.x2)]
			if a < c {
				row[bit/8] |= 1 << uint(bit%8)
			}
		}
	}
	return desc, nil
}
