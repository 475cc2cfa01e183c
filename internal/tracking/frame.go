package tracking

import (
	"fmt"
	"image"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// Frame is one fully processed image.
//
// Keypoints and Descriptors are index-aligned. Matches relate this frame to
// the frame that was newest in the buffer when it was processed: Query
// indexes that frame's keypoints and Train indexes this frame's keypoints.
// Frames are built once and must not be modified afterwards.
type Frame struct {
	Index       int
	Image       *image.Gray
	Keypoints   []feature.Keypoint
	Descriptors *feature.Descriptors
	Matches     []feature.Match
}

// frameBuilder collects stage outputs. A Frame only exists once build
// succeeds, so a failed stage never leaves a partial frame behind.
type frameBuilder struct {
	index       int
	img         *image.Gray
	keypoints   []feature.Keypoint
	descriptors *feature.Descriptors
	matches     []feature.Match
}

func newFrameBuilder(index int, img *image.Gray) *frameBuilder {
	return &frameBuilder{index: index, img: img}
}

func (b *frameBuilder) withKeypoints(kps []feature.Keypoint) *frameBuilder {
	b.keypoints = kps
	return b
}

func (b *frameBuilder) withDescriptors(d *feature.Descriptors) *frameBuilder {
	b.descriptors = d
	return b
}

func (b *frameBuilder) withMatches(m []feature.Match) *frameBuilder {
	b.matches = m
	return b
}

// build checks the keypoint/descriptor alignment and returns the frame.
func (b *frameBuilder) build() (*Frame, error) {
	if b.descriptors == nil {
		return nil, fmt.Errorf("%w: frame %d has no descriptors", feature.ErrInvalidInput, b.index)
	}
	if b.descriptors.Len() != len(b.keypoints) {
		return nil, fmt.Errorf("%w: frame %d has %d keypoints but %d descriptors",
			feature.ErrInvalidInput, b.index, len(b.keypoints), b.descriptors.Len())
	}
	return &Frame{
		Index:       b.index,
		Image:       b.img,
		Keypoints:   b.keypoints,
		Descriptors: b.descriptors,
		Matches:     b.matches,
	}, nil
}
