package tracking

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
)

// shiftedSquare creates a white image with a black square whose top-left
// corner moves by offset pixels to the right
func shiftedSquare(offset int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 96, 96))
	for i := range img.Pix {
		img.Pix[i] = 255
	}
	for y := 32; y < 60; y++ {
		for x := 32 + offset; x < 60+offset; x++ {
			img.SetGray(x, y, color.Gray{Y: 0})
		}
	}
	return img
}

func fastBrief() Config {
	return Config{Detector: "FAST", Descriptor: "BRIEF", Selector: "nn"}
}

// sliceSource replays images; a nil image yields an invalid-input error
type sliceSource struct {
	images []*image.Gray
	next   int
}

func (s *sliceSource) Next() (int, *image.Gray, error) {
	if s.next >= len(s.images) {
		return 0, nil, imaging.ErrEndOfSequence
	}
	i := s.next
	s.next++
	if s.images[i] == nil {
		return i, nil, fmt.Errorf("frame %d: %w: corrupt file", i, feature.ErrInvalidInput)
	}
	return i, s.images[i], nil
}

type recordingVisualizer struct {
	pairs [][2]int
	err   error
}

func (v *recordingVisualizer) Show(p Pair) error {
	v.pairs = append(v.pairs, [2]int{p.Previous.Index, p.Current.Index})
	return v.err
}

func TestNew_UnknownDetector(t *testing.T) {
	cfg := fastBrief()
	cfg.Detector = "UNKNOWN"

	p, err := New(cfg)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, errors.Is(err, feature.ErrUnsupportedStrategy))
}

func TestNew_ConfigErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr error
	}{
		{"unknown descriptor", func(c *Config) { c.Descriptor = "FREAK" }, feature.ErrUnsupportedStrategy},
		{"unknown selector", func(c *Config) { c.Selector = "cross" }, feature.ErrUnsupportedStrategy},
		{"unknown metric", func(c *Config) { c.Metric = "cosine" }, feature.ErrUnsupportedStrategy},
		{"float metric for binary", func(c *Config) { c.Metric = "float" }, feature.ErrIncompatibleDescriptor},
		{"binary metric for SIFT", func(c *Config) { c.Descriptor = "SIFT"; c.Metric = "binary" }, feature.ErrIncompatibleDescriptor},
		{"ratio above one", func(c *Config) { c.Ratio = 1.5 }, feature.ErrInvalidInput},
		{"negative capacity", func(c *Config) { c.BufferCapacity = -1 }, feature.ErrInvalidInput},
		{"negative cap", func(c *Config) { c.KeypointCap = -5 }, feature.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := fastBrief()
			tt.mutate(&cfg)
			_, err := New(cfg)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(Config{Detector: "shitomasi", Descriptor: "brief"})
	require.NoError(t, err)
	assert.Equal(t, "SHITOMASI", p.Detector())
	assert.Equal(t, "BRIEF", p.Descriptor())
	assert.Equal(t, DefaultBufferCapacity, p.Buffer().Cap())
}

func TestProcess_MatchesConsecutivePairsOnly(t *testing.T) {
	p, err := New(fastBrief())
	require.NoError(t, err)

	var reports []*FrameReport
	for i := 0; i < 3; i++ {
		r, err := p.Process(i, shiftedSquare(2*i))
		require.NoError(t, err)
		reports = append(reports, r)
	}

	// F0 has nothing to match; F1 matches F0; F2 matches F1 after F0 left.
	assert.Equal(t, -1, reports[0].MatchedWith)
	assert.Equal(t, 0, reports[1].MatchedWith)
	assert.Equal(t, 1, reports[2].MatchedWith)

	assert.Equal(t, -1, reports[0].Evicted)
	assert.Equal(t, -1, reports[1].Evicted)
	assert.Equal(t, 0, reports[2].Evicted)

	frames := p.Buffer().Frames()
	assert.Equal(t, []int{1, 2}, indices(frames))

	prev, cur := frames[0], frames[1]
	require.NotEmpty(t, cur.Matches)
	for _, m := range cur.Matches {
		assert.Less(t, m.Query, len(prev.Keypoints))
		assert.Less(t, m.Train, len(cur.Keypoints))
	}
}

func TestProcess_Alignment(t *testing.T) {
	for _, desc := range []string{"BRIEF", "ORB", "SIFT"} {
		t.Run(desc, func(t *testing.T) {
			cfg := fastBrief()
			cfg.Descriptor = desc
			p, err := New(cfg)
			require.NoError(t, err)

			for i := 0; i < 3; i++ {
				_, err := p.Process(i, shiftedSquare(i))
				require.NoError(t, err)
			}
			for _, f := range p.Buffer().Frames() {
				assert.Equal(t, len(f.Keypoints), f.Descriptors.Len(), "frame %d", f.Index)
			}
		})
	}
}

func TestProcess_SubImageFrames(t *testing.T) {
	// Frames cut out of a larger capture keep origin-relative coordinates.
	capture := image.NewGray(image.Rect(0, 0, 116, 116))
	for i := range capture.Pix {
		capture.Pix[i] = 255
	}
	square := shiftedSquare(0)
	for y := 0; y < 96; y++ {
		for x := 0; x < 96; x++ {
			capture.SetGray(x+10, y+10, square.GrayAt(x, y))
		}
	}
	sub := capture.SubImage(image.Rect(10, 10, 106, 106)).(*image.Gray)

	plain, err := New(fastBrief())
	require.NoError(t, err)
	cut, err := New(fastBrief())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		want, err := plain.Process(i, square)
		require.NoError(t, err)
		got, err := cut.Process(i, sub)
		require.NoError(t, err)
		assert.Equal(t, want.Keypoints, got.Keypoints)
		assert.Equal(t, want.Matches, got.Matches)
	}

	wantFrame, _ := plain.Buffer().Latest()
	gotFrame, _ := cut.Buffer().Latest()
	assert.Equal(t, image.Pt(0, 0), gotFrame.Image.Bounds().Min)
	assert.Equal(t, wantFrame.Keypoints, gotFrame.Keypoints)
	assert.Equal(t, wantFrame.Descriptors, gotFrame.Descriptors)
	assert.Equal(t, wantFrame.Matches, gotFrame.Matches)
	require.NotEmpty(t, gotFrame.Matches)
}

func TestProcess_UndescribableKeypointsDoNotMatch(t *testing.T) {
	// A square in the corner only yields keypoints inside the BRIEF border,
	// so every descriptor row is null.
	corner := func() *image.Gray {
		img := image.NewGray(image.Rect(0, 0, 96, 96))
		for i := range img.Pix {
			img.Pix[i] = 255
		}
		for y := 4; y < 16; y++ {
			for x := 4; x < 16; x++ {
				img.SetGray(x, y, color.Gray{Y: 0})
			}
		}
		return img
	}

	p, err := New(fastBrief())
	require.NoError(t, err)

	r0, err := p.Process(0, corner())
	require.NoError(t, err)
	require.Greater(t, r0.Keypoints, 0)

	first, _ := p.Buffer().Latest()
	for i := 0; i < first.Descriptors.Len(); i++ {
		assert.True(t, first.Descriptors.IsNull(i), "row %d", i)
	}

	r1, err := p.Process(1, corner())
	require.NoError(t, err)
	assert.Equal(t, 0, r1.MatchedWith)
	assert.Equal(t, 0, r1.Matches)
}

func TestProcess_InvalidImageLeavesBuffer(t *testing.T) {
	p, err := New(fastBrief())
	require.NoError(t, err)

	_, err = p.Process(0, shiftedSquare(0))
	require.NoError(t, err)

	report, err := p.Process(1, nil)
	require.Error(t, err)
	assert.Nil(t, report)
	assert.True(t, errors.Is(err, feature.ErrInvalidInput))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, 1, se.Frame)
	assert.False(t, se.PairLevel())

	assert.Equal(t, 1, p.Buffer().Len())
}

func TestProcess_EmptyROIIsPairLevel(t *testing.T) {
	cfg := fastBrief()
	cfg.ROI = &feature.Rect{X: 0, Y: 0, Width: 5, Height: 5}
	p, err := New(cfg)
	require.NoError(t, err)

	r0, err := p.Process(0, shiftedSquare(0))
	require.NoError(t, err)
	assert.Equal(t, 0, r0.Keypoints)
	assert.Nil(t, r0.Stats)

	r1, err := p.Process(1, shiftedSquare(1))
	require.Error(t, err)
	require.NotNil(t, r1)
	assert.True(t, errors.Is(err, feature.ErrEmptyInput))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageMatch, se.Stage)
	assert.True(t, se.PairLevel())

	// The frame is committed without matches.
	assert.Equal(t, 2, p.Buffer().Len())
	latest, _ := p.Buffer().Latest()
	assert.Equal(t, 1, latest.Index)
	assert.Nil(t, latest.Matches)
}

func TestProcess_ROIAndCap(t *testing.T) {
	cfg := fastBrief()
	cfg.ROI = &feature.Rect{X: 0, Y: 0, Width: 48, Height: 96}
	cfg.KeypointCap = 1
	p, err := New(cfg)
	require.NoError(t, err)

	r, err := p.Process(0, shiftedSquare(0))
	require.NoError(t, err)
	assert.Greater(t, r.Detected, r.Keypoints)
	assert.Equal(t, 1, r.Keypoints)

	latest, _ := p.Buffer().Latest()
	for _, k := range latest.Keypoints {
		assert.Less(t, k.X, 48.0)
	}
	require.NotNil(t, r.Stats)
	assert.Equal(t, 1, r.Stats.Count)
}

func TestProcess_CapacityOneNeverMatches(t *testing.T) {
	cfg := fastBrief()
	cfg.BufferCapacity = 1
	p, err := New(cfg)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		r, err := p.Process(i, shiftedSquare(i))
		require.NoError(t, err)
		assert.Equal(t, -1, r.MatchedWith)
	}
	assert.Equal(t, 1, p.Buffer().Len())
}

func TestProcess_Visualizer(t *testing.T) {
	vis := &recordingVisualizer{}
	p, err := New(fastBrief(), WithVisualizer(vis))
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := p.Process(i, shiftedSquare(i))
		require.NoError(t, err)
	}
	assert.Equal(t, [][2]int{{0, 1}, {1, 2}}, vis.pairs)
}

func TestProcess_VisualizerError(t *testing.T) {
	vis := &recordingVisualizer{err: errors.New("disk full")}
	p, err := New(fastBrief(), WithVisualizer(vis))
	require.NoError(t, err)

	_, err = p.Process(0, shiftedSquare(0))
	require.NoError(t, err)
	_, err = p.Process(1, shiftedSquare(1))

	var se *StageError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, StageVisualize, se.Stage)
	assert.Equal(t, 2, p.Buffer().Len())
}

func TestRun_SkipsInvalidFrames(t *testing.T) {
	p, err := New(fastBrief())
	require.NoError(t, err)

	src := &sliceSource{images: []*image.Gray{
		shiftedSquare(0), nil, shiftedSquare(2), shiftedSquare(4),
	}}
	summary, err := p.Run(src)
	require.NoError(t, err)

	assert.Equal(t, "FAST", summary.Detector)
	assert.Equal(t, "BRIEF", summary.Descriptor)
	assert.Equal(t, []int{1}, summary.Skipped)
	require.Len(t, summary.Frames, 3)

	// Frame 2 pairs with frame 0 because frame 1 never reached the buffer.
	assert.Equal(t, 0, summary.Frames[1].MatchedWith)
	assert.Equal(t, 2, summary.Frames[2].MatchedWith)

	frames, keypoints, matches := summary.Totals()
	assert.Equal(t, 3, frames)
	assert.Greater(t, keypoints, 0)
	assert.Greater(t, matches, 0)
}

func TestRun_PairErrorsContinue(t *testing.T) {
	cfg := fastBrief()
	cfg.ROI = &feature.Rect{X: 0, Y: 0, Width: 5, Height: 5}
	p, err := New(cfg)
	require.NoError(t, err)

	src := &sliceSource{images: []*image.Gray{shiftedSquare(0), shiftedSquare(1), shiftedSquare(2)}}
	summary, err := p.Run(src)
	require.NoError(t, err)
	assert.Len(t, summary.Frames, 3)
	assert.Equal(t, 2, summary.PairErrors)
}

func TestStageError(t *testing.T) {
	err := &StageError{Frame: 4, Stage: StageMatch, Strategy: "knn-ratio", Err: feature.ErrEmptyInput}
	assert.True(t, errors.Is(err, feature.ErrEmptyInput))
	assert.True(t, strings.HasPrefix(err.Error(), "frame 4: match (knn-ratio)"))
}
