package tracking

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/feature-tracker/internal/description"
	"github.com/ironsheep/feature-tracker/internal/detection"
	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/imaging"
	"github.com/ironsheep/feature-tracker/internal/logger"
	"github.com/ironsheep/feature-tracker/internal/matching"
)

// DefaultBufferCapacity keeps exactly the two frames of a matching pair.
const DefaultBufferCapacity = 2

// Config selects the strategies and parameters of a pipeline.
type Config struct {
	Detector        string            `json:"detector"`
	DetectorOptions detection.Options `json:"detector_options"`
	Descriptor      string            `json:"descriptor"`
	// Metric is "binary" or "float". Empty selects the descriptor's natural
	// metric.
	Metric string `json:"metric,omitempty"`
	// Selector is "nn" or "knn-ratio". Empty selects "knn-ratio".
	Selector string `json:"selector,omitempty"`
	// Ratio is the knn-ratio threshold in (0, 1]. Zero selects 0.8.
	Ratio float64 `json:"ratio,omitempty"`
	// BufferCapacity is the number of frames kept. Zero selects 2.
	BufferCapacity int `json:"buffer_capacity,omitempty"`
	// ROI restricts keypoints to a region. Nil keeps all of them.
	ROI *feature.Rect `json:"roi,omitempty"`
	// KeypointCap keeps only the strongest keypoints after ROI filtering.
	// Zero disables the cap.
	KeypointCap int `json:"keypoint_cap,omitempty"`
}

// Stage names a step of per-frame processing.
type Stage string

const (
	StageLoad      Stage = "load"
	StageDetect    Stage = "detect"
	StageDescribe  Stage = "describe"
	StageMatch     Stage = "match"
	StageVisualize Stage = "visualize"
)

// StageError reports which frame, stage and strategy failed.
type StageError struct {
	Frame    int
	Stage    Stage
	Strategy string
	Err      error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("frame %d: %s (%s): %v", e.Frame, e.Stage, e.Strategy, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PairLevel reports whether the failure only concerns the frame pair. The
// frame itself was committed to the buffer.
func (e *StageError) PairLevel() bool {
	return e.Stage == StageMatch || e.Stage == StageVisualize
}

// Pair is what a Visualizer receives after a successful match.
type Pair struct {
	Previous *Frame
	Current  *Frame
	Matches  []feature.Match
}

// Visualizer consumes matched frame pairs. Show blocks until the pair has
// been acknowledged.
type Visualizer interface {
	Show(p Pair) error
}

// Source yields grayscale frames in increasing index order and returns
// imaging.ErrEndOfSequence when exhausted.
type Source interface {
	Next() (int, *image.Gray, error)
}

// FrameReport summarizes the processing of one frame.
type FrameReport struct {
	Index int `json:"index"`
	// Detected is the raw detector output count.
	Detected int `json:"detected"`
	// Keypoints is the count after ROI filtering and capping.
	Keypoints int `json:"keypoints"`
	// Stats is nil when no keypoint survived filtering.
	Stats  *feature.SizeStats `json:"stats,omitempty"`
	Spread *feature.Spread    `json:"spread,omitempty"`
	// MatchedWith is the index of the frame matched against, or -1.
	MatchedWith int `json:"matched_with"`
	Matches     int `json:"matches"`
	// Evicted is the index of the frame pushed out of the buffer, or -1.
	Evicted      int           `json:"evicted"`
	DetectTime   time.Duration `json:"detect_time_ns"`
	DescribeTime time.Duration `json:"describe_time_ns"`
	MatchTime    time.Duration `json:"match_time_ns"`
}

// Summary collects the outcome of Run.
type Summary struct {
	Detector   string        `json:"detector"`
	Descriptor string        `json:"descriptor"`
	Frames     []FrameReport `json:"frames"`
	// Skipped lists frames that could not be loaded, detected or described.
	Skipped []int `json:"skipped,omitempty"`
	// PairErrors counts frames committed without matches.
	PairErrors int `json:"pair_errors"`
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *logger.Logger) Option {
	return func(p *Pipeline) { p.log = l }
}

// WithVisualizer enables visualization of every matched pair.
func WithVisualizer(v Visualizer) Option {
	return func(p *Pipeline) { p.vis = v }
}

// Pipeline runs detection, filtering, description and matching frame by
// frame over a sliding window. A Pipeline is not safe for concurrent use.
type Pipeline struct {
	cfg       Config
	detector  detection.Detector
	extractor description.Extractor
	matcher   *matching.Matcher
	buf       *FrameBuffer
	log       *logger.Logger
	vis       Visualizer
}

// New resolves every strategy of cfg. Unknown names fail with
// feature.ErrUnsupportedStrategy before any image is processed; a metric
// that cannot compare the chosen descriptor fails with
// feature.ErrIncompatibleDescriptor.
func New(cfg Config, opts ...Option) (*Pipeline, error) {
	det, err := detection.New(cfg.Detector, cfg.DetectorOptions)
	if err != nil {
		return nil, err
	}
	ext, err := description.New(cfg.Descriptor)
	if err != nil {
		return nil, err
	}

	metric := matching.MetricFor(ext.Type())
	if cfg.Metric != "" {
		if metric, err = matching.ParseMetric(cfg.Metric); err != nil {
			return nil, err
		}
		if metric != matching.MetricFor(ext.Type()) {
			return nil, fmt.Errorf("%w: metric %q cannot compare %s descriptors from %s",
				feature.ErrIncompatibleDescriptor, cfg.Metric, ext.Type(), ext.Name())
		}
	}

	selector := matching.KNNRatio
	if cfg.Selector != "" {
		if selector, err = matching.ParseSelector(cfg.Selector); err != nil {
			return nil, err
		}
	}
	m, err := matching.New(metric, selector, cfg.Ratio)
	if err != nil {
		return nil, err
	}

	capacity := cfg.BufferCapacity
	if capacity == 0 {
		capacity = DefaultBufferCapacity
	}
	buf, err := NewFrameBuffer(capacity)
	if err != nil {
		return nil, err
	}

	if cfg.KeypointCap < 0 {
		return nil, fmt.Errorf("%w: keypoint cap %d < 0", feature.ErrInvalidInput, cfg.KeypointCap)
	}

	p := &Pipeline{
		cfg:       cfg,
		detector:  det,
		extractor: ext,
		matcher:   m,
		buf:       buf,
		log:       logger.Discard(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// Buffer exposes the frame window for inspection.
func (p *Pipeline) Buffer() *FrameBuffer { return p.buf }

// Detector returns the resolved detector name.
func (p *Pipeline) Detector() string { return p.detector.Name() }

// Descriptor returns the resolved descriptor name.
func (p *Pipeline) Descriptor() string { return p.extractor.Name() }

// Process runs every stage for one image.
//
// A detection or description failure returns a *StageError and leaves the
// buffer untouched. A matching failure is pair-level: the frame is still
// pushed (without matches) and the *StageError is returned along with the
// report. Matching only runs when the buffer holds a prior frame and can
// keep two frames.
func (p *Pipeline) Process(index int, img *image.Gray) (*FrameReport, error) {
	if err := imaging.ValidateGray(img); err != nil {
		return nil, &StageError{Frame: index, Stage: StageLoad, Strategy: p.detector.Name(), Err: err}
	}
	// Keypoints and stored frames use coordinates relative to the image origin.
	img = imaging.ToGray(img)

	report := &FrameReport{Index: index, MatchedWith: -1, Evicted: -1}
	builder := newFrameBuilder(index, img)

	start := time.Now()
	kps, err := p.detector.Detect(img)
	if err != nil {
		return nil, &StageError{Frame: index, Stage: StageDetect, Strategy: p.detector.Name(), Err: err}
	}
	report.DetectTime = time.Since(start)
	report.Detected = len(kps)

	if p.cfg.ROI != nil {
		kps = feature.FilterRegion(kps, *p.cfg.ROI)
	}
	if p.cfg.KeypointCap > 0 {
		kps = feature.RetainBest(kps, p.cfg.KeypointCap)
	}
	report.Keypoints = len(kps)

	p.log.Info("frame %d: %s detected %d keypoints (%d kept) in %.2f ms",
		index, p.detector.Name(), report.Detected, report.Keypoints, ms(report.DetectTime))

	if stats, err := feature.SizeStatistics(kps); err == nil {
		report.Stats = &stats
		p.log.Info("frame %d: keypoint size mean %.3f stddev %.3f", index, stats.Mean, stats.StdDev)
		if spread, err := feature.PositionSpread(kps); err == nil {
			report.Spread = &spread
		}
	} else {
		p.log.Warning("frame %d: no keypoints left for statistics", index)
	}

	start = time.Now()
	desc, err := p.extractor.Compute(img, kps)
	if err != nil {
		return nil, &StageError{Frame: index, Stage: StageDescribe, Strategy: p.extractor.Name(), Err: err}
	}
	report.DescribeTime = time.Since(start)
	builder.withKeypoints(kps).withDescriptors(desc)
	p.log.Debug("frame %d: %s descriptors in %.2f ms", index, p.extractor.Name(), ms(report.DescribeTime))

	var pairErr error
	if prev, ok := p.buf.Latest(); ok && p.buf.Cap() >= 2 {
		start = time.Now()
		matches, err := p.matcher.Match(prev.Keypoints, kps, prev.Descriptors, desc)
		report.MatchTime = time.Since(start)
		report.MatchedWith = prev.Index
		if err != nil {
			pairErr = &StageError{Frame: index, Stage: StageMatch, Strategy: p.matcher.Selector.String(), Err: err}
		} else {
			builder.withMatches(matches)
			report.Matches = len(matches)
			p.log.Info("frame %d: %d matches with frame %d (%s, %v) in %.2f ms",
				index, len(matches), prev.Index, p.matcher.Selector, p.matcher.Metric, ms(report.MatchTime))
		}
	}

	frame, err := builder.build()
	if err != nil {
		return nil, &StageError{Frame: index, Stage: StageDescribe, Strategy: p.extractor.Name(), Err: err}
	}
	if evicted := p.buf.Push(frame); evicted != nil {
		report.Evicted = evicted.Index
	}

	if pairErr != nil {
		return report, pairErr
	}

	if p.vis != nil && frame.Matches != nil {
		prev, _ := p.buf.Previous()
		if err := p.vis.Show(Pair{Previous: prev, Current: frame, Matches: frame.Matches}); err != nil {
			return report, &StageError{Frame: index, Stage: StageVisualize, Strategy: p.detector.Name(), Err: err}
		}
	}
	return report, nil
}

// Run processes src until it is exhausted.
//
// Frames that fail to load, detect or describe are skipped with a warning.
// Pair-level failures are logged and processing continues.
// feature.ErrUnsupportedStrategy aborts the run.
func (p *Pipeline) Run(src Source) (*Summary, error) {
	summary := &Summary{Detector: p.detector.Name(), Descriptor: p.extractor.Name()}

	for {
		index, img, err := src.Next()
		if errors.Is(err, imaging.ErrEndOfSequence) {
			break
		}
		if err != nil {
			if !errors.Is(err, feature.ErrInvalidInput) {
				return summary, &StageError{Frame: index, Stage: StageLoad, Strategy: "source", Err: err}
			}
			p.log.Warning("skipping frame %d: %v", index, err)
			summary.Skipped = append(summary.Skipped, index)
			continue
		}

		report, err := p.Process(index, img)
		if err != nil {
			if errors.Is(err, feature.ErrUnsupportedStrategy) {
				return summary, err
			}
			var se *StageError
			if errors.As(err, &se) && se.PairLevel() {
				p.log.Error("%v", err)
				summary.PairErrors++
				summary.Frames = append(summary.Frames, *report)
				continue
			}
			p.log.Warning("skipping frame %d: %v", index, err)
			summary.Skipped = append(summary.Skipped, index)
			continue
		}
		summary.Frames = append(summary.Frames, *report)
	}

	return summary, nil
}

// Totals returns the processed frame count and the keypoint and match sums.
func (s *Summary) Totals() (frames, keypoints, matches int) {
	for _, f := range s.Frames {
		keypoints += f.Keypoints
		matches += f.Matches
	}
	return len(s.Frames), keypoints, matches
}

func ms(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
