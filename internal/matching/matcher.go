package matching

import (
	"fmt"
	"math"
	"strings"

	"github.com/hupe1980/vecgo/distance"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// DefaultRatio is the Lowe ratio-test threshold used when none is given.
const DefaultRatio = 0.8

// Selector is the match selection policy.
type Selector int

const (
	// NearestNeighbor keeps the single closest candidate for every query row.
	NearestNeighbor Selector = iota
	// KNNRatio keeps the closest candidate only when it is clearly better
	// than the second closest.
	KNNRatio
)

func (s Selector) String() string {
	switch s {
	case NearestNeighbor:
		return "nn"
	case KNNRatio:
		return "knn-ratio"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// ParseSelector resolves "nn" or "knn-ratio" (case-insensitive).
func ParseSelector(name string) (Selector, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nn":
		return NearestNeighbor, nil
	case "knn-ratio", "knn":
		return KNNRatio, nil
	default:
		return 0, fmt.Errorf("%w: selector %q (available: nn, knn-ratio)",
			feature.ErrUnsupportedStrategy, name)
	}
}

// ParseMetric resolves "binary" to Hamming and "float" to L2
// (case-insensitive).
func ParseMetric(name string) (distance.Metric, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "binary", "hamming":
		return distance.MetricHamming, nil
	case "float", "l2":
		return distance.MetricL2, nil
	default:
		return 0, fmt.Errorf("%w: metric %q (available: binary, float)",
			feature.ErrUnsupportedStrategy, name)
	}
}

// MetricFor returns the natural metric of a descriptor type.
func MetricFor(t feature.DescriptorType) distance.Metric {
	if t == feature.Float {
		return distance.MetricL2
	}
	return distance.MetricHamming
}

// Matcher is a brute-force descriptor matcher.
type Matcher struct {
	Metric   distance.Metric
	Selector Selector
	// Ratio is the KNNRatio threshold in (0, 1]. Zero selects DefaultRatio.
	Ratio float64
}

// New returns a matcher after checking the ratio.
func New(metric distance.Metric, selector Selector, ratio float64) (*Matcher, error) {
	if ratio == 0 {
		ratio = DefaultRatio
	}
	if ratio < 0 || ratio > 1 || math.IsNaN(ratio) {
		return nil, fmt.Errorf("%w: ratio %v outside (0, 1]", feature.ErrInvalidInput, ratio)
	}
	if selector != NearestNeighbor && selector != KNNRatio {
		return nil, fmt.Errorf("%w: selector %v", feature.ErrUnsupportedStrategy, selector)
	}
	return &Matcher{Metric: metric, Selector: selector, Ratio: ratio}, nil
}

// Match finds, for every descriptor row of the previous frame (A), its
// correspondence in the current frame (B).
//
// Matching is directional: several A rows may map to the same B row.
// Results follow A order. Under KNNRatio a match is kept only when
// d1 < Ratio*d2, so an A row with a single candidate or a zero second
// distance is left unmatched. All-zero (null) rows on either side are
// skipped, so an undescribable keypoint never produces a match.
//
// Errors:
//   - ErrEmptyInput when either descriptor set has no rows
//   - ErrInvalidInput when a keypoint slice and its descriptors differ in length
//   - ErrIncompatibleDescriptor for differing types or row sizes, or a
//     metric that does not fit the descriptor type
func (m *Matcher) Match(kpsA, kpsB []feature.Keypoint, descA, descB *feature.Descriptors) ([]feature.Match, error) {
	if descA.Len() == 0 || descB.Len() == 0 {
		return nil, fmt.Errorf("%w: %d and %d descriptors", feature.ErrEmptyInput, descA.Len(), descB.Len())
	}
	if len(kpsA) != descA.Len() || len(kpsB) != descB.Len() {
		return nil, fmt.Errorf("%w: keypoints/descriptors %d/%d and %d/%d",
			feature.ErrInvalidInput, len(kpsA), descA.Len(), len(kpsB), descB.Len())
	}
	if err := descA.CompatibleWith(descB); err != nil {
		return nil, err
	}

	dist, err := m.distanceFunc(descA, descB)
	if err != nil {
		return nil, err
	}

	ratio := m.Ratio
	if ratio == 0 {
		ratio = DefaultRatio
	}

	// Null rows mark undescribable keypoints and never take part in a match.
	candidates := make([]int, 0, descB.Len())
	for j := 0; j < descB.Len(); j++ {
		if !descB.IsNull(j) {
			candidates = append(candidates, j)
		}
	}

	matches := make([]feature.Match, 0, descA.Len())
	for i := 0; i < descA.Len(); i++ {
		if descA.IsNull(i) {
			continue
		}
		best, second := -1, -1
		var d1, d2 float32
		for _, j := range candidates {
			d := dist(i, j)
			// Strict comparisons keep the lowest index on ties.
			switch {
			case best < 0 || d < d1:
				second, d2 = best, d1
				best, d1 = j, d
			case second < 0 || d < d2:
				second, d2 = j, d
			}
		}

		switch m.Selector {
		case NearestNeighbor:
			if best < 0 {
				continue
			}
			matches = append(matches, feature.Match{Query: i, Train: best, Distance: d1})
		case KNNRatio:
			if second >= 0 && float64(d1) < ratio*float64(d2) {
				matches = append(matches, feature.Match{Query: i, Train: best, Distance: d1})
			}
		}
	}
	return matches, nil
}

// distanceFunc binds the metric to the rows of a and b.
func (m *Matcher) distanceFunc(a, b *feature.Descriptors) (func(i, j int) float32, error) {
	switch t := a.Type; t {
	case feature.Binary:
		fn, err := distance.ProviderBytes(m.Metric)
		if err != nil {
			return nil, fmt.Errorf("%w: metric %v for %s descriptors", feature.ErrIncompatibleDescriptor, m.Metric, t)
		}
		return func(i, j int) float32 { return fn(a.Binary[i], b.Binary[j]) }, nil
	case feature.Float:
		if m.Metric != distance.MetricL2 {
			return nil, fmt.Errorf("%w: metric %v for %s descriptors", feature.ErrIncompatibleDescriptor, m.Metric, t)
		}
		return func(i, j int) float32 {
			return float32(math.Sqrt(float64(distance.SquaredL2(a.Float[i], b.Float[j]))))
		}, nil
	default:
		return nil, fmt.Errorf("%w: descriptor type %s", feature.ErrIncompatibleDescriptor, t)
	}
}
