package description

import (
	"math"
	"math/rand"
)

// testPair is one intensity comparison of a binary descriptor: bit i is set
// when the sample at (x1, y1) is darker than the sample at (x2, y2).
type testPair struct {
	x1, y1, x2, y2 float64
}

// newPattern draws n test pairs from an isotropic Gaussian with the given
// standard deviation, clipped to [-limit, limit]. The seed is fixed so every
// process produces the same pattern.
func newPattern(seed int64, n int, sigma, limit float64) []testPair {
	rng := rand.New(rand.NewSource(seed))
	draw := func() float64 {
		v := math.Round(rng.NormFloat64() * sigma)
		return math.Max(-limit, math.Min(limit, v))
	}

	pairs := make([]testPair, n)
	for i := range pairs {
		pairs[i] = testPair{x1: draw(), y1: draw(), x2: draw(), y2: draw()}
	}
	return pairs
}
