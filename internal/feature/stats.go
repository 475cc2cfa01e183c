package feature

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// SizeStats summarizes the Size field of a keypoint set.
type SizeStats struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// SizeStatistics computes the mean and population standard deviation of the
// keypoint sizes (sum of squared deviations divided by count, not count-1).
//
// An empty set returns ErrEmptyInput instead of NaN values.
func SizeStatistics(kps []Keypoint) (SizeStats, error) {
	if len(kps) == 0 {
		return SizeStats{}, ErrEmptyInput
	}

	sizes := make([]float64, len(kps))
	for i, kp := range kps {
		sizes[i] = kp.Size
	}
	mean, std := stat.PopMeanStdDev(sizes, nil)

	return SizeStats{Count: len(kps), Mean: mean, StdDev: std}, nil
}

// Spread describes how keypoint positions are distributed: the centroid and
// the principal axes of the population covariance of (x, y).
type Spread struct {
	CentroidX float64 `json:"centroid_x"`
	CentroidY float64 `json:"centroid_y"`
	// Major and Minor are standard deviations along the principal axes.
	Major float64 `json:"major"`
	Minor float64 `json:"minor"`
	// Angle of the major axis in degrees, in [0, 180).
	Angle float64 `json:"angle"`
}

// PositionSpread computes the Spread of kps. An empty set returns
// ErrEmptyInput.
func PositionSpread(kps []Keypoint) (Spread, error) {
	if len(kps) == 0 {
		return Spread{}, ErrEmptyInput
	}

	xs := make([]float64, len(kps))
	ys := make([]float64, len(kps))
	for i, kp := range kps {
		xs[i] = kp.X
		ys[i] = kp.Y
	}
	mx, my := stat.Mean(xs, nil), stat.Mean(ys, nil)

	var cxx, cxy, cyy float64
	for i := range xs {
		dx, dy := xs[i]-mx, ys[i]-my
		cxx += dx * dx
		cxy += dx * dy
		cyy += dy * dy
	}
	n := float64(len(kps))
	cov := mat.NewSymDense(2, []float64{cxx / n, cxy / n, cxy / n, cyy / n})

	var eig mat.EigenSym
	if !eig.Factorize(cov, true) {
		return Spread{}, fmt.Errorf("keypoint covariance eigen decomposition failed")
	}
	values := eig.Values(nil) // ascending
	var vecs mat.Dense
	eig.VectorsTo(&vecs)

	angle := math.Atan2(vecs.At(1, 1), vecs.At(0, 1)) * 180 / math.Pi
	angle = math.Mod(angle+360, 180)

	return Spread{
		CentroidX: mx,
		CentroidY: my,
		Major:     math.Sqrt(math.Max(values[1], 0)),
		Minor:     math.Sqrt(math.Max(values[0], 0)),
		Angle:     angle,
	}, nil
}
