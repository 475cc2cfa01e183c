package feature

import "math"

// Keypoint is a salient image location produced by a detector.
type Keypoint struct {
	// X is the horizontal position in pixels (0 = leftmost column).
	X float64 `json:"x"`

	// Y is the vertical position in pixels (0 = topmost row).
	Y float64 `json:"y"`

	// Size is the diameter of the meaningful neighbourhood around the point.
	Size float64 `json:"size"`

	// Response is the detector strength. Zero for detectors that do not rank
	// their output.
	Response float64 `json:"response"`

	// Angle is the orientation in degrees in [0,360), or NoAngle when the
	// detector does not estimate one.
	Angle float64 `json:"angle"`

	// Octave is the scale-space octave the point was detected in.
	Octave int `json:"octave"`
}

// NoAngle marks a keypoint without orientation.
const NoAngle = -1.0

// HasAngle reports whether the keypoint carries an orientation.
func (k Keypoint) HasAngle() bool {
	return k.Angle >= 0
}

// Overlap returns the intersection-over-union of the two keypoint circles
// (0 = disjoint, 1 = identical circles).
func Overlap(a, b Keypoint) float64 {
	r1 := a.Size / 2
	r2 := b.Size / 2
	d := math.Hypot(a.X-b.X, a.Y-b.Y)

	if r1 <= 0 || r2 <= 0 || d >= r1+r2 {
		return 0
	}
	r1s, r2s := r1*r1, r2*r2
	var inter float64
	if d <= math.Abs(r1-r2) {
		inter = math.Pi * math.Min(r1s, r2s)
	} else {
		alpha := math.Acos((d*d + r1s - r2s) / (2 * d * r1))
		beta := math.Acos((d*d + r2s - r1s) / (2 * d * r2))
		inter = r1s*alpha + r2s*beta - 0.5*math.Sqrt((-d+r1+r2)*(d+r1-r2)*(d-r1+r2)*(d+r1+r2))
	}

	union := math.Pi*(r1s+r2s) - inter
	return inter / union
}
