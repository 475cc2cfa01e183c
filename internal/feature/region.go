package feature

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Rect is an axis-aligned region of interest.
//
// Containment is closed-open: a point (x, y) is inside when
// X <= x < X+Width and Y <= y < Y+Height.
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Contains reports whether the point lies inside the rectangle.
func (r Rect) Contains(x, y float64) bool {
	return x >= float64(r.X) && x < float64(r.X+r.Width) &&
		y >= float64(r.Y) && y < float64(r.Y+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", r.X, r.Y, r.Width, r.Height)
}

// ParseRect parses "x,y,width,height". Width and height must be positive.
func ParseRect(s string) (Rect, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Rect{}, fmt.Errorf("invalid rect %q: want x,y,width,height", s)
	}

	var vals [4]int
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return Rect{}, fmt.Errorf("invalid rect %q: %w", s, err)
		}
		vals[i] = v
	}
	if vals[2] <= 0 || vals[3] <= 0 {
		return Rect{}, fmt.Errorf("invalid rect %q: width and height must be positive", s)
	}

	return Rect{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}, nil
}

// FilterRegion returns the keypoints inside rect, preserving their order.
// The input slice is not modified.
func FilterRegion(kps []Keypoint, rect Rect) []Keypoint {
	out := make([]Keypoint, 0, len(kps))
	for _, kp := range kps {
		if rect.Contains(kp.X, kp.Y) {
			out = append(out, kp)
		}
	}
	return out
}

// RetainBest keeps the n keypoints with the highest response.
//
// Ties are broken by original position, so detectors that leave Response at
// zero but emit points in quality order keep their first n points. The
// survivors keep their original relative order. n <= 0 or n >= len(kps)
// returns an unmodified copy.
func RetainBest(kps []Keypoint, n int) []Keypoint {
	if n <= 0 || n >= len(kps) {
		out := make([]Keypoint, len(kps))
		copy(out, kps)
		return out
	}

	idx := make([]int, len(kps))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		return kps[idx[a]].Response > kps[idx[b]].Response
	})

	keep := idx[:n]
	sort.Ints(keep)

	out := make([]Keypoint, 0, n)
	for _, i := range keep {
		out = append(out, kps[i])
	}
	return out
}
