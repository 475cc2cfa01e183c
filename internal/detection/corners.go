package detection

import (
	"image"
	"math"

	"github.com/ironsheep/feature-tracker/internal/imaging"
)

// structureTensor holds the windowed second-moment matrix
// [[xx, xy], [xy, yy]] for every pixel.
type structureTensor struct {
	xx, xy, yy    [][]float64
	width, height int
}

// newStructureTensor computes Sobel derivatives and sums their products over
// block x block windows.
func newStructureTensor(img *image.Gray, block int) *structureTensor {
	plane := imaging.Plane(img)
	b := img.Bounds()
	width, height := b.Dx(), b.Dy()

	gx, gy := imaging.Sobel(plane, width, height)

	xx := make([][]float64, height)
	xy := make([][]float64, height)
	yy := make([][]float64, height)
	for y := 0; y < height; y++ {
		xx[y] = make([]float64, width)
		xy[y] = make([]float64, width)
		yy[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			dx, dy := gx[y][x], gy[y][x]
			xx[y][x] = dx * dx
			xy[y][x] = dx * dy
			yy[y][x] = dy * dy
		}
	}

	return &structureTensor{
		xx:     imaging.BoxSum(xx, width, height, block),
		xy:     imaging.BoxSum(xy, width, height, block),
		yy:     imaging.BoxSum(yy, width, height, block),
		width:  width,
		height: height,
	}
}

// minEigen returns the smaller eigenvalue of the tensor at (x, y).
func (s *structureTensor) minEigen(x, y int) float64 {
	a := s.xx[y][x] / 2
	c := s.yy[y][x] / 2
	b := s.xy[y][x]
	return (a + c) - math.Sqrt((a-c)*(a-c)+b*b)
}

// harris returns det(M) - k*trace(M)^2 at (x, y).
func (s *structureTensor) harris(x, y int, k float64) float64 {
	a, b, c := s.xx[y][x], s.xy[y][x], s.yy[y][x]
	return a*c - b*b - k*(a+c)*(a+c)
}

// localMax3x3 reports whether v is the maximum of its 3x3 neighbourhood in
// resp. Equal neighbours earlier in raster order win, so plateaus produce a
// single point.
func localMax3x3(resp [][]float64, x, y, width, height int) bool {
	v := resp[y][x]
	for dy := -1; dy <= 1; dy++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dy == 0 {
				continue
			}
			nx, ny := x+dx, y+dy
			if nx < 0 || ny < 0 || nx >= width || ny >= height {
				continue
			}
			n := resp[ny][nx]
			if n > v {
				return false
			}
			// Raster-earlier neighbours win ties.
			if n == v && (dy < 0 || (dy == 0 && dx < 0)) {
				return false
			}
		}
	}
	return true
}
