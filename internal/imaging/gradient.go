package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/blur"
)

// Plane converts a grayscale image to a float plane indexed plane[y][x] with
// intensities in 0..255.
func Plane(img *image.Gray) [][]float64 {
	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	plane := make([][]float64, height)
	for y := 0; y < height; y++ {
		plane[y] = make([]float64, width)
		off := img.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		row := img.Pix[off : off+width]
		for x, v := range row {
			plane[y][x] = float64(v)
		}
	}
	return plane
}

// GaussianPlane blurs img with a Gaussian of the given sigma (via bild) and
// returns the result as a float plane. sigma <= 0 returns the unblurred plane.
func GaussianPlane(img *image.Gray, sigma float64) [][]float64 {
	if sigma <= 0 {
		return Plane(img)
	}

	// Blur an origin-based copy so plane indices line up with Plane.
	blurred := blur.Gaussian(ToGray(img), sigma)
	bounds := blurred.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	plane := make([][]float64, height)
	for y := 0; y < height; y++ {
		plane[y] = make([]float64, width)
		off := blurred.PixOffset(bounds.Min.X, bounds.Min.Y+y)
		for x := 0; x < width; x++ {
			// bild keeps gray input gray, so the red channel is the luminance.
			plane[y][x] = float64(blurred.Pix[off+x*4])
		}
	}
	return plane
}

// Sobel computes horizontal and vertical 3x3 Sobel derivatives of a plane.
func Sobel(img [][]float64, width, height int) (gradX, gradY [][]float64) {
	sobelX := [3][3]float64{
		{-1, 0, 1},
		{-2, 0, 2},
		{-1, 0, 1},
	}
	sobelY := [3][3]float64{
		{-1, -2, -1},
		{0, 0, 0},
		{1, 2, 1},
	}

	gradX = make([][]float64, height)
	gradY = make([][]float64, height)
	for y := 0; y < height; y++ {
		gradX[y] = make([]float64, width)
		gradY[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var gx, gy float64
			for ky := -1; ky <= 1; ky++ {
				for kx := -1; kx <= 1; kx++ {
					v := img[Clamp(y+ky, 0, height-1)][Clamp(x+kx, 0, width-1)]
					gx += v * sobelX[ky+1][kx+1]
					gy += v * sobelY[ky+1][kx+1]
				}
			}
			gradX[y][x] = gx
			gradY[y][x] = gy
		}
	}
	return gradX, gradY
}

// BoxSum returns, for every pixel, the sum of img over the block x block window
// anchored so that even block sizes extend one pixel further up and left
// (matching OpenCV's default anchor). Borders are replicated.
func BoxSum(img [][]float64, width, height, block int) [][]float64 {
	if block <= 1 {
		out := make([][]float64, height)
		for y := range out {
			out[y] = append([]float64(nil), img[y]...)
		}
		return out
	}

	before := block / 2
	after := block - before - 1

	// Separable: horizontal pass then vertical pass.
	horiz := make([][]float64, height)
	for y := 0; y < height; y++ {
		horiz[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for k := -before; k <= after; k++ {
				sum += img[y][Clamp(x+k, 0, width-1)]
			}
			horiz[y][x] = sum
		}
	}

	out := make([][]float64, height)
	for y := 0; y < height; y++ {
		out[y] = make([]float64, width)
		for x := 0; x < width; x++ {
			var sum float64
			for k := -before; k <= after; k++ {
				sum += horiz[Clamp(y+k, 0, height-1)][x]
			}
			out[y][x] = sum
		}
	}
	return out
}

// Bilinear samples a plane at a sub-pixel position with clamped borders.
func Bilinear(img [][]float64, width, height int, x, y float64) float64 {
	x0 := int(math.Floor(x))
	y0 := int(math.Floor(y))
	fx := x - float64(x0)
	fy := y - float64(y0)

	p00 := img[Clamp(y0, 0, height-1)][Clamp(x0, 0, width-1)]
	p01 := img[Clamp(y0, 0, height-1)][Clamp(x0+1, 0, width-1)]
	p10 := img[Clamp(y0+1, 0, height-1)][Clamp(x0, 0, width-1)]
	p11 := img[Clamp(y0+1, 0, height-1)][Clamp(x0+1, 0, width-1)]

	top := p00 + (p01-p00)*fx
	bottom := p10 + (p11-p10)*fx
	return top + (bottom-top)*fy
}

// Clamp constrains an integer value to the range [min, max].
// Used for boundary handling in convolution operations.
func Clamp(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
