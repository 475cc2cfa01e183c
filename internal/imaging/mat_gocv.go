//go:build gocv

package imaging

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// GrayMat copies img into a single-channel 8-bit OpenCV matrix. The caller
// must Close the returned Mat.
func GrayMat(img *image.Gray) (gocv.Mat, error) {
	if err := ValidateGray(img); err != nil {
		return gocv.NewMat(), err
	}

	b := img.Bounds()
	width, height := b.Dx(), b.Dy()
	data := make([]byte, width*height)
	for y := 0; y < height; y++ {
		off := img.PixOffset(b.Min.X, b.Min.Y+y)
		copy(data[y*width:(y+1)*width], img.Pix[off:off+width])
	}

	mat, err := gocv.NewMatFromBytes(height, width, gocv.MatTypeCV8UC1, data)
	if err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to build matrix: %w", err)
	}
	return mat, nil
}
