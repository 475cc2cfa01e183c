package imaging

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func uniformPlane(width, height int, v float64) [][]float64 {
	p := make([][]float64, height)
	for y := range p {
		p[y] = make([]float64, width)
		for x := range p[y] {
			p[y][x] = v
		}
	}
	return p
}

func TestPlane(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 3, 2))
	img.SetGray(2, 1, color.Gray{200})

	p := Plane(img)
	if len(p) != 2 || len(p[0]) != 3 {
		t.Fatalf("plane shape: got %dx%d", len(p[0]), len(p))
	}
	if p[1][2] != 200 || p[0][0] != 0 {
		t.Errorf("values: got %v", p)
	}
}

func TestGaussianPlane_Uniform(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 20, 20))
	for i := range img.Pix {
		img.Pix[i] = 100
	}

	p := GaussianPlane(img, 2)
	for y := 5; y < 15; y++ {
		for x := 5; x < 15; x++ {
			if math.Abs(p[y][x]-100) > 1 {
				t.Fatalf("p[%d][%d]: got %.1f, want ~100", y, x, p[y][x])
			}
		}
	}
}

func TestGaussianPlane_ZeroSigma(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 4, 4))
	img.SetGray(1, 1, color.Gray{255})

	p := GaussianPlane(img, 0)
	if p[1][1] != 255 || p[1][2] != 0 {
		t.Error("sigma 0 should return the unblurred plane")
	}
}

func TestGaussianPlane_SubImage(t *testing.T) {
	whole := image.NewGray(image.Rect(0, 0, 30, 30))
	for y := 0; y < 30; y++ {
		for x := 0; x < 30; x++ {
			whole.SetGray(x, y, color.Gray{uint8((x*7 + y*13) % 256)})
		}
	}
	sub := whole.SubImage(image.Rect(5, 5, 25, 25)).(*image.Gray)
	copied := ToGray(sub)
	if copied.Bounds().Min != (image.Point{}) {
		t.Fatalf("ToGray bounds: got %v, want origin", copied.Bounds())
	}

	want := GaussianPlane(copied, 1.5)
	got := GaussianPlane(sub, 1.5)
	if len(got) != 20 || len(got[0]) != 20 {
		t.Fatalf("plane shape: got %dx%d, want 20x20", len(got[0]), len(got))
	}
	for y := range want {
		for x := range want[y] {
			if got[y][x] != want[y][x] {
				t.Fatalf("p[%d][%d]: got %v, want %v", y, x, got[y][x], want[y][x])
			}
		}
	}
	if p := Plane(sub); p[0][0] != float64(whole.GrayAt(5, 5).Y) {
		t.Errorf("Plane origin: got %v, want %v", p[0][0], whole.GrayAt(5, 5).Y)
	}
}

func TestSobel_VerticalEdge(t *testing.T) {
	width, height := 10, 10
	img := uniformPlane(width, height, 0)
	for y := 0; y < height; y++ {
		for x := 5; x < width; x++ {
			img[y][x] = 255
		}
	}

	gx, gy := Sobel(img, width, height)

	if gx[5][5] <= 0 || gx[5][4] <= 0 {
		t.Errorf("expected positive x-gradient at the edge, got %v and %v", gx[5][4], gx[5][5])
	}
	if gx[5][1] != 0 || gx[5][8] != 0 {
		t.Error("x-gradient should vanish away from the edge")
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if gy[y][x] != 0 {
				t.Fatalf("gy[%d][%d]: got %v, want 0 for a vertical edge", y, x, gy[y][x])
			}
		}
	}
}

func TestBoxSum(t *testing.T) {
	width, height := 6, 6
	img := uniformPlane(width, height, 1)

	tests := []struct {
		block int
		want  float64
	}{
		{1, 1},
		{2, 4},
		{3, 9},
		{4, 16},
	}

	for _, tt := range tests {
		sum := BoxSum(img, width, height, tt.block)
		// Border replication keeps a uniform plane uniform.
		if sum[0][0] != tt.want || sum[3][3] != tt.want {
			t.Errorf("block %d: got %v/%v, want %v", tt.block, sum[0][0], sum[3][3], tt.want)
		}
	}
}

func TestBilinear(t *testing.T) {
	img := [][]float64{
		{0, 10},
		{20, 30},
	}

	tests := []struct {
		x, y float64
		want float64
	}{
		{0, 0, 0},
		{1, 0, 10},
		{0.5, 0, 5},
		{0.5, 0.5, 15},
		{5, 5, 30}, // clamped
	}

	for _, tt := range tests {
		got := Bilinear(img, 2, 2, tt.x, tt.y)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Bilinear(%v,%v): got %v, want %v", tt.x, tt.y, got, tt.want)
		}
	}
}

func TestClamp(t *testing.T) {
	tests := []struct {
		val, min, max, want int
	}{
		{5, 0, 10, 5},   // within range
		{-1, 0, 10, 0},  // below min
		{15, 0, 10, 10}, // above max
		{0, 0, 10, 0},   // at min
		{10, 0, 10, 10}, // at max
	}

	for _, tt := range tests {
		got := Clamp(tt.val, tt.min, tt.max)
		if got != tt.want {
			t.Errorf("Clamp(%d, %d, %d): got %d, want %d",
				tt.val, tt.min, tt.max, got, tt.want)
		}
	}
}
