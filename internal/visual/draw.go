package visual

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// parseHexColor parses a hex color string like "#FF0000" or "#FF000080"
func parseHexColor(hex string) (color.NRGBA, error) {
	if len(hex) == 0 {
		return color.NRGBA{}, fmt.Errorf("empty color string")
	}
	if hex[0] == '#' {
		hex = hex[1:]
	}

	var r, g, b, a uint8 = 0, 0, 0, 255

	switch len(hex) {
	case 6:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 16)
		g = uint8(val >> 8)
		b = uint8(val)
	case 8:
		val, err := strconv.ParseUint(hex, 16, 32)
		if err != nil {
			return color.NRGBA{}, err
		}
		r = uint8(val >> 24)
		g = uint8(val >> 16)
		b = uint8(val >> 8)
		a = uint8(val)
	default:
		return color.NRGBA{}, fmt.Errorf("invalid hex color length")
	}

	return color.NRGBA{R: r, G: g, B: b, A: a}, nil
}

// blend draws c over the pixel at (x, y) using c's alpha. Points outside the
// image are ignored.
func blend(img *image.NRGBA, x, y int, c color.NRGBA) {
	if !(image.Point{X: x, Y: y}).In(img.Rect) {
		return
	}
	if c.A == 255 {
		img.SetNRGBA(x, y, c)
		return
	}
	dst := img.NRGBAAt(x, y)
	a := uint32(c.A)
	mix := func(s, d uint8) uint8 {
		return uint8((uint32(s)*a + uint32(d)*(255-a)) / 255)
	}
	img.SetNRGBA(x, y, color.NRGBA{R: mix(c.R, dst.R), G: mix(c.G, dst.G), B: mix(c.B, dst.B), A: 255})
}

// drawLine draws a one-pixel Bresenham line.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, c color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	e := dx + dy

	for {
		blend(img, x0, y0, c)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * e
		if e2 >= dy {
			e += dy
			x0 += sx
		}
		if e2 <= dx {
			e += dx
			y0 += sy
		}
	}
}

// drawCircle draws a circle outline using the midpoint algorithm.
func drawCircle(img *image.NRGBA, cx, cy, radius int, c color.NRGBA) {
	if radius <= 0 {
		blend(img, cx, cy, c)
		return
	}

	x := radius
	y := 0
	err := 0

	for x >= y {
		blend(img, cx+x, cy+y, c)
		blend(img, cx+y, cy+x, c)
		blend(img, cx-y, cy+x, c)
		blend(img, cx-x, cy+y, c)
		blend(img, cx-x, cy-y, c)
		blend(img, cx-y, cy-x, c)
		blend(img, cx+y, cy-x, c)
		blend(img, cx+x, cy-y, c)

		if err <= 0 {
			y++
			err += 2*y + 1
		}
		if err > 0 {
			x--
			err -= 2*x + 1
		}
	}
}

// drawKeypoint draws a circle of the keypoint's diameter and, when the
// orientation is known, a radius along it.
func drawKeypoint(img *image.NRGBA, x, y, size, angle float64, c color.NRGBA) {
	cx, cy := int(math.Round(x)), int(math.Round(y))
	r := int(math.Round(size / 2))
	drawCircle(img, cx, cy, r, c)
	if angle >= 0 && r > 0 {
		sin, cos := math.Sincos(angle * math.Pi / 180)
		drawLine(img, cx, cy, cx+int(math.Round(float64(r)*cos)), cy+int(math.Round(float64(r)*sin)), c)
	}
}

// glyphs is a 3x5 pixel font for labels.
var glyphs = map[rune][]string{
	'0': {"111", "101", "101", "101", "111"},
	'1': {"010", "110", "010", "010", "111"},
	'2': {"111", "001", "111", "100", "111"},
	'3': {"111", "001", "111", "001", "111"},
	'4': {"101", "101", "111", "001", "001"},
	'5': {"111", "100", "111", "001", "111"},
	'6': {"111", "100", "111", "101", "111"},
	'7': {"111", "001", "001", "001", "001"},
	'8': {"111", "101", "111", "101", "111"},
	'9': {"111", "101", "111", "001", "111"},
	',': {"000", "000", "000", "010", "010"},
	':': {"000", "010", "000", "010", "000"},
	'/': {"001", "001", "010", "100", "100"},
	'-': {"000", "000", "111", "000", "000"},
	'>': {"100", "010", "001", "010", "100"},
	'A': {"010", "101", "111", "101", "101"},
	'B': {"110", "101", "110", "101", "110"},
	'C': {"011", "100", "100", "100", "011"},
	'D': {"110", "101", "101", "101", "110"},
	'E': {"111", "100", "110", "100", "111"},
	'F': {"111", "100", "110", "100", "100"},
	'G': {"011", "100", "101", "101", "011"},
	'H': {"101", "101", "111", "101", "101"},
	'I': {"111", "010", "010", "010", "111"},
	'J': {"001", "001", "001", "101", "010"},
	'K': {"101", "101", "110", "101", "101"},
	'L': {"100", "100", "100", "100", "111"},
	'M': {"101", "111", "111", "101", "101"},
	'N': {"110", "101", "101", "101", "101"},
	'O': {"010", "101", "101", "101", "010"},
	'P': {"110", "101", "110", "100", "100"},
	'Q': {"010", "101", "101", "110", "011"},
	'R': {"110", "101", "110", "101", "101"},
	'S': {"011", "100", "010", "001", "110"},
	'T': {"111", "010", "010", "010", "010"},
	'U': {"101", "101", "101", "101", "111"},
	'V': {"101", "101", "101", "101", "010"},
	'W': {"101", "101", "111", "111", "101"},
	'X': {"101", "101", "010", "101", "101"},
	'Y': {"101", "101", "010", "010", "010"},
	'Z': {"111", "001", "010", "100", "111"},
}

// drawLabel draws text with the built-in pixel font on a background box.
// Lowercase letters are drawn as uppercase; unknown runes leave a gap.
func drawLabel(img *image.NRGBA, x, y int, text string, fg, bg color.NRGBA) {
	charWidth := 4
	labelWidth := len(text) * charWidth
	labelHeight := 7

	// Draw background
	for dy := -1; dy < labelHeight; dy++ {
		for dx := -1; dx < labelWidth; dx++ {
			blend(img, x+dx, y+dy, bg)
		}
	}

	// Draw text
	cx := x
	for _, ch := range strings.ToUpper(text) {
		glyph, ok := glyphs[ch]
		if !ok {
			cx += charWidth
			continue
		}
		for row, line := range glyph {
			for col, pixel := range line {
				if pixel == '1' {
					blend(img, cx+col, y+row, fg)
				}
			}
		}
		cx += charWidth
	}
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
