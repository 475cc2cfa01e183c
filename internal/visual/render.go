package visual

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"

	"github.com/disintegration/imaging"
	colorful "github.com/lucasb-eyer/go-colorful"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/tracking"
)

// Options controls match rendering.
type Options struct {
	// KeypointColor is a hex color ("#RRGGBB" or "#RRGGBBAA") for keypoints.
	KeypointColor string
	// Scale resizes the rendered canvas. 0 or 1 keeps the original size.
	Scale float64
	// Label draws the frame indices and match count in the top-left corner.
	Label bool
}

// DefaultOptions returns green keypoints, no scaling and a label.
func DefaultOptions() Options {
	return Options{KeypointColor: "#00FF00", Scale: 1, Label: true}
}

// RenderResult contains an encoded rendering
type RenderResult struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64"`
	MimeType    string `json:"mime_type"`
}

// Render places the previous and current images side by side, draws every
// keypoint of both frames and connects matched keypoints with lines. Each
// match gets its own hue so crossing lines stay distinguishable.
func Render(p tracking.Pair, opts Options) (*image.NRGBA, error) {
	if p.Previous == nil || p.Current == nil || p.Previous.Image == nil || p.Current.Image == nil {
		return nil, fmt.Errorf("%w: pair needs two frames with images", feature.ErrInvalidInput)
	}

	kpColor, err := parseHexColor(opts.KeypointColor)
	if err != nil {
		kpColor = color.NRGBA{0, 255, 0, 255}
	}

	prevBounds := p.Previous.Image.Bounds()
	curBounds := p.Current.Image.Bounds()
	width := prevBounds.Dx() + curBounds.Dx()
	height := max(prevBounds.Dy(), curBounds.Dy())
	offset := float64(prevBounds.Dx())

	canvas := imaging.New(width, height, color.Black)
	canvas = imaging.Paste(canvas, p.Previous.Image, image.Pt(0, 0))
	canvas = imaging.Paste(canvas, p.Current.Image, image.Pt(prevBounds.Dx(), 0))

	for _, k := range p.Previous.Keypoints {
		drawKeypoint(canvas, k.X, k.Y, k.Size, k.Angle, kpColor)
	}
	for _, k := range p.Current.Keypoints {
		drawKeypoint(canvas, k.X+offset, k.Y, k.Size, k.Angle, kpColor)
	}

	for i, m := range p.Matches {
		if m.Query < 0 || m.Query >= len(p.Previous.Keypoints) || m.Train < 0 || m.Train >= len(p.Current.Keypoints) {
			return nil, fmt.Errorf("%w: match %d (%d->%d) out of range", feature.ErrInvalidInput, i, m.Query, m.Train)
		}
		a := p.Previous.Keypoints[m.Query]
		b := p.Current.Keypoints[m.Train]
		drawLine(canvas, int(a.X), int(a.Y), int(b.X+offset), int(b.Y), matchColor(i, len(p.Matches)))
	}

	if opts.Label {
		label := fmt.Sprintf("%d>%d %d matches", p.Previous.Index, p.Current.Index, len(p.Matches))
		drawLabel(canvas, 2, 2, label, color.NRGBA{255, 255, 255, 255}, color.NRGBA{0, 0, 0, 180})
	}

	if opts.Scale > 0 && opts.Scale != 1.0 {
		newWidth := int(float64(width) * opts.Scale)
		newHeight := int(float64(height) * opts.Scale)
		canvas = imaging.Resize(canvas, newWidth, newHeight, imaging.Lanczos)
	}
	return canvas, nil
}

// RenderPNG renders the pair and encodes it as base64 PNG.
func RenderPNG(p tracking.Pair, opts Options) (*RenderResult, error) {
	img, err := Render(p, opts)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("failed to encode image: %w", err)
	}

	return &RenderResult{
		Width:       img.Bounds().Dx(),
		Height:      img.Bounds().Dy(),
		ImageBase64: base64.StdEncoding.EncodeToString(buf.Bytes()),
		MimeType:    "image/png",
	}, nil
}

// matchColor spreads n hues evenly around the HSV wheel.
func matchColor(i, n int) color.NRGBA {
	if n <= 0 {
		n = 1
	}
	c := colorful.Hsv(360*float64(i)/float64(n), 0.85, 1).Clamped()
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}
