package report

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/ironsheep/feature-tracker/internal/feature"
	"github.com/ironsheep/feature-tracker/internal/tracking"
)

// SavePlot charts keypoints (solid) and matches (dashed) per frame for every
// summary and writes the chart to path. The format follows the extension
// (.png, .svg, .pdf).
func SavePlot(summaries []*tracking.Summary, path string) error {
	if len(summaries) == 0 {
		return fmt.Errorf("%w: no summaries to plot", feature.ErrEmptyInput)
	}

	p := plot.New()
	p.Title.Text = "Keypoints and matches per frame"
	p.X.Label.Text = "Frame"
	p.Y.Label.Text = "Count"

	colors := generateColors(len(summaries))
	for i, s := range summaries {
		kpPts := make(plotter.XYs, 0, len(s.Frames))
		matchPts := make(plotter.XYs, 0, len(s.Frames))
		for _, f := range s.Frames {
			kpPts = append(kpPts, plotter.XY{X: float64(f.Index), Y: float64(f.Keypoints)})
			if f.MatchedWith >= 0 {
				matchPts = append(matchPts, plotter.XY{X: float64(f.Index), Y: float64(f.Matches)})
			}
		}
		label := fmt.Sprintf("%s/%s", s.Detector, s.Descriptor)

		if len(kpPts) > 0 {
			kpLine, err := plotter.NewLine(kpPts)
			if err != nil {
				return err
			}
			kpLine.Color = colors[i]
			kpLine.Width = vg.Points(1)
			p.Add(kpLine)
			p.Legend.Add(label+" keypoints", kpLine)
		}

		if len(matchPts) > 0 {
			matchLine, err := plotter.NewLine(matchPts)
			if err != nil {
				return err
			}
			matchLine.Color = colors[i]
			matchLine.Width = vg.Points(1)
			matchLine.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
			p.Add(matchLine)
			p.Legend.Add(label+" matches", matchLine)
		}
	}

	p.Legend.Top = true
	p.Legend.Left = false
	p.Legend.XOffs = -10
	p.Legend.YOffs = -10
	p.Add(plotter.NewGrid())

	if err := p.Save(10*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save plot %s: %w", path, err)
	}
	return nil
}

// generateColors returns n evenly spaced hues.
func generateColors(n int) []color.Color {
	colors := make([]color.Color, n)
	for i := range colors {
		c := colorful.Hsl(360*float64(i)/float64(n), 0.7, 0.5).Clamped()
		r, g, b := c.RGB255()
		colors[i] = color.RGBA{R: r, G: g, B: b, A: 255}
	}
	return colors
}
