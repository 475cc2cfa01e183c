package visual

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"

	"github.com/ironsheep/feature-tracker/internal/tracking"
)

// Prompt is printed after each rendered pair.
const Prompt = "Press Enter to continue to next image"

// Sink saves each matched pair as match_XXXX.png and waits for the user.
// It implements tracking.Visualizer.
type Sink struct {
	// OutputDir receives the rendered images. Empty skips saving.
	OutputDir string
	// In is read for the acknowledgement. Nil does not block.
	In io.Reader
	// Out receives the prompt. Nil defaults to os.Stdout.
	Out     io.Writer
	Options Options

	reader *bufio.Reader
}

// NewSink creates an interactive sink on stdin/stdout.
func NewSink(outputDir string) *Sink {
	return &Sink{OutputDir: outputDir, In: os.Stdin, Out: os.Stdout, Options: DefaultOptions()}
}

// Show renders p, saves it and blocks until a line is read from In. End of
// input counts as an acknowledgement so piped runs terminate.
func (s *Sink) Show(p tracking.Pair) error {
	img, err := Render(p, s.Options)
	if err != nil {
		return err
	}

	if s.OutputDir != "" {
		if err := os.MkdirAll(s.OutputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		path := filepath.Join(s.OutputDir, fmt.Sprintf("match_%04d.png", p.Current.Index))
		if err := imaging.Save(img, path); err != nil {
			return fmt.Errorf("failed to save %s: %w", path, err)
		}
	}

	if s.In == nil {
		return nil
	}

	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	fmt.Fprintln(out, Prompt)

	if s.reader == nil {
		s.reader = bufio.NewReader(s.In)
	}
	if _, err := s.reader.ReadString('\n'); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to read acknowledgement: %w", err)
	}
	return nil
}
