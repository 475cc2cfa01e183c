package imaging

import (
	"errors"
	"image/color"
	"os"
	"path/filepath"
	"testing"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

func TestSequence_Path(t *testing.T) {
	s := &Sequence{Dir: "data", Prefix: "000000", Ext: ".png", FillWidth: 4}

	got := s.Path(7)
	want := filepath.Join("data", "0000000007.png")
	if got != want {
		t.Errorf("Path: got %q, want %q", got, want)
	}
}

func TestSequence_Next(t *testing.T) {
	dir := t.TempDir()
	for i, name := range []string{"img_02.png", "img_03.png", "img_04.png"} {
		writeTestImage(t, dir, name, 16, 8, color.Gray{uint8(50 * (i + 1))})
	}

	s := &Sequence{Dir: dir, Prefix: "img_", Ext: ".png", Start: 2, End: 4, FillWidth: 2}
	if s.Len() != 3 {
		t.Fatalf("Len: got %d, want 3", s.Len())
	}

	for want := 0; want < 3; want++ {
		idx, img, err := s.Next()
		if err != nil {
			t.Fatalf("Next %d failed: %v", want, err)
		}
		if idx != want {
			t.Errorf("index: got %d, want %d", idx, want)
		}
		if img.Bounds().Dx() != 16 {
			t.Errorf("width: got %d, want 16", img.Bounds().Dx())
		}
	}

	if _, _, err := s.Next(); !errors.Is(err, ErrEndOfSequence) {
		t.Errorf("expected ErrEndOfSequence, got %v", err)
	}

	s.Reset()
	if idx, _, err := s.Next(); err != nil || idx != 0 {
		t.Errorf("after Reset: got index %d, err %v", idx, err)
	}
}

func TestSequence_SkipsBrokenFrame(t *testing.T) {
	dir := t.TempDir()
	writeTestImage(t, dir, "f0.png", 8, 8, color.White)
	if err := os.WriteFile(filepath.Join(dir, "f1.png"), []byte("garbage"), 0644); err != nil {
		t.Fatal(err)
	}
	writeTestImage(t, dir, "f2.png", 8, 8, color.Black)

	s := &Sequence{Dir: dir, Prefix: "f", Ext: ".png", Start: 0, End: 2, FillWidth: 1}

	if _, _, err := s.Next(); err != nil {
		t.Fatalf("frame 0: %v", err)
	}
	idx, img, err := s.Next()
	if !errors.Is(err, feature.ErrInvalidInput) {
		t.Fatalf("frame 1: expected ErrInvalidInput, got %v", err)
	}
	if idx != 1 || img != nil {
		t.Errorf("frame 1: got index %d, image %v", idx, img)
	}
	if idx, _, err := s.Next(); err != nil || idx != 2 {
		t.Errorf("frame 2: got index %d, err %v", idx, err)
	}
}

func TestSequence_Empty(t *testing.T) {
	s := &Sequence{Start: 5, End: 4}
	if s.Len() != 0 {
		t.Errorf("Len: got %d, want 0", s.Len())
	}
	if _, _, err := s.Next(); !errors.Is(err, ErrEndOfSequence) {
		t.Errorf("expected ErrEndOfSequence, got %v", err)
	}
}

func TestPaths_Next(t *testing.T) {
	dir := t.TempDir()
	a := writeTestImage(t, dir, "a.png", 8, 8, color.White)
	b := writeTestImage(t, dir, "b.png", 8, 8, color.Black)

	cache := NewImageCache()
	p := &Paths{Files: []string{a, b}, Cache: cache}

	for want := 0; want < 2; want++ {
		idx, _, err := p.Next()
		if err != nil || idx != want {
			t.Fatalf("Next: got index %d, err %v", idx, err)
		}
	}
	if _, _, err := p.Next(); !errors.Is(err, ErrEndOfSequence) {
		t.Errorf("expected ErrEndOfSequence, got %v", err)
	}
	if cache.Len() != 2 {
		t.Errorf("cache: got %d entries, want 2", cache.Len())
	}
}
