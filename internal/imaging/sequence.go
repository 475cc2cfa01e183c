package imaging

import (
	"errors"
	"fmt"
	"image"
	"path/filepath"
)

// ErrEndOfSequence is returned by Sequence.Next once every frame has been delivered.
var ErrEndOfSequence = errors.New("end of sequence")

// Sequence delivers numbered frame files in increasing index order.
//
// The file name for index i is Dir/Prefix + i zero-padded to FillWidth + Ext.
// For the KITTI layout used by the reference data set:
//
//	seq := &imaging.Sequence{
//	    Dir:       "images/KITTI/2011_09_26/image_00/data",
//	    Prefix:    "000000",
//	    Ext:       ".png",
//	    Start:     0,
//	    End:       9,
//	    FillWidth: 4,
//	}
type Sequence struct {
	Dir       string
	Prefix    string
	Ext       string
	Start     int
	End       int // inclusive
	FillWidth int

	next    int
	started bool
}

// Path returns the file name for a frame index.
func (s *Sequence) Path(index int) string {
	name := fmt.Sprintf("%s%0*d%s", s.Prefix, s.FillWidth, index, s.Ext)
	return filepath.Join(s.Dir, name)
}

// Len returns the number of frames the sequence will deliver.
func (s *Sequence) Len() int {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start + 1
}

// Next loads the next frame. It returns the frame's logical index (0 for the
// first delivered frame), the grayscale image, and an error.
//
// A frame that fails to load is returned as an error wrapping
// feature.ErrInvalidInput together with its index; the sequence advances past
// it. After the last frame Next returns ErrEndOfSequence.
func (s *Sequence) Next() (int, *image.Gray, error) {
	if !s.started {
		s.next = s.Start
		s.started = true
	}
	if s.next > s.End {
		return 0, nil, ErrEndOfSequence
	}

	fileIndex := s.next
	s.next++

	img, err := LoadGray(s.Path(fileIndex))
	if err != nil {
		return fileIndex - s.Start, nil, fmt.Errorf("frame %d: %w", fileIndex-s.Start, err)
	}
	return fileIndex - s.Start, img, nil
}

// Reset rewinds the sequence to its first frame.
func (s *Sequence) Reset() {
	s.started = false
}

// Paths delivers an explicit, ordered list of files as a frame source.
type Paths struct {
	Files []string
	Cache *ImageCache // optional

	next int
}

// Next loads the next file. Semantics match Sequence.Next.
func (p *Paths) Next() (int, *image.Gray, error) {
	if p.next >= len(p.Files) {
		return 0, nil, ErrEndOfSequence
	}

	index := p.next
	p.next++

	var (
		img *image.Gray
		err error
	)
	if p.Cache != nil {
		img, err = p.Cache.Load(p.Files[index])
	} else {
		img, err = LoadGray(p.Files[index])
	}
	if err != nil {
		return index, nil, fmt.Errorf("frame %d: %w", index, err)
	}
	return index, img, nil
}
