package tracking

import (
	"fmt"

	"github.com/ironsheep/feature-tracker/internal/feature"
)

// FrameBuffer is a fixed-capacity ring of the most recent frames.
//
// Frames live in a preallocated arena; head indexes the oldest frame. Once
// the buffer is full every Push overwrites the oldest slot. Len never
// exceeds Cap and frames are always returned oldest to newest.
type FrameBuffer struct {
	arena []*Frame
	head  int
	count int
}

// NewFrameBuffer creates a buffer holding up to capacity frames.
func NewFrameBuffer(capacity int) (*FrameBuffer, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: buffer capacity %d < 1", feature.ErrInvalidInput, capacity)
	}
	return &FrameBuffer{arena: make([]*Frame, capacity)}, nil
}

// Push appends f as the newest frame. When the buffer was full the oldest
// frame is evicted and returned; otherwise Push returns nil.
func (b *FrameBuffer) Push(f *Frame) *Frame {
	capacity := len(b.arena)
	if b.count < capacity {
		b.arena[(b.head+b.count)%capacity] = f
		b.count++
		return nil
	}

	evicted := b.arena[b.head]
	b.arena[b.head] = f
	b.head = (b.head + 1) % capacity
	return evicted
}

// Latest returns the newest frame.
func (b *FrameBuffer) Latest() (*Frame, bool) {
	if b.count == 0 {
		return nil, false
	}
	return b.at(b.count - 1), true
}

// Previous returns the frame before the newest one. It is only available
// when Len() >= 2.
func (b *FrameBuffer) Previous() (*Frame, bool) {
	if b.count < 2 {
		return nil, false
	}
	return b.at(b.count - 2), true
}

// Len returns the number of buffered frames.
func (b *FrameBuffer) Len() int { return b.count }

// Cap returns the buffer capacity.
func (b *FrameBuffer) Cap() int { return len(b.arena) }

// Frames returns the buffered frames, oldest first. The slice is a copy.
func (b *FrameBuffer) Frames() []*Frame {
	out := make([]*Frame, b.count)
	for i := range out {
		out[i] = b.at(i)
	}
	return out
}

// at returns the i-th frame counted from the oldest.
func (b *FrameBuffer) at(i int) *Frame {
	return b.arena[(b.head+i)%len(b.arena)]
}
