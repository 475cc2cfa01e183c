package feature

import (
	"errors"
	"math"
	"testing"
)

func TestOverlap(t *testing.T) {
	tests := []struct {
		name string
		a, b Keypoint
		want float64
	}{
		{"disjoint", Keypoint{X: 0, Y: 0, Size: 2}, Keypoint{X: 10, Y: 0, Size: 2}, 0},
		{"touching", Keypoint{X: 0, Y: 0, Size: 2}, Keypoint{X: 2, Y: 0, Size: 2}, 0},
		{"identical", Keypoint{X: 3, Y: 3, Size: 4}, Keypoint{X: 3, Y: 3, Size: 4}, 1},
		{"contained", Keypoint{X: 0, Y: 0, Size: 4}, Keypoint{X: 0, Y: 0, Size: 2}, 0.25},
		{"zero size", Keypoint{X: 0, Y: 0, Size: 0}, Keypoint{X: 0, Y: 0, Size: 2}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Overlap(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Overlap: got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestOverlap_Partial(t *testing.T) {
	a := Keypoint{X: 0, Y: 0, Size: 4}
	b := Keypoint{X: 1, Y: 0, Size: 4}

	got := Overlap(a, b)
	if got <= 0 || got >= 1 {
		t.Errorf("partial overlap should be in (0,1), got %v", got)
	}
	if math.Abs(got-Overlap(b, a)) > 1e-12 {
		t.Error("Overlap should be symmetric")
	}
}

func TestKeypoint_HasAngle(t *testing.T) {
	if (Keypoint{Angle: NoAngle}).HasAngle() {
		t.Error("NoAngle keypoint reported an angle")
	}
	if !(Keypoint{Angle: 0}).HasAngle() {
		t.Error("zero angle is a valid orientation")
	}
}

func TestDescriptors_Len(t *testing.T) {
	var nilDesc *Descriptors
	if nilDesc.Len() != 0 {
		t.Error("nil descriptors should have length 0")
	}

	b := NewBinaryDescriptors(3, 32)
	if b.Len() != 3 || len(b.Binary[2]) != 32 {
		t.Errorf("binary: got len %d, row %d", b.Len(), len(b.Binary[2]))
	}

	f := NewFloatDescriptors(4, 128)
	if f.Len() != 4 || len(f.Float[0]) != 128 {
		t.Errorf("float: got len %d, row %d", f.Len(), len(f.Float[0]))
	}

	// Rows must not alias each other.
	b.Binary[0] = append(b.Binary[0], 1)
	if b.Binary[1][0] != 0 {
		t.Error("appending to one row modified the next")
	}
}

func TestDescriptors_CompatibleWith(t *testing.T) {
	bin32 := NewBinaryDescriptors(1, 32)
	bin64 := NewBinaryDescriptors(1, 64)
	flt := NewFloatDescriptors(1, 32)

	if err := bin32.CompatibleWith(NewBinaryDescriptors(5, 32)); err != nil {
		t.Errorf("same type and size should be compatible: %v", err)
	}
	if err := bin32.CompatibleWith(bin64); !errors.Is(err, ErrIncompatibleDescriptor) {
		t.Errorf("size mismatch: expected ErrIncompatibleDescriptor, got %v", err)
	}
	if err := bin32.CompatibleWith(flt); !errors.Is(err, ErrIncompatibleDescriptor) {
		t.Errorf("type mismatch: expected ErrIncompatibleDescriptor, got %v", err)
	}
}

func TestDescriptors_IsNull(t *testing.T) {
	bin := NewBinaryDescriptors(2, 4)
	bin.Binary[1][3] = 0x01
	if !bin.IsNull(0) {
		t.Error("zeroed binary row should be null")
	}
	if bin.IsNull(1) {
		t.Error("binary row with a set bit should not be null")
	}

	flt := NewFloatDescriptors(2, 3)
	flt.Float[0][2] = -0.5
	if flt.IsNull(0) {
		t.Error("float row with a nonzero value should not be null")
	}
	if !flt.IsNull(1) {
		t.Error("zeroed float row should be null")
	}
}

func TestDescriptorType_String(t *testing.T) {
	if Binary.String() != "binary" || Float.String() != "float" {
		t.Errorf("got %q and %q", Binary, Float)
	}
	if DescriptorType(9).String() != "Unknown(9)" {
		t.Errorf("got %q", DescriptorType(9))
	}
}
