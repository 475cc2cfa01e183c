package feature

import "fmt"

// DescriptorType is the numeric family of a descriptor set.
type DescriptorType int

const (
	// Binary descriptors are packed bit strings compared with Hamming distance.
	Binary DescriptorType = iota
	// Float descriptors are float32 vectors compared with Euclidean distance.
	Float
)

func (t DescriptorType) String() string {
	switch t {
	case Binary:
		return "binary"
	case Float:
		return "float"
	default:
		return fmt.Sprintf("Unknown(%d)", int(t))
	}
}

// Descriptors holds one fixed-length descriptor per keypoint, index-aligned
// with the keypoint slice it was computed from.
//
// Only the slice matching Type is populated. A row of all zeros marks a
// keypoint the extractor could not describe.
type Descriptors struct {
	Type DescriptorType
	// Size is bytes per row for Binary and float32 values per row for Float.
	Size   int
	Binary [][]byte
	Float  [][]float32
}

// NewBinaryDescriptors allocates n zeroed binary rows of size bytes.
func NewBinaryDescriptors(n, size int) *Descriptors {
	rows := make([][]byte, n)
	backing := make([]byte, n*size)
	for i := range rows {
		rows[i] = backing[i*size : (i+1)*size : (i+1)*size]
	}
	return &Descriptors{Type: Binary, Size: size, Binary: rows}
}

// NewFloatDescriptors allocates n zeroed float rows of size values.
func NewFloatDescriptors(n, size int) *Descriptors {
	rows := make([][]float32, n)
	backing := make([]float32, n*size)
	for i := range rows {
		rows[i] = backing[i*size : (i+1)*size : (i+1)*size]
	}
	return &Descriptors{Type: Float, Size: size, Float: rows}
}

// Len returns the number of descriptor rows.
func (d *Descriptors) Len() int {
	if d == nil {
		return 0
	}
	if d.Type == Binary {
		return len(d.Binary)
	}
	return len(d.Float)
}

// IsNull reports whether row i is all zeros, the marker extractors use for
// keypoints they could not describe.
func (d *Descriptors) IsNull(i int) bool {
	if d.Type == Binary {
		for _, v := range d.Binary[i] {
			if v != 0 {
				return false
			}
		}
		return true
	}
	for _, v := range d.Float[i] {
		if v != 0 {
			return false
		}
	}
	return true
}

// CompatibleWith reports an ErrIncompatibleDescriptor when the two sets cannot
// be compared row against row.
func (d *Descriptors) CompatibleWith(other *Descriptors) error {
	if d.Type != other.Type {
		return fmt.Errorf("%w: %s vs %s", ErrIncompatibleDescriptor, d.Type, other.Type)
	}
	if d.Size != other.Size {
		return fmt.Errorf("%w: row size %d vs %d", ErrIncompatibleDescriptor, d.Size, other.Size)
	}
	return nil
}

// Match links a keypoint of the previous frame to a keypoint of the current one.
type Match struct {
	// Query indexes the previous frame's keypoints.
	Query int `json:"query"`
	// Train indexes the current frame's keypoints.
	Train int `json:"train"`
	// Distance is measured with the descriptor's metric.
	Distance float32 `json:"distance"`
}
