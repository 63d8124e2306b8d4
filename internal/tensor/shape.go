package tensor

import "fmt"

// Shape represents the dimensions of a tensor.
type Shape []int

// NumElements returns the total number of elements in the tensor.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 1 // Scalar has 1 element
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks if the shape is valid (all dimensions > 0).
func (s Shape) Validate() error {
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// LinearIndex maps a multi-dimensional index to its row-major offset.
//
// The index must have one coordinate per dimension and every coordinate must be
// inside its dimension; out-of-range coordinates panic.
//
// Example:
//
//	Shape{2, 3, 3, 8}.LinearIndex(1, 0, 2, 5) // 1*72 + 0*24 + 2*8 + 5 = 93
func (s Shape) LinearIndex(idx ...int) int {
	if len(idx) != len(s) {
		panic(fmt.Sprintf("tensor: LinearIndex: got %d coordinates for rank %d shape %v", len(idx), len(s), s))
	}
	offset := 0
	for i, dim := range s {
		if idx[i] < 0 || idx[i] >= dim {
			panic(fmt.Sprintf("tensor: LinearIndex: coordinate %d out of range [0, %d) at axis %d", idx[i], dim, i))
		}
		offset = offset*dim + idx[i]
	}
	return offset
}

// OHWI axis positions used by convolution weights.
const (
	AxisO = 0
	AxisH = 1
	AxisW = 2
	AxisI = 3
)

// HW is a pair of spatial extents or offsets.
type HW struct {
	H int
	W int
}

// BHWC describes an activation tensor: batch, height, width, channels.
type BHWC struct {
	B int
	H int
	W int
	C int
}

// Shape returns the BHWC extents as a row-major Shape.
func (s BHWC) Shape() Shape {
	return Shape{s.B, s.H, s.W, s.C}
}

// DivideRoundUp returns ceil(n / divisor) for non-negative n.
func DivideRoundUp(n, divisor int) int {
	return (n + divisor - 1) / divisor
}

// AlignByN rounds n up to the nearest multiple of alignment.
func AlignByN(n, alignment int) int {
	return DivideRoundUp(n, alignment) * alignment
}
