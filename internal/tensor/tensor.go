package tensor

import "fmt"

// Device represents where a buffer's memory lives.
type Device int

// Supported devices.
const (
	CPU Device = iota
	WebGPU
)

// String returns a human-readable device name.
func (d Device) String() string {
	switch d {
	case CPU:
		return "CPU"
	case WebGPU:
		return "WebGPU"
	default:
		return "Unknown"
	}
}

// Tensor is a dense float32 host tensor in row-major order.
//
// Operator attributes carry their weights and biases as Tensors; the shape's
// LinearIndex is the multi-dimensional-to-linear mapping used when packing.
type Tensor struct {
	Shape Shape
	Data  []float32
}

// FromSlice creates a tensor over data. The slice is copied.
func FromSlice(data []float32, shape Shape) (Tensor, error) {
	if err := shape.Validate(); err != nil {
		return Tensor{}, err
	}
	if shape.NumElements() != len(data) {
		return Tensor{}, fmt.Errorf("shape %v requires %d elements, but got %d", shape, shape.NumElements(), len(data))
	}
	buf := make([]float32, len(data))
	copy(buf, data)
	return Tensor{Shape: shape.Clone(), Data: buf}, nil
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) Tensor {
	if err := shape.Validate(); err != nil {
		panic(fmt.Sprintf("tensor: Zeros: invalid shape: %v", err))
	}
	return Tensor{Shape: shape.Clone(), Data: make([]float32, shape.NumElements())}
}

// Vector creates a rank-1 tensor holding a copy of values.
func Vector(values ...float32) Tensor {
	buf := make([]float32, len(values))
	copy(buf, values)
	return Tensor{Shape: Shape{len(values)}, Data: buf}
}

// NumElements returns the total number of elements.
func (t Tensor) NumElements() int {
	return t.Shape.NumElements()
}

// At returns the element at the given coordinates.
func (t Tensor) At(idx ...int) float32 {
	return t.Data[t.Shape.LinearIndex(idx...)]
}

// Set stores v at the given coordinates.
func (t Tensor) Set(v float32, idx ...int) {
	t.Data[t.Shape.LinearIndex(idx...)] = v
}

// Dim returns the extent of axis, or 0 when the tensor has fewer axes.
func (t Tensor) Dim(axis int) int {
	if axis < 0 || axis >= len(t.Shape) {
		return 0
	}
	return t.Shape[axis]
}

// Len returns the number of elements of a rank-1 tensor (bias vectors).
func (t Tensor) Len() int {
	if len(t.Shape) == 0 {
		return 0
	}
	return t.Shape[0]
}
