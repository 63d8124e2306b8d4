// Package tensor provides the host-side tensor and shape types used to describe
// operator attributes and activation extents.
package tensor

// DataType represents runtime type information for tensors and device buffers.
type DataType int

// Supported data types.
const (
	Float32 DataType = iota
	Float16
	Int32
)

// Size returns the byte size of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float32, Int32:
		return 4
	case Float16:
		return 2
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float32:
		return "float32"
	case Float16:
		return "float16"
	case Int32:
		return "int32"
	default:
		return "unknown"
	}
}

