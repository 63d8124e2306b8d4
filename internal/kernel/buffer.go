package kernel

import "github.com/born-ml/fusion/internal/tensor"

// MemoryType is the address space a buffer is bound to.
type MemoryType int

// Memory types.
const (
	MemoryGlobal MemoryType = iota
	MemoryConstant
)

// String returns the short name of the memory type.
func (m MemoryType) String() string {
	if m == MemoryConstant {
		return "constant"
	}
	return "global"
}

// BufferDescriptor tells the compile step how generated code sees a buffer:
// element type, vector width in scalars, and address space.
type BufferDescriptor struct {
	ElementType tensor.DataType
	ElementSize int
	MemoryType  MemoryType
	ReadOnly    bool
}

// Buffer is a device memory object owned by whoever created it.
type Buffer interface {
	// Size returns the size in bytes.
	Size() uint64
	// Device returns where the memory lives.
	Device() tensor.Device
	// Release frees the memory. Calling it more than once is a no-op.
	Release()
}

// Allocator creates device buffers. Implementations may block on a device queue.
type Allocator interface {
	// CreateReadOnlyBuffer uploads data into a new read-only buffer.
	CreateReadOnlyBuffer(data []byte) (Buffer, error)
}
