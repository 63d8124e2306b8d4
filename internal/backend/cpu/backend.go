// Package cpu runs fused operations on the host and provides host-memory
// constant buffers for them.
package cpu

import (
	"errors"
	"fmt"
	"sync"

	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/tensor"
)

// ErrOutOfMemory is returned when an allocation would exceed the backend limit.
var ErrOutOfMemory = errors.New("cpu: out of memory")

// CPUBackend allocates constant buffers in host memory and evaluates fused
// operations against them.
type CPUBackend struct {
	device tensor.Device
	limit  uint64

	mu        sync.Mutex
	allocated uint64
	live      int
}

// New creates a CPU backend with no allocation limit.
func New() *CPUBackend {
	return &CPUBackend{
		device: tensor.CPU,
	}
}

// NewWithLimit creates a CPU backend that refuses allocations once limit bytes
// are held. A zero limit means unlimited.
func NewWithLimit(limit uint64) *CPUBackend {
	b := New()
	b.limit = limit
	return b
}

// Name returns the backend name.
func (cpu *CPUBackend) Name() string {
	return "CPU"
}

// Device returns the compute device.
func (cpu *CPUBackend) Device() tensor.Device {
	return cpu.device
}

// MemoryStats reports live host buffers.
type MemoryStats struct {
	AllocatedBytes uint64
	Buffers        int
}

// MemoryStats returns the bytes and buffers currently held.
func (cpu *CPUBackend) MemoryStats() MemoryStats {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()
	return MemoryStats{AllocatedBytes: cpu.allocated, Buffers: cpu.live}
}

// CreateReadOnlyBuffer copies data into a new host buffer.
func (cpu *CPUBackend) CreateReadOnlyBuffer(data []byte) (kernel.Buffer, error) {
	size := uint64(len(data))

	cpu.mu.Lock()
	defer cpu.mu.Unlock()
	if cpu.limit > 0 && cpu.allocated+size > cpu.limit {
		return nil, fmt.Errorf("%w: %d bytes requested, %d of %d in use", ErrOutOfMemory, size, cpu.allocated, cpu.limit)
	}
	cpu.allocated += size
	cpu.live++

	buf := make([]byte, len(data))
	copy(buf, data)
	return &HostBuffer{backend: cpu, data: buf}, nil
}

func (cpu *CPUBackend) free(size uint64) {
	cpu.mu.Lock()
	defer cpu.mu.Unlock()
	cpu.allocated -= size
	cpu.live--
}

// HostBuffer is a read-only buffer in host memory.
type HostBuffer struct {
	backend *CPUBackend

	mu   sync.Mutex
	data []byte
}

// Size returns the size in bytes, or 0 after Release.
func (b *HostBuffer) Size() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return uint64(len(b.data))
}

// Device returns tensor.CPU.
func (b *HostBuffer) Device() tensor.Device {
	return tensor.CPU
}

// Bytes returns the buffer contents, or nil after Release. The slice must not
// be modified.
func (b *HostBuffer) Bytes() []byte {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.data
}

// Release returns the memory to the backend.
func (b *HostBuffer) Release() {
	b.mu.Lock()
	data := b.data
	b.data = nil
	b.mu.Unlock()
	if data == nil {
		return
	}
	b.backend.free(uint64(len(data)))
}

var (
	_ kernel.Allocator = (*CPUBackend)(nil)
	_ kernel.Buffer    = (*HostBuffer)(nil)
)
