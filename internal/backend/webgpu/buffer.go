//go:build windows

package webgpu

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/tensor"
)

// constantUsage is the usage of uploaded constant buffers: bound as read-only
// storage and writable by queue copies.
const constantUsage = wgpu.BufferUsageStorage | wgpu.BufferUsageCopyDst

// CreateReadOnlyBuffer uploads data into a new storage buffer. The size is
// rounded up to a multiple of 4 bytes and the tail is zero.
func (b *Backend) CreateReadOnlyBuffer(data []byte) (buf kernel.Buffer, err error) {
	defer func() {
		if r := recover(); r != nil {
			buf = nil
			err = fmt.Errorf("%w: %v", ErrBufferCreation, r)
		}
	}()

	b.mu.Lock()
	device := b.device
	b.mu.Unlock()
	if device == nil {
		return nil, ErrNoDevice
	}

	size := alignSize(uint64(len(data)))
	buffer := device.CreateBuffer(&wgpu.BufferDescriptor{
		Usage:            constantUsage,
		Size:             size,
		MappedAtCreation: wgpu.True,
	})
	if buffer == nil {
		return nil, fmt.Errorf("%w: %d bytes", ErrBufferCreation, size)
	}

	mappedPtr := buffer.GetMappedRange(0, size)
	//nolint:gosec // unsafe.Slice for zero-copy conversion from unsafe.Pointer
	mappedSlice := unsafe.Slice((*byte)(mappedPtr), size)
	n := copy(mappedSlice, data)
	clear(mappedSlice[n:])
	buffer.Unmap()

	b.trackAllocation(size)
	return &Buffer{backend: b, buffer: buffer, size: size}, nil
}

// Buffer is a read-only storage buffer on the device.
type Buffer struct {
	backend *Backend
	size    uint64

	mu     sync.Mutex
	buffer *wgpu.Buffer
}

// Size returns the aligned size in bytes.
func (buf *Buffer) Size() uint64 {
	return buf.size
}

// Device returns tensor.WebGPU.
func (buf *Buffer) Device() tensor.Device {
	return tensor.WebGPU
}

// Raw returns the underlying WebGPU buffer for binding, or nil after Release.
func (buf *Buffer) Raw() *wgpu.Buffer {
	buf.mu.Lock()
	defer buf.mu.Unlock()
	return buf.buffer
}

// Release frees the device buffer.
func (buf *Buffer) Release() {
	buf.mu.Lock()
	buffer := buf.buffer
	buf.buffer = nil
	buf.mu.Unlock()
	if buffer == nil {
		return
	}
	buffer.Release()
	buf.backend.trackRelease(buf.size)
}

var _ kernel.Buffer = (*Buffer)(nil)
