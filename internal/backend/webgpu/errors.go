// Package webgpu uploads fused-operation constant buffers to a WebGPU device.
// Uses go-webgpu (github.com/go-webgpu/webgpu) for zero-CGO WebGPU bindings;
// the device code builds on windows only, like the bindings.
package webgpu

import "errors"

var (
	// ErrNoDevice is returned when no WebGPU adapter or device can be obtained.
	ErrNoDevice = errors.New("webgpu: no device available")
	// ErrBufferCreation is returned when the device refuses a buffer.
	ErrBufferCreation = errors.New("webgpu: buffer creation failed")
)

// copyAlignment is the granularity of buffer sizes and queue writes.
const copyAlignment = 4

// alignSize rounds size up to the copy alignment. Zero-sized buffers get one
// aligned word so they can still be bound.
func alignSize(size uint64) uint64 {
	if size == 0 {
		return copyAlignment
	}
	return (size + copyAlignment - 1) &^ (copyAlignment - 1)
}
