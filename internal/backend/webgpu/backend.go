//go:build windows

package webgpu

import (
	"fmt"
	"sync"

	"github.com/go-webgpu/webgpu/wgpu"

	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/tensor"
)

// Backend owns a WebGPU device and allocates read-only storage buffers on it.
type Backend struct {
	instance *wgpu.Instance
	adapter  *wgpu.Adapter
	device   *wgpu.Device
	queue    *wgpu.Queue

	adapterInfo *wgpu.AdapterInfo

	mu          sync.Mutex
	memoryStats memoryStats
}

type memoryStats struct {
	allocatedBytes uint64
	peakBytes      uint64
	activeBuffers  int64
}

// New creates a WebGPU backend on the default high-performance adapter.
// It returns an error wrapping ErrNoDevice if WebGPU is not available.
func New() (backend *Backend, err error) {
	// Recover from panic if wgpu_native library is not found.
	defer func() {
		if r := recover(); r != nil {
			backend = nil
			err = fmt.Errorf("%w: native library not available: %v", ErrNoDevice, r)
		}
	}()

	instance := wgpu.CreateInstance(nil)
	adapter, adapterErr := instance.RequestAdapter(&wgpu.RequestAdapterOptions{
		PowerPreference: wgpu.PowerPreferenceHighPerformance,
	})
	if adapterErr != nil {
		instance.Release()
		return nil, fmt.Errorf("%w: request adapter: %w", ErrNoDevice, adapterErr)
	}
	adapterInfo := adapter.GetInfo()

	device, deviceErr := adapter.RequestDevice(nil)
	if deviceErr != nil {
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: request device: %w", ErrNoDevice, deviceErr)
	}

	queue := device.GetQueue()
	if queue == nil {
		device.Release()
		adapter.Release()
		instance.Release()
		return nil, fmt.Errorf("%w: no queue", ErrNoDevice)
	}

	return &Backend{
		instance:    instance,
		adapter:     adapter,
		device:      device,
		queue:       queue,
		adapterInfo: &adapterInfo,
	}, nil
}

// Release releases all WebGPU objects. Buffers created by the backend must be
// released first.
func (b *Backend) Release() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.queue != nil {
		b.queue.Release()
		b.queue = nil
	}
	if b.device != nil {
		b.device.Release()
		b.device = nil
	}
	if b.adapter != nil {
		b.adapter.Release()
		b.adapter = nil
	}
	if b.instance != nil {
		b.instance.Release()
		b.instance = nil
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	if b.adapterInfo != nil {
		return fmt.Sprintf("WebGPU (%s %s)", b.adapterInfo.Name, b.adapterInfo.VendorName)
	}
	return "WebGPU"
}

// Device returns the compute device.
func (b *Backend) Device() tensor.Device {
	return tensor.WebGPU
}

// AdapterInfo returns information about the GPU adapter.
func (b *Backend) AdapterInfo() *wgpu.AdapterInfo {
	return b.adapterInfo
}

// IsAvailable checks if WebGPU is available on this system.
func IsAvailable() (available bool) {
	defer func() {
		if r := recover(); r != nil {
			available = false
		}
	}()

	instance := wgpu.CreateInstance(nil)
	defer instance.Release()

	adapter, err := instance.RequestAdapter(nil)
	if err != nil {
		return false
	}
	adapter.Release()

	return true
}

// MemoryStats represents device memory held by constant buffers.
type MemoryStats struct {
	// Bytes currently allocated, after alignment.
	AllocatedBytes uint64
	// Peak of AllocatedBytes since creation.
	PeakBytes uint64
	// Number of live buffers.
	ActiveBuffers int64
}

// MemoryStats returns current buffer usage.
func (b *Backend) MemoryStats() MemoryStats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return MemoryStats{
		AllocatedBytes: b.memoryStats.allocatedBytes,
		PeakBytes:      b.memoryStats.peakBytes,
		ActiveBuffers:  b.memoryStats.activeBuffers,
	}
}

func (b *Backend) trackAllocation(size uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.memoryStats.allocatedBytes += size
	b.memoryStats.activeBuffers++
	if b.memoryStats.allocatedBytes > b.memoryStats.peakBytes {
		b.memoryStats.peakBytes = b.memoryStats.allocatedBytes
	}
}

func (b *Backend) trackRelease(size uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.memoryStats.allocatedBytes >= size {
		b.memoryStats.allocatedBytes -= size
	}
	b.memoryStats.activeBuffers--
}

var _ kernel.Allocator = (*Backend)(nil)
