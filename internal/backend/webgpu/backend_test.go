//go:build windows

package webgpu

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

func newTestBackend(t *testing.T) *Backend {
	t.Helper()
	backend, err := New()
	if err != nil {
		require.True(t, errors.Is(err, ErrNoDevice))
		t.Skipf("WebGPU not available: %v", err)
	}
	t.Cleanup(backend.Release)
	return backend
}

func TestIsAvailable(t *testing.T) {
	t.Logf("WebGPU available: %v", IsAvailable())
}

func TestCreateReadOnlyBuffer(t *testing.T) {
	backend := newTestBackend(t)

	buf, err := backend.CreateReadOnlyBuffer([]byte{1, 2, 3, 4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, uint64(8), buf.Size())
	assert.Equal(t, tensor.WebGPU, buf.Device())
	assert.Equal(t, int64(1), backend.MemoryStats().ActiveBuffers)

	buf.Release()
	buf.Release()
	assert.Equal(t, int64(0), backend.MemoryStats().ActiveBuffers)
	assert.Equal(t, uint64(8), backend.MemoryStats().PeakBytes)
}

func TestFusedConstantsUpload(t *testing.T) {
	backend := newTestBackend(t)

	dw := ops.NewDepthwiseConv2DAttributes(tensor.Zeros(tensor.Shape{1, 3, 3, 8}), tensor.Zeros(tensor.Shape{8}))
	pw := ops.NewConv2DAttributes(tensor.Zeros(tensor.Shape{16, 1, 1, 8}), tensor.Zeros(tensor.Shape{16}))
	def := kernel.NewOperationDef(kernel.F16, kernel.StorageTexture2D, false)

	op, err := fusion.NewDepthwiseConvPlus1x1Conv(fusion.CreationContext{Allocator: backend}, def, dw, pw)
	require.NoError(t, err)
	defer op.Release()

	// 224 scalars of 2 bytes.
	assert.Equal(t, uint64(448), op.Constants().Size())
	assert.NotNil(t, op.Constants().(*Buffer).Raw())
}

func TestReleasedBackend(t *testing.T) {
	backend := newTestBackend(t)
	backend.Release()

	_, err := backend.CreateReadOnlyBuffer([]byte{1, 2, 3, 4})
	assert.True(t, errors.Is(err, ErrNoDevice))
}
