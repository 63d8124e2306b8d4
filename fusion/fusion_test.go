package fusion_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fusion/backend/cpu"
	"github.com/born-ml/fusion/fusion"
	"github.com/born-ml/fusion/tensor"
)

func TestNew(t *testing.T) {
	dw := fusion.NewDepthwiseConv2DAttributes(tensor.Zeros(tensor.Shape{1, 3, 3, 8}), tensor.Zeros(tensor.Shape{8}))
	pw := fusion.NewConv2DAttributes(tensor.Zeros(tensor.Shape{16, 1, 1, 8}), tensor.Zeros(tensor.Shape{16}))
	require.True(t, fusion.IsFusable(dw, pw))
	assert.Equal(t, 56, fusion.NewLayout(dw, pw).Vectors())

	backend := cpu.New()
	def := fusion.NewOperationDef(fusion.F32, fusion.StorageBuffer, false)
	op, err := fusion.New(fusion.CreationContext{Allocator: backend, Dialect: fusion.OpenCL}, def, dw, pw)
	require.NoError(t, err)
	assert.Contains(t, op.Code(), "__kernel void main_function(")
	assert.Equal(t, uint64(56*16), backend.MemoryStats().AllocatedBytes)

	op.Release()
	assert.Equal(t, uint64(0), backend.MemoryStats().AllocatedBytes)
}

func TestNewNotFusable(t *testing.T) {
	dw := fusion.NewDepthwiseConv2DAttributes(tensor.Zeros(tensor.Shape{1, 3, 3, 32}), tensor.Zeros(tensor.Shape{32}))
	pw := fusion.NewConv2DAttributes(tensor.Zeros(tensor.Shape{16, 1, 1, 32}), tensor.Zeros(tensor.Shape{16}))
	assert.False(t, fusion.IsFusable(dw, pw))

	_, err := fusion.New(fusion.CreationContext{Allocator: cpu.New()}, fusion.NewOperationDef(fusion.F16, fusion.StorageTexture2D, false), dw, pw)
	assert.True(t, errors.Is(err, fusion.ErrNotFusable))
}
