package cpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// ramp fills a tensor with small deterministic values that vary per element.
func ramp(shape tensor.Shape, scale, offset float32) tensor.Tensor {
	data := make([]float32, shape.NumElements())
	for i := range data {
		data[i] = offset + scale*float32((i*7)%13-6)
	}
	t, err := tensor.FromSlice(data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

func TestDepthwiseConv2D_Identity(t *testing.T) {
	// A 1x1 kernel of ones with zero bias copies the input.
	weights := tensor.Zeros(tensor.Shape{1, 1, 1, 3})
	for c := 0; c < 3; c++ {
		weights.Set(1, 0, 0, 0, c)
	}
	attr := ops.NewDepthwiseConv2DAttributes(weights, tensor.Vector(0, 0, 0))
	src := ramp(tensor.Shape{1, 2, 2, 3}, 0.5, 0)

	out, err := DepthwiseConv2D(attr, src)
	require.NoError(t, err)
	assert.Equal(t, src.Shape, out.Shape)
	assert.InDeltaSlice(t, src.Data, out.Data, 1e-6)
}

func TestDepthwiseConv2D_Padding(t *testing.T) {
	// 3x3 box filter on a 3x3 image of ones, one channel, padding 1.
	weights := tensor.Zeros(tensor.Shape{1, 3, 3, 1})
	for i := range weights.Data {
		weights.Data[i] = 1
	}
	attr := ops.NewDepthwiseConv2DAttributes(weights, tensor.Vector(0.5))
	attr.Padding = ops.Padding2D{Prepended: tensor.HW{H: 1, W: 1}, Appended: tensor.HW{H: 1, W: 1}}
	src := tensor.Zeros(tensor.Shape{1, 3, 3, 1})
	for i := range src.Data {
		src.Data[i] = 1
	}

	out, err := DepthwiseConv2D(attr, src)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 3, 1}, out.Shape)

	// Corners see 4 taps, edges 6, the center 9.
	want := []float32{4.5, 6.5, 4.5, 6.5, 9.5, 6.5, 4.5, 6.5, 4.5}
	assert.InDeltaSlice(t, want, out.Data, 1e-6)
}

func TestDepthwiseConv2D_StrideDilation(t *testing.T) {
	weights := tensor.Zeros(tensor.Shape{1, 2, 2, 1})
	weights.Data = []float32{1, 2, 3, 4}
	attr := ops.NewDepthwiseConv2DAttributes(weights, tensor.Vector(0))
	attr.Strides = tensor.HW{H: 2, W: 2}
	attr.Dilations = tensor.HW{H: 2, W: 2}
	src := tensor.Zeros(tensor.Shape{1, 5, 5, 1})
	for i := range src.Data {
		src.Data[i] = float32(i)
	}

	out, err := DepthwiseConv2D(attr, src)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 2, 2, 1}, out.Shape)

	// Output (0,0) reads (0,0), (0,2), (2,0), (2,2).
	assert.InDelta(t, float32(0*1+2*2+10*3+12*4), out.At(0, 0, 0, 0), 1e-5)
	// Output (1,1) reads (2,2), (2,4), (4,2), (4,4).
	assert.InDelta(t, float32(12*1+14*2+22*3+24*4), out.At(0, 1, 1, 0), 1e-5)
}

func TestDepthwiseConv2D_Errors(t *testing.T) {
	attr := ops.NewDepthwiseConv2DAttributes(tensor.Zeros(tensor.Shape{1, 3, 3, 4}), tensor.Vector(0, 0, 0, 0))

	_, err := DepthwiseConv2D(attr, tensor.Zeros(tensor.Shape{4, 4, 4}))
	assert.Error(t, err)

	_, err = DepthwiseConv2D(attr, tensor.Zeros(tensor.Shape{1, 4, 4, 3}))
	assert.Error(t, err)

	multi := ops.NewDepthwiseConv2DAttributes(tensor.Zeros(tensor.Shape{2, 3, 3, 4}), tensor.Zeros(tensor.Shape{8}))
	_, err = DepthwiseConv2D(multi, tensor.Zeros(tensor.Shape{1, 4, 4, 4}))
	assert.Error(t, err)
}

func TestConv1x1(t *testing.T) {
	// Two inputs, three outputs.
	weights, err := tensor.FromSlice([]float32{
		1, 0,
		0, 1,
		1, 1,
	}, tensor.Shape{3, 1, 1, 2})
	require.NoError(t, err)
	attr := ops.NewConv2DAttributes(weights, tensor.Vector(0, 10, -1))
	src, err := tensor.FromSlice([]float32{
		1, 2,
		3, 4,
	}, tensor.Shape{1, 1, 2, 2})
	require.NoError(t, err)

	out, err := Conv1x1(attr, src)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1, 2, 3}, out.Shape)
	assert.InDeltaSlice(t, []float32{1, 12, 2, 3, 14, 6}, out.Data, 1e-6)
}

func TestConv1x1_RejectsLargerKernel(t *testing.T) {
	attr := ops.NewConv2DAttributes(tensor.Zeros(tensor.Shape{4, 3, 3, 4}), tensor.Zeros(tensor.Shape{4}))
	_, err := Conv1x1(attr, tensor.Zeros(tensor.Shape{1, 4, 4, 4}))
	assert.Error(t, err)
}

func TestUnfused_MissingBiasIsZero(t *testing.T) {
	dw := ops.NewDepthwiseConv2DAttributes(ramp(tensor.Shape{1, 3, 3, 2}, 0.1, 0), tensor.Tensor{})
	pw := ops.NewConv2DAttributes(ramp(tensor.Shape{2, 1, 1, 2}, 0.2, 0.1), tensor.Tensor{})
	src := ramp(tensor.Shape{1, 5, 5, 2}, 0.3, 0)

	out, err := Unfused(dw, pw, src)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 3, 3, 2}, out.Shape)
}
