package ops

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/fusion/internal/tensor"
)

func TestDepthwiseConv2DAttributes(t *testing.T) {
	a := NewDepthwiseConv2DAttributes(tensor.Zeros(tensor.Shape{1, 3, 5, 12}), tensor.Zeros(tensor.Shape{12}))
	assert.Equal(t, 1, a.Multiplier())
	assert.Equal(t, 12, a.Channels())
	assert.Equal(t, tensor.HW{H: 3, W: 5}, a.KernelSize())
	assert.Equal(t, tensor.HW{H: 1, W: 1}, a.Strides)
	assert.Equal(t, tensor.HW{H: 1, W: 1}, a.Dilations)
	assert.True(t, a.Padding.IsZero())
}

func TestConv2DAttributes(t *testing.T) {
	a := NewConv2DAttributes(tensor.Zeros(tensor.Shape{16, 1, 1, 8}), tensor.Zeros(tensor.Shape{16}))
	assert.Equal(t, 8, a.InputChannels())
	assert.Equal(t, 16, a.OutputChannels())
	assert.Equal(t, tensor.HW{H: 1, W: 1}, a.KernelSize())
	assert.Equal(t, tensor.HW{H: 10, W: 12}, a.OutputSize(tensor.HW{H: 10, W: 12}))
}

func TestOutputSize(t *testing.T) {
	tests := []struct {
		name      string
		src       tensor.HW
		kernel    tensor.Shape
		strides   tensor.HW
		dilations tensor.HW
		padding   Padding2D
		want      tensor.HW
	}{
		{"valid 3x3", tensor.HW{H: 8, W: 8}, tensor.Shape{1, 3, 3, 4}, tensor.HW{H: 1, W: 1}, tensor.HW{H: 1, W: 1}, Padding2D{}, tensor.HW{H: 6, W: 6}},
		{"same 3x3", tensor.HW{H: 8, W: 8}, tensor.Shape{1, 3, 3, 4}, tensor.HW{H: 1, W: 1}, tensor.HW{H: 1, W: 1},
			Padding2D{Prepended: tensor.HW{H: 1, W: 1}, Appended: tensor.HW{H: 1, W: 1}}, tensor.HW{H: 8, W: 8}},
		{"stride 2", tensor.HW{H: 9, W: 8}, tensor.Shape{1, 3, 3, 4}, tensor.HW{H: 2, W: 2}, tensor.HW{H: 1, W: 1}, Padding2D{}, tensor.HW{H: 4, W: 3}},
		{"dilation 2", tensor.HW{H: 9, W: 9}, tensor.Shape{1, 3, 3, 4}, tensor.HW{H: 1, W: 1}, tensor.HW{H: 2, W: 2}, Padding2D{}, tensor.HW{H: 5, W: 5}},
		{"kernel larger than input", tensor.HW{H: 2, W: 2}, tensor.Shape{1, 3, 3, 4}, tensor.HW{H: 1, W: 1}, tensor.HW{H: 1, W: 1}, Padding2D{}, tensor.HW{}},
		{"zero stride treated as 1", tensor.HW{H: 4, W: 4}, tensor.Shape{1, 1, 1, 4}, tensor.HW{}, tensor.HW{}, Padding2D{}, tensor.HW{H: 4, W: 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := DepthwiseConv2DAttributes{
				Weights:   tensor.Zeros(tt.kernel),
				Strides:   tt.strides,
				Dilations: tt.dilations,
				Padding:   tt.padding,
			}
			assert.Equal(t, tt.want, a.OutputSize(tt.src))
		})
	}
}

func TestPadding2D_IsZero(t *testing.T) {
	assert.True(t, Padding2D{}.IsZero())
	assert.False(t, Padding2D{Appended: tensor.HW{W: 1}}.IsZero())
}
