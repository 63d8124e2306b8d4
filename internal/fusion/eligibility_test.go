package fusion

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

func TestIsFusable_Scenarios(t *testing.T) {
	t.Run("A", func(t *testing.T) {
		dw, pw := scenarioA()
		assert.True(t, IsFusable(dw, pw))
		assert.Equal(t, 224, NewLayout(dw, pw).Len())
	})

	t.Run("B too many outputs", func(t *testing.T) {
		dw, pw := pair(8, 3, 3, 40)
		assert.False(t, IsFusable(dw, pw))

		v := DefaultThresholds().Check(dw, pw)
		assert.True(t, v.Legal)
		assert.False(t, v.Profitable)
		assert.Len(t, v.Reasons, 1)
	})

	t.Run("C multiplier", func(t *testing.T) {
		dw, pw := scenarioA()
		dw.Weights = tensor.Zeros(tensor.Shape{2, 3, 3, 8})
		assert.False(t, IsFusable(dw, pw))

		v := DefaultThresholds().Check(dw, pw)
		assert.False(t, v.Legal)
		assert.Contains(t, v.Reasons[0], "multiplier")
	})
}

func TestIsFusable_Thresholds(t *testing.T) {
	tests := []struct {
		name     string
		channels int
		kh, kw   int
		outputs  int
		want     bool
	}{
		{"limits exactly", 16, 3, 3, 32, true},
		{"17 channels", 17, 1, 1, 4, false},
		{"depthwise weights over", 16, 3, 4, 4, false},
		{"12 channels 3x4", 12, 3, 4, 4, true},
		{"33 outputs", 8, 3, 3, 33, false},
		{"pointwise weights over", 16, 1, 1, 33, false},
		{"single channel", 1, 1, 1, 1, true},
		{"5x5 kernel", 4, 5, 5, 8, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dw, pw := pair(tt.channels, tt.kh, tt.kw, tt.outputs)
			assert.Equal(t, tt.want, IsFusable(dw, pw))
		})
	}
}

func TestIsFusable_PointwiseShape(t *testing.T) {
	one := tensor.HW{H: 1, W: 1}
	tests := []struct {
		name   string
		modify func(pw *ops.Conv2DAttributes)
	}{
		{"3x3 kernel", func(pw *ops.Conv2DAttributes) { pw.Weights = tensor.Zeros(tensor.Shape{16, 3, 3, 8}) }},
		{"stride 2", func(pw *ops.Conv2DAttributes) { pw.Strides = tensor.HW{H: 2, W: 2} }},
		{"stride 1x2", func(pw *ops.Conv2DAttributes) { pw.Strides = tensor.HW{H: 1, W: 2} }},
		{"dilation 2", func(pw *ops.Conv2DAttributes) { pw.Dilations = tensor.HW{H: 2, W: 1} }},
		{"padding before", func(pw *ops.Conv2DAttributes) { pw.Padding.Prepended = one }},
		{"padding after", func(pw *ops.Conv2DAttributes) { pw.Padding.Appended = tensor.HW{W: 1} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dw, pw := scenarioA()
			tt.modify(&pw)
			v := DefaultThresholds().Check(dw, pw)
			assert.False(t, v.Legal)
			assert.False(t, v.Fusable())
			assert.False(t, IsFusable(dw, pw))
		})
	}
}

func TestIsFusable_DepthwiseGeometryIsFree(t *testing.T) {
	// Depthwise strides, dilations and padding do not affect eligibility.
	dw, pw := scenarioA()
	dw.Strides = tensor.HW{H: 2, W: 2}
	dw.Dilations = tensor.HW{H: 3, W: 1}
	dw.Padding = ops.Padding2D{Prepended: tensor.HW{H: 1, W: 2}, Appended: tensor.HW{H: 2, W: 1}}
	assert.True(t, IsFusable(dw, pw))
}

func TestThresholds_Custom(t *testing.T) {
	dw, pw := pair(8, 3, 3, 40)
	wide := DefaultThresholds()
	wide.MaxPointwiseOutputs = 64
	wide.MaxPointwiseWeights = 8 * 64
	assert.True(t, wide.IsFusable(dw, pw))

	// The zero value means the defaults.
	assert.False(t, Thresholds{}.IsFusable(dw, pw))
	a, b := scenarioA()
	assert.True(t, Thresholds{}.IsFusable(a, b))
}

func TestThresholds_PartialKeepsOtherDefaults(t *testing.T) {
	wide := Thresholds{MaxPointwiseOutputs: 64}

	a, b := scenarioA()
	assert.True(t, wide.IsFusable(a, b))
	dw, pw := pair(8, 3, 3, 40)
	assert.True(t, wide.IsFusable(dw, pw))

	dw, pw = pair(20, 3, 3, 16)
	v := wide.Check(dw, pw)
	assert.True(t, v.Legal)
	assert.False(t, v.Profitable)
	assert.Len(t, v.Reasons, 2) // channels and depthwise weights

	dw, pw = pair(8, 3, 3, 72)
	assert.False(t, wide.IsFusable(dw, pw))
}

func TestCheck_CollectsEveryReason(t *testing.T) {
	dw, pw := pair(20, 3, 3, 40)
	pw.Strides = tensor.HW{H: 2, W: 2}
	v := DefaultThresholds().Check(dw, pw)
	assert.False(t, v.Legal)
	assert.False(t, v.Profitable)
	// stride, channels, depthwise weights, outputs, pointwise weights
	assert.Len(t, v.Reasons, 5)
}
