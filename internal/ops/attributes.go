// Package ops defines the attribute records of the convolution operators that
// the fusion layer consumes.
package ops

import "github.com/born-ml/fusion/internal/tensor"

// Padding2D holds the zero padding added before and after each spatial axis.
type Padding2D struct {
	Prepended tensor.HW
	Appended  tensor.HW
}

// IsZero reports whether no padding is applied on any side.
func (p Padding2D) IsZero() bool {
	return p.Prepended == (tensor.HW{}) && p.Appended == (tensor.HW{})
}

// DepthwiseConv2DAttributes describes a depthwise 2D convolution.
//
// Weights use OHWI layout [multiplier, kernel_h, kernel_w, channels], where the
// multiplier is the number of output channels produced per input channel.
// Bias has one value per output channel.
type DepthwiseConv2DAttributes struct {
	Weights   tensor.Tensor
	Bias      tensor.Tensor
	Strides   tensor.HW
	Dilations tensor.HW
	Padding   Padding2D
}

// NewDepthwiseConv2DAttributes returns attributes over weights and bias with
// unit strides and dilations and no padding.
func NewDepthwiseConv2DAttributes(weights, bias tensor.Tensor) DepthwiseConv2DAttributes {
	return DepthwiseConv2DAttributes{
		Weights:   weights,
		Bias:      bias,
		Strides:   tensor.HW{H: 1, W: 1},
		Dilations: tensor.HW{H: 1, W: 1},
	}
}

// Multiplier returns the per-channel depth multiplier.
func (a DepthwiseConv2DAttributes) Multiplier() int { return a.Weights.Dim(tensor.AxisO) }

// Channels returns the number of input channels.
func (a DepthwiseConv2DAttributes) Channels() int { return a.Weights.Dim(tensor.AxisI) }

// KernelSize returns the spatial kernel extent.
func (a DepthwiseConv2DAttributes) KernelSize() tensor.HW {
	return tensor.HW{H: a.Weights.Dim(tensor.AxisH), W: a.Weights.Dim(tensor.AxisW)}
}

// OutputSize returns the spatial extent produced from an input of size src.
func (a DepthwiseConv2DAttributes) OutputSize(src tensor.HW) tensor.HW {
	return convOutputSize(src, a.KernelSize(), a.Strides, a.Dilations, a.Padding)
}

// Conv2DAttributes describes a regular 2D convolution.
//
// Weights use OHWI layout [out_channels, kernel_h, kernel_w, in_channels].
type Conv2DAttributes struct {
	Weights   tensor.Tensor
	Bias      tensor.Tensor
	Strides   tensor.HW
	Dilations tensor.HW
	Padding   Padding2D
}

// NewConv2DAttributes returns attributes over weights and bias with unit
// strides and dilations and no padding.
func NewConv2DAttributes(weights, bias tensor.Tensor) Conv2DAttributes {
	return Conv2DAttributes{
		Weights:   weights,
		Bias:      bias,
		Strides:   tensor.HW{H: 1, W: 1},
		Dilations: tensor.HW{H: 1, W: 1},
	}
}

// InputChannels returns the number of input channels.
func (a Conv2DAttributes) InputChannels() int { return a.Weights.Dim(tensor.AxisI) }

// OutputChannels returns the number of output channels.
func (a Conv2DAttributes) OutputChannels() int { return a.Weights.Dim(tensor.AxisO) }

// KernelSize returns the spatial kernel extent.
func (a Conv2DAttributes) KernelSize() tensor.HW {
	return tensor.HW{H: a.Weights.Dim(tensor.AxisH), W: a.Weights.Dim(tensor.AxisW)}
}

// OutputSize returns the spatial extent produced from an input of size src.
func (a Conv2DAttributes) OutputSize(src tensor.HW) tensor.HW {
	return convOutputSize(src, a.KernelSize(), a.Strides, a.Dilations, a.Padding)
}

// convOutputSize applies the usual formula per axis:
//
//	out = (in + pad_before + pad_after - dilation*(kernel-1) - 1) / stride + 1
func convOutputSize(src, kernel, strides, dilations tensor.HW, pad Padding2D) tensor.HW {
	axis := func(in, k, stride, dilation, before, after int) int {
		if stride < 1 {
			stride = 1
		}
		if dilation < 1 {
			dilation = 1
		}
		span := in + before + after - dilation*(k-1) - 1
		if span < 0 {
			return 0
		}
		return span/stride + 1
	}
	return tensor.HW{
		H: axis(src.H, kernel.H, strides.H, dilations.H, pad.Prepended.H, pad.Appended.H),
		W: axis(src.W, kernel.W, strides.W, dilations.W, pad.Prepended.W, pad.Appended.W),
	}
}
