package cpu

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// DepthwiseConv2D applies a depthwise convolution with multiplier 1.
//
// Input shape: [batch, height, width, channels]
// Weights shape: [1, kernel_h, kernel_w, channels]
// Output shape: [batch, out_h, out_w, channels]
//
// Taps that fall outside the input read zero.
func DepthwiseConv2D(attr ops.DepthwiseConv2DAttributes, src tensor.Tensor) (tensor.Tensor, error) {
	in, err := bhwc(src, attr.Channels())
	if err != nil {
		return tensor.Tensor{}, err
	}
	if attr.Multiplier() != 1 {
		return tensor.Tensor{}, fmt.Errorf("cpu: depthwise multiplier %d is not supported", attr.Multiplier())
	}
	k := attr.KernelSize()
	size := attr.OutputSize(tensor.HW{H: in.H, W: in.W})
	if size.H <= 0 || size.W <= 0 {
		return tensor.Tensor{}, fmt.Errorf("cpu: invalid output size %dx%d", size.H, size.W)
	}

	out := tensor.Zeros(tensor.BHWC{B: in.B, H: size.H, W: size.W, C: in.C}.Shape())
	for b := 0; b < in.B; b++ {
		for y := 0; y < size.H; y++ {
			for x := 0; x < size.W; x++ {
				for c := 0; c < in.C; c++ {
					sum := biasAt(attr.Bias, c)
					for ky := 0; ky < k.H; ky++ {
						yc := y*attr.Strides.H - attr.Padding.Prepended.H + ky*attr.Dilations.H
						if yc < 0 || yc >= in.H {
							continue
						}
						for kx := 0; kx < k.W; kx++ {
							xc := x*attr.Strides.W - attr.Padding.Prepended.W + kx*attr.Dilations.W
							if xc < 0 || xc >= in.W {
								continue
							}
							sum += src.At(b, yc, xc, c) * attr.Weights.At(0, ky, kx, c)
						}
					}
					out.Set(sum, b, y, x, c)
				}
			}
		}
	}
	return out, nil
}

// Conv1x1 applies a 1x1 convolution with unit stride and no padding as one
// matrix product: every pixel is a row of the [B*H*W, C_in] input, multiplied
// by the transposed [C_out, C_in] weights.
func Conv1x1(attr ops.Conv2DAttributes, src tensor.Tensor) (tensor.Tensor, error) {
	in, err := bhwc(src, attr.InputChannels())
	if err != nil {
		return tensor.Tensor{}, err
	}
	if k := attr.KernelSize(); k.H != 1 || k.W != 1 {
		return tensor.Tensor{}, fmt.Errorf("cpu: kernel %dx%d is not 1x1", k.H, k.W)
	}
	cout := attr.OutputChannels()
	pixels := in.B * in.H * in.W

	x := mat.NewDense(pixels, in.C, toFloat64(src.Data))
	w := mat.NewDense(cout, in.C, toFloat64(attr.Weights.Data))
	var prod mat.Dense
	prod.Mul(x, w.T())

	out := tensor.Zeros(tensor.BHWC{B: in.B, H: in.H, W: in.W, C: cout}.Shape())
	for p := 0; p < pixels; p++ {
		for c := 0; c < cout; c++ {
			out.Data[p*cout+c] = float32(prod.At(p, c)) + biasAt(attr.Bias, c)
		}
	}
	return out, nil
}

// Unfused runs the depthwise convolution and the 1x1 convolution as two
// separate passes with a materialized intermediate tensor.
func Unfused(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes, src tensor.Tensor) (tensor.Tensor, error) {
	mid, err := DepthwiseConv2D(dw, src)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("depthwise: %w", err)
	}
	out, err := Conv1x1(pw, mid)
	if err != nil {
		return tensor.Tensor{}, fmt.Errorf("1x1: %w", err)
	}
	return out, nil
}

func biasAt(bias tensor.Tensor, i int) float32 {
	if i < bias.Len() {
		return bias.Data[i]
	}
	return 0
}

func toFloat64(data []float32) []float64 {
	out := make([]float64, len(data))
	for i, v := range data {
		out[i] = float64(v)
	}
	return out
}
