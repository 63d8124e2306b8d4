package cpu

import (
	"errors"
	"fmt"

	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/parallel"
	"github.com/born-ml/fusion/internal/tensor"
)

// DepthwiseConvPlus1x1Conv evaluates op on src, a [B, H, W, C] tensor, reading
// the weights from op's uploaded constant buffer. The constant buffer must have
// been created by a CPUBackend.
func (cpu *CPUBackend) DepthwiseConvPlus1x1Conv(op *fusion.DepthwiseConvPlus1x1Conv, src tensor.Tensor) (tensor.Tensor, error) {
	if op.Constants() == nil {
		return tensor.Tensor{}, errors.New("cpu: fused operation has been released")
	}
	host, ok := op.Constants().(*HostBuffer)
	if !ok {
		return tensor.Tensor{}, fmt.Errorf("cpu: constants live on %s, not CPU", op.Constants().Device())
	}
	obj, ok := op.Args().Object(codegen.ConstantsName)
	if !ok || obj.Buffer == nil {
		return tensor.Tensor{}, errors.New("cpu: fused operation has no constants argument")
	}

	data := host.Bytes()
	packed := fusion.PackedBuffer{
		Type: obj.Buffer.ElementType,
		Data: data,
		Len:  len(data) / obj.Buffer.ElementType.Size(),
	}
	return Fused(op.Layout(), op.DepthwiseAttributes(), packed.Float32s(), src)
}

// Fused computes the depthwise convolution and the 1x1 convolution in one pass
// per output pixel, taking every weight and bias from constants laid out as
// layout describes. Reads outside the source contribute zero. Arithmetic is
// float32 whatever width the constants were stored in. Output rows are
// computed in parallel.
func Fused(layout fusion.Layout, dw ops.DepthwiseConv2DAttributes, constants []float32, src tensor.Tensor) (tensor.Tensor, error) {
	in, err := bhwc(src, layout.DepthwiseChannels)
	if err != nil {
		return tensor.Tensor{}, err
	}
	if len(constants) != layout.Len() {
		return tensor.Tensor{}, fmt.Errorf("cpu: constants hold %d values, layout needs %d", len(constants), layout.Len())
	}

	const lanes = 4
	groups := layout.IntermediateGroups()
	outGroups := layout.OutputGroups()
	vec := func(i int) []float32 { return constants[i*lanes : (i+1)*lanes] }
	dwBias := layout.RegionOffset(fusion.RegionDepthwiseBias)
	dwWeights := layout.RegionOffset(fusion.RegionDepthwiseWeights)
	pwBias := layout.RegionOffset(fusion.RegionPointwiseBias)
	pwWeights := layout.RegionOffset(fusion.RegionPointwiseWeights)

	size := dw.OutputSize(tensor.HW{H: in.H, W: in.W})
	if size.H <= 0 || size.W <= 0 {
		return tensor.Tensor{}, fmt.Errorf("cpu: invalid output size %dx%d", size.H, size.W)
	}
	out := tensor.Zeros(tensor.BHWC{B: in.B, H: size.H, W: size.W, C: layout.OutputChannels}.Shape())

	parallel.Rows(in.B, size.H, func(b, y int) {
		acc := make([]float32, groups*lanes)
		res := make([]float32, lanes)
		for x := 0; x < size.W; x++ {
			for g := 0; g < groups; g++ {
				copy(acc[g*lanes:], vec(dwBias+g))
			}
			for ky := 0; ky < layout.KernelH; ky++ {
				yc := y*dw.Strides.H - dw.Padding.Prepended.H + ky*dw.Dilations.H
				for kx := 0; kx < layout.KernelW; kx++ {
					xc := x*dw.Strides.W - dw.Padding.Prepended.W + kx*dw.Dilations.W
					if yc < 0 || yc >= in.H || xc < 0 || xc >= in.W {
						continue
					}
					for g := 0; g < groups; g++ {
						w := vec(dwWeights + (ky*layout.KernelW+kx)*groups + g)
						for l := 0; l < lanes; l++ {
							if c := g*lanes + l; c < in.C {
								acc[g*lanes+l] += src.At(b, yc, xc, c) * w[l]
							}
						}
					}
				}
			}

			for o := 0; o < outGroups; o++ {
				copy(res, vec(pwBias+o))
				for s := 0; s < groups; s++ {
					for j := 0; j < lanes; j++ {
						w := vec(pwWeights + (o*groups+s)*lanes + j)
						v := acc[s*lanes+j]
						for l := 0; l < lanes; l++ {
							res[l] += v * w[l]
						}
					}
				}
				for l := 0; l < lanes; l++ {
					if c := o*lanes + l; c < layout.OutputChannels {
						out.Set(res[l], b, y, x, c)
					}
				}
			}
		}
	}, parallel.DefaultConfig())
	return out, nil
}

// bhwc checks that t is a [B, H, W, C] tensor with the given channel count.
func bhwc(t tensor.Tensor, channels int) (tensor.BHWC, error) {
	if len(t.Shape) != 4 {
		return tensor.BHWC{}, fmt.Errorf("cpu: source must be 4D [B,H,W,C], got %dD", len(t.Shape))
	}
	s := tensor.BHWC{B: t.Shape[0], H: t.Shape[1], W: t.Shape[2], C: t.Shape[3]}
	if s.C != channels {
		return tensor.BHWC{}, fmt.Errorf("cpu: source has %d channels, operation expects %d", s.C, channels)
	}
	return s, nil
}
