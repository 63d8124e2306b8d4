// Package fusion fuses a depthwise convolution and the 1x1 convolution that
// consumes it into one generated GPU kernel with a single packed constant buffer.
package fusion

import (
	"fmt"

	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// Thresholds bound the code size and register pressure of the unrolled kernel.
// A legal pair is only fused when it stays inside all four limits. A zero field
// takes its value from DefaultThresholds.
type Thresholds struct {
	// MaxDepthwiseChannels bounds the depthwise channel count.
	MaxDepthwiseChannels int `yaml:"max_depthwise_channels" json:"max_depthwise_channels"`
	// MaxDepthwiseWeights bounds channels * kernel_h * kernel_w.
	MaxDepthwiseWeights int `yaml:"max_depthwise_weights" json:"max_depthwise_weights"`
	// MaxPointwiseOutputs bounds the 1x1 output channel count.
	MaxPointwiseOutputs int `yaml:"max_pointwise_outputs" json:"max_pointwise_outputs"`
	// MaxPointwiseWeights bounds in_channels * out_channels of the 1x1 conv.
	MaxPointwiseWeights int `yaml:"max_pointwise_weights" json:"max_pointwise_weights"`
}

// DefaultThresholds returns the limits tuned for mobile GPUs.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MaxDepthwiseChannels: 16,
		MaxDepthwiseWeights:  3 * 3 * 16,
		MaxPointwiseOutputs:  32,
		MaxPointwiseWeights:  16 * 32,
	}
}

// orDefault returns t with every zero limit replaced by its default.
func (t Thresholds) orDefault() Thresholds {
	d := DefaultThresholds()
	pick := func(v, def int) int {
		if v == 0 {
			return def
		}
		return v
	}
	return Thresholds{
		MaxDepthwiseChannels: pick(t.MaxDepthwiseChannels, d.MaxDepthwiseChannels),
		MaxDepthwiseWeights:  pick(t.MaxDepthwiseWeights, d.MaxDepthwiseWeights),
		MaxPointwiseOutputs:  pick(t.MaxPointwiseOutputs, d.MaxPointwiseOutputs),
		MaxPointwiseWeights:  pick(t.MaxPointwiseWeights, d.MaxPointwiseWeights),
	}
}

// Verdict is the outcome of an eligibility check.
type Verdict struct {
	// Legal is false when the pair cannot be fused correctly.
	Legal bool
	// Profitable is false when fusing would exceed a size threshold.
	Profitable bool
	// Reasons lists every violated constraint.
	Reasons []string
}

// Fusable reports whether the pair is both legal and profitable.
func (v Verdict) Fusable() bool {
	return v.Legal && v.Profitable
}

// IsFusable reports whether dw followed by pw can be fused under the default thresholds.
func IsFusable(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes) bool {
	return DefaultThresholds().IsFusable(dw, pw)
}

// IsFusable reports whether dw followed by pw can be fused under t.
func (t Thresholds) IsFusable(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes) bool {
	return t.Check(dw, pw).Fusable()
}

// Check evaluates every legality constraint and size threshold.
func (t Thresholds) Check(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes) Verdict {
	t = t.orDefault()
	v := Verdict{Legal: true, Profitable: true}
	illegal := func(format string, args ...any) {
		v.Legal = false
		v.Reasons = append(v.Reasons, fmt.Sprintf(format, args...))
	}
	unprofitable := func(format string, args ...any) {
		v.Profitable = false
		v.Reasons = append(v.Reasons, fmt.Sprintf(format, args...))
	}

	one := tensor.HW{H: 1, W: 1}
	if m := dw.Multiplier(); m != 1 {
		illegal("depthwise multiplier is %d, want 1", m)
	}
	if k := pw.KernelSize(); k != one {
		illegal("pointwise kernel is %dx%d, want 1x1", k.H, k.W)
	}
	if pw.Strides != one {
		illegal("pointwise stride is %dx%d, want 1x1", pw.Strides.H, pw.Strides.W)
	}
	if pw.Dilations != one {
		illegal("pointwise dilation is %dx%d, want 1x1", pw.Dilations.H, pw.Dilations.W)
	}
	if !pw.Padding.IsZero() {
		illegal("pointwise padding is %+v, want none", pw.Padding)
	}

	channels := dw.Channels()
	k := dw.KernelSize()
	if channels > t.MaxDepthwiseChannels {
		unprofitable("depthwise channels %d exceed %d", channels, t.MaxDepthwiseChannels)
	}
	if w := channels * k.H * k.W; w > t.MaxDepthwiseWeights {
		unprofitable("depthwise weights %d exceed %d", w, t.MaxDepthwiseWeights)
	}
	out := pw.OutputChannels()
	if out > t.MaxPointwiseOutputs {
		unprofitable("pointwise outputs %d exceed %d", out, t.MaxPointwiseOutputs)
	}
	if w := pw.InputChannels() * out; w > t.MaxPointwiseWeights {
		unprofitable("pointwise weights %d exceed %d", w, t.MaxPointwiseWeights)
	}
	return v
}
