package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/internal/tensor"
)

// Size is a spatial extent in a problem file.
type Size struct {
	H int `yaml:"h" json:"h"`
	W int `yaml:"w" json:"w"`
}

func (s Size) hw(def int) tensor.HW {
	hw := tensor.HW{H: s.H, W: s.W}
	if hw.H == 0 {
		hw.H = def
	}
	if hw.W == 0 {
		hw.W = def
	}
	return hw
}

// Padding is the zero padding before and after each spatial axis.
type Padding struct {
	Before Size `yaml:"before" json:"before"`
	After  Size `yaml:"after" json:"after"`
}

func (p Padding) ops() ops.Padding2D {
	return ops.Padding2D{
		Prepended: tensor.HW{H: p.Before.H, W: p.Before.W},
		Appended:  tensor.HW{H: p.After.H, W: p.After.W},
	}
}

// Conv describes one convolution of a problem. Zero strides, dilations and
// multiplier default to 1. Weights are in OHWI order and default to zeros;
// Bias defaults to zeros.
type Conv struct {
	Kernel     Size      `yaml:"kernel" json:"kernel"`
	Strides    Size      `yaml:"strides" json:"strides"`
	Dilations  Size      `yaml:"dilations" json:"dilations"`
	Padding    Padding   `yaml:"padding" json:"padding"`
	Weights    []float32 `yaml:"weights,omitempty" json:"weights,omitempty"`
	Bias       []float32 `yaml:"bias,omitempty" json:"bias,omitempty"`
	Multiplier int       `yaml:"multiplier,omitempty" json:"multiplier,omitempty"`
}

// Input is the source tensor extent used for grid reports.
type Input struct {
	Batch  int `yaml:"batch" json:"batch"`
	Height int `yaml:"height" json:"height"`
	Width  int `yaml:"width" json:"width"`
}

// Problem is a depthwise convolution followed by a 1x1 convolution.
type Problem struct {
	Name string `yaml:"name" json:"name"`
	// Channels is the depthwise input channel count.
	Channels int `yaml:"channels" json:"channels"`
	// Outputs is the 1x1 output channel count.
	Outputs   int   `yaml:"outputs" json:"outputs"`
	Depthwise Conv  `yaml:"depthwise" json:"depthwise"`
	Pointwise Conv  `yaml:"pointwise" json:"pointwise"`
	Input     Input `yaml:"input" json:"input"`
}

// LoadProblem reads a problem file, choosing YAML or JSON by extension.
func LoadProblem(path string) (Problem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Problem{}, fmt.Errorf("problem: %w", err)
	}
	var p Problem
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &p)
	case ".json":
		err = json.Unmarshal(data, &p)
	default:
		return Problem{}, fmt.Errorf("problem: %s: unsupported extension %q", path, ext)
	}
	if err != nil {
		return Problem{}, fmt.Errorf("problem: parse %s: %w", path, err)
	}
	if p.Name == "" {
		p.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	return p, nil
}

// Attributes builds the operator attributes. The 1x1 convolution consumes every
// depthwise output channel.
func (p Problem) Attributes() (ops.DepthwiseConv2DAttributes, ops.Conv2DAttributes, error) {
	if p.Channels <= 0 || p.Outputs <= 0 {
		return ops.DepthwiseConv2DAttributes{}, ops.Conv2DAttributes{},
			fmt.Errorf("problem %s: channels and outputs must be positive, got %d and %d", p.Name, p.Channels, p.Outputs)
	}

	multiplier := p.Depthwise.Multiplier
	if multiplier == 0 {
		multiplier = 1
	}
	mid := p.Channels * multiplier
	dk := p.Depthwise.Kernel.hw(1)
	dwWeights, err := fill(p.Depthwise.Weights, tensor.Shape{multiplier, dk.H, dk.W, p.Channels})
	if err != nil {
		return ops.DepthwiseConv2DAttributes{}, ops.Conv2DAttributes{}, fmt.Errorf("problem %s: depthwise weights: %w", p.Name, err)
	}
	dwBias, err := fill(p.Depthwise.Bias, tensor.Shape{mid})
	if err != nil {
		return ops.DepthwiseConv2DAttributes{}, ops.Conv2DAttributes{}, fmt.Errorf("problem %s: depthwise bias: %w", p.Name, err)
	}

	pk := p.Pointwise.Kernel.hw(1)
	pwWeights, err := fill(p.Pointwise.Weights, tensor.Shape{p.Outputs, pk.H, pk.W, mid})
	if err != nil {
		return ops.DepthwiseConv2DAttributes{}, ops.Conv2DAttributes{}, fmt.Errorf("problem %s: pointwise weights: %w", p.Name, err)
	}
	pwBias, err := fill(p.Pointwise.Bias, tensor.Shape{p.Outputs})
	if err != nil {
		return ops.DepthwiseConv2DAttributes{}, ops.Conv2DAttributes{}, fmt.Errorf("problem %s: pointwise bias: %w", p.Name, err)
	}

	dw := ops.DepthwiseConv2DAttributes{
		Weights:   dwWeights,
		Bias:      dwBias,
		Strides:   p.Depthwise.Strides.hw(1),
		Dilations: p.Depthwise.Dilations.hw(1),
		Padding:   p.Depthwise.Padding.ops(),
	}
	pw := ops.Conv2DAttributes{
		Weights:   pwWeights,
		Bias:      pwBias,
		Strides:   p.Pointwise.Strides.hw(1),
		Dilations: p.Pointwise.Dilations.hw(1),
		Padding:   p.Pointwise.Padding.ops(),
	}
	return dw, pw, nil
}

// Destination returns the fused output extent for the problem input, or false
// when the file gives no input.
func (p Problem) Destination(dw ops.DepthwiseConv2DAttributes) (tensor.BHWC, bool) {
	if p.Input.Height <= 0 || p.Input.Width <= 0 {
		return tensor.BHWC{}, false
	}
	batch := p.Input.Batch
	if batch <= 0 {
		batch = 1
	}
	size := dw.OutputSize(tensor.HW{H: p.Input.Height, W: p.Input.Width})
	return tensor.BHWC{B: batch, H: size.H, W: size.W, C: p.Outputs}, true
}

// fill returns values shaped as shape, or zeros when values is empty.
func fill(values []float32, shape tensor.Shape) (tensor.Tensor, error) {
	if err := shape.Validate(); err != nil {
		return tensor.Tensor{}, err
	}
	if len(values) == 0 {
		return tensor.Zeros(shape), nil
	}
	return tensor.FromSlice(values, shape)
}
