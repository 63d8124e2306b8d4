// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fusion

import (
	"github.com/born-ml/fusion/internal/fusion"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/kernel/codegen"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/tensor"
)

// DepthwiseConvPlus1x1Conv is the fused operation. Release it when done.
type DepthwiseConvPlus1x1Conv = fusion.DepthwiseConvPlus1x1Conv

// CreationContext carries the allocator, dialect, thresholds and logger used
// to build an operation.
type CreationContext = fusion.CreationContext

// Thresholds bound the weight counts a fused kernel may hold.
type Thresholds = fusion.Thresholds

// Verdict explains an eligibility decision.
type Verdict = fusion.Verdict

// Layout is the geometry of the packed constant buffer.
type Layout = fusion.Layout

// PackedBuffer is a constant buffer converted to its storage type.
type PackedBuffer = fusion.PackedBuffer

// DepthwiseConv2DAttributes describes the depthwise convolution.
type DepthwiseConv2DAttributes = ops.DepthwiseConv2DAttributes

// Conv2DAttributes describes the 1x1 convolution.
type Conv2DAttributes = ops.Conv2DAttributes

// Padding2D holds spatial zero padding.
type Padding2D = ops.Padding2D

// OperationDef is the precision and tensor storage a kernel targets.
type OperationDef = kernel.OperationDef

// Precision selects the arithmetic and weight storage width.
type Precision = kernel.Precision

// Precision constants.
const (
	F32    Precision = kernel.F32
	F32F16 Precision = kernel.F32F16
	F16    Precision = kernel.F16
)

// StorageType is the memory object class backing activation tensors.
type StorageType = kernel.StorageType

// Storage type constants.
const (
	StorageBuffer          StorageType = kernel.StorageBuffer
	StorageImageBuffer     StorageType = kernel.StorageImageBuffer
	StorageTexture2D       StorageType = kernel.StorageTexture2D
	StorageTextureArray    StorageType = kernel.StorageTextureArray
	StorageTexture3D       StorageType = kernel.StorageTexture3D
	StorageSingleTexture2D StorageType = kernel.StorageSingleTexture2D
)

// Allocator uploads constant buffers.
type Allocator = kernel.Allocator

// Buffer is a device memory object.
type Buffer = kernel.Buffer

// Dialect selects the kernel language.
type Dialect = codegen.Dialect

// Kernel dialects.
var (
	WGSL   Dialect = codegen.WGSL{}
	OpenCL Dialect = codegen.OpenCL{}
)

// ErrNotFusable is returned by New when the pair fails the eligibility check.
var ErrNotFusable = fusion.ErrNotFusable

// DefaultThresholds returns the built-in fusion limits.
func DefaultThresholds() Thresholds {
	return fusion.DefaultThresholds()
}

// IsFusable reports whether dw followed by pw can be fused under the default
// thresholds.
func IsFusable(dw DepthwiseConv2DAttributes, pw Conv2DAttributes) bool {
	return fusion.IsFusable(dw, pw)
}

// New builds the fused operation. It returns ErrNotFusable when the pair fails
// the eligibility check and the allocator's error when the upload fails.
func New(ctx CreationContext, def OperationDef, dw DepthwiseConv2DAttributes, pw Conv2DAttributes) (*DepthwiseConvPlus1x1Conv, error) {
	return fusion.NewDepthwiseConvPlus1x1Conv(ctx, def, dw, pw)
}

// NewOperationDef builds a single-input single-output definition.
func NewOperationDef(p Precision, storage StorageType, batched bool) OperationDef {
	return kernel.NewOperationDef(p, storage, batched)
}

// NewDepthwiseConv2DAttributes returns depthwise attributes with unit strides
// and dilations and no padding.
func NewDepthwiseConv2DAttributes(weights, bias tensor.Tensor) DepthwiseConv2DAttributes {
	return ops.NewDepthwiseConv2DAttributes(weights, bias)
}

// NewConv2DAttributes returns convolution attributes with unit strides and
// dilations and no padding.
func NewConv2DAttributes(weights, bias tensor.Tensor) Conv2DAttributes {
	return ops.NewConv2DAttributes(weights, bias)
}

// NewLayout returns the constant buffer layout for a pair.
func NewLayout(dw DepthwiseConv2DAttributes, pw Conv2DAttributes) Layout {
	return fusion.NewLayout(dw, pw)
}

// Pack flattens and converts the weights of a pair for precision p.
func Pack(dw DepthwiseConv2DAttributes, pw Conv2DAttributes, p Precision) PackedBuffer {
	return fusion.Pack(dw, pw, p)
}
