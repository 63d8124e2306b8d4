// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/fusion/internal/backend/cpu"
	"github.com/born-ml/fusion/internal/kernel"
	"github.com/born-ml/fusion/internal/ops"
	"github.com/born-ml/fusion/tensor"
)

// Backend represents the CPU backend implementation.
//
// The CPU backend keeps constant buffers in host memory and evaluates fused
// operations directly, which makes it the reference for generated kernels.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend can upload constant buffers.
var _ kernel.Allocator = (*Backend)(nil)

// ErrOutOfMemory is returned when an upload would exceed the backend limit.
var ErrOutOfMemory = internalcpu.ErrOutOfMemory

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	op, err := fusion.New(fusion.CreationContext{Allocator: backend}, def, dw, pw)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	out, err := backend.DepthwiseConvPlus1x1Conv(op, src)
func New() *Backend {
	return internalcpu.New()
}

// NewWithLimit creates a CPU backend that refuses uploads past limit bytes.
func NewWithLimit(limit uint64) *Backend {
	return internalcpu.NewWithLimit(limit)
}

// Unfused runs the depthwise and 1x1 convolutions as two passes. It is the
// fallback for pairs that are not fusable.
func Unfused(dw ops.DepthwiseConv2DAttributes, pw ops.Conv2DAttributes, src tensor.Tensor) (tensor.Tensor, error) {
	return internalcpu.Unfused(dw, pw, src)
}
