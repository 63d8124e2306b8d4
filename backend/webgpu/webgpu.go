//go:build windows

// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides the WebGPU backend that holds fused operation
// constants in GPU memory.
//
// WebGPU is a cross-platform graphics and compute API that works on:
//   - Windows (via Dawn/D3D12)
//   - macOS (via Dawn/Metal)
//   - Linux (via Dawn/Vulkan)
//
// Example:
//
//	import (
//	    "github.com/born-ml/fusion/backend/webgpu"
//	    "github.com/born-ml/fusion/fusion"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    op, err := fusion.New(fusion.CreationContext{Allocator: gpu}, def, dw, pw)
//	}
package webgpu

import (
	internalwebgpu "github.com/born-ml/fusion/internal/backend/webgpu"
	"github.com/born-ml/fusion/internal/kernel"
)

// Backend represents the WebGPU backend implementation.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend can upload constant buffers.
var _ kernel.Allocator = (*Backend)(nil)

// New creates a new WebGPU backend.
//
// This function initializes the WebGPU device and returns a backend ready to
// receive constant buffers. Call Release() when done to free GPU resources.
//
// Returns an error if WebGPU initialization fails (e.g., no compatible GPU).
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks if WebGPU is available on the current system.
//
// This function attempts to initialize a WebGPU adapter to verify
// that a compatible GPU and drivers are present.
func IsAvailable() bool {
	return internalwebgpu.IsAvailable()
}
