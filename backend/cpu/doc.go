// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides a pure Go backend for fused convolution operations.
//
// # Overview
//
// This package implements a CPU backend with:
//   - Host-memory constant buffers with an optional allocation limit
//   - Direct evaluation of fused operations from their packed constants
//   - A two-pass fallback for pairs that cannot be fused
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fusion/backend/cpu"
//	    "github.com/born-ml/fusion/fusion"
//	)
//
//	func main() {
//	    backend := cpu.New()
//	    def := fusion.NewOperationDef(fusion.F32, fusion.StorageBuffer, false)
//	    op, err := fusion.New(fusion.CreationContext{Allocator: backend}, def, dw, pw)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer op.Release()
//
//	    out, err := backend.DepthwiseConvPlus1x1Conv(op, src)
//	}
//
// # Precision
//
// Arithmetic is always float32. Constants uploaded as float16 are widened when
// read, so results match a GPU kernel running at F32F16 precision.
package cpu
