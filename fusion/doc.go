// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fusion builds a single GPU kernel for a depthwise convolution
// followed by a 1x1 convolution.
//
// # Overview
//
// Running the two convolutions separately writes the intermediate tensor to
// device memory and reads it back. When the pair is small enough, the fused
// kernel keeps the intermediate values in registers and reads every weight from
// one packed constant buffer instead.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/fusion/backend/cpu"
//	    "github.com/born-ml/fusion/fusion"
//	)
//
//	func main() {
//	    dw := fusion.NewDepthwiseConv2DAttributes(dwWeights, dwBias)
//	    pw := fusion.NewConv2DAttributes(pwWeights, pwBias)
//	    if !fusion.IsFusable(dw, pw) {
//	        // run the two convolutions separately
//	        return
//	    }
//
//	    def := fusion.NewOperationDef(fusion.F16, fusion.StorageTexture2D, false)
//	    op, err := fusion.New(fusion.CreationContext{Allocator: cpu.New()}, def, dw, pw)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer op.Release()
//
//	    fmt.Println(op.Code())
//	}
//
// # Eligibility
//
// A pair is fused only when the depthwise multiplier is 1, the 1x1 convolution
// has unit stride, no padding and unit dilation, and the weights fit the
// thresholds. Zero Thresholds fields take DefaultThresholds.
package fusion
