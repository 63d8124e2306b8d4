// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the host tensor and shape types used to describe
// convolution weights and activation extents.
//
// # Overview
//
// Tensors here are plain float32 data with a row-major Shape. They carry
// operator weights and biases into the fusion package and hold the inputs and
// outputs of the CPU reference path.
//
// # Basic Usage
//
//	import "github.com/born-ml/fusion/tensor"
//
//	func main() {
//	    // Depthwise 3x3 weights over 8 channels, OHWI layout.
//	    w := tensor.Zeros(tensor.Shape{1, 3, 3, 8})
//	    w.Set(1, 0, 1, 1, 0)
//
//	    b, err := tensor.FromSlice(make([]float32, 8), tensor.Shape{8})
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    _ = b
//	}
//
// # Layouts
//
// Weights use OHWI order [out, kernel_h, kernel_w, in]. Activations use BHWC
// order [batch, height, width, channels].
package tensor
