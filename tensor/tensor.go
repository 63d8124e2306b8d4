// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/fusion/internal/tensor"
)

// Type aliases for public API

// Tensor is a dense float32 host tensor in row-major order.
type Tensor = tensor.Tensor

// Shape is the extent of a tensor along each axis.
type Shape = tensor.Shape

// HW is a spatial height and width pair.
type HW = tensor.HW

// BHWC is the extent of an activation tensor.
type BHWC = tensor.BHWC

// DataType is the element type of a device buffer.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float16 DataType = tensor.Float16
	Int32   DataType = tensor.Int32
)

// Device says where a buffer's memory lives.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	WebGPU Device = tensor.WebGPU
)

// FromSlice creates a tensor over a copy of data.
func FromSlice(data []float32, shape Shape) (Tensor, error) {
	return tensor.FromSlice(data, shape)
}

// Zeros creates a zero-filled tensor.
func Zeros(shape Shape) Tensor {
	return tensor.Zeros(shape)
}

// Vector creates a 1D tensor holding values.
func Vector(values ...float32) Tensor {
	return tensor.Vector(values...)
}
