// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"github.com/born-ml/born/internal/tensor"
)

// Float is a constraint for tensor element types: float32 and float64.
type Float = tensor.Float

// DataType represents the underlying data type of a tensor.
type DataType = tensor.DataType

// Data type constants.
const (
	Float32 DataType = tensor.Float32
	Float64 DataType = tensor.Float64
)

// Device represents the device where tensor data resides.
type Device = tensor.Device

// Device constants.
const (
	CPU    Device = tensor.CPU
	CUDA   Device = tensor.CUDA
	WebGPU Device = tensor.WebGPU
)

// Shape represents the dimensions of a tensor.
// Example: Shape{2, 3, 4} represents a 3D tensor with dimensions 2×3×4.
type Shape = tensor.Shape

// BroadcastShapes returns the broadcast shape of a and b and whether either
// side needs broadcasting.
func BroadcastShapes(a, b Shape) (Shape, bool, error) {
	return tensor.BroadcastShapes(a, b)
}

// NewRaw creates a zero-filled RawTensor.
func NewRaw(shape Shape, dtype DataType, device Device) (*RawTensor, error) {
	return tensor.NewRaw(shape, dtype, device)
}

// FromSlice creates a RawTensor holding a copy of data.
func FromSlice[T Float](data []T, shape Shape, device Device) (*RawTensor, error) {
	return tensor.FromSlice(data, shape, device)
}

// Scalar creates a rank-0 tensor holding value.
func Scalar(value float64, dtype DataType, device Device) *RawTensor {
	return tensor.Scalar(value, dtype, device)
}

// Full creates a tensor filled with value.
func Full(shape Shape, dtype DataType, value float64, device Device) *RawTensor {
	return tensor.Full(shape, dtype, value, device)
}

// OnesLike creates a tensor of ones shaped like r.
func OnesLike(r *RawTensor) *RawTensor {
	return tensor.OnesLike(r)
}

// ZerosLike creates a tensor of zeros shaped like r.
func ZerosLike(r *RawTensor) *RawTensor {
	return tensor.ZerosLike(r)
}
