// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the raw tensor values and numeric backend contract
// of the Born ML framework.
//
// # Overview
//
// This package provides:
//   - RawTensor: reference-counted tensor storage with shape, dtype and device
//   - Backend: the numeric primitives every compute backend implements
//   - NumPy-style broadcasting rules (BroadcastShapes)
//
// Gradient tracking lives in the autodiff package, which wraps a Backend.
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/born/backend/cpu"
//	    "github.com/born-ml/born/tensor"
//	)
//
//	func main() {
//	    backend := cpu.New()
//
//	    x, _ := tensor.FromSlice([]float64{1, 2, 3, 4}, tensor.Shape{2, 2}, tensor.CPU)
//	    y := tensor.OnesLike(x)
//	    z := backend.Add(x, y)
//	}
//
// # Supported Data Types
//
//   - float32, float64 (via the Float constraint)
//
// # Broadcasting
//
// Element-wise operations follow NumPy broadcasting rules:
//
//	shape, _, _ := tensor.BroadcastShapes(tensor.Shape{3, 1}, tensor.Shape{3, 4}) // (3, 4)
package tensor
