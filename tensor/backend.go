// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import "github.com/born-ml/born/internal/tensor"

// Backend defines the numeric primitives a compute backend provides.
//
// Implementations:
//   - backend/cpu: Pure Go, gonum kernels for float64
//
// Decorator backends for additional functionality:
//   - autodiff: Automatic differentiation (wraps any backend)
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, tensor.CPU)
//	y := backend.Exp(x)
type Backend = tensor.Backend
