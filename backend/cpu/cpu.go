// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	internalcpu "github.com/born-ml/born/internal/backend/cpu"
	"github.com/born-ml/born/tensor"
)

// Backend represents the CPU backend implementation.
//
// CPU backend provides pure Go implementations of the numeric primitives,
// with gonum kernels for float64 data.
type Backend = internalcpu.CPUBackend

// Compile-time check that Backend implements tensor.Backend.
var _ tensor.Backend = (*Backend)(nil)

// New creates a new CPU backend.
//
// Example:
//
//	backend := cpu.New()
//	x, _ := tensor.FromSlice([]float64{1, 2}, tensor.Shape{2}, tensor.CPU)
//	y := backend.Exp(x)
func New() *Backend {
	return internalcpu.New()
}
