// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimization algorithms that consume autodiff gradients.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	import (
//	    "github.com/born-ml/born/autodiff"
//	    "github.com/born-ml/born/backend/cpu"
//	    "github.com/born-ml/born/optim"
//	    "github.com/born-ml/born/tensor"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New())
//	    w := backend.MustFromSlice([]float64{0}, tensor.Shape{1}).RequireGrad()
//
//	    optimizer := optim.NewAdam([]*autodiff.Tensor{w}, optim.AdamConfig{LR: 0.1})
//
//	    for range 100 {
//	        d := backend.AddScalar(w, -3)
//	        loss := backend.Sum(backend.Mul(d, d))
//
//	        grads := loss.Backward()
//	        optimizer.Step(grads)
//	        optimizer.ZeroGrad(grads)
//	    }
//	}
//
// Parameters are updated in place, so the same handles feed the next forward pass.
package optim
