// Package optim implements optimization algorithms that consume the
// gradients of an autodiff backward pass.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Parameters are leaf tensors marked with RequireGrad. Their values are
// updated in place, so the same handles can be reused for the next forward pass.
//
// Example usage:
//
//	w := backend.MustFromSlice([]float64{0.5, -0.5}, tensor.Shape{2}).RequireGrad()
//	optimizer := optim.NewAdam([]*autodiff.Tensor{w}, optim.AdamConfig{LR: 0.01})
//
//	for range steps {
//	    loss := computeLoss(backend, w)
//	    grads := loss.Backward()
//	    optimizer.Step(grads)
//	    optimizer.ZeroGrad(grads)
//	}
package optim

import (
	"fmt"

	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Optimizer is the base interface for all optimization algorithms.
type Optimizer interface {
	// Step applies gradient updates to all parameters present in g.
	// Parameters without a gradient are skipped.
	Step(g *grads.Gradients)

	// ZeroGrad removes the parameters' gradients from g.
	ZeroGrad(g *grads.Gradients)

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// zeroGrad removes every parameter gradient from g.
func zeroGrad(params []*runtime.Tensor, g *grads.Gradients) {
	for _, p := range params {
		p.GradRemove(g)
	}
}

// assign overwrites dst's elements with src's.
// Panics if the two tensors differ in shape or dtype.
func assign(dst, src *tensor.RawTensor) {
	if !dst.Shape().Equal(src.Shape()) || dst.DType() != src.DType() {
		panic(fmt.Sprintf("optim: cannot assign %v to %v", src, dst))
	}
	copy(dst.Data(), src.Data())
}
