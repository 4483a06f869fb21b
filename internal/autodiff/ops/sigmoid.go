package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Sigmoid computes σ(x) = 1 / (1 + exp(-x)).
//
// Backward: dσ/dx = σ(x) * (1 - σ(x)), read from the output.
func Sigmoid(e *Env, x *runtime.Tensor) *runtime.Tensor {
	forward := func(in *tensor.RawTensor) *tensor.RawTensor {
		b := e.Backend
		denom := b.AddScalar(b.Exp(negate(in, b)), 1)
		return b.Div(tensor.OnesLike(in), denom)
	}
	return unary(e, x, graph.MemoryBound, forward, saveOutput,
		func(b tensor.Backend, grad, out *tensor.RawTensor) *tensor.RawTensor {
			oneMinus := b.AddScalar(negate(out, b), 1)
			return b.Mul(grad, b.Mul(out, oneMinus))
		})
}
