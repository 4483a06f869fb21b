package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Tanh computes tanh(x).
//
// Backward: d(tanh(x))/dx = 1 - tanh²(x), so the rule reads the output.
// Whether the output is kept or recomputed is left to the ambiguous policy.
func Tanh(e *Env, x *runtime.Tensor) *runtime.Tensor {
	return unary(e, x, graph.Ambiguous, e.Backend.Tanh, saveOutput,
		func(b tensor.Backend, grad, out *tensor.RawTensor) *tensor.RawTensor {
			oneMinusSq := b.AddScalar(negate(b.Mul(out, out), b), 1)
			return b.Mul(grad, oneMinusSq)
		})
}
