package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Exp computes exp(x).
//
// Backward: d(exp(x))/dx = exp(x), so the rule reads the output.
func Exp(e *Env, x *runtime.Tensor) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound, e.Backend.Exp, saveOutput,
		func(b tensor.Backend, grad, out *tensor.RawTensor) *tensor.RawTensor {
			return b.Mul(grad, out)
		})
}
