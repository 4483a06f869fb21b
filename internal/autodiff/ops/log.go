package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Log computes the natural logarithm ln(x).
//
// Backward: d(ln(x))/dx = 1/x.
func Log(e *Env, x *runtime.Tensor) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound, e.Backend.Log, saveInput,
		func(b tensor.Backend, grad, in *tensor.RawTensor) *tensor.RawTensor {
			return b.Div(grad, in)
		})
}
