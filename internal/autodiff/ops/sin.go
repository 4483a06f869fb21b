package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Sin computes sin(x).
//
// Backward: d(sin(x))/dx = cos(x).
func Sin(e *Env, x *runtime.Tensor) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound, e.Backend.Sin, saveInput,
		func(b tensor.Backend, grad, in *tensor.RawTensor) *tensor.RawTensor {
			return b.Mul(grad, b.Cos(in))
		})
}
