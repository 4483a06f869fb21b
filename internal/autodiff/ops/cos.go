package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Cos computes cos(x).
//
// Backward: d(cos(x))/dx = -sin(x).
func Cos(e *Env, x *runtime.Tensor) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound, e.Backend.Cos, saveInput,
		func(b tensor.Backend, grad, in *tensor.RawTensor) *tensor.RawTensor {
			return negate(b.Mul(grad, b.Sin(in)), b)
		})
}
