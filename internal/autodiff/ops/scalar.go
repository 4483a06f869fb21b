package ops

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Neg computes -x.
func Neg(e *Env, x *runtime.Tensor) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound,
		func(v *tensor.RawTensor) *tensor.RawTensor { return negate(v, e.Backend) },
		saveNone,
		func(b tensor.Backend, grad, _ *tensor.RawTensor) *tensor.RawTensor { return negate(grad, b) })
}

// MulScalar computes x * scalar.
func MulScalar(e *Env, x *runtime.Tensor, scalar float64) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound,
		func(v *tensor.RawTensor) *tensor.RawTensor { return e.Backend.MulScalar(v, scalar) },
		saveNone,
		func(b tensor.Backend, grad, _ *tensor.RawTensor) *tensor.RawTensor { return b.MulScalar(grad, scalar) })
}

// AddScalar computes x + scalar. The gradient passes through unchanged.
func AddScalar(e *Env, x *runtime.Tensor, scalar float64) *runtime.Tensor {
	return unary(e, x, graph.MemoryBound,
		func(v *tensor.RawTensor) *tensor.RawTensor { return e.Backend.AddScalar(v, scalar) },
		saveNone,
		func(_ tensor.Backend, grad, _ *tensor.RawTensor) *tensor.RawTensor { return grad })
}
