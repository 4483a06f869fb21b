package autodiff

import (
	"github.com/born-ml/born/internal/autodiff/ops"
	"github.com/born-ml/born/internal/tensor"
)

// Add performs element-wise addition with broadcasting.
func (b *AutodiffBackend[B]) Add(x, y *Tensor) *Tensor { return ops.Add(b.env, x, y) }

// Sub performs element-wise subtraction with broadcasting.
func (b *AutodiffBackend[B]) Sub(x, y *Tensor) *Tensor { return ops.Sub(b.env, x, y) }

// Mul performs element-wise multiplication with broadcasting.
func (b *AutodiffBackend[B]) Mul(x, y *Tensor) *Tensor { return ops.Mul(b.env, x, y) }

// Div performs element-wise division with broadcasting.
func (b *AutodiffBackend[B]) Div(x, y *Tensor) *Tensor { return ops.Div(b.env, x, y) }

// MatMul multiplies 2D matrices.
func (b *AutodiffBackend[B]) MatMul(x, y *Tensor) *Tensor { return ops.MatMul(b.env, x, y) }

// Neg negates every element.
func (b *AutodiffBackend[B]) Neg(x *Tensor) *Tensor { return ops.Neg(b.env, x) }

// MulScalar multiplies every element by scalar.
func (b *AutodiffBackend[B]) MulScalar(x *Tensor, scalar float64) *Tensor {
	return ops.MulScalar(b.env, x, scalar)
}

// AddScalar adds scalar to every element.
func (b *AutodiffBackend[B]) AddScalar(x *Tensor, scalar float64) *Tensor {
	return ops.AddScalar(b.env, x, scalar)
}

// Exp computes exp(x) element-wise.
func (b *AutodiffBackend[B]) Exp(x *Tensor) *Tensor { return ops.Exp(b.env, x) }

// Log computes ln(x) element-wise.
func (b *AutodiffBackend[B]) Log(x *Tensor) *Tensor { return ops.Log(b.env, x) }

// Sin computes sin(x) element-wise.
func (b *AutodiffBackend[B]) Sin(x *Tensor) *Tensor { return ops.Sin(b.env, x) }

// Cos computes cos(x) element-wise.
func (b *AutodiffBackend[B]) Cos(x *Tensor) *Tensor { return ops.Cos(b.env, x) }

// Tanh computes tanh(x) element-wise.
func (b *AutodiffBackend[B]) Tanh(x *Tensor) *Tensor { return ops.Tanh(b.env, x) }

// Sigmoid computes 1 / (1 + exp(-x)) element-wise.
func (b *AutodiffBackend[B]) Sigmoid(x *Tensor) *Tensor { return ops.Sigmoid(b.env, x) }

// Sum adds every element into a scalar.
func (b *AutodiffBackend[B]) Sum(x *Tensor) *Tensor { return ops.Sum(b.env, x) }

// MeanDim averages x along dim.
func (b *AutodiffBackend[B]) MeanDim(x *Tensor, dim int, keepDim bool) *Tensor {
	return ops.MeanDim(b.env, x, dim, keepDim)
}

// Reshape changes the shape of x.
func (b *AutodiffBackend[B]) Reshape(x *Tensor, shape tensor.Shape) *Tensor {
	return ops.Reshape(b.env, x, shape)
}

// Transpose permutes the dimensions of x; without axes they are reversed.
func (b *AutodiffBackend[B]) Transpose(x *Tensor, axes ...int) *Tensor {
	return ops.Transpose(b.env, x, axes...)
}
