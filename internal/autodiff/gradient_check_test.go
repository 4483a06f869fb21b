package autodiff_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/autodiff"
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/backend/cpu"
	"github.com/born-ml/born/internal/tensor"
)

type scalarFn func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor

// numericalGradient computes the gradient of sum(f(x)) using central differences.
func numericalGradient(t *testing.T, b *autodiff.AutodiffBackend[*cpu.CPUBackend], f scalarFn, data []float64, shape tensor.Shape) []float64 {
	t.Helper()
	const epsilon = 1e-6

	eval := func(values []float64) float64 {
		x, err := autodiff.FromSlice(b, values, shape)
		require.NoError(t, err)
		return b.Sum(f(b, x)).Value().Item()
	}

	grad := make([]float64, len(data))
	for i := range data {
		plus := append([]float64(nil), data...)
		minus := append([]float64(nil), data...)
		plus[i] += epsilon
		minus[i] -= epsilon
		grad[i] = (eval(plus) - eval(minus)) / (2 * epsilon)
	}
	return grad
}

func TestNumericalGradient(t *testing.T) {
	tests := []struct {
		name  string
		f     scalarFn
		data  []float64
		shape tensor.Shape
	}{
		{
			name: "square",
			f: func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor {
				return b.Mul(x, x)
			},
			data:  []float64{3},
			shape: tensor.Shape{1},
		},
		{
			name: "composite (x + 2) * 3",
			f: func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor {
				return b.MulScalar(b.AddScalar(x, 2), 3)
			},
			data:  []float64{5, -1},
			shape: tensor.Shape{2},
		},
		{
			name: "tanh(x) / (1 + exp(x))",
			f: func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor {
				return b.Div(b.Tanh(x), b.AddScalar(b.Exp(x), 1))
			},
			data:  []float64{-0.7, 0.1, 1.3},
			shape: tensor.Shape{3},
		},
		{
			name: "log(x) * cos(x) - sin(x)",
			f: func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor {
				return b.Sub(b.Mul(b.Log(x), b.Cos(x)), b.Sin(x))
			},
			data:  []float64{0.4, 1.1, 2.5},
			shape: tensor.Shape{3},
		},
		{
			name: "x @ xᵀ",
			f: func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor {
				return b.MatMul(x, b.Transpose(x))
			},
			data:  []float64{1, 2, 3, 4, 5, 6},
			shape: tensor.Shape{2, 3},
		},
		{
			name: "reshape then broadcast",
			f: func(b *autodiff.AutodiffBackend[*cpu.CPUBackend], x *autodiff.Tensor) *autodiff.Tensor {
				col := b.Reshape(x, tensor.Shape{3, 1})
				return b.Mul(col, b.Exp(x))
			},
			data:  []float64{0.2, -0.5, 0.9},
			shape: tensor.Shape{3},
		},
	}

	policies := map[string][]autodiff.Option{
		"none":               {autodiff.WithCheckpointing(checkpoint.NoCheckpointing)},
		"balanced":           {autodiff.WithCheckpointing(checkpoint.BalancedCheckpointing)},
		"balanced-recompute": {autodiff.WithCheckpointing(checkpoint.BalancedCheckpointing), autodiff.WithAmbiguousPolicy(checkpoint.RecomputeAmbiguous)},
	}

	for pname, opts := range policies {
		for _, tt := range tests {
			t.Run(pname+"/"+tt.name, func(t *testing.T) {
				b := autodiff.New(cpu.New(), opts...)

				x, err := autodiff.FromSlice(b, tt.data, tt.shape)
				require.NoError(t, err)
				x = x.RequireGrad()

				g := b.Sum(tt.f(b, x)).Backward()
				got, ok := x.Grad(g)
				require.True(t, ok)

				want := numericalGradient(t, b, tt.f, tt.data, tt.shape)
				assert.InDeltaSlice(t, want, got.Float64s(), 1e-5)
			})
		}
	}
}
