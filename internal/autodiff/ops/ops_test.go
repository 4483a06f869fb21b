package ops_test

import (
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/ops"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/backend/cpu"
	"github.com/born-ml/born/internal/tensor"
)

type harness struct {
	env     *ops.Env
	client  *runtime.MutexClient
	metrics *runtime.Metrics
}

func newHarness(strategy checkpoint.Strategy, policy checkpoint.AmbiguousPolicy) *harness {
	m := runtime.NewMetrics(nil)
	return &harness{
		env:     &ops.Env{Backend: cpu.New(), Strategy: strategy, Policy: policy},
		client:  runtime.NewMutexClient(runtime.NewServer(runtime.WithMetrics(m))),
		metrics: m,
	}
}

func (h *harness) leaf(t *testing.T, shape tensor.Shape, data ...float64) *runtime.Tensor {
	t.Helper()
	r, err := tensor.FromSlice(data, shape, tensor.CPU)
	require.NoError(t, err)
	return runtime.NewLeaf(h.client, h.env.Backend, r)
}

func (h *harness) param(t *testing.T, shape tensor.Shape, data ...float64) *runtime.Tensor {
	t.Helper()
	return h.leaf(t, shape, data...).RequireGrad()
}

func gradOf(t *testing.T, g *grads.Gradients, x *runtime.Tensor) []float64 {
	t.Helper()
	grad, ok := x.Grad(g)
	require.True(t, ok, "no gradient for %s", x.Node().ID)
	return grad.Float64s()
}

var strategies = []struct {
	name     string
	strategy checkpoint.Strategy
	policy   checkpoint.AmbiguousPolicy
}{
	{"none", checkpoint.NoCheckpointing, checkpoint.RetainAmbiguous},
	{"balanced", checkpoint.BalancedCheckpointing, checkpoint.RetainAmbiguous},
	{"balanced-recompute", checkpoint.BalancedCheckpointing, checkpoint.RecomputeAmbiguous},
}

func TestAdd_BroadcastBackward(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.name, func(t *testing.T) {
			h := newHarness(s.strategy, s.policy)
			a := h.param(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
			b := h.param(t, tensor.Shape{3}, 10, 20, 30)

			c := ops.Add(h.env, a, b)
			assert.Equal(t, []float64{11, 22, 33, 14, 25, 36}, c.Value().Float64s())

			g := ops.Sum(h.env, c).Backward()
			assert.Equal(t, []float64{1, 1, 1, 1, 1, 1}, gradOf(t, g, a))
			assert.Equal(t, []float64{2, 2, 2}, gradOf(t, g, b))
		})
	}
}

func TestSub_Backward(t *testing.T) {
	h := newHarness(checkpoint.NoCheckpointing, nil)
	a := h.param(t, tensor.Shape{2}, 5, 7)
	b := h.param(t, tensor.Shape{2}, 1, 2)

	g := ops.Sum(h.env, ops.Sub(h.env, a, b)).Backward()
	assert.Equal(t, []float64{1, 1}, gradOf(t, g, a))
	assert.Equal(t, []float64{-1, -1}, gradOf(t, g, b))
}

func TestMul_SameOperand(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.name, func(t *testing.T) {
			h := newHarness(s.strategy, s.policy)
			x := h.param(t, tensor.Shape{3}, 1, 2, 3)

			g := ops.Sum(h.env, ops.Mul(h.env, x, x)).Backward()
			assert.Equal(t, []float64{2, 4, 6}, gradOf(t, g, x))
		})
	}
}

func TestDiv_Backward(t *testing.T) {
	h := newHarness(checkpoint.BalancedCheckpointing, nil)
	a := h.param(t, tensor.Shape{2}, 6, 8)
	b := h.param(t, tensor.Shape{2}, 2, 4)

	g := ops.Sum(h.env, ops.Div(h.env, a, b)).Backward()
	assert.InDeltaSlice(t, []float64{0.5, 0.25}, gradOf(t, g, a), 1e-12)
	assert.InDeltaSlice(t, []float64{-1.5, -0.5}, gradOf(t, g, b), 1e-12)
}

func TestMatMul_Backward(t *testing.T) {
	h := newHarness(checkpoint.BalancedCheckpointing, nil)
	a := h.param(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	b := h.param(t, tensor.Shape{3, 2}, 1, 0, 0, 1, 1, 1)

	c := ops.MatMul(h.env, a, b)
	assert.Equal(t, []float64{4, 5, 10, 11}, c.Value().Float64s())

	g := ops.Sum(h.env, c).Backward()
	// dA = ones[2,2] @ Bᵀ: row sums of B per column of A.
	assert.Equal(t, []float64{1, 1, 2, 1, 1, 2}, gradOf(t, g, a))
	// dB = Aᵀ @ ones[2,2]: column sums of A repeated.
	assert.Equal(t, []float64{5, 5, 7, 7, 9, 9}, gradOf(t, g, b))
}

func TestReshapeTranspose_Backward(t *testing.T) {
	h := newHarness(checkpoint.BalancedCheckpointing, nil)
	x := h.param(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)
	w := h.leaf(t, tensor.Shape{3, 2}, 1, 2, 3, 4, 5, 6)

	xt := ops.Transpose(h.env, x)
	assert.Equal(t, tensor.Shape{3, 2}, xt.Shape())
	r := ops.Reshape(h.env, ops.Mul(h.env, xt, w), tensor.Shape{6})

	g := ops.Sum(h.env, r).Backward()
	// d/dx[i][j] = w[j][i]
	assert.Equal(t, []float64{1, 3, 5, 2, 4, 6}, gradOf(t, g, x))
}

func TestScalarOps_Backward(t *testing.T) {
	h := newHarness(checkpoint.BalancedCheckpointing, nil)
	x := h.param(t, tensor.Shape{2}, 1, 2)

	y := ops.AddScalar(h.env, ops.MulScalar(h.env, ops.Neg(h.env, x), 3), 10)
	assert.Equal(t, []float64{7, 4}, y.Value().Float64s())

	g := ops.Sum(h.env, y).Backward()
	assert.Equal(t, []float64{-3, -3}, gradOf(t, g, x))
}

func TestUntrackedInputs(t *testing.T) {
	h := newHarness(checkpoint.NoCheckpointing, nil)
	a := h.leaf(t, tensor.Shape{2}, 1, 2)
	b := h.leaf(t, tensor.Shape{2}, 3, 4)

	c := ops.Exp(h.env, ops.Mul(h.env, a, b))
	assert.False(t, c.IsTracked())
	assert.Equal(t, 0, h.client.NumSteps(), "untracked results register nothing")
}

func TestMixedTrackedUntracked(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.name, func(t *testing.T) {
			h := newHarness(s.strategy, s.policy)
			x := h.param(t, tensor.Shape{2}, 1, 2)
			c := h.leaf(t, tensor.Shape{2}, 5, 7)

			g := ops.Sum(h.env, ops.Mul(h.env, ops.Exp(h.env, c), x)).Backward()
			assert.InDeltaSlice(t, []float64{math.Exp(5), math.Exp(7)}, gradOf(t, g, x), 1e-9)
			_, ok := c.Grad(g)
			assert.False(t, ok)
		})
	}
}

// numericalGrad estimates d(sum(f(x)))/dx by central differences.
func numericalGrad(t *testing.T, h *harness, f func(*ops.Env, *runtime.Tensor) *runtime.Tensor, data []float64) []float64 {
	t.Helper()
	const eps = 1e-6
	grad := make([]float64, len(data))
	for i := range data {
		plus := append([]float64(nil), data...)
		minus := append([]float64(nil), data...)
		plus[i] += eps
		minus[i] -= eps

		fp := ops.Sum(h.env, f(h.env, h.leaf(t, tensor.Shape{len(data)}, plus...))).Value().Item()
		fm := ops.Sum(h.env, f(h.env, h.leaf(t, tensor.Shape{len(data)}, minus...))).Value().Item()
		grad[i] = (fp - fm) / (2 * eps)
	}
	return grad
}

func TestUnary_NumericalGradient(t *testing.T) {
	unaries := map[string]func(*ops.Env, *runtime.Tensor) *runtime.Tensor{
		"exp":     ops.Exp,
		"log":     ops.Log,
		"sin":     ops.Sin,
		"cos":     ops.Cos,
		"tanh":    ops.Tanh,
		"sigmoid": ops.Sigmoid,
		"exp(tanh)": func(e *ops.Env, x *runtime.Tensor) *runtime.Tensor {
			return ops.Exp(e, ops.Tanh(e, x))
		},
		"log(x)*sin(x)": func(e *ops.Env, x *runtime.Tensor) *runtime.Tensor {
			return ops.Mul(e, ops.Log(e, x), ops.Sin(e, x))
		},
	}
	data := []float64{0.3, 0.9, 1.7}

	for _, s := range strategies {
		for name, f := range unaries {
			t.Run(s.name+"/"+name, func(t *testing.T) {
				h := newHarness(s.strategy, s.policy)
				x := h.param(t, tensor.Shape{3}, data...)

				g := ops.Sum(h.env, f(h.env, x)).Backward()
				assert.InDeltaSlice(t, numericalGrad(t, h, f, data), gradOf(t, g, x), 1e-5)
			})
		}
	}
}

func TestMeanDim_Backward(t *testing.T) {
	for _, s := range strategies {
		t.Run(s.name, func(t *testing.T) {
			h := newHarness(s.strategy, s.policy)
			x := h.param(t, tensor.Shape{2, 3}, 1, 2, 3, 4, 5, 6)

			rows := ops.MeanDim(h.env, x, 1, false)
			assert.Equal(t, tensor.Shape{2}, rows.Shape())
			assert.Equal(t, []float64{2, 5}, rows.Value().Float64s())

			cols := ops.MeanDim(h.env, x, -2, true)
			assert.Equal(t, tensor.Shape{1, 3}, cols.Shape())

			g := ops.Add(h.env, ops.Sum(h.env, rows), ops.Sum(h.env, cols)).Backward()
			third, half := 1.0/3, 0.5
			want := []float64{third + half, third + half, third + half, third + half, third + half, third + half}
			assert.InDeltaSlice(t, want, gradOf(t, g, x), 1e-12)
		})
	}
}

func TestMeanDim_OutOfRange(t *testing.T) {
	h := newHarness(checkpoint.NoCheckpointing, nil)
	x := h.param(t, tensor.Shape{2}, 1, 2)
	assert.Panics(t, func() { ops.MeanDim(h.env, x, 1, false) })
}

func TestBalanced_RecomputesMemoryBound(t *testing.T) {
	build := func(h *harness, x *runtime.Tensor) *runtime.Tensor {
		// sin(x) feeds two consumers whose rules both read it.
		s := ops.Sin(h.env, x)
		return ops.Sum(h.env, ops.Add(h.env, ops.Mul(h.env, s, x), ops.Exp(h.env, s)))
	}

	none := newHarness(checkpoint.NoCheckpointing, nil)
	x0 := none.param(t, tensor.Shape{2}, 0.5, 1.5)
	want := gradOf(t, build(none, x0).Backward(), x0)
	assert.Equal(t, 0.0, testutil.ToFloat64(none.metrics.Recomputations))

	balanced := newHarness(checkpoint.BalancedCheckpointing, nil)
	x1 := balanced.param(t, tensor.Shape{2}, 0.5, 1.5)
	got := gradOf(t, build(balanced, x1).Backward(), x1)

	assert.InDeltaSlice(t, want, got, 1e-12)
	assert.Greater(t, testutil.ToFloat64(balanced.metrics.Recomputations), 0.0)
}
