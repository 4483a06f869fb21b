package grads_test

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/backend/cpu"
	"github.com/born-ml/born/internal/tensor"
)

func raw(t *testing.T, data ...float64) *tensor.RawTensor {
	t.Helper()
	r, err := tensor.FromSlice(data, tensor.Shape{len(data)}, tensor.CPU)
	require.NoError(t, err)
	return r
}

func TestNew_SeedsOnes(t *testing.T) {
	root := graph.NewRoot(graph.RequirementGradInBackward, graph.ComputeBound)
	g := grads.New(root, raw(t, 5, 6, 7), cpu.New())

	seed, ok := g.Wrt(root.ID)
	require.True(t, ok)
	assert.Equal(t, []float64{1, 1, 1}, seed.AsFloat64())
}

func TestRegister_Accumulates(t *testing.T) {
	root := graph.NewRoot(graph.RequirementGradInBackward, graph.ComputeBound)
	n := graph.NewRoot(graph.RequirementGradInBackward, graph.ComputeBound)
	g := grads.New(root, raw(t, 0), cpu.New())

	g.Register(n.ID, raw(t, 1, 2))
	g.Register(n.ID, raw(t, 10, 20))

	sum := g.Consume(n)
	assert.Equal(t, []float64{11, 22}, sum.AsFloat64())

	_, ok := g.Wrt(n.ID)
	assert.False(t, ok, "intermediate gradients are removed on consume")
}

func TestConsume_LeafRetained(t *testing.T) {
	root := graph.NewRoot(graph.RequirementGradInBackward, graph.ComputeBound)
	leaf := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)
	g := grads.New(root, raw(t, 0), cpu.New())

	g.Register(leaf.ID, raw(t, 3))
	_ = g.Consume(leaf)

	got, ok := g.Wrt(leaf.ID)
	require.True(t, ok)
	assert.Equal(t, 3.0, got.Item())

	removed, ok := g.Remove(leaf.ID)
	require.True(t, ok)
	assert.Equal(t, 3.0, removed.Item())
	_, ok = g.Remove(leaf.ID)
	assert.False(t, ok)
}

func TestConsume_MissingPanics(t *testing.T) {
	root := graph.NewRoot(graph.RequirementGradInBackward, graph.ComputeBound)
	n := graph.NewRoot(graph.RequirementGradInBackward, graph.ComputeBound)
	g := grads.New(root, raw(t, 0), cpu.New())

	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, graph.ErrMissingGradient))
	}()
	g.Consume(n)
}
