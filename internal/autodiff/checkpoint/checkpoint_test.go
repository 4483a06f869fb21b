package checkpoint

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/born-ml/born/internal/autodiff/graph"
)

// panicErr runs fn and returns the error it panicked with.
func panicErr(t *testing.T, fn func()) (err error) {
	t.Helper()
	defer func() {
		r := recover()
		require.NotNil(t, r, "expected panic")
		var ok bool
		err, ok = r.(error)
		require.True(t, ok, "panic value %v is not an error", r)
	}()
	fn()
	return nil
}

// doubling builds leaf -> double(leaf) where double is memory-bound.
func doubling(t *testing.T, consumers int) (*graph.Node, *graph.Node, *Checkpointer) {
	t.Helper()
	leaf := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)
	double := graph.NewNode([]*graph.Node{leaf}, graph.RequirementGradInBackward, graph.MemoryBound)

	b := NewBuilder(nil)
	b.Checkpoint(leaf, 2.0, Backup)
	b.RegisterRetroForward(double.ID, RetroForwardFunc(func(s *BackwardStates) any {
		return GetAs[float64](s, leaf.ID) * 2
	}))
	for range consumers {
		b.Checkpoint(double, 4.0, Explicit)
	}

	tree := NewNodeTree()
	tree.Insert(leaf.ID, leaf.Parents)
	tree.Insert(double.ID, double.Parents)

	return leaf, double, b.Build(tree)
}

func TestCheckpointer_FanOutRecomputesOnce(t *testing.T) {
	leaf, double, ckpt := doubling(t, 2)

	assert.Equal(t, 2, ckpt.States().NumRequired(double.ID))
	assert.False(t, ckpt.States().IsComputed(double.ID))
	assert.Equal(t, 1, ckpt.States().NumRequired(leaf.ID))

	first := RetrieveNodeOutput[float64](ckpt, double.ID)
	second := RetrieveNodeOutput[float64](ckpt, double.ID)

	assert.InDelta(t, 4.0, first, 1e-12)
	assert.InDelta(t, 4.0, second, 1e-12)
	assert.Equal(t, 1, ckpt.RetroForwardCalls())
	assert.Equal(t, 0, ckpt.States().Len(), "states are evicted after the last read")
}

func TestCheckpointer_OverReadPanics(t *testing.T) {
	_, double, ckpt := doubling(t, 1)
	_ = ckpt.Retrieve(double.ID)

	err := panicErr(t, func() { ckpt.Retrieve(double.ID) })
	assert.True(t, errors.Is(err, graph.ErrMissingState))
}

func TestCheckpointer_TypeMismatch(t *testing.T) {
	_, double, ckpt := doubling(t, 1)

	err := panicErr(t, func() { RetrieveNodeOutput[string](ckpt, double.ID) })
	assert.True(t, errors.Is(err, graph.ErrStateType))
	assert.Contains(t, err.Error(), "float64")
}

func TestBuilder_RetainedNodeStopsRecursion(t *testing.T) {
	leaf := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)
	exp := graph.NewNode([]*graph.Node{leaf}, graph.RequirementGradInBackward, graph.ComputeBound)

	b := NewBuilder(nil)
	b.Checkpoint(leaf, 1.0, Backup)
	b.Checkpoint(exp, 2.718, Explicit)

	tree := NewNodeTree()
	tree.Insert(leaf.ID, nil)
	tree.Insert(exp.ID, exp.Parents)
	ckpt := b.Build(tree)

	assert.Equal(t, 1, ckpt.States().Len(), "backup of a retained node's parent is dropped")
	assert.True(t, ckpt.States().IsComputed(exp.ID))
	assert.InDelta(t, 2.718, RetrieveNodeOutput[float64](ckpt, exp.ID), 1e-12)
	assert.Equal(t, 0, ckpt.RetroForwardCalls())
}

func TestBuilder_RecomputeChain(t *testing.T) {
	// leaf -> a (memory bound) -> b (memory bound); only b is read.
	leaf := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)
	a := graph.NewNode([]*graph.Node{leaf}, graph.RequirementGradInBackward, graph.MemoryBound)
	b := graph.NewNode([]*graph.Node{a}, graph.RequirementGradInBackward, graph.MemoryBound)

	var order []graph.NodeID
	builder := NewBuilder(nil)
	builder.Checkpoint(leaf, 3.0, Backup)
	builder.Checkpoint(a, nil, Backup)
	builder.RegisterRetroForward(a.ID, RetroForwardFunc(func(s *BackwardStates) any {
		order = append(order, a.ID)
		return GetAs[float64](s, leaf.ID) + 1
	}))
	builder.RegisterRetroForward(b.ID, RetroForwardFunc(func(s *BackwardStates) any {
		order = append(order, b.ID)
		return GetAs[float64](s, a.ID) * 10
	}))
	builder.Checkpoint(b, nil, Explicit)

	tree := NewNodeTree()
	for _, n := range []*graph.Node{leaf, a, b} {
		tree.Insert(n.ID, n.Parents)
	}
	ckpt := builder.Build(tree)

	assert.InDelta(t, 40.0, RetrieveNodeOutput[float64](ckpt, b.ID), 1e-12)
	assert.Equal(t, []graph.NodeID{a.ID, b.ID}, order, "parents recompute before children")
	assert.Equal(t, 2, ckpt.RetroForwardCalls())
	assert.Equal(t, 0, ckpt.States().Len())
}

func TestBuilder_MissingRetroForward(t *testing.T) {
	leaf := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)
	n := graph.NewNode([]*graph.Node{leaf}, graph.RequirementGradInBackward, graph.MemoryBound)

	b := NewBuilder(nil)
	b.Checkpoint(n, nil, Explicit)
	tree := NewNodeTree()
	tree.Insert(n.ID, n.Parents)

	err := panicErr(t, func() { b.Build(tree) })
	assert.True(t, errors.Is(err, graph.ErrMissingRetroForward))
}

func TestBuilder_UntrackedIgnoredAndExtend(t *testing.T) {
	untracked := graph.NewRoot(graph.RequirementNone, graph.ComputeBound)
	tracked := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)

	a := NewBuilder(nil)
	a.Checkpoint(untracked, 1.0, Explicit)
	assert.Equal(t, 0, a.Len())

	other := NewBuilder(nil)
	other.Checkpoint(tracked, 1.0, Explicit)
	a.Extend(other)
	a.Extend(nil)
	assert.Equal(t, 1, a.Len())
}

func TestDecide(t *testing.T) {
	mk := func(p graph.ComputingProperty) *graph.Node {
		return graph.NewRoot(graph.RequirementGrad, p)
	}

	assert.Equal(t, Retain, Decide(mk(graph.ComputeBound), RecomputeAmbiguous))
	assert.Equal(t, Recompute, Decide(mk(graph.MemoryBound), RetainAmbiguous))
	assert.Equal(t, Retain, Decide(mk(graph.Ambiguous), nil))
	assert.Equal(t, Retain, Decide(mk(graph.Ambiguous), RetainAmbiguous))
	assert.Equal(t, Recompute, Decide(mk(graph.Ambiguous), RecomputeAmbiguous))
}

func TestBuilder_AmbiguousPolicyRecompute(t *testing.T) {
	leaf := graph.NewRoot(graph.RequirementGrad, graph.ComputeBound)
	n := graph.NewNode([]*graph.Node{leaf}, graph.RequirementGradInBackward, graph.Ambiguous)

	b := NewBuilder(RecomputeAmbiguous)
	b.Checkpoint(leaf, 5.0, Backup)
	b.RegisterRetroForward(n.ID, RetroForwardFunc(func(s *BackwardStates) any {
		return -GetAs[float64](s, leaf.ID)
	}))
	b.Checkpoint(n, -5.0, Explicit)

	tree := NewNodeTree()
	tree.Insert(leaf.ID, nil)
	tree.Insert(n.ID, n.Parents)
	ckpt := b.Build(tree)

	assert.False(t, ckpt.States().IsComputed(n.ID))
	assert.InDelta(t, -5.0, RetrieveNodeOutput[float64](ckpt, n.ID), 1e-12)
	assert.Equal(t, 1, ckpt.RetroForwardCalls())
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    Strategy
		wantErr bool
	}{
		{"", NoCheckpointing, false},
		{"none", NoCheckpointing, false},
		{"Balanced", BalancedCheckpointing, false},
		{"aggressive", NoCheckpointing, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseStrategy(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, graph.ComputeBound, NoCheckpointing.Property(graph.MemoryBound))
	assert.Equal(t, graph.MemoryBound, BalancedCheckpointing.Property(graph.MemoryBound))
	assert.Equal(t, "balanced", BalancedCheckpointing.String())

	p, err := ParseAmbiguousPolicy("recompute")
	require.NoError(t, err)
	assert.Equal(t, Recompute, p.Decide(nil))
	_, err = ParseAmbiguousPolicy("maybe")
	require.Error(t, err)
}
