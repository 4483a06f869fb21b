package graph

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNodeID_Monotonic(t *testing.T) {
	a := NewNodeID()
	b := NewNodeID()
	assert.Greater(t, uint64(b), uint64(a))
}

func TestNewNode_OrderInvariant(t *testing.T) {
	x := NewRoot(RequirementGrad, ComputeBound)
	y := NewRoot(RequirementGrad, ComputeBound)
	assert.Equal(t, 0, x.Order)

	sum := NewNode([]*Node{x, y}, RequirementGradInBackward, MemoryBound)
	assert.Equal(t, 1, sum.Order)
	assert.Equal(t, []NodeID{x.ID, y.ID}, sum.Parents)

	prod := NewNode([]*Node{sum, x}, RequirementGradInBackward, ComputeBound)
	assert.Equal(t, 2, prod.Order)

	for _, n := range []*Node{sum, prod} {
		parents := map[NodeID]*Node{x.ID: x, y.ID: y, sum.ID: sum}
		for _, pid := range n.Parents {
			assert.Greater(t, n.Order, parents[pid].Order)
		}
	}
}

func TestNewNode_SkipsUntrackedParents(t *testing.T) {
	tracked := NewRoot(RequirementGrad, ComputeBound)
	untracked := NewRoot(RequirementNone, ComputeBound)

	n := NewNode([]*Node{untracked, tracked, nil}, RequirementFromParents(untracked, tracked), ComputeBound)
	assert.Equal(t, []NodeID{tracked.ID}, n.Parents)
	assert.Equal(t, RequirementGradInBackward, n.Requirement)
	assert.True(t, n.IsTracked())

	assert.Equal(t, RequirementNone, RequirementFromParents(untracked))
}

func TestRequirementString(t *testing.T) {
	assert.Equal(t, "None", RequirementNone.String())
	assert.Equal(t, "Grad", RequirementGrad.String())
	assert.Equal(t, "GradInBackward", RequirementGradInBackward.String())
	assert.Equal(t, "MemoryBound", MemoryBound.String())
}

func TestNodeRefCount(t *testing.T) {
	rc := NewNodeRefCount(NewNodeID())
	assert.False(t, rc.IsReferenced())

	rc.Retain()
	rc.Retain()
	assert.Equal(t, int64(2), rc.Holders())

	rc.Release()
	assert.True(t, rc.IsReferenced())
	rc.Release()
	assert.False(t, rc.IsReferenced())

	assert.Panics(t, func() { rc.Release() })
}

func TestPanicf_WrapsSentinel(t *testing.T) {
	defer func() {
		r := recover()
		require.NotNil(t, r)
		err, ok := r.(error)
		require.True(t, ok)
		assert.True(t, errors.Is(err, ErrMissingGradient))
		assert.Contains(t, err.Error(), "node#42")
	}()
	Panicf(ErrMissingGradient, "consume %s", NodeID(42))
}
