package checkpoint

import (
	"github.com/born-ml/born/internal/autodiff/graph"
)

// Checkpointer owns the states, retro-forwards and node tree of a single
// backward pass. It never outlives that pass.
type Checkpointer struct {
	states *BackwardStates
	retro  *RetroForwards
	tree   *NodeTree
}

// Retrieve returns the forward output of id, recomputing it and any
// unresolved ancestors first. Ancestors already computed are not rebuilt.
func (c *Checkpointer) Retrieve(id graph.NodeID) any {
	for _, n := range c.topologicalSort(id) {
		c.retro.execute(n, c.states)
	}
	return c.states.Get(id)
}

// RetrieveNodeOutput is Retrieve with a checked downcast to T.
func RetrieveNodeOutput[T any](c *Checkpointer, id graph.NodeID) T {
	for _, n := range c.topologicalSort(id) {
		c.retro.execute(n, c.states)
	}
	return GetAs[T](c.states, id)
}

// topologicalSort lists id's unresolved ancestors, parents strictly before
// children, followed by id itself. Computed nodes end the recursion.
func (c *Checkpointer) topologicalSort(id graph.NodeID) []graph.NodeID {
	var sorted []graph.NodeID
	seen := make(map[graph.NodeID]bool)

	var visit func(graph.NodeID)
	visit = func(n graph.NodeID) {
		if seen[n] {
			return
		}
		seen[n] = true

		st, ok := c.states.lookup(n)
		if !ok {
			graph.Panicf(graph.ErrMissingState, "checkpoint: sort %s", n)
		}
		if st.kind == stateRecompute {
			parents, _ := c.tree.Parents(n)
			for _, p := range parents {
				visit(p)
			}
		}
		sorted = append(sorted, n)
	}
	visit(id)

	return sorted
}

// States exposes the backward states, mainly for diagnostics.
func (c *Checkpointer) States() *BackwardStates {
	return c.states
}

// RetroForwardCalls returns how many recomputations this pass performed.
func (c *Checkpointer) RetroForwardCalls() int {
	return c.retro.Calls()
}
