package checkpoint

import (
	"github.com/born-ml/born/internal/autodiff/graph"
)

// RetroForward recomputes one node's forward value during the backward pass.
// Implementations read their parents through states (GetAs) and return the
// recomputed value.
type RetroForward interface {
	Forward(states *BackwardStates) any
}

// RetroForwardFunc adapts a function to RetroForward.
type RetroForwardFunc func(states *BackwardStates) any

// Forward calls f(states).
func (f RetroForwardFunc) Forward(states *BackwardStates) any {
	return f(states)
}

// RetroForwards holds the retro-forwards of the nodes marked for recomputation.
type RetroForwards struct {
	forwards map[graph.NodeID]RetroForward
	calls    int
}

func newRetroForwards() *RetroForwards {
	return &RetroForwards{forwards: make(map[graph.NodeID]RetroForward)}
}

// execute runs the retro-forward of id if its state is still Recompute.
// Each retro-forward runs at most once per backward pass.
func (r *RetroForwards) execute(id graph.NodeID, states *BackwardStates) {
	st, ok := states.lookup(id)
	if !ok {
		graph.Panicf(graph.ErrMissingState, "checkpoint: recompute %s", id)
	}
	if st.kind == stateComputed {
		return
	}

	rf, ok := r.forwards[id]
	if !ok {
		graph.Panicf(graph.ErrMissingRetroForward, "checkpoint: recompute %s", id)
	}
	delete(r.forwards, id)

	r.calls++
	states.save(id, rf.Forward(states))
}

// Calls returns how many retro-forwards have run.
func (r *RetroForwards) Calls() int {
	return r.calls
}
