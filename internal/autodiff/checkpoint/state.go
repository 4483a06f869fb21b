// Package checkpoint decides, per node, whether a forward value needed by the
// backward pass is retained or recomputed, and performs the recomputation in
// dependency order.
package checkpoint

import (
	"fmt"

	"github.com/born-ml/born/internal/autodiff/graph"
)

type stateKind int

const (
	stateRecompute stateKind = iota
	stateComputed
)

// backwardState is Recompute{nRequired} until a retro-forward resolves it to
// Computed{value, nRequired}.
type backwardState struct {
	kind      stateKind
	value     any
	nRequired int
}

// BackwardStates holds the forward values needed by one backward pass.
// Values are type-erased; producer and consumer agree on the concrete type
// for a given node.
type BackwardStates struct {
	states map[graph.NodeID]*backwardState
}

func newBackwardStates() *BackwardStates {
	return &BackwardStates{states: make(map[graph.NodeID]*backwardState)}
}

// Get returns the computed value of id and consumes one of its outstanding
// requirements. The value is evicted once the last consumer has read it.
func (s *BackwardStates) Get(id graph.NodeID) any {
	st, ok := s.states[id]
	if !ok {
		graph.Panicf(graph.ErrMissingState, "checkpoint: get %s", id)
	}
	if st.kind != stateComputed {
		graph.Panicf(graph.ErrUnresolvedState, "checkpoint: get %s", id)
	}

	st.nRequired--
	if st.nRequired <= 0 {
		delete(s.states, id)
	}
	return st.value
}

// GetAs is Get with a checked downcast to T.
func GetAs[T any](s *BackwardStates, id graph.NodeID) T {
	v := s.Get(id)
	typed, ok := v.(T)
	if !ok {
		var want T
		graph.Panicf(graph.ErrStateType, "checkpoint: %s holds %T, want %T", id, v, want)
	}
	return typed
}

// save resolves a Recompute state into Computed, keeping its requirement count.
func (s *BackwardStates) save(id graph.NodeID, value any) {
	st, ok := s.states[id]
	if !ok {
		graph.Panicf(graph.ErrMissingState, "checkpoint: save %s", id)
	}
	st.kind = stateComputed
	st.value = value
}

func (s *BackwardStates) insertComputed(id graph.NodeID, value any, nRequired int) {
	s.states[id] = &backwardState{kind: stateComputed, value: value, nRequired: nRequired}
}

func (s *BackwardStates) insertRecompute(id graph.NodeID, nRequired int) {
	s.states[id] = &backwardState{kind: stateRecompute, nRequired: nRequired}
}

func (s *BackwardStates) lookup(id graph.NodeID) (*backwardState, bool) {
	st, ok := s.states[id]
	return st, ok
}

// IsComputed reports whether id currently holds a value.
func (s *BackwardStates) IsComputed(id graph.NodeID) bool {
	st, ok := s.states[id]
	return ok && st.kind == stateComputed
}

// NumRequired returns the outstanding consumers of id, or 0 if it has no state.
func (s *BackwardStates) NumRequired(id graph.NodeID) int {
	if st, ok := s.states[id]; ok {
		return st.nRequired
	}
	return 0
}

// Len returns the number of live states.
func (s *BackwardStates) Len() int {
	return len(s.states)
}

func (st *backwardState) String() string {
	if st.kind == stateComputed {
		return fmt.Sprintf("Computed{n_required=%d}", st.nRequired)
	}
	return fmt.Sprintf("Recompute{n_required=%d}", st.nRequired)
}
