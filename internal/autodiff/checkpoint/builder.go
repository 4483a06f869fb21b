package checkpoint

import (
	"github.com/born-ml/born/internal/autodiff/graph"
)

// ActionKind distinguishes why a node was checkpointed.
type ActionKind int

const (
	// Explicit actions are inputs a Step reads during backward.
	Explicit ActionKind = iota
	// Backup actions are parents a retro-forward may read. They only
	// materialize when a recomputation actually needs them.
	Backup
)

type action struct {
	id       graph.NodeID
	decision Decision
	value    any
}

// Builder accumulates checkpoint actions and retro-forward registrations at
// forward time. Builders of every node reached by a backward pass are merged
// into one before the Checkpointer is built.
type Builder struct {
	explicit []action
	backup   []action
	retro    map[graph.NodeID]RetroForward
	policy   AmbiguousPolicy
}

// NewBuilder creates an empty builder resolving ambiguous nodes with policy.
func NewBuilder(policy AmbiguousPolicy) *Builder {
	return &Builder{
		retro:  make(map[graph.NodeID]RetroForward),
		policy: policy,
	}
}

// Checkpoint records that value (the forward output of node) is needed later.
// Nodes that will be recomputed do not keep the value.
// Untracked nodes are ignored: their values are captured by the Step itself.
func (b *Builder) Checkpoint(node *graph.Node, value any, kind ActionKind) {
	if !node.IsTracked() {
		return
	}

	a := action{id: node.ID, decision: Decide(node, b.policy)}
	if a.decision == Retain {
		a.value = value
	}

	if kind == Explicit {
		b.explicit = append(b.explicit, a)
	} else {
		b.backup = append(b.backup, a)
	}
}

// RegisterRetroForward stores the recomputation closure of id.
func (b *Builder) RegisterRetroForward(id graph.NodeID, rf RetroForward) {
	b.retro[id] = rf
}

// Extend moves every action and retro-forward of other into b.
func (b *Builder) Extend(other *Builder) {
	if other == nil {
		return
	}
	b.explicit = append(b.explicit, other.explicit...)
	b.backup = append(b.backup, other.backup...)
	for id, rf := range other.retro {
		b.retro[id] = rf
	}
}

// Len returns the number of recorded actions.
func (b *Builder) Len() int {
	return len(b.explicit) + len(b.backup)
}

// Build finalizes the requirement counts and produces the Checkpointer of one
// backward pass. tree supplies parent links for recomputation.
func (b *Builder) Build(tree *NodeTree) *Checkpointer {
	stop := make(map[graph.NodeID]bool)
	for _, list := range [][]action{b.explicit, b.backup} {
		for _, a := range list {
			if a.decision == Retain {
				stop[a.id] = true
			}
		}
	}

	nRequired := make(map[graph.NodeID]int)
	for _, a := range b.explicit {
		b.require(a.id, tree, stop, nRequired)
	}

	states := newBackwardStates()
	retro := newRetroForwards()
	for _, list := range [][]action{b.explicit, b.backup} {
		for _, a := range list {
			n, needed := nRequired[a.id]
			if !needed {
				continue
			}
			if _, done := states.lookup(a.id); done {
				continue
			}

			if a.decision == Retain {
				states.insertComputed(a.id, a.value, n)
				continue
			}
			rf, ok := b.retro[a.id]
			if !ok {
				graph.Panicf(graph.ErrMissingRetroForward, "checkpoint: build %s", a.id)
			}
			retro.forwards[a.id] = rf
			states.insertRecompute(a.id, n)
		}
	}

	return &Checkpointer{states: states, retro: retro, tree: tree}
}

// require counts one more consumer of id. The first requirement of a node that
// will be recomputed also requires each of its parents once, since the
// retro-forward runs a single time.
func (b *Builder) require(id graph.NodeID, tree *NodeTree, stop map[graph.NodeID]bool, nRequired map[graph.NodeID]int) {
	if n, ok := nRequired[id]; ok {
		nRequired[id] = n + 1
		return
	}
	nRequired[id] = 1
	if stop[id] {
		return
	}

	parents, _ := tree.Parents(id)
	for _, p := range parents {
		b.require(p, tree, stop, nRequired)
	}
}
