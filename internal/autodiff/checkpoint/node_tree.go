package checkpoint

import (
	"github.com/born-ml/born/internal/autodiff/graph"
)

// NodeTree is a static parent-lookup table used for recomputation. It is
// filled while the tape is built, so it outlives the Steps that are consumed
// during the backward pass.
type NodeTree struct {
	parents map[graph.NodeID][]graph.NodeID
}

// NewNodeTree creates an empty tree.
func NewNodeTree() *NodeTree {
	return &NodeTree{parents: make(map[graph.NodeID][]graph.NodeID)}
}

// Insert records the parents of id.
func (t *NodeTree) Insert(id graph.NodeID, parents []graph.NodeID) {
	t.parents[id] = parents
}

// Parents returns the parents of id.
func (t *NodeTree) Parents(id graph.NodeID) ([]graph.NodeID, bool) {
	p, ok := t.parents[id]
	return p, ok
}

// Len returns the number of nodes in the tree.
func (t *NodeTree) Len() int {
	return len(t.parents)
}
