// Package grads holds the per-node gradients of one backward pass.
package grads

import (
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/tensor"
)

// Gradients maps node ids to accumulated gradients.
//
// It is owned by a single backward pass while Steps run. Afterwards it only
// answers gradient queries for the leaves of the graph.
type Gradients struct {
	container map[graph.NodeID]*tensor.RawTensor
	backend   tensor.Backend
}

// New creates the gradients of a backward pass started at root, seeded with
// ones shaped like rootValue.
func New(root *graph.Node, rootValue *tensor.RawTensor, backend tensor.Backend) *Gradients {
	g := &Gradients{
		container: make(map[graph.NodeID]*tensor.RawTensor),
		backend:   backend,
	}
	g.container[root.ID] = tensor.OnesLike(rootValue)
	return g
}

// Register adds grad to the gradient of id. Contributions from every consumer
// of a node are summed before the node's own Step consumes them.
func (g *Gradients) Register(id graph.NodeID, grad *tensor.RawTensor) {
	existing, ok := g.container[id]
	if !ok {
		g.container[id] = grad
		return
	}
	g.container[id] = g.backend.Add(existing, grad)
}

// Consume returns the accumulated gradient of node. Intermediate gradients are
// removed; leaf gradients stay in place so they can still be queried.
// Panics if no gradient was registered for node.
func (g *Gradients) Consume(node *graph.Node) *tensor.RawTensor {
	grad, ok := g.container[node.ID]
	if !ok {
		graph.Panicf(graph.ErrMissingGradient, "gradients: consume %s", node.ID)
	}

	switch node.Requirement {
	case graph.RequirementGrad:
		return grad
	case graph.RequirementGradInBackward:
		delete(g.container, node.ID)
		return grad
	default:
		graph.Panicf(graph.ErrMissingGradient, "gradients: consume untracked %s", node.ID)
		return nil
	}
}

// Wrt returns the gradient of id without removing it.
func (g *Gradients) Wrt(id graph.NodeID) (*tensor.RawTensor, bool) {
	grad, ok := g.container[id]
	return grad, ok
}

// Remove deletes and returns the gradient of id.
func (g *Gradients) Remove(id graph.NodeID) (*tensor.RawTensor, bool) {
	grad, ok := g.container[id]
	if ok {
		delete(g.container, id)
	}
	return grad, ok
}

// Len returns the number of stored gradients.
func (g *Gradients) Len() int {
	return len(g.container)
}
