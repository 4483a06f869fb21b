// Package runtime records tracked operations and replays them backward.
//
// A Server owns every registered Step, the checkpoint actions recorded at
// forward time and the memory bookkeeping that reclaims unreachable graphs.
// All access goes through a Client, which serializes callers.
package runtime

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
)

// Step is the backward rule bound to one node.
//
// Step runs at most once. It consumes the node's accumulated gradient and
// registers a gradient for each tracked parent, reading forward values it
// does not hold directly through the checkpointer.
type Step interface {
	Node() graph.NodeID
	Parents() []graph.NodeID
	Order() int
	Step(grads *grads.Gradients, ckpt *checkpoint.Checkpointer)
}

// RootStep is the no-op step of a leaf that requires gradients.
type RootStep struct {
	node *graph.Node
}

// NewRootStep creates the step of leaf.
func NewRootStep(leaf *graph.Node) *RootStep {
	return &RootStep{node: leaf}
}

// Node implements Step.
func (s *RootStep) Node() graph.NodeID { return s.node.ID }

// Parents implements Step.
func (s *RootStep) Parents() []graph.NodeID { return s.node.Parents }

// Order implements Step.
func (s *RootStep) Order() int { return s.node.Order }

// Step implements Step. Leaves have nothing to propagate.
func (s *RootStep) Step(*grads.Gradients, *checkpoint.Checkpointer) {}
