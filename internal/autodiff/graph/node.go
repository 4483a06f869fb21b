// Package graph holds the per-operation metadata of the dynamic computation
// graph: node identity, parent links, depth and tracking requirement.
//
// Parent/child relationships are NodeID references, never pointers, so any
// registry keyed by NodeID can drop entries mid-traversal.
package graph

import (
	"fmt"
	"sync/atomic"
)

// NodeID is a process-unique, monotonically increasing node identifier.
type NodeID uint64

var nodeCounter atomic.Uint64

// NewNodeID allocates the next NodeID.
func NewNodeID() NodeID {
	return NodeID(nodeCounter.Add(1))
}

// String implements fmt.Stringer.
func (id NodeID) String() string {
	return fmt.Sprintf("node#%d", uint64(id))
}

// Requirement is the gradient-tracking status of a node.
type Requirement int

const (
	// RequirementNone marks untracked values.
	RequirementNone Requirement = iota
	// RequirementGrad marks user-declared leaves whose gradient is kept.
	RequirementGrad
	// RequirementGradInBackward marks computed intermediates.
	RequirementGradInBackward
)

// String implements fmt.Stringer.
func (r Requirement) String() string {
	switch r {
	case RequirementNone:
		return "None"
	case RequirementGrad:
		return "Grad"
	case RequirementGradInBackward:
		return "GradInBackward"
	default:
		return "Unknown"
	}
}

// IsNone reports whether the value is untracked.
func (r Requirement) IsNone() bool {
	return r == RequirementNone
}

// ComputingProperty says how expensive a node's forward value is to rebuild,
// which drives whether the checkpointer retains or recomputes it.
type ComputingProperty int

const (
	// ComputeBound outputs are costly to recompute and are always retained.
	ComputeBound ComputingProperty = iota
	// MemoryBound outputs are cheap to recompute from their parents.
	MemoryBound
	// Ambiguous outputs are resolved by a pluggable policy.
	Ambiguous
)

// String implements fmt.Stringer.
func (p ComputingProperty) String() string {
	switch p {
	case ComputeBound:
		return "ComputeBound"
	case MemoryBound:
		return "MemoryBound"
	case Ambiguous:
		return "Ambiguous"
	default:
		return "Unknown"
	}
}

// Node is the immutable metadata of one tracked operation result.
//
// Invariant: Order is 0 for a node without parents and
// 1 + max(parent.Order) otherwise.
type Node struct {
	ID          NodeID
	Parents     []NodeID
	Order       int
	Requirement Requirement
	Property    ComputingProperty
}

// NewRoot creates a parentless node.
func NewRoot(requirement Requirement, property ComputingProperty) *Node {
	return &Node{
		ID:          NewNodeID(),
		Order:       0,
		Requirement: requirement,
		Property:    property,
	}
}

// NewNode creates the node of an operation result. Only tracked parents are
// recorded as parent links; order is derived from them.
func NewNode(parents []*Node, requirement Requirement, property ComputingProperty) *Node {
	ids := make([]NodeID, 0, len(parents))
	order := 0
	for _, p := range parents {
		if p == nil || p.Requirement.IsNone() {
			continue
		}
		ids = append(ids, p.ID)
		order = max(order, p.Order+1)
	}

	return &Node{
		ID:          NewNodeID(),
		Parents:     ids,
		Order:       order,
		Requirement: requirement,
		Property:    property,
	}
}

// RequirementFromParents returns GradInBackward when any parent is tracked.
func RequirementFromParents(parents ...*Node) Requirement {
	for _, p := range parents {
		if p != nil && !p.Requirement.IsNone() {
			return RequirementGradInBackward
		}
	}
	return RequirementNone
}

// IsTracked reports whether gradients flow through this node.
func (n *Node) IsTracked() bool {
	return !n.Requirement.IsNone()
}

// String implements fmt.Stringer.
func (n *Node) String() string {
	return fmt.Sprintf("%s(order=%d, %s, parents=%v)", n.ID, n.Order, n.Requirement, n.Parents)
}
