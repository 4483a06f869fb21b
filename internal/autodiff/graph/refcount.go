package graph

import (
	"sync/atomic"
)

// NodeRefCount is the liveness handle of a node. User-facing tensors retain
// it while they are reachable; the memory manager keeps a pointer to the same
// handle and treats a node whose holder count reached zero as unreachable.
type NodeRefCount struct {
	id      NodeID
	holders atomic.Int64
}

// NewNodeRefCount creates a handle with no holders.
func NewNodeRefCount(id NodeID) *NodeRefCount {
	return &NodeRefCount{id: id}
}

// ID returns the node this handle refers to.
func (rc *NodeRefCount) ID() NodeID {
	return rc.id
}

// Retain registers one more external holder.
func (rc *NodeRefCount) Retain() {
	rc.holders.Add(1)
}

// Release drops one external holder.
func (rc *NodeRefCount) Release() {
	if rc.holders.Add(-1) < 0 {
		panic("noderefcount: released more times than retained for " + rc.id.String())
	}
}

// Holders returns the number of outstanding external holders.
func (rc *NodeRefCount) Holders() int64 {
	return rc.holders.Load()
}

// IsReferenced reports whether any external holder remains.
func (rc *NodeRefCount) IsReferenced() bool {
	return rc.Holders() > 0
}
