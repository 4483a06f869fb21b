package runtime

import (
	goruntime "runtime"
	"sync/atomic"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/tensor"
)

// handle owns one holder of a node's refcount.
type handle struct {
	rc       *graph.NodeRefCount
	released atomic.Bool
}

func (h *handle) release() {
	if h.released.CompareAndSwap(false, true) {
		h.rc.Release()
	}
}

// Tensor is a forward value paired with its graph node.
//
// Every Tensor holds the refcount of its node until Release is called or the
// Tensor is garbage collected. The memory manager frees a graph once no
// Tensor of it is held anymore.
type Tensor struct {
	value   *tensor.RawTensor
	node    *graph.Node
	h       *handle
	client  Client
	backend tensor.Backend
}

func newTensor(client Client, backend tensor.Backend, value *tensor.RawTensor, node *graph.Node) *Tensor {
	h := &handle{rc: graph.NewNodeRefCount(node.ID)}
	h.rc.Retain()

	t := &Tensor{
		value:   value,
		node:    node,
		h:       h,
		client:  client,
		backend: backend,
	}
	goruntime.AddCleanup(t, func(h *handle) { h.release() }, h)
	return t
}

// NewLeaf creates an untracked tensor.
func NewLeaf(client Client, backend tensor.Backend, value *tensor.RawTensor) *Tensor {
	return newTensor(client, backend, value, graph.NewRoot(graph.RequirementNone, graph.ComputeBound))
}

// FromParents creates the tensor of an operation result. The caller must
// register its step with RegisterStep when the result is tracked.
func FromParents(value *tensor.RawTensor, parents []*Tensor, requirement graph.Requirement, property graph.ComputingProperty) *Tensor {
	if len(parents) == 0 {
		graph.Panicf(graph.ErrNoParents, "from parents")
	}

	nodes := make([]*graph.Node, len(parents))
	for i, p := range parents {
		nodes[i] = p.node
	}
	return newTensor(parents[0].client, parents[0].backend, value, graph.NewNode(nodes, requirement, property))
}

// RequireGrad returns a leaf tracking gradients for t's value.
// A tensor that already requires gradients is returned unchanged.
//
// Panics if t is the result of a tracked operation.
func (t *Tensor) RequireGrad() *Tensor {
	switch t.node.Requirement {
	case graph.RequirementGrad:
		return t
	case graph.RequirementGradInBackward:
		graph.Panicf(graph.ErrNonLeafRequireGrad, "require grad: %s", t.node)
	}

	leaf := newTensor(t.client, t.backend, t.value, graph.NewRoot(graph.RequirementGrad, graph.ComputeBound))
	leaf.client.Register(leaf.h.rc, NewRootStep(leaf.node), nil)
	return leaf
}

// RegisterStep registers step as the backward rule of t.
// It must be called exactly once for every tracked operation result.
func (t *Tensor) RegisterStep(step Step, actions *checkpoint.Builder) *Tensor {
	t.client.Register(t.h.rc, step, actions)
	return t
}

// Backward computes the gradients of every tracked leaf t depends on.
//
// Panics if neither t nor any of its ancestors requires gradients.
func (t *Tensor) Backward() *grads.Gradients {
	return t.client.Backward(t.node, t.value, t.backend)
}

// Grad returns the gradient of t stored in g.
func (t *Tensor) Grad(g *grads.Gradients) (*tensor.RawTensor, bool) {
	return g.Wrt(t.node.ID)
}

// GradRemove removes and returns the gradient of t stored in g.
func (t *Tensor) GradRemove(g *grads.Gradients) (*tensor.RawTensor, bool) {
	return g.Remove(t.node.ID)
}

// Detach returns an untracked tensor sharing t's value.
func (t *Tensor) Detach() *Tensor {
	return NewLeaf(t.client, t.backend, t.value)
}

// Release drops t's hold on its node. Calling it more than once is a no-op.
func (t *Tensor) Release() {
	t.h.release()
}

// Value returns the forward value.
func (t *Tensor) Value() *tensor.RawTensor { return t.value }

// Node returns the graph node.
func (t *Tensor) Node() *graph.Node { return t.node }

// Client returns the client of the server t is registered with.
func (t *Tensor) Client() Client { return t.client }

// Backend returns the numeric backend of t.
func (t *Tensor) Backend() tensor.Backend { return t.backend }

// IsTracked reports whether gradients flow through t.
func (t *Tensor) IsTracked() bool { return t.node.IsTracked() }

// Shape returns the shape of the forward value.
func (t *Tensor) Shape() tensor.Shape { return t.value.Shape() }

// String implements fmt.Stringer.
func (t *Tensor) String() string {
	return t.value.String() + " " + t.node.String()
}
