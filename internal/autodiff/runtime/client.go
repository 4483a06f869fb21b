package runtime

import (
	"sync"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/tensor"
)

// Client is the access path to a Server shared by every tensor of a backend.
type Client interface {
	Register(rc *graph.NodeRefCount, step Step, actions *checkpoint.Builder)
	Backward(root *graph.Node, rootValue *tensor.RawTensor, backend tensor.Backend) *grads.Gradients
	FreeOrphans() int
	NumSteps() int
	HasStep(id graph.NodeID) bool
	NumNodes() int
	NumGraphs() int
	SameGraph(a, b graph.NodeID) bool
}

// MutexClient serializes every Server call behind one mutex.
// Registration and backward passes are exclusive; a panicking call still
// releases the lock.
type MutexClient struct {
	mu     sync.Mutex
	server *Server
}

var _ Client = (*MutexClient)(nil)

// NewMutexClient wraps server.
func NewMutexClient(server *Server) *MutexClient {
	return &MutexClient{server: server}
}

// Register implements Client.
func (c *MutexClient) Register(rc *graph.NodeRefCount, step Step, actions *checkpoint.Builder) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.server.Register(rc, step, actions)
}

// Backward implements Client.
func (c *MutexClient) Backward(root *graph.Node, rootValue *tensor.RawTensor, backend tensor.Backend) *grads.Gradients {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.Backward(root, rootValue, backend)
}

// FreeOrphans implements Client.
func (c *MutexClient) FreeOrphans() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.FreeOrphans()
}

// NumSteps implements Client.
func (c *MutexClient) NumSteps() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.NumSteps()
}

// HasStep implements Client.
func (c *MutexClient) HasStep(id graph.NodeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.HasStep(id)
}

// NumNodes implements Client.
func (c *MutexClient) NumNodes() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.NumNodes()
}

// NumGraphs implements Client.
func (c *MutexClient) NumGraphs() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.NumGraphs()
}

// SameGraph implements Client.
func (c *MutexClient) SameGraph(a, b graph.NodeID) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.server.SameGraph(a, b)
}
