package runtime

import (
	"log/slog"
	"time"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/tensor"
)

// Server is the registry of one autodiff backend. It is not safe for
// concurrent use; wrap it in a MutexClient.
type Server struct {
	steps   map[graph.NodeID]Step
	actions map[graph.NodeID]*checkpoint.Builder
	memory  *memoryManager
	metrics *Metrics
	logger  *slog.Logger
}

// ServerOption configures a Server.
type ServerOption func(*Server)

// WithMetrics reports server activity to m.
func WithMetrics(m *Metrics) ServerOption {
	return func(s *Server) {
		if m != nil {
			s.metrics = m
		}
	}
}

// WithLogger sets the logger for debug output.
func WithLogger(l *slog.Logger) ServerOption {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewServer creates an empty server.
func NewServer(opts ...ServerOption) *Server {
	s := &Server{
		steps:   make(map[graph.NodeID]Step),
		actions: make(map[graph.NodeID]*checkpoint.Builder),
		memory:  newMemoryManager(),
		metrics: NewMetrics(nil),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores the step of the node behind rc together with the checkpoint
// actions its operation recorded. A node can only be registered once.
func (s *Server) Register(rc *graph.NodeRefCount, step Step, actions *checkpoint.Builder) {
	id := rc.ID()
	if step.Node() != id {
		graph.Panicf(graph.ErrStepNodeMismatch, "register: step of %s bound to handle of %s", step.Node(), id)
	}
	if _, ok := s.steps[id]; ok {
		graph.Panicf(graph.ErrDoubleRegistration, "register: %s", id)
	}

	s.steps[id] = step
	if actions != nil {
		s.actions[id] = actions
	}
	s.memory.register(rc, step.Parents())

	s.metrics.StepsRegistered.Inc()
	s.metrics.LiveSteps.Set(float64(len(s.steps)))
	s.metrics.Graphs.Set(float64(s.memory.numGraphs()))
}

// Backward runs the backward pass from root, whose forward value is
// rootValue, and returns the resulting gradients. Every step reached is
// consumed and its node leaves the memory manager. Unreachable nodes are
// reclaimed before returning.
//
// Panics if root has no registered step.
func (s *Server) Backward(root *graph.Node, rootValue *tensor.RawTensor, backend tensor.Backend) *grads.Gradients {
	start := time.Now()

	rootStep, ok := s.steps[root.ID]
	if !ok {
		graph.Panicf(graph.ErrMissingRootStep,
			"backward: %s has no registered step (did you forget to mark a tensor as requiring gradients?)", root.ID)
	}
	delete(s.steps, root.ID)

	builder := checkpoint.NewBuilder(nil)
	if b, ok := s.actions[root.ID]; ok {
		delete(s.actions, root.ID)
		builder.Extend(b)
	}

	g := grads.New(root, rootValue, backend)
	tape, tree, consumed := buildTape(rootStep, builder, s.steps, s.actions)
	ckpt := builder.Build(tree)
	executed := executeSteps(tape, g, ckpt)

	s.memory.forget(consumed)
	freed := s.FreeOrphans()

	s.metrics.BackwardPasses.Inc()
	s.metrics.StepsExecuted.Add(float64(executed))
	s.metrics.Recomputations.Add(float64(ckpt.RetroForwardCalls()))
	s.metrics.BackwardDuration.Observe(time.Since(start).Seconds())
	s.metrics.LiveSteps.Set(float64(len(s.steps)))
	s.metrics.Graphs.Set(float64(s.memory.numGraphs()))

	s.logger.Debug("backward",
		"root", root.ID,
		"depth", len(tape),
		"steps", executed,
		"recomputed", ckpt.RetroForwardCalls(),
		"freed", freed,
	)

	return g
}

// FreeOrphans reclaims every node that is neither referenced nor an ancestor
// of a referenced node, and returns the number of nodes freed.
func (s *Server) FreeOrphans() int {
	orphans := s.memory.findOrphanGraphs()
	freed := 0
	for _, gid := range orphans {
		freed += s.memory.freeGraph(gid, func(id graph.NodeID) {
			delete(s.steps, id)
			delete(s.actions, id)
		})
	}

	if len(orphans) > 0 {
		s.metrics.GraphsFreed.Add(float64(len(orphans)))
		s.metrics.NodesFreed.Add(float64(freed))
		s.metrics.LiveSteps.Set(float64(len(s.steps)))
		s.metrics.Graphs.Set(float64(s.memory.numGraphs()))
		s.logger.Debug("freed orphan graphs", "graphs", len(orphans), "nodes", freed)
	}
	return freed
}

// NumSteps returns the number of registered steps not yet consumed.
func (s *Server) NumSteps() int {
	return len(s.steps)
}

// HasStep reports whether id still has a registered step.
func (s *Server) HasStep(id graph.NodeID) bool {
	_, ok := s.steps[id]
	return ok
}

// NumNodes returns the number of nodes the memory manager tracks.
func (s *Server) NumNodes() int {
	return s.memory.numNodes()
}

// NumGraphs returns the number of connected graphs being tracked.
func (s *Server) NumGraphs() int {
	return s.memory.numGraphs()
}

// SameGraph reports whether a and b belong to the same tracked graph.
func (s *Server) SameGraph(a, b graph.NodeID) bool {
	ga, ok := s.memory.graphOf(a)
	if !ok {
		return false
	}
	gb, ok := s.memory.graphOf(b)
	return ok && ga == gb
}
