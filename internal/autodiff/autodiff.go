// Package autodiff implements reverse-mode automatic differentiation using the
// decorator pattern.
//
// AutodiffBackend wraps any Backend implementation and records a dynamic
// computation graph as tracked tensors flow through its operations.
//
// Architecture:
//   - Decorator pattern: AutodiffBackend[B] wraps any Backend implementation
//   - Server: owns the backward Step of every tracked node (internal/autodiff/runtime)
//   - Checkpointing: forward values are retained or recomputed per node
//   - Memory manager: graphs no live tensor refers to are reclaimed
//
// Usage:
//
//	b := autodiff.New(cpu.New())
//	x := b.MustFromSlice([]float64{2}, tensor.Shape{1}).RequireGrad()
//	y := b.Mul(x, x) // y = x²
//
//	grads := y.Backward()
//	g, _ := x.Grad(grads) // dy/dx = 2x = 4.0
package autodiff

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/ops"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/envconfig"
	"github.com/born-ml/born/internal/tensor"
)

// Tensor is a tracked tensor handle.
type Tensor = runtime.Tensor

// Gradients holds the result of a backward pass.
type Gradients = grads.Gradients

// AutodiffBackend wraps a Backend and adds automatic differentiation.
//
// Type parameter B must satisfy the tensor.Backend interface.
type AutodiffBackend[B tensor.Backend] struct {
	inner   B
	env     *ops.Env
	client  runtime.Client
	metrics *runtime.Metrics
}

type options struct {
	strategy   checkpoint.Strategy
	policy     checkpoint.AmbiguousPolicy
	registerer prometheus.Registerer
	logger     *slog.Logger
}

// Option configures an AutodiffBackend.
type Option func(*options)

// WithCheckpointing selects the checkpointing strategy.
// Defaults to BORN_CHECKPOINTING.
func WithCheckpointing(s checkpoint.Strategy) Option {
	return func(o *options) { o.strategy = s }
}

// WithAmbiguousPolicy sets how ambiguous nodes are checkpointed.
// Defaults to BORN_AMBIGUOUS.
func WithAmbiguousPolicy(p checkpoint.AmbiguousPolicy) Option {
	return func(o *options) { o.policy = p }
}

// WithMetrics registers the backend's metrics with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(o *options) { o.registerer = reg }
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// New creates a new AutodiffBackend wrapping the given backend.
// Every backend owns its own server; tensors of different backends never
// share a graph.
func New[B tensor.Backend](backend B, opts ...Option) *AutodiffBackend[B] {
	o := options{
		strategy: envconfig.Checkpointing(),
		policy:   envconfig.AmbiguousPolicy(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	metrics := runtime.NewMetrics(o.registerer)
	server := runtime.NewServer(runtime.WithMetrics(metrics), runtime.WithLogger(o.logger))

	return &AutodiffBackend[B]{
		inner: backend,
		env: &ops.Env{
			Backend:  backend,
			Strategy: o.strategy,
			Policy:   o.policy,
		},
		client:  runtime.NewMutexClient(server),
		metrics: metrics,
	}
}

// Inner returns the wrapped backend for direct access.
func (b *AutodiffBackend[B]) Inner() B {
	return b.inner
}

// Name returns the backend name.
func (b *AutodiffBackend[B]) Name() string {
	return "Autodiff(" + b.inner.Name() + ")"
}

// Device returns the compute device.
func (b *AutodiffBackend[B]) Device() tensor.Device {
	return b.inner.Device()
}

// Strategy returns the checkpointing strategy.
func (b *AutodiffBackend[B]) Strategy() checkpoint.Strategy {
	return b.env.Strategy
}

// Client returns the client of the backend's server.
func (b *AutodiffBackend[B]) Client() runtime.Client {
	return b.client
}

// Metrics returns the backend's collectors.
func (b *AutodiffBackend[B]) Metrics() *runtime.Metrics {
	return b.metrics
}

// FreeOrphans reclaims every node no live tensor can reach and returns the
// number of nodes freed. Backward passes do this on their own.
func (b *AutodiffBackend[B]) FreeOrphans() int {
	return b.client.FreeOrphans()
}

// Leaf wraps raw in an untracked tensor. Call RequireGrad to track it.
func (b *AutodiffBackend[B]) Leaf(raw *tensor.RawTensor) *Tensor {
	return runtime.NewLeaf(b.client, b.inner, raw)
}

// FromSlice creates an untracked tensor holding a copy of data.
func FromSlice[T tensor.Float, B tensor.Backend](b *AutodiffBackend[B], data []T, shape tensor.Shape) (*Tensor, error) {
	raw, err := tensor.FromSlice(data, shape, b.inner.Device())
	if err != nil {
		return nil, err
	}
	return b.Leaf(raw), nil
}

// MustFromSlice is FromSlice for float64 data that panics on error.
func (b *AutodiffBackend[B]) MustFromSlice(data []float64, shape tensor.Shape) *Tensor {
	t, err := FromSlice(b, data, shape)
	if err != nil {
		panic(err)
	}
	return t
}

// Scalar creates an untracked rank-0 float64 tensor.
func (b *AutodiffBackend[B]) Scalar(value float64) *Tensor {
	return b.Leaf(tensor.Scalar(value, tensor.Float64, b.inner.Device()))
}
