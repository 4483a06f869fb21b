// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides automatic differentiation capabilities.
//
// This package implements reverse-mode automatic differentiation with
// gradient checkpointing. It wraps any backend to add autodiff capabilities.
//
// Example:
//
//	import (
//	    "github.com/born-ml/born/autodiff"
//	    "github.com/born-ml/born/backend/cpu"
//	)
//
//	func main() {
//	    backend := autodiff.New(cpu.New(), autodiff.WithCheckpointing(autodiff.BalancedCheckpointing))
//
//	    x := backend.Scalar(2).RequireGrad()
//	    y := backend.Scalar(3).RequireGrad()
//	    z := backend.Mul(backend.Add(x, y), x)
//
//	    grads := z.Backward()
//	    dx, _ := x.Grad(grads) // 2x + y = 7
//	}
package autodiff

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/born-ml/born/internal/autodiff"
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/tensor"
)

// Backend is the autodiff-enabled backend.
type Backend[B tensor.Backend] = autodiff.AutodiffBackend[B]

// Tensor is a tracked tensor handle produced by an autodiff Backend.
type Tensor = autodiff.Tensor

// Gradients holds the gradients computed by a backward pass.
type Gradients = autodiff.Gradients

// Option configures a Backend.
type Option = autodiff.Option

// Strategy selects how forward values are kept for the backward pass.
type Strategy = checkpoint.Strategy

// Checkpointing strategies.
const (
	NoCheckpointing       = checkpoint.NoCheckpointing
	BalancedCheckpointing = checkpoint.BalancedCheckpointing
)

// AmbiguousPolicy decides retain or recompute for nodes whose operation
// declared an ambiguous computing property.
type AmbiguousPolicy = checkpoint.AmbiguousPolicy

// Built-in ambiguous policies.
var (
	RetainAmbiguous    = checkpoint.RetainAmbiguous
	RecomputeAmbiguous = checkpoint.RecomputeAmbiguous
)

// New creates a new autodiff backend wrapping the given backend.
// Unset options fall back to the BORN_CHECKPOINTING and BORN_AMBIGUOUS
// environment variables.
//
// Example:
//
//	base := cpu.New()
//	backend := autodiff.New(base)
func New[B tensor.Backend](backend B, opts ...Option) *Backend[B] {
	return autodiff.New(backend, opts...)
}

// WithCheckpointing selects the checkpointing strategy.
func WithCheckpointing(s Strategy) Option {
	return autodiff.WithCheckpointing(s)
}

// WithAmbiguousPolicy selects the decision for ambiguous nodes.
func WithAmbiguousPolicy(p AmbiguousPolicy) Option {
	return autodiff.WithAmbiguousPolicy(p)
}

// WithMetrics registers the engine's Prometheus collectors with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return autodiff.WithMetrics(reg)
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return autodiff.WithLogger(l)
}

// ParseStrategy parses "none" or "balanced".
func ParseStrategy(s string) (Strategy, error) {
	return checkpoint.ParseStrategy(s)
}

// FromSlice creates a leaf tensor on b from data.
func FromSlice[T tensor.Float, B tensor.Backend](b *Backend[B], data []T, shape tensor.Shape) (*Tensor, error) {
	return autodiff.FromSlice(b, data, shape)
}
