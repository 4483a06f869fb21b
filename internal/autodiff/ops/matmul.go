package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// MatMul multiplies 2D matrices: [M, K] @ [K, N] -> [M, N].
//
// Backward pass:
//   - d(A@B)/dA = outputGrad @ Bᵀ
//   - d(A@B)/dB = Aᵀ @ outputGrad
//
// The product is costly to rebuild, so its inputs are always retained.
func MatMul(e *Env, a, b *runtime.Tensor) *runtime.Tensor {
	p := e.prepare(graph.ComputeBound, a, b)
	out := p.output(e.Backend.MatMul(a.Value(), b.Value()))
	if !out.IsTracked() {
		return out
	}

	step := &matmulStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		lhs:      parentOf(a),
		rhs:      parentOf(b),
	}
	if a.IsTracked() {
		step.rhsValue = p.explicit(b)
	}
	if b.IsTracked() {
		step.lhsValue = p.explicit(a)
	}
	return p.register(out, step)
}

type matmulStep struct {
	stepBase
	backend            tensor.Backend
	lhs, rhs           parent
	lhsValue, rhsValue operand
}

func (s *matmulStep) Step(g *grads.Gradients, ckpt *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	if s.lhs.tracked() {
		b := s.rhsValue.retrieve(ckpt)
		s.lhs.register(g, s.backend.MatMul(grad, s.backend.Transpose(b)))
	}
	if s.rhs.tracked() {
		a := s.lhsValue.retrieve(ckpt)
		s.rhs.register(g, s.backend.MatMul(s.backend.Transpose(a), grad))
	}
}
