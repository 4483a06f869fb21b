package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Mul computes a * b with broadcasting.
//
// Backward pass:
//   - d(a*b)/da = b, so grad_a = outputGrad * b
//   - d(a*b)/db = a, so grad_b = outputGrad * a
func Mul(e *Env, a, b *runtime.Tensor) *runtime.Tensor {
	p := e.prepare(graph.MemoryBound, a, b)
	out := p.output(e.Backend.Mul(a.Value(), b.Value()))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.Mul(in[0], in[1])
	})

	step := &mulStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		lhs:      parentOf(a),
		rhs:      parentOf(b),
	}
	// Each side's gradient needs the other side's value.
	if a.IsTracked() {
		step.rhsValue = p.explicit(b)
	}
	if b.IsTracked() {
		step.lhsValue = p.explicit(a)
	}
	return p.register(out, step)
}

type mulStep struct {
	stepBase
	backend            tensor.Backend
	lhs, rhs           parent
	lhsValue, rhsValue operand
}

func (s *mulStep) Step(g *grads.Gradients, ckpt *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	if s.lhs.tracked() {
		gradA := s.backend.Mul(grad, s.rhsValue.retrieve(ckpt))
		s.lhs.register(g, reduceBroadcast(gradA, s.lhs.shape, s.backend))
	}
	if s.rhs.tracked() {
		gradB := s.backend.Mul(grad, s.lhsValue.retrieve(ckpt))
		s.rhs.register(g, reduceBroadcast(gradB, s.rhs.shape, s.backend))
	}
}
