package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Div computes a / b with broadcasting.
//
// Backward pass:
//   - d(a/b)/da = 1/b, so grad_a = outputGrad / b
//   - d(a/b)/db = -a/b², so grad_b = -outputGrad * a / b²
func Div(e *Env, a, b *runtime.Tensor) *runtime.Tensor {
	p := e.prepare(graph.MemoryBound, a, b)
	out := p.output(e.Backend.Div(a.Value(), b.Value()))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.Div(in[0], in[1])
	})

	step := &divStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		lhs:      parentOf(a),
		rhs:      parentOf(b),
		rhsValue: p.explicit(b),
	}
	if b.IsTracked() {
		step.lhsValue = p.explicit(a)
	}
	return p.register(out, step)
}

type divStep struct {
	stepBase
	backend            tensor.Backend
	lhs, rhs           parent
	lhsValue, rhsValue operand
}

func (s *divStep) Step(g *grads.Gradients, ckpt *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	b := s.rhsValue.retrieve(ckpt)

	if s.lhs.tracked() {
		gradA := s.backend.Div(grad, b)
		s.lhs.register(g, reduceBroadcast(gradA, s.lhs.shape, s.backend))
	}
	if s.rhs.tracked() {
		a := s.lhsValue.retrieve(ckpt)
		gradB := s.backend.Div(s.backend.Mul(grad, a), s.backend.Mul(b, b))
		s.rhs.register(g, reduceBroadcast(negate(gradB, s.backend), s.rhs.shape, s.backend))
	}
}
