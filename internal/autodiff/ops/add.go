package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Add computes a + b with broadcasting.
//
// Backward pass:
//   - d(a+b)/da = 1, so grad_a = outputGrad
//   - d(a+b)/db = 1, so grad_b = outputGrad
//
// Gradients are summed along broadcast dimensions to match input shapes.
func Add(e *Env, a, b *runtime.Tensor) *runtime.Tensor {
	p := e.prepare(graph.MemoryBound, a, b)
	out := p.output(e.Backend.Add(a.Value(), b.Value()))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.Add(in[0], in[1])
	})
	return p.register(out, &addStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		lhs:      parentOf(a),
		rhs:      parentOf(b),
	})
}

type addStep struct {
	stepBase
	backend  tensor.Backend
	lhs, rhs parent
}

func (s *addStep) Step(g *grads.Gradients, _ *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	if s.lhs.tracked() {
		s.lhs.register(g, reduceBroadcast(grad, s.lhs.shape, s.backend))
	}
	if s.rhs.tracked() {
		s.rhs.register(g, reduceBroadcast(grad, s.rhs.shape, s.backend))
	}
}
