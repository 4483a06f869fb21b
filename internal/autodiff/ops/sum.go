package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Sum adds every element of x into a scalar.
//
// Backward: each element receives the scalar output gradient.
func Sum(e *Env, x *runtime.Tensor) *runtime.Tensor {
	p := e.prepare(graph.Ambiguous, x)
	out := p.output(e.Backend.Sum(x.Value()))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.Sum(in[0])
	})
	return p.register(out, &sumStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		input:    parentOf(x),
	})
}

type sumStep struct {
	stepBase
	backend tensor.Backend
	input   parent
}

func (s *sumStep) Step(g *grads.Gradients, _ *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	s.input.register(g, s.backend.Expand(grad, s.input.shape))
}
