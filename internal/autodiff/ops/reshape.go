package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Reshape changes the shape of x without changing its elements.
//
// Backward: the gradient is reshaped back to the input shape.
func Reshape(e *Env, x *runtime.Tensor, shape tensor.Shape) *runtime.Tensor {
	shape = shape.Clone()

	p := e.prepare(graph.MemoryBound, x)
	out := p.output(e.Backend.Reshape(x.Value(), shape))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.Reshape(in[0], shape)
	})
	return p.register(out, &reshapeStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		input:    parentOf(x),
	})
}

type reshapeStep struct {
	stepBase
	backend tensor.Backend
	input   parent
}

func (s *reshapeStep) Step(g *grads.Gradients, _ *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	s.input.register(g, s.backend.Reshape(grad, s.input.shape))
}
