package ops

import (
	"fmt"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// MeanDim averages x along dim. Negative dims count from the end.
//
// Backward:
//
//	grad_x = broadcast(grad_y, x.shape) / size[dim]
//
// With keepDim=false the gradient is first reshaped to keep the reduced axis.
func MeanDim(e *Env, x *runtime.Tensor, dim int, keepDim bool) *runtime.Tensor {
	rank := x.Shape().Rank()
	if dim < 0 {
		dim += rank
	}
	if dim < 0 || dim >= rank {
		panic(fmt.Sprintf("meandim: dimension %d out of range for %dD tensor", dim, rank))
	}
	scale := 1 / float64(x.Shape()[dim])

	forward := func(in *tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.MulScalar(e.Backend.SumDim(in, dim, keepDim), scale)
	}

	p := e.prepare(graph.MemoryBound, x)
	out := p.output(forward(x.Value()))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return forward(in[0])
	})

	kept := x.Shape().Clone()
	kept[dim] = 1
	return p.register(out, &meanDimStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		input:    parentOf(x),
		kept:     kept,
		scale:    scale,
	})
}

type meanDimStep struct {
	stepBase
	backend tensor.Backend
	input   parent
	kept    tensor.Shape
	scale   float64
}

func (s *meanDimStep) Step(g *grads.Gradients, _ *checkpoint.Checkpointer) {
	grad := s.backend.Reshape(g.Consume(s.node), s.kept)
	s.input.register(g, s.backend.MulScalar(s.backend.Expand(grad, s.input.shape), s.scale))
}
