package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Transpose permutes the dimensions of x. Without axes, all dimensions are
// reversed.
//
// Backward: the gradient is transposed by the inverse permutation.
func Transpose(e *Env, x *runtime.Tensor, axes ...int) *runtime.Tensor {
	if len(axes) == 0 {
		ndim := x.Shape().Rank()
		axes = make([]int, ndim)
		for i := range axes {
			axes[i] = ndim - 1 - i
		}
	} else {
		axes = append([]int(nil), axes...)
	}

	p := e.prepare(graph.MemoryBound, x)
	out := p.output(e.Backend.Transpose(x.Value(), axes...))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return e.Backend.Transpose(in[0], axes...)
	})
	return p.register(out, &transposeStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		input:    parentOf(x),
		inverse:  inversePermutation(axes),
	})
}

type transposeStep struct {
	stepBase
	backend tensor.Backend
	input   parent
	inverse []int
}

func (s *transposeStep) Step(g *grads.Gradients, _ *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)
	s.input.register(g, s.backend.Transpose(grad, s.inverse...))
}
