package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// unaryRule computes the input gradient from the output gradient and the
// forward value the rule declared it needs.
type unaryRule func(backend tensor.Backend, grad, saved *tensor.RawTensor) *tensor.RawTensor

// saveKind says which forward value a unary backward rule reads.
type saveKind int

const (
	saveNone saveKind = iota
	saveInput
	saveOutput
)

// unary runs an element-wise operation and registers its backward rule.
func unary(
	e *Env,
	x *runtime.Tensor,
	property graph.ComputingProperty,
	forward func(*tensor.RawTensor) *tensor.RawTensor,
	save saveKind,
	rule unaryRule,
) *runtime.Tensor {
	p := e.prepare(property, x)
	out := p.output(forward(x.Value()))
	if !out.IsTracked() {
		return out
	}

	p.retroForward(out, func(in []*tensor.RawTensor) *tensor.RawTensor {
		return forward(in[0])
	})

	step := &unaryStep{
		stepBase: stepBase{out.Node()},
		backend:  e.Backend,
		input:    parentOf(x),
		rule:     rule,
		save:     save,
	}
	switch save {
	case saveInput:
		step.saved = p.explicit(x)
	case saveOutput:
		step.saved = p.explicit(out)
	}
	return p.register(out, step)
}

type unaryStep struct {
	stepBase
	backend tensor.Backend
	input   parent
	rule    unaryRule
	save    saveKind
	saved   operand
}

func (s *unaryStep) Step(g *grads.Gradients, ckpt *checkpoint.Checkpointer) {
	grad := g.Consume(s.node)

	var saved *tensor.RawTensor
	if s.save != saveNone {
		saved = s.saved.retrieve(ckpt)
	}
	s.input.register(g, s.rule(s.backend, grad, saved))
}
