// Package ops implements the differentiable operations of the autodiff
// backend.
//
// Each operation computes its forward value with the numeric backend, and
// when any input is tracked it creates the result node, records the
// checkpoint actions its backward rule needs, and registers a Step:
//   - Add, Sub: d(a±b)/da = 1, d(a±b)/db = ±1
//   - Mul: d(a*b)/da = b, d(a*b)/db = a
//   - Div: d(a/b)/da = 1/b, d(a/b)/db = -a/b²
//   - MatMul: d(A@B)/dA = grad@Bᵀ, d(A@B)/dB = Aᵀ@grad
//   - Exp, Log, Sin, Cos, Tanh, Sigmoid, Neg, scalar ops
//   - Sum, MeanDim, Reshape, Transpose
//
// Memory-bound operations also register a retro-forward so their output can
// be recomputed instead of retained under balanced checkpointing.
package ops

import (
	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
	"github.com/born-ml/born/internal/autodiff/runtime"
	"github.com/born-ml/born/internal/tensor"
)

// Env is the configuration shared by every operation of one backend.
type Env struct {
	Backend  tensor.Backend
	Strategy checkpoint.Strategy
	Policy   checkpoint.AmbiguousPolicy
}

// operand is a forward value read during backward. Tracked values go
// through the checkpointer; untracked ones are captured directly.
type operand struct {
	id  graph.NodeID
	raw *tensor.RawTensor
}

func (o operand) retrieve(ckpt *checkpoint.Checkpointer) *tensor.RawTensor {
	if o.raw != nil {
		return o.raw
	}
	return checkpoint.RetrieveNodeOutput[*tensor.RawTensor](ckpt, o.id)
}

func (o operand) get(states *checkpoint.BackwardStates) *tensor.RawTensor {
	if o.raw != nil {
		return o.raw
	}
	return checkpoint.GetAs[*tensor.RawTensor](states, o.id)
}

// prep collects what an operation registers for its result.
type prep struct {
	env      *Env
	parents  []*runtime.Tensor
	property graph.ComputingProperty
	builder  *checkpoint.Builder
}

func (e *Env) prepare(property graph.ComputingProperty, parents ...*runtime.Tensor) *prep {
	return &prep{
		env:      e,
		parents:  parents,
		property: e.Strategy.Property(property),
		builder:  checkpoint.NewBuilder(e.Policy),
	}
}

// output creates the result tensor. It is untracked when no parent is.
func (p *prep) output(value *tensor.RawTensor) *runtime.Tensor {
	nodes := make([]*graph.Node, len(p.parents))
	for i, t := range p.parents {
		nodes[i] = t.Node()
	}
	return runtime.FromParents(value, p.parents, graph.RequirementFromParents(nodes...), p.property)
}

// explicit records that the step reads t during backward.
func (p *prep) explicit(t *runtime.Tensor) operand {
	if !t.IsTracked() {
		return operand{raw: t.Value()}
	}
	p.builder.Checkpoint(t.Node(), t.Value(), checkpoint.Explicit)
	return operand{id: t.Node().ID}
}

// retroForward registers how to recompute out from the operation's parents.
// Nothing is registered for compute-bound results, which are always retained.
func (p *prep) retroForward(out *runtime.Tensor, forward func(inputs []*tensor.RawTensor) *tensor.RawTensor) {
	if p.property == graph.ComputeBound {
		return
	}

	inputs := make([]operand, len(p.parents))
	for i, t := range p.parents {
		if !t.IsTracked() {
			inputs[i] = operand{raw: t.Value()}
			continue
		}
		p.builder.Checkpoint(t.Node(), t.Value(), checkpoint.Backup)
		inputs[i] = operand{id: t.Node().ID}
	}

	p.builder.RegisterRetroForward(out.Node().ID, checkpoint.RetroForwardFunc(func(states *checkpoint.BackwardStates) any {
		values := make([]*tensor.RawTensor, len(inputs))
		for i, in := range inputs {
			values[i] = in.get(states)
		}
		return forward(values)
	}))
}

// register binds step to out.
func (p *prep) register(out *runtime.Tensor, step runtime.Step) *runtime.Tensor {
	return out.RegisterStep(step, p.builder)
}

// stepBase implements the metadata half of runtime.Step.
type stepBase struct {
	node *graph.Node
}

func (s stepBase) Node() graph.NodeID      { return s.node.ID }
func (s stepBase) Parents() []graph.NodeID { return s.node.Parents }
func (s stepBase) Order() int              { return s.node.Order }

// parent is an input that may receive a gradient.
type parent struct {
	node  *graph.Node
	shape tensor.Shape
}

func parentOf(t *runtime.Tensor) parent {
	return parent{node: t.Node(), shape: t.Shape().Clone()}
}

func (p parent) tracked() bool {
	return p.node.IsTracked()
}

func (p parent) register(g *grads.Gradients, grad *tensor.RawTensor) {
	if p.tracked() {
		g.Register(p.node.ID, grad)
	}
}
