package runtime

import (
	"github.com/emirpasic/gods/v2/queues/linkedlistqueue"
	"github.com/emirpasic/gods/v2/sets/hashset"

	"github.com/born-ml/born/internal/autodiff/checkpoint"
	"github.com/born-ml/born/internal/autodiff/grads"
	"github.com/born-ml/born/internal/autodiff/graph"
)

// Tape groups steps by depth: bucket i holds the steps of order i+1.
// Order-0 steps are leaves and never appear on a tape.
type Tape [][]Step

// Len returns the number of steps on the tape.
func (t Tape) Len() int {
	n := 0
	for _, bucket := range t {
		n += len(bucket)
	}
	return n
}

// buildTape walks the ancestry of rootStep breadth-first. Every visited step
// is removed from steps, and the checkpoint actions of every visited node are
// moved from actions into builder. The returned tree records parent links of
// every visited node for recomputation; consumed lists the nodes whose steps
// were taken, root included.
func buildTape(
	rootStep Step,
	builder *checkpoint.Builder,
	steps map[graph.NodeID]Step,
	actions map[graph.NodeID]*checkpoint.Builder,
) (tape Tape, tree *checkpoint.NodeTree, consumed []graph.NodeID) {
	tape = make(Tape, rootStep.Order())
	tree = checkpoint.NewNodeTree()

	visited := hashset.New[graph.NodeID](rootStep.Node())
	queue := linkedlistqueue.New[Step]()
	queue.Enqueue(rootStep)

	for !queue.Empty() {
		step, _ := queue.Dequeue()
		id := step.Node()
		parents := step.Parents()
		consumed = append(consumed, id)

		tree.Insert(id, parents)
		if b, ok := actions[id]; ok {
			delete(actions, id)
			builder.Extend(b)
		}

		for _, p := range parents {
			if visited.Contains(p) {
				continue
			}
			visited.Add(p)

			// A missing step was already executed or pruned.
			parentStep, ok := steps[p]
			if !ok {
				continue
			}
			delete(steps, p)
			queue.Enqueue(parentStep)
		}

		if order := step.Order(); order > 0 {
			tape[order-1] = append(tape[order-1], step)
		}
	}

	return tape, tree, consumed
}

// executeSteps runs the tape from the deepest bucket to the shallowest, so a
// node's step runs only after every consumer has registered its gradient.
// Steps within a bucket run sequentially since they share grads.
func executeSteps(tape Tape, g *grads.Gradients, ckpt *checkpoint.Checkpointer) int {
	executed := 0
	for i := len(tape) - 1; i >= 0; i-- {
		for _, step := range tape[i] {
			step.Step(g, ckpt)
			executed++
		}
	}
	return executed
}
