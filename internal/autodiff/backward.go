package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// backward delivers one gradient contribution to node id.
//
// Algorithm:
//  1. Leaves: inputs ignore the gradient, parameters accumulate it.
//  2. Record the contribution on the PassCounter (Set for the first one of
//     the sweep, Increment afterwards) and fold it into the operand gradient
//     buffers.
//  3. Only when the number of contributions matches the number of forward
//     visits is the gradient complete; then it is sent to the operands.
//
// Nodes that need no gradient still count and recurse so that their counters
// (and those of their operands) are reset for the next sweep.
func (g *Graph) backward(id NodeID, grad *mat.Dense) {
	n := g.nodes[id]
	switch n.kind {
	case OpInput, OpIndexInput:
		return
	case OpParameter:
		n.param.gradient.AddDense(grad)
		return
	}

	action := n.counter.Backward()
	if n.needsGrad {
		g.differentiate(n, grad, action)
	}
	if !n.counter.RecurseBackward() {
		return
	}

	// Index writes straight into the parameter's accumulator.
	if n.kind == OpIndex {
		return
	}
	for i, op := range n.operands {
		g.backward(op, n.grads[i])
	}
}

// Backward runs the backward sweep from this node, seeding it with weight
// broadcast to the node's shape. Forward must have been called first.
func (v Variable) Backward(weight float64) {
	n := v.graph.node(v.id)
	if n.value == nil {
		panic(fmt.Sprintf("backward: %s node has no matrix value", n.kind))
	}
	if n.seed == nil {
		n.seed = zerosLike(n.value)
	}
	fill(n.seed, weight)
	v.graph.backward(v.id, n.seed)
}
