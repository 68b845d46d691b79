// Package autodiff implements reverse-mode automatic differentiation over a
// dynamically built graph of matrix-valued operations.
//
// Architecture:
//   - Graph: an arena of nodes addressed by NodeID; operands are referenced
//     by id, so sub-expressions can be shared freely (diamonds) and cycles
//     cannot be built.
//   - OpKind: the closed set of node variants, dispatched by one evaluator
//     (evaluate) and one differentiator (differentiate).
//   - PassCounter: per-node sweep bookkeeping; shared nodes evaluate once per
//     forward sweep and propagate only after every consumer has delivered its
//     gradient contribution.
//   - Parameter leaves accumulate gradients in a GradientAccumulator and read
//     their value from a HogwildParameter, which may be shared, unlocked,
//     across graphs running on different goroutines.
//
// Usage:
//
//	g := autodiff.NewGraph()
//	x := g.Parameter(mat.NewDense(1, 1, []float64{2}))
//	z := x.Add(x)
//	z.Forward()     // 4
//	z.Backward(1.0)
//	x.Gradient()    // 2
//
// A Graph is not safe for concurrent use. Independent graphs may run on
// separate goroutines; see HogwildParameter for what they may share.
package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Graph owns the nodes of one computation graph.
type Graph struct {
	nodes []*node

	// bound maps each HogwildParameter to the single leaf backing it here.
	bound map[*HogwildParameter]NodeID
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes: make([]*node, 0, 32),
		bound: make(map[*HogwildParameter]NodeID),
	}
}

// Len returns the number of nodes in the graph.
func (g *Graph) Len() int {
	return len(g.nodes)
}

func (g *Graph) node(id NodeID) *node {
	if id < 0 || int(id) >= len(g.nodes) {
		panic(fmt.Sprintf("autodiff: node %d does not exist (graph has %d nodes)", id, len(g.nodes)))
	}
	return g.nodes[id]
}

func (g *Graph) valueOf(id NodeID) *mat.Dense {
	return g.nodes[id].value
}

// pushLeaf appends a leaf node.
func (g *Graph) pushLeaf(n *node) NodeID {
	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// push appends an operation node, evaluates it once so that its value and
// shape are known at construction, and allocates its gradient buffers.
func (g *Graph) push(n *node) NodeID {
	if len(n.operands) != n.kind.arity() {
		panic(fmt.Sprintf("%s: expected %d operands, got %d", n.kind, n.kind.arity(), len(n.operands)))
	}
	for _, op := range n.operands {
		if g.node(op).needsGrad {
			n.needsGrad = true
		}
	}

	g.evaluate(n)
	n.evaluations = 0

	n.grads = make([]*mat.Dense, len(n.operands))
	if n.kind != OpIndex {
		for i, op := range n.operands {
			operand := g.nodes[op]
			if operand.needsGrad {
				n.grads[i] = zerosLike(operand.value)
			}
		}
	}

	g.nodes = append(g.nodes, n)
	return NodeID(len(g.nodes) - 1)
}

// forward evaluates the subgraph ending at id. A node forwarded more than
// once in a sweep returns its cached value.
func (g *Graph) forward(id NodeID) {
	n := g.nodes[id]
	if n.kind.IsLeaf() {
		return
	}
	if n.counter.Forward() == Cached {
		return
	}
	for _, op := range n.operands {
		g.forward(op)
	}
	g.evaluate(n)
}

// clear resets the pass counters of the subgraph ending at id, for sweeps
// that were aborted or never backpropagated.
func (g *Graph) clear(id NodeID) {
	n := g.nodes[id]
	if n.kind.IsLeaf() || n.counter.IsZero() {
		return
	}
	n.counter.Clear()
	for _, op := range n.operands {
		g.clear(op)
	}
}

// evaluate recomputes the value of n from its operands' current values.
func (g *Graph) evaluate(n *node) {
	n.evaluations++

	switch n.kind {
	case OpAdd, OpSub, OpMul, OpDiv:
		g.evalArithmetic(n)
	case OpNeg, OpSquare, OpExp, OpLog:
		g.evalElementwise(n)
	case OpSigmoid, OpTanh, OpReLU:
		g.evalActivation(n)
	case OpSoftmax:
		g.evalSoftmax(n)
	case OpLogSoftmax:
		g.evalLogSoftmax(n)
	case OpDot:
		g.evalDot(n)
	case OpVectorDot:
		g.evalVectorDot(n)
	case OpTranspose:
		g.evalTranspose(n)
	case OpSum:
		g.evalSum(n)
	case OpIndex:
		g.evalIndex(n)
	case OpConcat:
		g.evalConcat(n)
	case OpSlice:
		g.evalSlice(n)
	case OpPick:
		g.evalPick(n)
	default:
		panic(fmt.Sprintf("autodiff: cannot evaluate %s", n.kind))
	}
}

// differentiate folds one upstream gradient into the operand gradient
// buffers of n.
func (g *Graph) differentiate(n *node, grad *mat.Dense, action BackwardAction) {
	switch n.kind {
	case OpAdd, OpSub, OpMul, OpDiv:
		g.diffArithmetic(n, grad, action)
	case OpNeg, OpSquare, OpExp, OpLog:
		g.diffElementwise(n, grad, action)
	case OpSigmoid, OpTanh, OpReLU:
		g.diffActivation(n, grad, action)
	case OpSoftmax:
		g.diffSoftmax(n, grad, action)
	case OpLogSoftmax:
		g.diffLogSoftmax(n, grad, action)
	case OpDot:
		g.diffDot(n, grad, action)
	case OpVectorDot:
		g.diffVectorDot(n, grad, action)
	case OpTranspose:
		g.diffTranspose(n, grad, action)
	case OpSum:
		g.diffSum(n, grad, action)
	case OpIndex:
		g.diffIndex(n, grad)
	case OpConcat:
		g.diffConcat(n, grad, action)
	case OpSlice:
		g.diffSlice(n, grad, action)
	case OpPick:
		g.diffPick(n, grad, action)
	default:
		panic(fmt.Sprintf("autodiff: cannot differentiate %s", n.kind))
	}
}
