package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Operator evaluates a single operation outside of a user-built graph and
// returns the gradients with respect to its inputs.
//
// Example:
//
//	add := autodiff.NewOperator(autodiff.OpAdd)
//	out := add.Forward(a, b)
//	da := add.Backward(nil) // unit upstream gradient
type Operator struct {
	kind   OpKind
	axis   Axis
	window Window

	graph *Graph
	out   NodeID
}

// OperatorOption configures an Operator.
type OperatorOption func(*Operator)

// WithAxis sets the stacking axis of a concat operator.
func WithAxis(axis Axis) OperatorOption {
	return func(o *Operator) { o.axis = axis }
}

// WithWindow sets the window of a slice operator.
func WithWindow(w Window) OperatorOption {
	return func(o *Operator) { o.window = w }
}

// NewOperator creates an operator for kind. Leaf kinds are rejected, as are
// Index, which needs a parameter operand, and Pick, which needs an index leaf.
func NewOperator(kind OpKind, opts ...OperatorOption) *Operator {
	if kind.IsLeaf() || kind == OpIndex || kind == OpPick || int(kind) >= len(opNames) {
		panic(fmt.Sprintf("operator: %s cannot be used as a standalone operator", kind))
	}
	o := &Operator{kind: kind}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Forward evaluates the operation on inputs and returns a copy of the
// result. Each call starts from a fresh graph.
func (o *Operator) Forward(inputs ...mat.Matrix) *mat.Dense {
	if len(inputs) != o.kind.arity() {
		panic(fmt.Sprintf("%s: expected %d inputs, got %d", o.kind, o.kind.arity(), len(inputs)))
	}

	g := NewGraph()
	operands := make([]NodeID, len(inputs))
	for i, m := range inputs {
		// Inputs are marked as needing a gradient so that the operation
		// allocates buffers for them.
		operands[i] = g.pushLeaf(&node{kind: OpInput, value: copyOf(m), needsGrad: true})
	}
	o.graph = g
	o.out = g.push(&node{kind: o.kind, operands: operands, axis: o.axis, window: o.window})
	g.forward(o.out)

	return copyOf(g.valueOf(o.out))
}

// Backward returns the gradient of the output with respect to each input,
// given the upstream gradient grad. A nil grad stands for all ones.
func (o *Operator) Backward(grad mat.Matrix) []*mat.Dense {
	if o.graph == nil {
		panic(fmt.Sprintf("%s: Backward called before Forward", o.kind))
	}
	n := o.graph.nodes[o.out]

	seed := zerosLike(n.value)
	if grad == nil {
		fill(seed, 1)
	} else {
		mustSameDims(o.kind.String(), seed, grad)
		seed.Copy(grad)
	}
	o.graph.backward(o.out, seed)
	// The sweep is closed; the next Backward needs a new Forward.
	o.graph = nil

	out := make([]*mat.Dense, len(n.grads))
	for i, gr := range n.grads {
		out[i] = copyOf(gr)
	}
	return out
}
