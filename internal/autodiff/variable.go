package autodiff

import (
	"cmp"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// Operand is anything that can feed an operation: a Variable or one of the
// typed leaf handles (Input, IndexInput, Parameter).
type Operand interface {
	variable() Variable
}

// Variable is a handle to one node of a Graph together with the parameters
// reachable from it. Handles are small values; copying one does not copy the
// node.
//
// Builder methods append a new node and return its handle. The node's value
// is computed at construction, so shapes are checked immediately and Value is
// meaningful before the first Forward.
type Variable struct {
	graph  *Graph
	id     NodeID
	params []Parameter
}

func (v Variable) variable() Variable { return v }

// ID returns the node id within its graph.
func (v Variable) ID() NodeID { return v.id }

// Graph returns the owning graph.
func (v Variable) Graph() *Graph { return v.graph }

// Kind returns the operation this node performs.
func (v Variable) Kind() OpKind { return v.graph.node(v.id).kind }

// Dims returns the shape of the node's value.
func (v Variable) Dims() (r, c int) {
	return v.graph.node(v.id).value.Dims()
}

// NeedsGradient reports whether any parameter is reachable from this node.
func (v Variable) NeedsGradient() bool {
	return v.graph.node(v.id).needsGrad
}

// Parameters returns the distinct parameters reachable from this node,
// ordered by node id.
func (v Variable) Parameters() []Parameter {
	return slices.Clone(v.params)
}

// Clone returns an independent handle to the same node.
func (v Variable) Clone() Variable {
	v.params = slices.Clone(v.params)
	return v
}

// Value returns the node's current value. The matrix is owned by the graph
// and is overwritten by the next Forward.
func (v Variable) Value() *mat.Dense {
	return v.graph.node(v.id).value
}

// Forward evaluates the subgraph ending at this node and returns its value.
//
// Shared sub-expressions are evaluated once. Calling Forward again on the
// same node before the sweep is closed by Backward or Clear returns the
// cached value and is not counted as another visit, so a following Backward
// still propagates.
func (v Variable) Forward() *mat.Dense {
	if f, _ := v.graph.node(v.id).counter.Counts(); f > 0 {
		return v.Value()
	}
	v.graph.forward(v.id)
	return v.Value()
}

// Clear resets the pass counters of the subgraph, discarding a forward sweep
// that will not be backpropagated.
func (v Variable) Clear() {
	v.graph.clear(v.id)
}

// ZeroGradient resets the gradient accumulators of every reachable parameter.
func (v Variable) ZeroGradient() {
	for _, p := range v.params {
		p.accumulator().ZeroGradient()
	}
}

// Evaluations returns how many times the node was recomputed since it was
// built.
func (v Variable) Evaluations() int {
	return v.graph.node(v.id).evaluations
}

// unary appends a one-operand node.
func (v Variable) unary(kind OpKind) Variable {
	return v.graph.build(&node{kind: kind, operands: []NodeID{v.id}}, v.params)
}

// binary appends a two-operand node.
func (v Variable) binary(kind OpKind, other Operand) Variable {
	o := other.variable()
	v.sameGraph(kind, o)
	return v.graph.build(&node{kind: kind, operands: []NodeID{v.id, o.id}},
		mergeParameters(v.params, o.params))
}

func (v Variable) sameGraph(kind OpKind, o Variable) {
	if v.graph != o.graph {
		panic(fmt.Sprintf("%s: operands belong to different graphs", kind))
	}
}

// build pushes n and wraps it in a handle.
func (g *Graph) build(n *node, params []Parameter) Variable {
	return Variable{graph: g, id: g.push(n), params: params}
}

// Add returns v + other, elementwise.
func (v Variable) Add(other Operand) Variable { return v.binary(OpAdd, other) }

// Sub returns v - other, elementwise.
func (v Variable) Sub(other Operand) Variable { return v.binary(OpSub, other) }

// Mul returns v * other, elementwise.
func (v Variable) Mul(other Operand) Variable { return v.binary(OpMul, other) }

// Div returns v / other, elementwise.
func (v Variable) Div(other Operand) Variable { return v.binary(OpDiv, other) }

// Dot returns the matrix product v·other.
func (v Variable) Dot(other Operand) Variable { return v.binary(OpDot, other) }

// VectorDot returns the row-wise inner products of v and other as a column.
func (v Variable) VectorDot(other Operand) Variable { return v.binary(OpVectorDot, other) }

// Stack concatenates v and other along axis.
func (v Variable) Stack(other Operand, axis Axis) Variable {
	o := other.variable()
	v.sameGraph(OpConcat, o)
	return v.graph.build(&node{kind: OpConcat, operands: []NodeID{v.id, o.id}, axis: axis},
		mergeParameters(v.params, o.params))
}

// Slice returns the rectangular window w of v.
func (v Variable) Slice(w Window) Variable {
	return v.graph.build(&node{kind: OpSlice, operands: []NodeID{v.id}, window: w}, v.params)
}

// Pick returns the column vector whose i-th element is v[i, in[i]]. The
// index leaf must hold one column index per row of v.
func (v Variable) Pick(in IndexInput) Variable {
	v.sameGraph(OpPick, in.Variable)
	return v.graph.build(&node{kind: OpPick, operands: []NodeID{v.id, in.id}}, v.params)
}

// Clip clamps the node's current value to [lo, hi] in place. It does not
// add a node and is not differentiated; use it on a forwarded loss before
// Backward, or on a parameter to bound its stored value.
func (v Variable) Clip(lo, hi float64) {
	if lo > hi {
		panic(fmt.Sprintf("clip: empty range [%g, %g]", lo, hi))
	}
	data := raw(v.graph.node(v.id).value)
	for i, x := range data {
		data[i] = min(max(x, lo), hi)
	}
}

// T returns the transpose.
func (v Variable) T() Variable { return v.unary(OpTranspose) }

func (v Variable) Exp() Variable        { return v.unary(OpExp) }
func (v Variable) Ln() Variable         { return v.unary(OpLog) }
func (v Variable) Tanh() Variable       { return v.unary(OpTanh) }
func (v Variable) Sigmoid() Variable    { return v.unary(OpSigmoid) }
func (v Variable) ReLU() Variable       { return v.unary(OpReLU) }
func (v Variable) Square() Variable     { return v.unary(OpSquare) }
func (v Variable) Neg() Variable        { return v.unary(OpNeg) }
func (v Variable) Softmax() Variable    { return v.unary(OpSoftmax) }
func (v Variable) LogSoftmax() Variable { return v.unary(OpLogSoftmax) }

// Sum reduces every element to a 1x1 scalar.
func (v Variable) Sum() Variable { return v.unary(OpSum) }

// AddScalar returns v + s.
func (v Variable) AddScalar(s float64) Variable { return v.Add(v.constant(s)) }

// SubScalar returns v - s.
func (v Variable) SubScalar(s float64) Variable { return v.Sub(v.constant(s)) }

// MulScalar returns v * s.
func (v Variable) MulScalar(s float64) Variable { return v.Mul(v.constant(s)) }

// DivScalar returns v / s.
func (v Variable) DivScalar(s float64) Variable { return v.Div(v.constant(s)) }

// SubFrom returns s - v.
func (v Variable) SubFrom(s float64) Variable { return v.constant(s).Sub(v) }

// constant is an input shaped like v and filled with s.
func (v Variable) constant(s float64) Input {
	r, c := v.Dims()
	return v.graph.Full(r, c, s)
}

// mergeParameters returns the union of a and b, deduplicated by node and
// ordered by node id.
func mergeParameters(a, b []Parameter) []Parameter {
	if len(b) == 0 {
		return a
	}
	if len(a) == 0 {
		return b
	}
	out := make([]Parameter, 0, len(a)+len(b))
	out = append(out, a...)
	out = append(out, b...)
	slices.SortFunc(out, func(x, y Parameter) int { return cmp.Compare(x.id, y.id) })
	return slices.CompactFunc(out, func(x, y Parameter) bool { return x.id == y.id })
}
