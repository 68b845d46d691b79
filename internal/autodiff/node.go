package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// NodeID addresses a node inside its Graph.
type NodeID int

// OpKind is the closed set of node variants.
type OpKind uint8

// Node kinds. The first three are leaves.
const (
	OpInput OpKind = iota
	OpIndexInput
	OpParameter
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpDot
	OpVectorDot
	OpTranspose
	OpExp
	OpLog
	OpSigmoid
	OpTanh
	OpReLU
	OpSoftmax
	OpLogSoftmax
	OpSquare
	OpSum
	OpNeg
	OpIndex
	OpConcat
	OpSlice
	OpPick
)

var opNames = [...]string{
	OpInput:      "input",
	OpIndexInput: "index_input",
	OpParameter:  "parameter",
	OpAdd:        "add",
	OpSub:        "sub",
	OpMul:        "mul",
	OpDiv:        "div",
	OpDot:        "dot",
	OpVectorDot:  "vector_dot",
	OpTranspose:  "transpose",
	OpExp:        "exp",
	OpLog:        "ln",
	OpSigmoid:    "sigmoid",
	OpTanh:       "tanh",
	OpReLU:       "relu",
	OpSoftmax:    "softmax",
	OpLogSoftmax: "log_softmax",
	OpSquare:     "square",
	OpSum:        "sum",
	OpNeg:        "neg",
	OpIndex:      "index",
	OpConcat:     "concat",
	OpSlice:      "slice",
	OpPick:       "pick",
}

// String returns the operation name.
func (k OpKind) String() string {
	if int(k) < len(opNames) {
		return opNames[k]
	}
	return fmt.Sprintf("OpKind(%d)", k)
}

// IsLeaf reports whether nodes of this kind have no operands.
func (k OpKind) IsLeaf() bool {
	return k <= OpParameter
}

// arity is the number of operands a node of this kind takes.
func (k OpKind) arity() int {
	switch k {
	case OpInput, OpIndexInput, OpParameter:
		return 0
	case OpAdd, OpSub, OpMul, OpDiv, OpDot, OpVectorDot, OpIndex, OpConcat, OpPick:
		return 2
	default:
		return 1
	}
}

// Axis selects the stacking direction of a concatenation.
type Axis uint8

const (
	// Rows stacks operands vertically (operands share the column count).
	Rows Axis = iota
	// Columns stacks operands horizontally (operands share the row count).
	Columns
)

// Window is a half-open rectangular region [Row0, Row1) x [Col0, Col1).
type Window struct {
	Row0, Row1 int
	Col0, Col1 int
}

// Dims returns the size of the window.
func (w Window) Dims() (r, c int) {
	return w.Row1 - w.Row0, w.Col1 - w.Col0
}

func (w Window) within(r, c int) bool {
	return w.Row0 >= 0 && w.Col0 >= 0 &&
		w.Row0 < w.Row1 && w.Col0 < w.Col1 &&
		w.Row1 <= r && w.Col1 <= c
}

// node is one arena entry. Every buffer it points to is owned by the node,
// except value for parameter nodes, which aliases the HogwildParameter.
type node struct {
	kind     OpKind
	operands []NodeID

	value *mat.Dense
	// grads holds one buffer per operand; nil where the operand does not
	// need a gradient.
	grads []*mat.Dense
	// cache holds derivative quantities computed at forward time plus
	// scratch space; its layout is private to each kind.
	cache []*mat.Dense
	seed  *mat.Dense

	counter     PassCounter
	needsGrad   bool
	evaluations int

	// indices: held value of an IndexInput, snapshot taken at forward for
	// Index and Pick.
	indices []int
	param   *parameterState
	axis    Axis
	window  Window
}

type parameterState struct {
	shared   *HogwildParameter
	gradient *GradientAccumulator
}
