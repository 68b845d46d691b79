package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// DataInput is implemented by leaves whose value can be replaced between
// sweeps.
type DataInput[T any] interface {
	SetValue(T)
}

var (
	_ DataInput[mat.Matrix] = Input{}
	_ DataInput[mat.Matrix] = Parameter{}
	_ DataInput[[]int]      = IndexInput{}
)

// Input is a constant data leaf. It never needs a gradient.
type Input struct {
	Variable
}

// Input adds a data leaf holding a copy of m.
func (g *Graph) Input(m mat.Matrix) Input {
	id := g.pushLeaf(&node{kind: OpInput, value: copyOf(m)})
	return Input{Variable{graph: g, id: id}}
}

// Full adds an r x c data leaf with every element set to v.
func (g *Graph) Full(r, c int, v float64) Input {
	m := mat.NewDense(r, c, nil)
	fill(m, v)
	id := g.pushLeaf(&node{kind: OpInput, value: m})
	return Input{Variable{graph: g, id: id}}
}

// Scalar adds a 1x1 data leaf.
func (g *Graph) Scalar(v float64) Input {
	return g.Full(1, 1, v)
}

// SetValue copies m into the leaf. The shape must not change.
func (in Input) SetValue(m mat.Matrix) {
	n := in.graph.node(in.id)
	mustSameDims("input", n.value, m)
	n.value.Copy(m)
}

// SetScalar sets every element of the leaf to v.
func (in Input) SetScalar(v float64) {
	fill(in.graph.node(in.id).value, v)
}

// IndexInput is a leaf holding indices for Parameter.Index and Variable.Pick.
type IndexInput struct {
	Variable
}

// IndexInput adds an index leaf.
func (g *Graph) IndexInput(indices ...int) IndexInput {
	id := g.pushLeaf(&node{kind: OpIndexInput, indices: append([]int(nil), indices...)})
	return IndexInput{Variable{graph: g, id: id}}
}

// SetValue replaces the held indices. Index nodes built on this input keep
// their shape, so the number of indices must stay the same once consumed.
func (in IndexInput) SetValue(indices []int) {
	n := in.graph.node(in.id)
	n.indices = append(n.indices[:0], indices...)
}

// SetIndex holds the single index i.
func (in IndexInput) SetIndex(i int) {
	in.SetValue([]int{i})
}

// Indices returns a copy of the held indices.
func (in IndexInput) Indices() []int {
	return append([]int(nil), in.graph.node(in.id).indices...)
}

// Dims of an index leaf is (len(indices), 1).
func (in IndexInput) Dims() (r, c int) {
	return len(in.graph.node(in.id).indices), 1
}

// Parameter is a trainable leaf. Its value lives in a HogwildParameter and
// its gradient in a per-graph GradientAccumulator.
type Parameter struct {
	Variable
}

// Parameter adds a trainable leaf initialised with a copy of m. The
// underlying HogwildParameter is private to this graph.
func (g *Graph) Parameter(m mat.Matrix) Parameter {
	return g.SharedParameter(NewHogwildParameter(m))
}

// SharedParameter adds a trainable leaf backed by hp. Several graphs,
// possibly running on different goroutines, may share hp; see the warning
// on HogwildParameter.
//
// Within one graph hp is bound to a single leaf: later calls return that
// leaf, so a module applied twice contributes one parameter whose gradient
// sums both uses.
func (g *Graph) SharedParameter(hp *HogwildParameter) Parameter {
	if hp == nil {
		panic("parameter: nil HogwildParameter")
	}
	if id, ok := g.bound[hp]; ok {
		return g.parameterAt(id)
	}
	r, c := hp.Dims()
	n := &node{
		kind:      OpParameter,
		value:     hp.value,
		needsGrad: true,
		param: &parameterState{
			shared:   hp,
			gradient: NewGradientAccumulator(r, c),
		},
	}
	id := g.pushLeaf(n)
	if g.bound == nil {
		g.bound = make(map[*HogwildParameter]NodeID)
	}
	g.bound[hp] = id
	return g.parameterAt(id)
}

func (g *Graph) parameterAt(id NodeID) Parameter {
	p := Parameter{Variable{graph: g, id: id}}
	p.params = []Parameter{{Variable{graph: g, id: id}}}
	return p
}

// Gradient returns a dense copy of the accumulated gradient, with zero rows
// where a sparse sweep left no contribution.
func (p Parameter) Gradient() *mat.Dense {
	return p.accumulator().MaterializedGradient()
}

// SetValue copies m into the parameter's storage, which is visible to every
// graph sharing it.
func (p Parameter) SetValue(m mat.Matrix) {
	v := p.Hogwild().value
	mustSameDims("parameter", v, m)
	v.Copy(m)
}

// Index selects rows of the parameter. During backward the gradient of the
// selected rows is written to the accumulator in sparse form.
func (p Parameter) Index(in IndexInput) Variable {
	p.sameGraph(OpIndex, in.Variable)
	return p.graph.build(&node{kind: OpIndex, operands: []NodeID{p.id, in.id}}, p.params)
}

// Hogwild returns the parameter's backing storage.
func (p Parameter) Hogwild() *HogwildParameter {
	return p.state().shared
}

// Accumulator returns the parameter's gradient accumulator.
func (p Parameter) Accumulator() *GradientAccumulator {
	return p.accumulator()
}

func (p Parameter) accumulator() *GradientAccumulator {
	return p.state().gradient
}

func (p Parameter) state() *parameterState {
	n := p.graph.node(p.id)
	if n.param == nil {
		panic(fmt.Sprintf("parameter: node %d is a %s", p.id, n.kind))
	}
	return n.param
}
