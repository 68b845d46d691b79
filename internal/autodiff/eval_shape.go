package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// evalIndex gathers rows of the parameter operand selected by the index
// input. The indices are snapshotted so that backward scatters into the
// rows that produced the value even if the input is mutated in between.
func (g *Graph) evalIndex(n *node) {
	param, in := g.nodes[n.operands[0]], g.nodes[n.operands[1]]
	rows, cols := param.value.Dims()

	if len(in.indices) == 0 {
		panic("index: no indices to select")
	}
	n.indices = append(n.indices[:0], in.indices...)
	out := n.ensureValue(len(n.indices), cols)
	for i, row := range n.indices {
		if row < 0 || row >= rows {
			panic(fmt.Sprintf("index: row %d out of range [0, %d)", row, rows))
		}
		copy(out.RawRowView(i), param.value.RawRowView(row))
	}
}

// diffIndex writes each upstream row into the parameter's accumulator as a
// sparse row; the parameter node is not visited.
func (g *Graph) diffIndex(n *node, grad *mat.Dense) {
	acc := g.nodes[n.operands[0]].param.gradient
	for i, row := range n.indices {
		acc.AddSparseRow(row, grad.RawRowView(i))
	}
}

// evalPick selects one column per row, a[i, indices[i]], as a column.
func (g *Graph) evalPick(n *node) {
	a, in := g.valueOf(n.operands[0]), g.nodes[n.operands[1]]
	rows, cols := a.Dims()
	if len(in.indices) != rows {
		panic(fmt.Sprintf("pick: %d indices for %d rows", len(in.indices), rows))
	}

	n.indices = append(n.indices[:0], in.indices...)
	out := raw(n.ensureValue(rows, 1))
	for i, col := range n.indices {
		if col < 0 || col >= cols {
			panic(fmt.Sprintf("pick: column %d out of range [0, %d)", col, cols))
		}
		out[i] = a.At(i, col)
	}
}

// diffPick routes each upstream element back to the column it was picked
// from; every other element of the operand gradient is zero.
func (g *Graph) diffPick(n *node, grad *mat.Dense, action BackwardAction) {
	dst := n.grads[0]
	if dst == nil {
		return
	}
	if action == Set {
		dst.Zero()
	}
	up := raw(grad)
	for i, col := range n.indices {
		dst.Set(i, col, dst.At(i, col)+up[i])
	}
}

// evalConcat stacks two operands along the node's axis.
func (g *Graph) evalConcat(n *node) {
	a, b := g.valueOf(n.operands[0]), g.valueOf(n.operands[1])
	ar, ac := a.Dims()
	br, bc := b.Dims()

	switch n.axis {
	case Rows:
		if ac != bc {
			panic(fmt.Sprintf("concat: row stacking needs equal columns, got %d and %d", ac, bc))
		}
		out := n.ensureValue(ar+br, ac)
		out.Slice(0, ar, 0, ac).(*mat.Dense).Copy(a)
		out.Slice(ar, ar+br, 0, ac).(*mat.Dense).Copy(b)
	case Columns:
		if ar != br {
			panic(fmt.Sprintf("concat: column stacking needs equal rows, got %d and %d", ar, br))
		}
		out := n.ensureValue(ar, ac+bc)
		out.Slice(0, ar, 0, ac).(*mat.Dense).Copy(a)
		out.Slice(0, ar, ac, ac+bc).(*mat.Dense).Copy(b)
	default:
		panic(fmt.Sprintf("concat: unknown axis %d", n.axis))
	}
}

// diffConcat splits the upstream gradient back into the operand shapes.
func (g *Graph) diffConcat(n *node, grad *mat.Dense, action BackwardAction) {
	ar, ac := g.valueOf(n.operands[0]).Dims()
	br, bc := g.valueOf(n.operands[1]).Dims()

	var lhs, rhs mat.Matrix
	if n.axis == Rows {
		lhs = grad.Slice(0, ar, 0, ac)
		rhs = grad.Slice(ar, ar+br, 0, bc)
	} else {
		lhs = grad.Slice(0, ar, 0, ac)
		rhs = grad.Slice(0, br, ac, ac+bc)
	}
	storeMatrix(n.grads[0], lhs, action)
	storeMatrix(n.grads[1], rhs, action)
}

// evalSlice copies a rectangular window of the operand.
func (g *Graph) evalSlice(n *node) {
	a := g.valueOf(n.operands[0])
	r, c := a.Dims()
	w := n.window
	if !w.within(r, c) {
		panic(fmt.Sprintf("slice: window [%d:%d, %d:%d] outside %dx%d",
			w.Row0, w.Row1, w.Col0, w.Col1, r, c))
	}
	n.ensureValue(w.Dims()).Copy(a.Slice(w.Row0, w.Row1, w.Col0, w.Col1))
}

// diffSlice routes the upstream gradient into the window; elements outside
// it receive zero.
func (g *Graph) diffSlice(n *node, grad *mat.Dense, action BackwardAction) {
	dst := n.grads[0]
	if dst == nil {
		return
	}
	if action == Set {
		dst.Zero()
	}
	w := n.window
	view := dst.Slice(w.Row0, w.Row1, w.Col0, w.Col1).(*mat.Dense)
	view.Add(view, grad)
}

// storeMatrix writes src into dst (Set) or adds it (Increment). dst may be
// nil when the operand needs no gradient.
func storeMatrix(dst *mat.Dense, src mat.Matrix, action BackwardAction) {
	if dst == nil {
		return
	}
	if action == Set {
		dst.Copy(src)
		return
	}
	dst.Add(dst, src)
}
