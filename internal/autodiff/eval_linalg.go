package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// evalDot computes the matrix product A·B.
func (g *Graph) evalDot(n *node) {
	a, b := g.valueOf(n.operands[0]), g.valueOf(n.operands[1])
	ar, ac := a.Dims()
	br, bc := b.Dims()
	if ac != br {
		panic(fmt.Sprintf("dot: inner dimensions differ: %dx%d · %dx%d", ar, ac, br, bc))
	}
	n.ensureValue(ar, bc).Mul(a, b)
}

// diffDot: dA = G·Bᵀ, dB = Aᵀ·G.
//
// cache[0] and cache[1] are scratch products shaped like A and B, used on
// Increment so that the existing buffer contents are kept.
func (g *Graph) diffDot(n *node, grad *mat.Dense, action BackwardAction) {
	a, b := g.valueOf(n.operands[0]), g.valueOf(n.operands[1])
	scratch := n.ensureCache(a, b)

	if dst := n.grads[0]; dst != nil {
		if action == Set {
			dst.Mul(grad, b.T())
		} else {
			scratch[0].Mul(grad, b.T())
			dst.Add(dst, scratch[0])
		}
	}
	if dst := n.grads[1]; dst != nil {
		if action == Set {
			dst.Mul(a.T(), grad)
		} else {
			scratch[1].Mul(a.T(), grad)
			dst.Add(dst, scratch[1])
		}
	}
}

// evalVectorDot computes the row-wise inner product of two equally shaped
// matrices, yielding a column vector with one entry per row.
func (g *Graph) evalVectorDot(n *node) {
	a, b := g.valueOf(n.operands[0]), g.valueOf(n.operands[1])
	mustSameDims("vector_dot", a, b)
	rows, _ := a.Dims()
	out := n.ensureValue(rows, 1)
	for i := 0; i < rows; i++ {
		out.Set(i, 0, floats.Dot(a.RawRowView(i), b.RawRowView(i)))
	}
}

// diffVectorDot: each row of dA is g_i·B_i and each row of dB is g_i·A_i.
func (g *Graph) diffVectorDot(n *node, grad *mat.Dense, action BackwardAction) {
	a, b := g.valueOf(n.operands[0]), g.valueOf(n.operands[1])
	rows, _ := a.Dims()

	scaleRows := func(dst, src *mat.Dense) {
		for i := 0; i < rows; i++ {
			u := grad.At(i, 0)
			d := dst.RawRowView(i)
			s := src.RawRowView(i)
			if action == Set {
				floats.ScaleTo(d, u, s)
			} else {
				floats.AddScaled(d, u, s)
			}
		}
	}
	if n.grads[0] != nil {
		scaleRows(n.grads[0], b)
	}
	if n.grads[1] != nil {
		scaleRows(n.grads[1], a)
	}
}

func (g *Graph) evalTranspose(n *node) {
	a := g.valueOf(n.operands[0])
	r, c := a.Dims()
	n.ensureValue(c, r).Copy(a.T())
}

func (g *Graph) diffTranspose(n *node, grad *mat.Dense, action BackwardAction) {
	dst := n.grads[0]
	if dst == nil {
		return
	}
	if action == Set {
		dst.Copy(grad.T())
		return
	}
	dst.Add(dst, grad.T())
}

// evalSum reduces every element to a 1x1 matrix.
func (g *Graph) evalSum(n *node) {
	a := g.valueOf(n.operands[0])
	n.ensureValue(1, 1).Set(0, 0, mat.Sum(a))
}

// diffSum broadcasts the scalar upstream gradient to every element.
func (g *Graph) diffSum(n *node, grad *mat.Dense, action BackwardAction) {
	if n.grads[0] == nil {
		return
	}
	u := grad.At(0, 0)
	dst := raw(n.grads[0])
	if action == Set {
		for i := range dst {
			dst[i] = u
		}
		return
	}
	floats.AddConst(u, dst)
}
