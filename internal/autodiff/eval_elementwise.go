package autodiff

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// evalArithmetic computes a (+|-|*|/) b elementwise.
//
// Division also caches its local derivatives:
//
//	cache[0] = 1/b        (d(a/b)/da)
//	cache[1] = -a/b²      (d(a/b)/db)
//
// with zero substituted where b == 0 or the quotient is NaN.
func (g *Graph) evalArithmetic(n *node) {
	a, b := g.valueOf(n.operands[0]), g.valueOf(n.operands[1])
	mustSameDims(n.kind.String(), a, b)
	out := raw(n.ensureValue(a.Dims()))
	x, y := raw(a), raw(b)

	switch n.kind {
	case OpAdd:
		floats.AddTo(out, x, y)
	case OpSub:
		floats.SubTo(out, x, y)
	case OpMul:
		floats.MulTo(out, x, y)
	case OpDiv:
		floats.DivTo(out, x, y)
		cache := n.ensureCache(a, b)
		inv, neg := raw(cache[0]), raw(cache[1])
		for i := range out {
			inv[i] = divDerivative(1, y[i])
			neg[i] = divDerivative(-x[i], y[i]*y[i])
		}
	}
}

// divDerivative returns num/den, or 0 for a zero denominator or NaN result.
func divDerivative(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	q := num / den
	if math.IsNaN(q) {
		return 0
	}
	return q
}

func (g *Graph) diffArithmetic(n *node, grad *mat.Dense, action BackwardAction) {
	up := raw(grad)
	lhs, rhs := n.grads[0], n.grads[1]

	switch n.kind {
	case OpAdd, OpSub:
		if lhs != nil {
			accumulate(raw(lhs), up, action)
		}
		if rhs != nil {
			if n.kind == OpAdd {
				accumulate(raw(rhs), up, action)
			} else {
				dst := raw(rhs)
				for i, u := range up {
					action.store(dst, i, -u)
				}
			}
		}
	case OpMul:
		x, y := raw(g.valueOf(n.operands[0])), raw(g.valueOf(n.operands[1]))
		if lhs != nil {
			dst := raw(lhs)
			for i, u := range up {
				action.store(dst, i, u*y[i])
			}
		}
		if rhs != nil {
			dst := raw(rhs)
			for i, u := range up {
				action.store(dst, i, u*x[i])
			}
		}
	case OpDiv:
		inv, neg := raw(n.cache[0]), raw(n.cache[1])
		if lhs != nil {
			dst := raw(lhs)
			for i, u := range up {
				action.store(dst, i, u*inv[i])
			}
		}
		if rhs != nil {
			dst := raw(rhs)
			for i, u := range up {
				action.store(dst, i, u*neg[i])
			}
		}
	}
}

// evalElementwise computes the unary maps neg, square, exp and ln.
func (g *Graph) evalElementwise(n *node) {
	a := g.valueOf(n.operands[0])
	out := raw(n.ensureValue(a.Dims()))
	x := raw(a)

	switch n.kind {
	case OpNeg:
		floats.ScaleTo(out, -1, x)
	case OpSquare:
		floats.MulTo(out, x, x)
	case OpExp:
		for i, v := range x {
			out[i] = math.Exp(v)
		}
	case OpLog:
		for i, v := range x {
			out[i] = math.Log(v)
		}
	}
}

func (g *Graph) diffElementwise(n *node, grad *mat.Dense, action BackwardAction) {
	if n.grads[0] == nil {
		return
	}
	up, dst := raw(grad), raw(n.grads[0])
	x := raw(g.valueOf(n.operands[0]))

	switch n.kind {
	case OpNeg:
		for i, u := range up {
			action.store(dst, i, -u)
		}
	case OpSquare:
		for i, u := range up {
			action.store(dst, i, 2*x[i]*u)
		}
	case OpExp:
		value := raw(n.value)
		for i, u := range up {
			action.store(dst, i, value[i]*u)
		}
	case OpLog:
		for i, u := range up {
			action.store(dst, i, u/x[i])
		}
	}
}

// accumulate copies src into dst on Set and adds it on Increment.
func accumulate(dst, src []float64, action BackwardAction) {
	if action == Set {
		copy(dst, src)
		return
	}
	floats.Add(dst, src)
}
