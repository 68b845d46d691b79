package autodiff

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// sigmoidSaturation clamps the sigmoid input; beyond it the output is
// exactly 0 or 1 and the derivative is 0.
const sigmoidSaturation = 10.0

func sigmoid(x float64) float64 {
	switch {
	case x > sigmoidSaturation:
		return 1
	case x < -sigmoidSaturation:
		return 0
	default:
		return 1 / (1 + math.Exp(-x))
	}
}

// evalActivation computes sigmoid, tanh or relu. Sigmoid and tanh cache
// their local derivative in cache[0].
func (g *Graph) evalActivation(n *node) {
	a := g.valueOf(n.operands[0])
	out := raw(n.ensureValue(a.Dims()))
	x := raw(a)

	switch n.kind {
	case OpSigmoid:
		d := raw(n.ensureCache(a)[0])
		for i, v := range x {
			s := sigmoid(v)
			out[i] = s
			d[i] = s * (1 - s)
		}
	case OpTanh:
		d := raw(n.ensureCache(a)[0])
		for i, v := range x {
			t := math.Tanh(v)
			out[i] = t
			d[i] = 1 - t*t
		}
	case OpReLU:
		for i, v := range x {
			out[i] = math.Max(v, 0)
		}
	}
}

func (g *Graph) diffActivation(n *node, grad *mat.Dense, action BackwardAction) {
	if n.grads[0] == nil {
		return
	}
	up, dst := raw(grad), raw(n.grads[0])

	switch n.kind {
	case OpSigmoid, OpTanh:
		d := raw(n.cache[0])
		for i, u := range up {
			action.store(dst, i, u*d[i])
		}
	case OpReLU:
		x := raw(g.valueOf(n.operands[0]))
		for i, u := range up {
			if x[i] > 0 {
				action.store(dst, i, u)
			} else {
				action.store(dst, i, 0)
			}
		}
	}
}

// evalSoftmax normalises over every element of the operand, treating it as a
// single flattened distribution.
func (g *Graph) evalSoftmax(n *node) {
	a := g.valueOf(n.operands[0])
	out := raw(n.ensureValue(a.Dims()))
	x := raw(a)

	hi := floats.Max(x)
	for i, v := range x {
		out[i] = math.Exp(v - hi)
	}
	floats.Scale(1/floats.Sum(out), out)
}

// diffSoftmax applies the softmax Jacobian: dx = s ∘ (g - <g, s>).
func (g *Graph) diffSoftmax(n *node, grad *mat.Dense, action BackwardAction) {
	if n.grads[0] == nil {
		return
	}
	up, dst := raw(grad), raw(n.grads[0])
	s := raw(n.value)

	inner := floats.Dot(up, s)
	for i, u := range up {
		action.store(dst, i, s[i]*(u-inner))
	}
}

// evalLogSoftmax computes x - logsumexp(x) over every element.
func (g *Graph) evalLogSoftmax(n *node) {
	a := g.valueOf(n.operands[0])
	out := raw(n.ensureValue(a.Dims()))
	x := raw(a)

	lse := floats.LogSumExp(x)
	for i, v := range x {
		out[i] = v - lse
	}
}

// diffLogSoftmax: dx = g - softmax(x) * sum(g), with softmax(x) = exp(value).
func (g *Graph) diffLogSoftmax(n *node, grad *mat.Dense, action BackwardAction) {
	if n.grads[0] == nil {
		return
	}
	up, dst := raw(grad), raw(n.grads[0])
	v := raw(n.value)

	total := floats.Sum(up)
	for i, u := range up {
		action.store(dst, i, u-math.Exp(v[i])*total)
	}
}
