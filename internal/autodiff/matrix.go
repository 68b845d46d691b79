package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// raw returns the backing slice of a contiguous matrix. Every buffer the
// graph allocates is contiguous; user matrices are copied on entry.
func raw(m *mat.Dense) []float64 {
	rm := m.RawMatrix()
	if rm.Stride != rm.Cols {
		panic(fmt.Sprintf("autodiff: matrix %dx%d is not contiguous (stride %d)", rm.Rows, rm.Cols, rm.Stride))
	}
	return rm.Data[:rm.Rows*rm.Cols]
}

// zerosLike allocates a zero matrix with the dimensions of m.
func zerosLike(m mat.Matrix) *mat.Dense {
	r, c := m.Dims()
	return mat.NewDense(r, c, nil)
}

// copyOf returns a contiguous copy of m.
func copyOf(m mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(m)
}

func fill(m *mat.Dense, v float64) {
	data := raw(m)
	for i := range data {
		data[i] = v
	}
}

func sameDims(a, b mat.Matrix) bool {
	ar, ac := a.Dims()
	br, bc := b.Dims()
	return ar == br && ac == bc
}

func mustSameDims(op string, a, b mat.Matrix) {
	if !sameDims(a, b) {
		ar, ac := a.Dims()
		br, bc := b.Dims()
		panic(fmt.Sprintf("%s: shape mismatch %dx%d vs %dx%d", op, ar, ac, br, bc))
	}
}

// ensureValue allocates the node value on first evaluation and afterwards
// asserts that the shape has not changed.
func (n *node) ensureValue(r, c int) *mat.Dense {
	if n.value == nil {
		n.value = mat.NewDense(r, c, nil)
		return n.value
	}
	vr, vc := n.value.Dims()
	if vr != r || vc != c {
		panic(fmt.Sprintf("%s: value changed shape from %dx%d to %dx%d between evaluations",
			n.kind, vr, vc, r, c))
	}
	return n.value
}

// ensureCache allocates k cache buffers shaped like the given matrices.
func (n *node) ensureCache(like ...mat.Matrix) []*mat.Dense {
	if n.cache == nil {
		n.cache = make([]*mat.Dense, len(like))
		for i, m := range like {
			n.cache[i] = zerosLike(m)
		}
	}
	return n.cache
}
