package autodiff

import (
	"fmt"
	"iter"
	"math"

	"github.com/bits-and-blooms/bitset"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// GradientAccumulator collects the gradient of one parameter across a
// backward sweep.
//
// Two modes:
//   - dense: the whole buffer is valid (AddDense was called this sweep).
//   - sparse: only rows recorded in the bitset are valid; every other row
//     holds stale data from earlier sweeps.
//
// ZeroGradient resets the mode without touching the buffer, so a sparse
// sweep costs only the rows it touches.
type GradientAccumulator struct {
	gradient *mat.Dense
	rows     bitset.BitSet
	dense    bool
	sparse   bool
}

// NewGradientAccumulator allocates an empty accumulator for an r x c
// parameter.
func NewGradientAccumulator(r, c int) *GradientAccumulator {
	return &GradientAccumulator{gradient: mat.NewDense(r, c, nil)}
}

// AddDense adds a full-shape gradient. The first dense contribution of a
// sweep overwrites the buffer; if sparse rows were already recorded they are
// folded in and the accumulator switches to dense mode.
func (a *GradientAccumulator) AddDense(grad mat.Matrix) {
	mustSameDims("gradient", a.gradient, grad)

	switch {
	case a.dense:
		a.gradient.Add(a.gradient, grad)
	case a.sparse:
		a.zeroUntouchedRows()
		a.gradient.Add(a.gradient, grad)
		a.rows.ClearAll()
		a.sparse = false
	default:
		a.gradient.Copy(grad)
	}
	a.dense = true
}

// AddSparse adds grad's i-th row to row indices[i] of the gradient.
func (a *GradientAccumulator) AddSparse(indices []int, grad mat.Matrix) {
	r, _ := grad.Dims()
	if r != len(indices) {
		panic(fmt.Sprintf("gradient: %d indices for %d gradient rows", len(indices), r))
	}
	row := make([]float64, a.cols())
	for i, idx := range indices {
		a.AddSparseRow(idx, mat.Row(row, i, grad))
	}
}

// AddSparseRow adds grad to row idx. A row touched for the first time in a
// sweep is overwritten rather than added to.
func (a *GradientAccumulator) AddSparseRow(idx int, grad []float64) {
	rows, cols := a.gradient.Dims()
	if idx < 0 || idx >= rows {
		panic(fmt.Sprintf("gradient: row %d out of range [0, %d)", idx, rows))
	}
	if len(grad) != cols {
		panic(fmt.Sprintf("gradient: row has %d columns, want %d", len(grad), cols))
	}

	dst := a.gradient.RawRowView(idx)
	switch {
	case a.dense:
		floats.Add(dst, grad)
		return
	case a.rows.Test(uint(idx)):
		floats.Add(dst, grad)
	default:
		copy(dst, grad)
		a.rows.Set(uint(idx))
	}
	a.sparse = true
}

// SparseRows yields each touched row and its gradient, in ascending row
// order. The yielded slices alias the accumulator.
func (a *GradientAccumulator) SparseRows() iter.Seq2[int, []float64] {
	return func(yield func(int, []float64) bool) {
		for i, ok := a.rows.NextSet(0); ok; i, ok = a.rows.NextSet(i + 1) {
			if !yield(int(i), a.gradient.RawRowView(int(i))) {
				return
			}
		}
	}
}

// ZeroGradient marks the accumulator empty. The buffer is left as is.
func (a *GradientAccumulator) ZeroGradient() {
	if a.sparse {
		a.rows.ClearAll()
	}
	a.dense = false
	a.sparse = false
}

// Gradient returns the raw buffer. In sparse mode only the touched rows are
// meaningful; use MaterializedGradient for a full matrix.
func (a *GradientAccumulator) Gradient() *mat.Dense {
	return a.gradient
}

// MaterializedGradient returns a fresh dense gradient with every untouched
// row set to zero.
func (a *GradientAccumulator) MaterializedGradient() *mat.Dense {
	if a.dense {
		return mat.DenseCopyOf(a.gradient)
	}
	out := zerosLike(a.gradient)
	for idx, row := range a.SparseRows() {
		copy(out.RawRowView(idx), row)
	}
	return out
}

// HasDense reports whether a dense contribution arrived this sweep.
func (a *GradientAccumulator) HasDense() bool { return a.dense }

// HasSparse reports whether the accumulator is in sparse mode.
func (a *GradientAccumulator) HasSparse() bool { return a.sparse }

// IsEmpty reports whether nothing was accumulated since the last reset.
func (a *GradientAccumulator) IsEmpty() bool { return !a.dense && !a.sparse }

// Clamp limits every valid gradient entry to [lo, hi]. In sparse mode only
// the touched rows are clamped.
func (a *GradientAccumulator) Clamp(lo, hi float64) {
	if a.dense {
		clampSlice(raw(a.gradient), lo, hi)
		return
	}
	for _, row := range a.SparseRows() {
		clampSlice(row, lo, hi)
	}
}

func (a *GradientAccumulator) cols() int {
	_, c := a.gradient.Dims()
	return c
}

func (a *GradientAccumulator) zeroUntouchedRows() {
	rows, _ := a.gradient.Dims()
	for i := 0; i < rows; i++ {
		if !a.rows.Test(uint(i)) {
			clear(a.gradient.RawRowView(i))
		}
	}
}

func clampSlice(xs []float64, lo, hi float64) {
	for i, x := range xs {
		xs[i] = math.Min(math.Max(x, lo), hi)
	}
}
