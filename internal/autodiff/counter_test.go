package autodiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/mat"
)

func TestPassCounter_Actions(t *testing.T) {
	var c PassCounter

	assert.True(t, c.IsZero())
	assert.Equal(t, Evaluate, c.Forward())
	assert.Equal(t, Cached, c.Forward())
	assert.Equal(t, Cached, c.Forward())

	assert.Equal(t, Set, c.Backward())
	assert.False(t, c.RecurseBackward())
	assert.Equal(t, Increment, c.Backward())
	assert.False(t, c.RecurseBackward())
	assert.Equal(t, Increment, c.Backward())
	assert.True(t, c.RecurseBackward())

	f, b := c.Counts()
	assert.Equal(t, 0, f)
	assert.Equal(t, 0, b)
}

func TestPassCounter_BackwardWithoutForward(t *testing.T) {
	var c PassCounter
	c.Backward()
	assert.Panics(t, func() { c.RecurseBackward() })
	assert.Panics(t, func() { c.IsZero() })
}

// TestPassCounter_ResetAfterSweep walks every node of a graph with shared
// sub-expressions and checks the counters during and after a full sweep.
func TestPassCounter_ResetAfterSweep(t *testing.T) {
	g := NewGraph()
	x := g.Parameter(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	in := g.Input(mat.NewDense(2, 2, []float64{1, 1, 1, 1}))
	h := x.Mul(in).Tanh()
	y := h.Add(h).Mul(h.Exp()).Sum()

	for range 3 {
		y.Forward()
		for id, n := range g.nodes {
			f, b := n.counter.Counts()
			assert.LessOrEqual(t, b, f, "node %d", id)
		}
		hf, _ := g.nodes[h.ID()].counter.Counts()
		assert.Equal(t, 3, hf)

		y.Backward(1)
		for id, n := range g.nodes {
			f, b := n.counter.Counts()
			assert.Zero(t, f, "node %d (%s) forward count", id, n.kind)
			assert.Zero(t, b, "node %d (%s) backward count", id, n.kind)
		}
		y.ZeroGradient()
	}
}

func TestGraph_Clear(t *testing.T) {
	g := NewGraph()
	x := g.Input(mat.NewDense(1, 1, []float64{1}))
	s := x.Exp()
	y := s.Add(s)

	y.Forward()
	f, _ := g.nodes[s.ID()].counter.Counts()
	assert.Equal(t, 2, f)

	y.Clear()
	for _, n := range g.nodes {
		assert.True(t, n.counter.IsZero())
	}
}
