package autodiff

import "fmt"

// ForwardAction tells a node whether a forward call must recompute its value.
type ForwardAction uint8

const (
	// Evaluate means this is the first forward call of the sweep.
	Evaluate ForwardAction = iota
	// Cached means the value computed earlier in the sweep is still valid.
	Cached
)

// BackwardAction tells a node whether an incoming gradient overwrites or
// adds into its gradient buffers.
type BackwardAction uint8

const (
	// Set overwrites the gradient buffers (first contribution of the sweep).
	Set BackwardAction = iota
	// Increment adds into the gradient buffers (later contributions).
	Increment
)

// store writes v into dst[i] according to the action.
func (a BackwardAction) store(dst []float64, i int, v float64) {
	if a == Set {
		dst[i] = v
		return
	}
	dst[i] += v
}

// PassCounter tracks how many times a node has been visited by the forward
// and backward sweeps.
//
// A node consumed by k downstream nodes is forwarded k times per sweep; only
// the first call evaluates. The node then receives k gradient contributions;
// the first one is written with Set, the rest with Increment. Once all k have
// arrived RecurseBackward resets the counter and reports that the node may
// propagate its (now complete) gradient to its operands.
//
// Invariant: backward <= forward.
type PassCounter struct {
	forward  int
	backward int
}

// Forward records a forward visit.
func (c *PassCounter) Forward() ForwardAction {
	c.forward++
	if c.forward == 1 {
		return Evaluate
	}
	return Cached
}

// Backward records a gradient contribution.
func (c *PassCounter) Backward() BackwardAction {
	c.backward++
	if c.backward == 1 {
		return Set
	}
	return Increment
}

// RecurseBackward reports whether every consumer has delivered its gradient.
// When it returns true both counts are reset for the next sweep.
func (c *PassCounter) RecurseBackward() bool {
	c.check()
	if c.backward == c.forward {
		c.Clear()
		return true
	}
	return false
}

// IsZero reports whether the node is idle, i.e. fully backpropagated or
// never forwarded in the current sweep.
func (c *PassCounter) IsZero() bool {
	c.check()
	return c.forward == 0
}

// Clear resets both counts.
func (c *PassCounter) Clear() {
	c.forward = 0
	c.backward = 0
}

// Counts returns the forward and backward counts of the current sweep.
func (c *PassCounter) Counts() (forward, backward int) {
	return c.forward, c.backward
}

func (c *PassCounter) check() {
	if c.backward > c.forward {
		panic(fmt.Sprintf("autodiff: %d backward passes for %d forward passes (backward called without forward?)",
			c.backward, c.forward))
	}
}
