package autodiff

import (
	"gonum.org/v1/gonum/mat"
)

// HogwildParameter holds a weight matrix together with the optimizer state
// that belongs to it.
//
// WARNING: a HogwildParameter shared between graphs is read and written by
// several goroutines WITHOUT ANY SYNCHRONIZATION. This is a data race by
// construction: concurrent optimizer steps may interleave element updates and
// forward passes may observe half-updated rows. Asynchronous SGD tolerates
// such lost or torn updates when gradients are sparse. Use it only through
// Graph.SharedParameter and only when that trade-off is intended; wrap the
// optimizer with optim.Synchronized when it is not.
type HogwildParameter struct {
	value            *mat.Dense
	squaredGradients *mat.Dense
	moments          *mat.Dense
	numUpdates       int
}

// NewHogwildParameter copies value into a fresh parameter with zeroed
// optimizer state.
func NewHogwildParameter(value mat.Matrix) *HogwildParameter {
	v := copyOf(value)
	return &HogwildParameter{
		value:            v,
		squaredGradients: zerosLike(v),
		moments:          zerosLike(v),
	}
}

// Dims returns the shape of the parameter.
func (p *HogwildParameter) Dims() (r, c int) {
	return p.value.Dims()
}

// Value returns the live weight matrix. Writes through it are visible to
// every graph sharing the parameter.
func (p *HogwildParameter) Value() *mat.Dense {
	return p.value
}

// SquaredGradients is Adagrad's running sum of squared gradients.
func (p *HogwildParameter) SquaredGradients() *mat.Dense {
	return p.squaredGradients
}

// Moments is the SGD momentum velocity.
func (p *HogwildParameter) Moments() *mat.Dense {
	return p.moments
}

// NumUpdates returns how many optimizer steps were applied.
func (p *HogwildParameter) NumUpdates() int {
	return p.numUpdates
}

// RecordUpdate increments the update counter.
func (p *HogwildParameter) RecordUpdate() {
	p.numUpdates++
}

// Clone returns a deep copy of the parameter and its optimizer state.
func (p *HogwildParameter) Clone() *HogwildParameter {
	return &HogwildParameter{
		value:            copyOf(p.value),
		squaredGradients: copyOf(p.squaredGradients),
		moments:          copyOf(p.moments),
		numUpdates:       p.numUpdates,
	}
}
