package nn

import (
	"github.com/born-ml/algodiff/internal/autodiff"
)

// ReLU is a Rectified Linear Unit activation module.
//
// Applies the element-wise function: f(x) = max(0, x)
type ReLU struct{}

// NewReLU creates a new ReLU activation module.
func NewReLU() *ReLU {
	return &ReLU{}
}

// Forward applies ReLU activation: f(x) = max(0, x).
func (r *ReLU) Forward(input autodiff.Variable) autodiff.Variable {
	return input.ReLU()
}

// Parameters returns an empty slice (ReLU has no trainable parameters).
func (r *ReLU) Parameters() []*autodiff.HogwildParameter {
	return nil
}

// Sigmoid is a sigmoid activation module.
//
// Applies the element-wise function: σ(x) = 1 / (1 + exp(-x)),
// saturating to exactly 0 or 1 beyond |x| > 10.
type Sigmoid struct{}

// NewSigmoid creates a new Sigmoid activation module.
func NewSigmoid() *Sigmoid {
	return &Sigmoid{}
}

// Forward applies Sigmoid activation.
func (s *Sigmoid) Forward(input autodiff.Variable) autodiff.Variable {
	return input.Sigmoid()
}

// Parameters returns an empty slice (Sigmoid has no trainable parameters).
func (s *Sigmoid) Parameters() []*autodiff.HogwildParameter {
	return nil
}

// Tanh is a hyperbolic tangent activation module.
type Tanh struct{}

// NewTanh creates a new Tanh activation module.
func NewTanh() *Tanh {
	return &Tanh{}
}

// Forward applies Tanh activation.
func (t *Tanh) Forward(input autodiff.Variable) autodiff.Variable {
	return input.Tanh()
}

// Parameters returns an empty slice (Tanh has no trainable parameters).
func (t *Tanh) Parameters() []*autodiff.HogwildParameter {
	return nil
}
