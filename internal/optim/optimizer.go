// Package optim implements optimization algorithms that drain the gradients
// accumulated by autodiff parameters into their values.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Stochastic Gradient Descent with optional momentum
//   - Adagrad: per-element learning rates from accumulated squared gradients
//   - Adam: Adaptive Moment Estimation
//   - Synchronized: mutex wrapper for parameters shared between goroutines
//
// Optimizer state lives in each parameter's HogwildParameter, so an optimizer
// value holds only hyperparameters and may be created per worker.
//
// Example usage:
//
//	opt := optim.NewAdagrad(optim.AdagradConfig{LR: 0.1})
//
//	for epoch := range epochs {
//	    loss.Forward()
//	    loss.Backward(1.0)
//	    opt.Step(loss.Parameters())
//	}
package optim

import (
	"github.com/born-ml/algodiff/internal/autodiff"
)

// Optimizer is the base interface for all optimization algorithms.
//
// All optimizers must implement:
//   - Step: Apply gradient updates to parameters and zero their gradients
//   - GetLR / SetLR: Read and change the learning rate (for scheduling)
type Optimizer interface {
	// Step applies the accumulated gradient of every parameter to its value
	// and resets the accumulator.
	//
	// Parameters with no accumulated gradient are skipped. Dense gradients
	// update every row; sparse gradients update only the touched rows.
	//
	// Example:
	//   loss.Forward()
	//   loss.Backward(1.0)
	//   optimizer.Step(loss.Parameters())
	Step(params []autodiff.Parameter)

	// GetLR returns the current learning rate.
	GetLR() float64

	// SetLR updates the learning rate.
	SetLR(lr float64)
}

// Bounds is an inclusive gradient clamping range.
type Bounds struct {
	Min, Max float64
}

// applyRows clamps the parameter's gradient, calls fn for every gradient row
// that carries data, then zeros the accumulator and counts the update.
//
// Returns false (and does nothing) when no gradient was accumulated.
func applyRows(p autodiff.Parameter, clamp *Bounds, fn func(row int, grad []float64)) bool {
	acc := p.Accumulator()
	if acc.IsEmpty() {
		return false
	}
	if clamp != nil {
		acc.Clamp(clamp.Min, clamp.Max)
	}

	if acc.HasDense() {
		g := acc.Gradient()
		rows, _ := g.Dims()
		for i := 0; i < rows; i++ {
			fn(i, g.RawRowView(i))
		}
	} else {
		for i, row := range acc.SparseRows() {
			fn(i, row)
		}
	}

	acc.ZeroGradient()
	p.Hogwild().RecordUpdate()
	return true
}
