package optim

import (
	"math"

	"github.com/born-ml/algodiff/internal/autodiff"
)

// Adagrad scales the learning rate of every element by the inverse root of
// its accumulated squared gradients.
//
// Update rule:
//
//	g = gradient + l2 * param
//	sum = sum + g²
//	param = param - lr / (eps + sqrt(sum)) * g
//
// The running sum is the parameter's SquaredGradients matrix. Since it only
// grows, the step taken for a constant gradient never increases.
type Adagrad struct {
	lr    float64
	l2    float64
	eps   float64
	clamp *Bounds
}

// AdagradConfig holds configuration for Adagrad optimizer.
type AdagradConfig struct {
	LR    float64 // Learning rate (default: 0.05)
	L2    float64 // L2 penalty (default: 0)
	Eps   float64 // Term for numerical stability (default: 1e-10)
	Clamp *Bounds // Optional gradient clamp
}

// NewAdagrad creates a new Adagrad optimizer.
func NewAdagrad(config AdagradConfig) *Adagrad {
	if config.LR == 0 {
		config.LR = 0.05
	}
	if config.Eps == 0 {
		config.Eps = 1e-10
	}

	return &Adagrad{
		lr:    config.LR,
		l2:    config.L2,
		eps:   config.Eps,
		clamp: config.Clamp,
	}
}

// Step performs a single optimization step.
func (a *Adagrad) Step(params []autodiff.Parameter) {
	for _, param := range params {
		hp := param.Hogwild()
		value, squared := hp.Value(), hp.SquaredGradients()

		applyRows(param, a.clamp, func(row int, grad []float64) {
			w := value.RawRowView(row)
			sq := squared.RawRowView(row)
			for j, g := range grad {
				g += a.l2 * w[j]
				sq[j] += g * g
				w[j] -= a.lr / (a.eps + math.Sqrt(sq[j])) * g
			}
		})
	}
}

// GetLR returns the current learning rate.
func (a *Adagrad) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adagrad) SetLR(lr float64) {
	a.lr = lr
}
