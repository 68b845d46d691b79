package optim

import (
	"github.com/born-ml/algodiff/internal/autodiff"
	"gonum.org/v1/gonum/floats"
)

// SGD implements Stochastic Gradient Descent with optional momentum.
//
// Update rule without momentum:
//
//	param = param - lr/batch * gradient
//
// Update rule with momentum:
//
//	velocity = momentum * velocity + gradient
//	param = param - lr/batch * velocity
//
// The velocity is stored in the parameter's Moments matrix. With sparse
// gradients only the touched rows are updated.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{
//	    LR:       0.01,
//	    Momentum: 0.9,
//	})
//	optimizer.Step(loss.Parameters())
type SGD struct {
	lr        float64
	momentum  float64
	batchSize int
	clamp     *Bounds
}

// SGDConfig holds configuration for SGD optimizer.
type SGDConfig struct {
	LR        float64 // Learning rate (default: 0.05)
	Momentum  float64 // Momentum factor (default: 0.0, range: [0, 1))
	BatchSize int     // Gradients are divided by this (default: 1)
	Clamp     *Bounds // Optional gradient clamp
}

// NewSGD creates a new SGD optimizer.
func NewSGD(config SGDConfig) *SGD {
	if config.LR == 0 {
		config.LR = 0.05
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 1
	}

	return &SGD{
		lr:        config.LR,
		momentum:  config.Momentum,
		batchSize: config.BatchSize,
		clamp:     config.Clamp,
	}
}

// Step performs a single optimization step.
func (s *SGD) Step(params []autodiff.Parameter) {
	rate := s.lr / float64(s.batchSize)

	for _, param := range params {
		hp := param.Hogwild()
		value, velocity := hp.Value(), hp.Moments()

		applyRows(param, s.clamp, func(row int, grad []float64) {
			w := value.RawRowView(row)
			if s.momentum == 0 {
				floats.AddScaled(w, -rate, grad)
				return
			}
			v := velocity.RawRowView(row)
			floats.Scale(s.momentum, v)
			floats.Add(v, grad)
			floats.AddScaled(w, -rate, v)
		})
	}
}

// GetLR returns the current learning rate.
func (s *SGD) GetLR() float64 {
	return s.lr
}

// SetLR updates the learning rate.
//
// Useful for learning rate scheduling during training.
func (s *SGD) SetLR(lr float64) {
	s.lr = lr
}
