package optim

import (
	"math"

	"github.com/born-ml/algodiff/internal/autodiff"
)

// Adam implements the Adam (Adaptive Moment Estimation) optimizer.
//
// Update rule:
//
//	m_t = beta1 * m_{t-1} + (1-beta1) * gradient       // First moment
//	v_t = beta2 * v_{t-1} + (1-beta2) * gradient²      // Second moment
//	m_hat = m_t / (1 - beta1^t)                        // Bias correction
//	v_hat = v_t / (1 - beta2^t)                        // Bias correction
//	param = param - lr * m_hat / (sqrt(v_hat) + eps)  // Parameter update
//
// The moments live in the parameter's Moments and SquaredGradients matrices
// and the timestep t is the parameter's update count, so each parameter is
// bias-corrected by the number of steps it has actually taken. With sparse
// gradients only the touched rows move.
//
// Reference: "Adam: A Method for Stochastic Optimization" (Kingma & Ba, 2014)
type Adam struct {
	lr    float64
	beta1 float64
	beta2 float64
	eps   float64
	clamp *Bounds
}

// AdamConfig holds configuration for Adam optimizer.
type AdamConfig struct {
	LR    float64    // Learning rate (default: 0.001)
	Betas [2]float64 // Coefficients for computing running averages (default: [0.9, 0.999])
	Eps   float64    // Term for numerical stability (default: 1e-8)
	Clamp *Bounds    // Optional gradient clamp
}

// NewAdam creates a new Adam optimizer.
//
// Default hyperparameters:
//   - LR: 0.001
//   - Beta1: 0.9
//   - Beta2: 0.999
//   - Eps: 1e-8
func NewAdam(config AdamConfig) *Adam {
	if config.LR == 0 {
		config.LR = 0.001
	}
	if config.Betas[0] == 0 {
		config.Betas[0] = 0.9
	}
	if config.Betas[1] == 0 {
		config.Betas[1] = 0.999
	}
	if config.Eps == 0 {
		config.Eps = 1e-8
	}

	return &Adam{
		lr:    config.LR,
		beta1: config.Betas[0],
		beta2: config.Betas[1],
		eps:   config.Eps,
		clamp: config.Clamp,
	}
}

// Step performs a single optimization step using the Adam algorithm.
func (a *Adam) Step(params []autodiff.Parameter) {
	for _, param := range params {
		hp := param.Hogwild()
		value, m, v := hp.Value(), hp.Moments(), hp.SquaredGradients()

		t := float64(hp.NumUpdates() + 1)
		biasCorrection1 := 1 - math.Pow(a.beta1, t)
		biasCorrection2 := 1 - math.Pow(a.beta2, t)

		applyRows(param, a.clamp, func(row int, grad []float64) {
			w := value.RawRowView(row)
			mRow, vRow := m.RawRowView(row), v.RawRowView(row)
			for j, g := range grad {
				mRow[j] = a.beta1*mRow[j] + (1-a.beta1)*g
				vRow[j] = a.beta2*vRow[j] + (1-a.beta2)*g*g

				mHat := mRow[j] / biasCorrection1
				vHat := vRow[j] / biasCorrection2
				w[j] -= a.lr * mHat / (math.Sqrt(vHat) + a.eps)
			}
		})
	}
}

// GetLR returns the current learning rate.
func (a *Adam) GetLR() float64 {
	return a.lr
}

// SetLR updates the learning rate.
func (a *Adam) SetLR(lr float64) {
	a.lr = lr
}
