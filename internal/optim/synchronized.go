package optim

import (
	"sync"

	"github.com/born-ml/algodiff/internal/autodiff"
)

// Synchronized serializes the steps of an optimizer shared by several
// goroutines. It only guards Step: forward passes reading the same
// HogwildParameter still race with the update.
type Synchronized struct {
	mu  sync.Mutex
	opt Optimizer
}

// NewSynchronized wraps opt.
func NewSynchronized(opt Optimizer) *Synchronized {
	return &Synchronized{opt: opt}
}

// Step runs the wrapped optimizer's Step under the lock.
func (s *Synchronized) Step(params []autodiff.Parameter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opt.Step(params)
}

// GetLR returns the wrapped optimizer's learning rate.
func (s *Synchronized) GetLR() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.opt.GetLR()
}

// SetLR updates the wrapped optimizer's learning rate.
func (s *Synchronized) SetLR(lr float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opt.SetLR(lr)
}
