// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides optimizers that update autodiff parameters from
// their accumulated gradients.
//
// # Overview
//
// This package contains:
//   - SGD: Stochastic Gradient Descent with momentum and batch scaling
//   - Adagrad: per-coordinate adaptive learning rates with L2 penalty
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Synchronized: a mutex wrapper serializing steps across goroutines
//
// Every optimizer skips parameters without a gradient, honors sparse
// gradients row by row, and zeroes the gradient after applying it.
//
// # Basic Usage
//
//	loss.Forward()
//	loss.Backward(1)
//	optimizer := optim.NewAdagrad(optim.AdagradConfig{LR: 0.1})
//	optimizer.Step(loss.Parameters())
package optim

import "github.com/born-ml/algodiff/internal/optim"

// Optimizer updates parameters in place from their gradients.
type Optimizer = optim.Optimizer

// Bounds is an optional gradient clamp range.
type Bounds = optim.Bounds

// SGD represents the SGD optimizer with optional momentum.
type SGD = optim.SGD

// SGDConfig contains configuration for SGD optimizer.
type SGDConfig = optim.SGDConfig

// NewSGD creates a new SGD optimizer.
//
// Example:
//
//	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.01, Momentum: 0.9})
func NewSGD(config SGDConfig) *SGD {
	return optim.NewSGD(config)
}

// Adagrad represents the Adagrad optimizer.
type Adagrad = optim.Adagrad

// AdagradConfig contains configuration for Adagrad optimizer.
type AdagradConfig = optim.AdagradConfig

// NewAdagrad creates a new Adagrad optimizer.
func NewAdagrad(config AdagradConfig) *Adagrad {
	return optim.NewAdagrad(config)
}

// Adam represents the Adam optimizer.
type Adam = optim.Adam

// AdamConfig contains configuration for Adam optimizer.
type AdamConfig = optim.AdamConfig

// NewAdam creates a new Adam optimizer.
func NewAdam(config AdamConfig) *Adam {
	return optim.NewAdam(config)
}

// Synchronized serializes Step calls of a wrapped optimizer.
type Synchronized = optim.Synchronized

// NewSynchronized wraps opt so that concurrent Step calls do not interleave.
func NewSynchronized(opt Optimizer) *Synchronized {
	return optim.NewSynchronized(opt)
}
