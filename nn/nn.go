// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package nn provides neural network layers built on autodiff graphs.
//
// # Overview
//
// This package contains:
//   - Layers: Linear, Embedding
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: CrossEntropyLoss, SparseCategoricalCrossEntropy, MSELoss
//   - Utilities: Sequential, Module interface
//   - Initialization: Xavier, Zeros, Randn
//
// Layers own their weights as HogwildParameters, so one model can be
// forwarded from several graphs at once.
//
// # Basic Usage
//
//	model := nn.NewSequential(
//	    nn.NewLinear(784, 128, src),
//	    nn.NewReLU(),
//	    nn.NewLinear(128, 10, src),
//	)
//
//	g := autodiff.NewGraph()
//	x := g.Input(batch)
//	loss := nn.MSELoss(model.Forward(x.Variable), g.Input(targets))
package nn

import (
	"math/rand/v2"

	"github.com/born-ml/algodiff/autodiff"
	"github.com/born-ml/algodiff/internal/nn"
	"gonum.org/v1/gonum/mat"
)

// Module is the common interface of all layers.
type Module = nn.Module

// Layers

// Linear represents a fully connected (dense) layer.
type Linear = nn.Linear

// NewLinear creates a new linear layer with Xavier initialization.
//
// Example:
//
//	layer := nn.NewLinear(784, 128, rand.NewPCG(1, 2))
func NewLinear(inFeatures, outFeatures int, src rand.Source) *Linear {
	return nn.NewLinear(inFeatures, outFeatures, src)
}

// Embedding is a lookup table of row vectors.
type Embedding = nn.Embedding

// NewEmbedding creates an embedding table with N(0, 1) initialization.
func NewEmbedding(numEmbeddings, embeddingDim int, src rand.Source) *Embedding {
	return nn.NewEmbedding(numEmbeddings, embeddingDim, src)
}

// NewEmbeddingWithWeight creates an embedding table holding a copy of weight.
func NewEmbeddingWithWeight(weight mat.Matrix) *Embedding {
	return nn.NewEmbeddingWithWeight(weight)
}

// Sequential chains modules.
type Sequential = nn.Sequential

// NewSequential creates a container applying modules in order.
func NewSequential(modules ...Module) *Sequential {
	return nn.NewSequential(modules...)
}

// Activations

// ReLU applies max(0, x).
type ReLU = nn.ReLU

// NewReLU creates a ReLU activation.
func NewReLU() *ReLU { return nn.NewReLU() }

// Sigmoid applies 1 / (1 + exp(-x)).
type Sigmoid = nn.Sigmoid

// NewSigmoid creates a Sigmoid activation.
func NewSigmoid() *Sigmoid { return nn.NewSigmoid() }

// Tanh applies the hyperbolic tangent.
type Tanh = nn.Tanh

// NewTanh creates a Tanh activation.
func NewTanh() *Tanh { return nn.NewTanh() }

// Loss functions

// MSELoss computes mean((predictions - targets)²).
func MSELoss(predictions autodiff.Variable, targets autodiff.Operand) autodiff.Variable {
	return nn.MSELoss(predictions, targets)
}

// CrossEntropyLoss computes -Σ target · log_softmax(logits) for a single row.
func CrossEntropyLoss(logits autodiff.Variable, target autodiff.Operand) autodiff.Variable {
	return nn.CrossEntropyLoss(logits, target)
}

// SparseCategoricalCrossEntropy computes -log_softmax(logits)[target] for a
// single row and a class index.
func SparseCategoricalCrossEntropy(logits autodiff.Variable, target autodiff.IndexInput) autodiff.Variable {
	return nn.SparseCategoricalCrossEntropy(logits, target)
}

// Initialization

// Xavier samples a rows x cols matrix from the Glorot uniform distribution.
func Xavier(fanIn, fanOut, rows, cols int, src rand.Source) *mat.Dense {
	return nn.Xavier(fanIn, fanOut, rows, cols, src)
}

// Randn samples a rows x cols matrix from N(0, 1).
func Randn(rows, cols int, src rand.Source) *mat.Dense {
	return nn.Randn(rows, cols, src)
}

// Zeros returns a rows x cols zero matrix.
func Zeros(rows, cols int) *mat.Dense {
	return nn.Zeros(rows, cols)
}
