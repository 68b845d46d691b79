// Package nn implements neural network building blocks on top of autodiff
// graphs.
//
// This package provides:
//   - Module interface: Base interface for all NN components
//   - Linear: Fully connected layer
//   - Embedding: Row lookup table for sparse training
//   - Activations: ReLU, Sigmoid, Tanh
//   - Loss functions: MSE, CrossEntropy, SparseCategoricalCrossEntropy
//   - Sequential: Container for stacking layers
//
// Layers own their weights as HogwildParameters. Forward binds them to the
// graph of its input, so one layer can serve many per-worker graphs at once.
package nn

import (
	"github.com/born-ml/algodiff/internal/autodiff"
)

// Module is the base interface for all neural network components.
//
// Every NN module must implement:
//   - Forward: Append the module's computation to the input's graph
//   - Parameters: Return all trainable parameters
//
// Modules can be composed to build complex architectures:
//
//	model := nn.NewSequential(
//	    nn.NewLinear(4, 16, nil),
//	    nn.NewReLU(),
//	    nn.NewLinear(16, 3, nil),
//	)
type Module interface {
	// Forward builds the module's output node from input.
	//
	// For example, Linear expects a [batch_size, in_features] input.
	Forward(input autodiff.Variable) autodiff.Variable

	// Parameters returns the shared storage of every trainable parameter.
	//
	// Returns an empty slice for modules without trainable parameters
	// (e.g., activation functions).
	Parameters() []*autodiff.HogwildParameter
}
