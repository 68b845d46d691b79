package nn

import (
	"fmt"
	"math/rand/v2"

	"github.com/born-ml/algodiff/internal/autodiff"
)

// Linear implements a fully connected (dense) layer.
//
// Performs the transformation: y = x · W + b
// where:
//   - x is the input with shape [batch_size, in_features]
//   - W is the weight matrix with shape [in_features, out_features]
//   - b is the bias row with shape [1, out_features], broadcast over the batch
//   - y is the output with shape [batch_size, out_features]
//
// Weights are initialized using Xavier/Glorot initialization.
// Biases are initialized to zeros.
//
// Example:
//
//	layer := nn.NewLinear(784, 128, nil)
//
//	g := autodiff.NewGraph()
//	input := g.Input(batch)          // [32, 784]
//	output := layer.Forward(input.Variable)  // [32, 128]
type Linear struct {
	inFeatures  int
	outFeatures int
	weight      *autodiff.HogwildParameter
	bias        *autodiff.HogwildParameter
}

// NewLinear creates a new Linear layer. A nil src uses the global random
// source.
func NewLinear(inFeatures, outFeatures int, src rand.Source) *Linear {
	return &Linear{
		inFeatures:  inFeatures,
		outFeatures: outFeatures,
		weight:      autodiff.NewHogwildParameter(Xavier(inFeatures, outFeatures, inFeatures, outFeatures, src)),
		bias:        autodiff.NewHogwildParameter(Zeros(1, outFeatures)),
	}
}

// Forward computes x · W + b on the graph of input.
func (l *Linear) Forward(input autodiff.Variable) autodiff.Variable {
	batch, features := input.Dims()
	if features != l.inFeatures {
		panic(fmt.Sprintf("linear: input has %d features, want %d", features, l.inFeatures))
	}

	g := input.Graph()
	out := input.Dot(g.SharedParameter(l.weight))

	// Broadcast the bias row over the batch as ones[batch,1] · b.
	bias := g.SharedParameter(l.bias).Variable
	if batch > 1 {
		bias = g.Full(batch, 1, 1).Dot(bias)
	}
	return out.Add(bias)
}

// Parameters returns the weight and the bias.
func (l *Linear) Parameters() []*autodiff.HogwildParameter {
	return []*autodiff.HogwildParameter{l.weight, l.bias}
}

// Weight returns the [in_features, out_features] weight storage.
func (l *Linear) Weight() *autodiff.HogwildParameter { return l.weight }

// Bias returns the [1, out_features] bias storage.
func (l *Linear) Bias() *autodiff.HogwildParameter { return l.bias }

// InFeatures returns the number of input features.
func (l *Linear) InFeatures() int { return l.inFeatures }

// OutFeatures returns the number of output features.
func (l *Linear) OutFeatures() int { return l.outFeatures }
