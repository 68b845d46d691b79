package nn

import (
	"fmt"

	"github.com/born-ml/algodiff/internal/autodiff"
)

// MSELoss computes Mean Squared Error loss.
//
// Loss = mean((predictions - targets)²)
//
// Example:
//
//	loss := nn.MSELoss(model.Forward(x), y)
//	loss.Forward()
//	loss.Backward(1.0)
func MSELoss(predictions autodiff.Variable, targets autodiff.Operand) autodiff.Variable {
	r, c := predictions.Dims()
	return predictions.Sub(targets).Square().Sum().DivScalar(float64(r * c))
}

// CrossEntropyLoss computes the cross-entropy between softmax(logits) and a
// one-hot (or any probability) target row.
//
// Loss = -Σ target · log_softmax(logits)
//
// The softmax is taken over every element of logits, so logits must be a
// single [1, classes] row; batches are built by summing per-example losses.
func CrossEntropyLoss(logits autodiff.Variable, target autodiff.Operand) autodiff.Variable {
	if r, _ := logits.Dims(); r != 1 {
		panic(fmt.Sprintf("cross_entropy: logits must be a single row, got %d rows", r))
	}
	return logits.LogSoftmax().Mul(target).Sum().Neg()
}

// SparseCategoricalCrossEntropy computes the cross-entropy of a single
// [1, classes] row of logits against the class held by target.
//
// Loss = -log_softmax(logits)[target]
//
// It equals CrossEntropyLoss with a one-hot target but needs no dense target
// row, and the class can be changed between sweeps with target.SetIndex.
func SparseCategoricalCrossEntropy(logits autodiff.Variable, target autodiff.IndexInput) autodiff.Variable {
	if r, _ := logits.Dims(); r != 1 {
		panic(fmt.Sprintf("sparse_cross_entropy: logits must be a single row, got %d rows", r))
	}
	return logits.LogSoftmax().Pick(target).Neg()
}
