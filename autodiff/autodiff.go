// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides reverse-mode automatic differentiation over
// dense float64 matrices.
//
// Expressions are built eagerly on a Graph: every operation computes its
// value as soon as it is constructed. After changing inputs, Forward
// recomputes the expression; Backward then accumulates gradients into the
// parameters reachable from it.
//
// Example:
//
//	g := autodiff.NewGraph()
//	x := g.Input(mat.NewDense(1, 3, []float64{1, 2, 3}))
//	w := g.Parameter(mat.NewDense(3, 1, []float64{0.1, 0.2, 0.3}))
//
//	loss := x.Dot(w).Sigmoid().Sum()
//	loss.Forward()
//	loss.Backward(1)
//
//	grad := w.Gradient() // d loss / d w
//
// Parameters may be shared between graphs (and goroutines) through a
// HogwildParameter; updates to shared parameters are deliberately
// unsynchronized.
package autodiff

import (
	"github.com/born-ml/algodiff/internal/autodiff"
	"gonum.org/v1/gonum/mat"
)

// Graph owns the nodes of one or more expressions.
type Graph = autodiff.Graph

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return autodiff.NewGraph()
}

// Variable is a handle to a node of a Graph.
type Variable = autodiff.Variable

// Operand is anything usable as the right-hand side of a binary operation:
// a Variable, Input, IndexInput or Parameter.
type Operand = autodiff.Operand

// NodeID identifies a node within its graph.
type NodeID = autodiff.NodeID

// Leaves

// Input is a leaf holding a dense matrix that is never differentiated.
type Input = autodiff.Input

// IndexInput is a leaf holding indices for Parameter.Index and Variable.Pick.
type IndexInput = autodiff.IndexInput

// Parameter is a differentiable leaf backed by a HogwildParameter.
type Parameter = autodiff.Parameter

// DataInput is implemented by leaves whose value can be replaced.
type DataInput[T any] = autodiff.DataInput[T]

// HogwildParameter is the shared storage behind parameters: value and
// optimizer state.
type HogwildParameter = autodiff.HogwildParameter

// NewHogwildParameter creates shared parameter storage holding a copy of value.
//
// Example:
//
//	embedding := autodiff.NewHogwildParameter(mat.NewDense(100, 16, nil))
//	p1 := graph1.SharedParameter(embedding)
//	p2 := graph2.SharedParameter(embedding)
func NewHogwildParameter(value mat.Matrix) *HogwildParameter {
	return autodiff.NewHogwildParameter(value)
}

// GradientAccumulator holds a parameter's gradient in dense or sparse-row form.
type GradientAccumulator = autodiff.GradientAccumulator

// NewGradientAccumulator creates an empty accumulator for an r x c parameter.
func NewGradientAccumulator(r, c int) *GradientAccumulator {
	return autodiff.NewGradientAccumulator(r, c)
}

// Operations

// OpKind identifies the operation of a node.
type OpKind = autodiff.OpKind

// Operation kinds.
const (
	OpInput      = autodiff.OpInput
	OpIndexInput = autodiff.OpIndexInput
	OpParameter  = autodiff.OpParameter
	OpAdd        = autodiff.OpAdd
	OpSub        = autodiff.OpSub
	OpMul        = autodiff.OpMul
	OpDiv        = autodiff.OpDiv
	OpDot        = autodiff.OpDot
	OpVectorDot  = autodiff.OpVectorDot
	OpTranspose  = autodiff.OpTranspose
	OpExp        = autodiff.OpExp
	OpLog        = autodiff.OpLog
	OpSigmoid    = autodiff.OpSigmoid
	OpTanh       = autodiff.OpTanh
	OpReLU       = autodiff.OpReLU
	OpSoftmax    = autodiff.OpSoftmax
	OpLogSoftmax = autodiff.OpLogSoftmax
	OpSquare     = autodiff.OpSquare
	OpSum        = autodiff.OpSum
	OpNeg        = autodiff.OpNeg
	OpIndex      = autodiff.OpIndex
	OpConcat     = autodiff.OpConcat
	OpSlice      = autodiff.OpSlice
	OpPick       = autodiff.OpPick
)

// Axis selects the stacking direction of Variable.Stack.
type Axis = autodiff.Axis

// Stacking axes.
const (
	Rows    = autodiff.Rows
	Columns = autodiff.Columns
)

// Window is the half-open region selected by Variable.Slice.
type Window = autodiff.Window

// Pass counting

// PassCounter tracks forward and backward visits of a node within a sweep.
type PassCounter = autodiff.PassCounter

// ForwardAction is returned by PassCounter.Forward.
type ForwardAction = autodiff.ForwardAction

// BackwardAction is returned by PassCounter.Backward.
type BackwardAction = autodiff.BackwardAction

// Pass counter actions.
const (
	Evaluate  = autodiff.Evaluate
	Cached    = autodiff.Cached
	Set       = autodiff.Set
	Increment = autodiff.Increment
)

// Standalone operators

// Operator evaluates a single operation outside of a user graph.
type Operator = autodiff.Operator

// OperatorOption configures an Operator.
type OperatorOption = autodiff.OperatorOption

// NewOperator creates a one-shot operator of the given kind.
//
// Example:
//
//	op := autodiff.NewOperator(autodiff.OpMul)
//	out := op.Forward(a, b)
//	grads := op.Backward(nil) // gradients w.r.t. a and b for a ones upstream
func NewOperator(kind OpKind, opts ...OperatorOption) *Operator {
	return autodiff.NewOperator(kind, opts...)
}

// WithAxis sets the axis of a concatenation operator.
func WithAxis(axis Axis) OperatorOption {
	return autodiff.WithAxis(axis)
}

// WithWindow sets the window of a slice operator.
func WithWindow(w Window) OperatorOption {
	return autodiff.WithWindow(w)
}

// Gradient checking

// FiniteDifference compares the numeric gradient of sum(output) with respect
// to input against the analytic gradient from Backward.
func FiniteDifference(input Parameter, output Variable) (numeric, analytic *mat.Dense) {
	return autodiff.FiniteDifference(input, output)
}
