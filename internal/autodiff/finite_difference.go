package autodiff

import (
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

// finiteDifferenceStep is the central-difference step size.
const finiteDifferenceStep = 1e-4

// FiniteDifference estimates the gradient of sum(output) with respect to
// input by central differences and returns it together with the gradient
// computed by backpropagation, for comparison in tests.
//
// The input's value is restored and all gradients reachable from output are
// zeroed before returning.
func FiniteDifference(input Parameter, output Variable) (numeric, analytic *mat.Dense) {
	value := input.Hogwild().Value()
	initial := copyOf(value)
	data := raw(value)

	objective := func(x []float64) float64 {
		copy(data, x)
		sum := mat.Sum(output.Forward())
		output.Clear()
		return sum
	}
	r, c := value.Dims()
	numeric = mat.NewDense(r, c, nil)
	fd.Gradient(raw(numeric), objective, raw(copyOf(initial)), &fd.Settings{
		Formula: fd.Central,
		Step:    finiteDifferenceStep,
	})

	value.Copy(initial)
	output.ZeroGradient()
	input.Accumulator().ZeroGradient()
	output.Forward()
	output.Backward(1)
	analytic = input.Gradient()

	output.ZeroGradient()
	input.Accumulator().ZeroGradient()
	return numeric, analytic
}
