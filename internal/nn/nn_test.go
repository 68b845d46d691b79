package nn_test

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/born-ml/algodiff/internal/autodiff"
	"github.com/born-ml/algodiff/internal/nn"
	"github.com/born-ml/algodiff/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

func source(seed uint64) rand.Source {
	return rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)
}

func TestXavier_Bounds(t *testing.T) {
	w := nn.Xavier(10, 20, 10, 20, source(1))
	bound := math.Sqrt(6.0 / 30.0)

	r, c := w.Dims()
	assert.Equal(t, 10, r)
	assert.Equal(t, 20, c)
	assert.LessOrEqual(t, mat.Max(w), bound)
	assert.GreaterOrEqual(t, mat.Min(w), -bound)
}

func TestRandn_Deterministic(t *testing.T) {
	a := nn.Randn(3, 3, source(7))
	b := nn.Randn(3, 3, source(7))
	assert.True(t, mat.Equal(a, b))
	assert.True(t, mat.Equal(mat.NewDense(2, 2, nil), nn.Zeros(2, 2)))
}

func TestLinear_Forward(t *testing.T) {
	layer := nn.NewLinear(2, 3, source(2))
	layer.Weight().Value().Copy(mat.NewDense(2, 3, []float64{1, 0, 1, 0, 1, 1}))
	layer.Bias().Value().Copy(mat.NewDense(1, 3, []float64{0.5, -0.5, 0}))

	g := autodiff.NewGraph()
	x := g.Input(mat.NewDense(2, 2, []float64{1, 2, 3, 4}))
	y := layer.Forward(x.Variable)

	want := mat.NewDense(2, 3, []float64{
		1.5, 1.5, 3,
		3.5, 3.5, 7,
	})
	assert.True(t, mat.Equal(want, y.Forward()))
	assert.Len(t, y.Parameters(), 2)
	assert.Len(t, layer.Parameters(), 2)
}

func TestLinear_Gradient(t *testing.T) {
	layer := nn.NewLinear(3, 2, source(3))
	g := autodiff.NewGraph()
	x := g.Input(nn.Randn(4, 3, source(4)))
	y := layer.Forward(x.Variable).Tanh()

	for _, p := range y.Parameters() {
		numeric, analytic := autodiff.FiniteDifference(p, y)
		assert.True(t, mat.EqualApprox(numeric, analytic, 0.05))
	}
}

// TestLinear_ReusedInOneGraph applies one layer twice in the same graph; its
// weights must appear once and be stepped once.
func TestLinear_ReusedInOneGraph(t *testing.T) {
	layer := nn.NewLinear(2, 2, source(7))
	g := autodiff.NewGraph()
	x := g.Input(mat.NewDense(1, 2, []float64{0.5, -1}))
	y := layer.Forward(layer.Forward(x.Variable)).Sum()

	require.Len(t, y.Parameters(), 2)
	y.Forward()
	y.Backward(1)
	optim.NewAdam(optim.AdamConfig{LR: 0.01}).Step(y.Parameters())

	assert.Equal(t, 1, layer.Weight().NumUpdates())
	assert.Equal(t, 1, layer.Bias().NumUpdates())
}

func TestEmbedding_ReusedInOneGraph(t *testing.T) {
	embed := nn.NewEmbeddingWithWeight(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	g := autodiff.NewGraph()
	a := embed.Forward(g.IndexInput(0))
	b := embed.Forward(g.IndexInput(2))
	y := a.VectorDot(b)

	params := y.Parameters()
	require.Len(t, params, 1)
	y.Forward()
	y.Backward(1)
	// d(a·b)/da = b, d(a·b)/db = a
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{5, 6, 0, 0, 1, 2}), params[0].Gradient()))
}

func TestLinear_WrongFeatures(t *testing.T) {
	layer := nn.NewLinear(3, 2, source(5))
	g := autodiff.NewGraph()
	assert.Panics(t, func() { layer.Forward(g.Input(mat.NewDense(1, 4, nil)).Variable) })
}

func TestEmbedding_Forward(t *testing.T) {
	embed := nn.NewEmbeddingWithWeight(mat.NewDense(3, 2, []float64{1, 2, 3, 4, 5, 6}))
	assert.Equal(t, 3, embed.NumEmbed)
	assert.Equal(t, 2, embed.EmbedDim)

	g := autodiff.NewGraph()
	vec := embed.Forward(g.IndexInput(2, 0))
	assert.True(t, mat.Equal(mat.NewDense(2, 2, []float64{5, 6, 1, 2}), vec.Forward()))

	vec.Backward(1)
	params := vec.Parameters()
	require.Len(t, params, 1)
	assert.True(t, params[0].Accumulator().HasSparse())
	assert.Same(t, embed.Weight, params[0].Hogwild())
}

func TestCrossEntropyLoss_Value(t *testing.T) {
	g := autodiff.NewGraph()
	logits := g.Parameter(mat.NewDense(1, 3, []float64{1, 2, 3}))
	target := g.Input(mat.NewDense(1, 3, []float64{0, 0, 1}))
	loss := nn.CrossEntropyLoss(logits.Variable, target)

	want := -(3 - floats.LogSumExp([]float64{1, 2, 3}))
	assert.InDelta(t, want, loss.Forward().At(0, 0), 1e-12)

	// d/dlogits = softmax - target
	loss.Backward(1)
	grad := logits.Gradient().RawRowView(0)
	assert.InDelta(t, 0.0, floats.Sum(grad), 1e-12)
	assert.Less(t, grad[2], 0.0)

	assert.Panics(t, func() { nn.CrossEntropyLoss(g.Input(mat.NewDense(2, 3, nil)).Variable, target) })
}

func TestSparseCategoricalCrossEntropy_Value(t *testing.T) {
	g := autodiff.NewGraph()
	logits := g.Parameter(mat.NewDense(1, 3, []float64{1, 2, 3}))
	target := g.IndexInput(2)
	loss := nn.SparseCategoricalCrossEntropy(logits.Variable, target)

	dense := nn.CrossEntropyLoss(logits.Variable, g.Input(mat.NewDense(1, 3, []float64{0, 0, 1})))
	assert.InDelta(t, dense.Value().At(0, 0), loss.Forward().At(0, 0), 1e-12)

	loss.Backward(1)
	grad := logits.Gradient().RawRowView(0)
	assert.InDelta(t, 0.0, floats.Sum(grad), 1e-12)
	assert.Less(t, grad[2], 0.0)

	loss.ZeroGradient()
	target.SetIndex(0)
	want := -(1 - floats.LogSumExp([]float64{1, 2, 3}))
	assert.InDelta(t, want, loss.Forward().At(0, 0), 1e-12)
	loss.Backward(1)
	assert.Less(t, logits.Gradient().At(0, 0), 0.0)

	assert.Panics(t, func() {
		nn.SparseCategoricalCrossEntropy(g.Input(mat.NewDense(2, 3, nil)).Variable, g.IndexInput(0, 1))
	})
}

func TestSparseCategoricalCrossEntropy_Gradient(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(nn.Randn(1, 10, source(6)))
	z := x.Add(x)
	loss := nn.SparseCategoricalCrossEntropy(z, g.IndexInput(0))

	numeric, analytic := autodiff.FiniteDifference(x, loss)
	assert.True(t, mat.EqualApprox(numeric, analytic, 0.05),
		"numeric:\n%v\nanalytic:\n%v", mat.Formatted(numeric), mat.Formatted(analytic))
}

func TestMSELoss_Value(t *testing.T) {
	g := autodiff.NewGraph()
	pred := g.Input(mat.NewDense(1, 4, []float64{1, 2, 3, 4}))
	target := g.Input(mat.NewDense(1, 4, []float64{1, 0, 3, 2}))

	assert.Equal(t, 2.0, nn.MSELoss(pred.Variable, target).Value().At(0, 0))
}

// TestSequential_Training fits a small two-layer network to a linear target
// and checks the loss shrinks by an order of magnitude.
func TestSequential_Training(t *testing.T) {
	model := nn.NewSequential(
		nn.NewLinear(2, 8, source(10)),
		nn.NewTanh(),
	)
	model.Add(nn.NewLinear(8, 1, source(11)))
	require.Equal(t, 3, model.Len())
	assert.Len(t, model.Parameters(), 4)
	assert.IsType(t, &nn.Tanh{}, model.Module(1))
	assert.PanicsWithValue(t, "sequential: module 3 out of range [0, 3)", func() { model.Module(3) })

	g := autodiff.NewGraph()
	x := g.Input(mat.NewDense(4, 2, []float64{0, 0, 0, 1, 1, 0, 1, 1}))
	y := g.Input(mat.NewDense(4, 1, []float64{0.1, 0.4, 0.6, 0.9}))
	loss := nn.MSELoss(model.Forward(x.Variable), y)

	initial := mat.Sum(loss.Value())
	optimizer := optim.NewAdam(optim.AdamConfig{LR: 0.05})
	for range 300 {
		loss.Forward()
		loss.Backward(1)
		optimizer.Step(loss.Parameters())
	}
	loss.Forward()
	loss.Clear()

	assert.Less(t, mat.Sum(loss.Value()), initial/10)
}

func TestActivations(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Input(mat.NewDense(1, 2, []float64{-1, 1})).Variable

	assert.Equal(t, []float64{0, 1}, nn.NewReLU().Forward(x).Value().RawRowView(0))
	assert.InDelta(t, math.Tanh(1), nn.NewTanh().Forward(x).Value().At(0, 1), 1e-12)
	assert.InDelta(t, 1/(1+math.Exp(1)), nn.NewSigmoid().Forward(x).Value().At(0, 0), 1e-12)
	assert.Nil(t, nn.NewReLU().Parameters())
	assert.Panics(t, func() { nn.NewSequential().Module(0) })
}
