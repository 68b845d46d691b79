package optim_test

import (
	"math"
	"math/rand/v2"
	"sync"
	"testing"

	"github.com/born-ml/algodiff/internal/autodiff"
	"github.com/born-ml/algodiff/internal/optim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func scalar(v float64) *mat.Dense {
	return mat.NewDense(1, 1, []float64{v})
}

// linearLoss builds loss = sum(w * c) whose gradient w.r.t. w is c.
func linearLoss(g *autodiff.Graph, w autodiff.Parameter, c *mat.Dense) autodiff.Variable {
	return w.Mul(g.Input(c)).Sum()
}

// TestSGD_SimpleUpdate tests SGD without momentum.
func TestSGD_SimpleUpdate(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(scalar(2.0))
	loss := linearLoss(g, x, scalar(1.0))

	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	loss.Forward()
	loss.Backward(1)
	optimizer.Step(loss.Parameters())

	// x_new = x_old - lr * grad = 2.0 - 0.1 * 1.0
	assert.InDelta(t, 1.9, x.Value().At(0, 0), 1e-12)
	assert.True(t, x.Accumulator().IsEmpty(), "Step must zero the gradient")
	assert.Equal(t, 1, x.Hogwild().NumUpdates())
}

// TestSGD_WithMomentum tests SGD with momentum.
func TestSGD_WithMomentum(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(scalar(1.0))
	loss := linearLoss(g, x, scalar(1.0))

	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1, Momentum: 0.9})
	for range 2 {
		loss.Forward()
		loss.Backward(1)
		optimizer.Step(loss.Parameters())
	}

	// v1 = 1, x1 = 0.9; v2 = 0.9 + 1 = 1.9, x2 = 0.9 - 0.19
	assert.InDelta(t, 0.71, x.Value().At(0, 0), 1e-12)
	assert.InDelta(t, 1.9, x.Hogwild().Moments().At(0, 0), 1e-12)
}

func TestSGD_BatchSizeAndClamp(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(mat.NewDense(1, 2, []float64{0, 0}))
	loss := linearLoss(g, x, mat.NewDense(1, 2, []float64{4, -0.5}))

	optimizer := optim.NewSGD(optim.SGDConfig{
		LR:        1,
		BatchSize: 2,
		Clamp:     &optim.Bounds{Min: -1, Max: 1},
	})
	loss.Forward()
	loss.Backward(1)
	optimizer.Step(loss.Parameters())

	assert.Equal(t, []float64{-0.5, 0.25}, x.Value().RawRowView(0))
}

func TestSGD_Sparse(t *testing.T) {
	g := autodiff.NewGraph()
	e := g.Parameter(mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1}))
	// Stale dense gradient from an earlier sweep must not leak into rows
	// untouched by the sparse one.
	e.Accumulator().AddDense(mat.NewDense(3, 2, []float64{9, 9, 9, 9, 9, 9}))
	e.Accumulator().ZeroGradient()

	loss := e.Index(g.IndexInput(1)).Sum()
	loss.Forward()
	loss.Backward(1)

	optim.NewSGD(optim.SGDConfig{LR: 0.5}).Step(loss.Parameters())
	assert.True(t, mat.Equal(mat.NewDense(3, 2, []float64{1, 1, 0.5, 0.5, 1, 1}), e.Value()))
}

func TestSGD_SkipsParametersWithoutGradient(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(scalar(3))

	optim.NewSGD(optim.SGDConfig{}).Step([]autodiff.Parameter{x})
	assert.Equal(t, 3.0, x.Value().At(0, 0))
	assert.Zero(t, x.Hogwild().NumUpdates())
}

// TestOptimizer_GetSetLR tests learning rate accessors and defaults.
func TestOptimizer_GetSetLR(t *testing.T) {
	tests := []struct {
		name string
		opt  optim.Optimizer
		want float64
	}{
		{"sgd", optim.NewSGD(optim.SGDConfig{}), 0.05},
		{"adagrad", optim.NewAdagrad(optim.AdagradConfig{}), 0.05},
		{"adam", optim.NewAdam(optim.AdamConfig{}), 0.001},
		{"synchronized", optim.NewSynchronized(optim.NewSGD(optim.SGDConfig{LR: 0.3})), 0.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.opt.GetLR())
			tt.opt.SetLR(0.01)
			assert.Equal(t, 0.01, tt.opt.GetLR())
		})
	}
}

// TestAdagrad_NonIncreasingSteps applies a constant gradient and checks that
// each step is no larger than the previous one.
func TestAdagrad_NonIncreasingSteps(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(mat.NewDense(2, 2, []float64{1, -1, 0.5, 2}))
	loss := linearLoss(g, x, mat.NewDense(2, 2, []float64{0.3, -2, 1, 0.01}))
	optimizer := optim.NewAdagrad(optim.AdagradConfig{LR: 0.5})

	prev := mat.DenseCopyOf(x.Value())
	lastStep := math.Inf(1)
	for range 20 {
		loss.Forward()
		loss.Backward(1)
		optimizer.Step(loss.Parameters())

		var delta mat.Dense
		delta.Sub(x.Value(), prev)
		step := mat.Norm(&delta, 2)
		assert.LessOrEqual(t, step, lastStep+1e-15)
		lastStep = step
		prev.Copy(x.Value())
	}
}

func TestAdagrad_FirstStep(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(scalar(1))
	loss := linearLoss(g, x, scalar(2))

	loss.Forward()
	loss.Backward(1)
	optim.NewAdagrad(optim.AdagradConfig{LR: 0.1, L2: 0.5}).Step(loss.Parameters())

	// g = 2 + 0.5*1 = 2.5; sum = 6.25; x = 1 - 0.1/2.5 * 2.5
	assert.InDelta(t, 0.9, x.Value().At(0, 0), 1e-9)
	assert.InDelta(t, 6.25, x.Hogwild().SquaredGradients().At(0, 0), 1e-12)
}

func TestAdagrad_Clamp(t *testing.T) {
	g := autodiff.NewGraph()
	x := g.Parameter(mat.NewDense(1, 2, []float64{0, 0}))
	loss := linearLoss(g, x, mat.NewDense(1, 2, []float64{4, -0.5}))

	loss.Forward()
	loss.Backward(1)
	optim.NewAdagrad(optim.AdagradConfig{
		LR:    0.1,
		Clamp: &optim.Bounds{Min: -1, Max: 1},
	}).Step(loss.Parameters())

	// Clamped g = [1, -0.5]; sum = g²; each element moves by lr.
	assert.InDeltaSlice(t, []float64{1, 0.25}, x.Hogwild().SquaredGradients().RawRowView(0), 1e-12)
	assert.InDeltaSlice(t, []float64{-0.1, 0.1}, x.Value().RawRowView(0), 1e-9)
}

// TestAdam_Sparse checks that only the indexed row and its moments move.
func TestAdam_Sparse(t *testing.T) {
	g := autodiff.NewGraph()
	e := g.Parameter(mat.NewDense(3, 2, []float64{1, 1, 1, 1, 1, 1}))
	loss := e.Index(g.IndexInput(1)).Sum()

	loss.Forward()
	loss.Backward(1)
	require.True(t, e.Accumulator().HasSparse())
	optim.NewAdam(optim.AdamConfig{LR: 0.01}).Step(loss.Parameters())

	hp := e.Hogwild()
	assert.InDeltaSlice(t, []float64{1, 1, 0.99, 0.99, 1, 1}, hp.Value().RawMatrix().Data, 1e-6)
	assert.InDeltaSlice(t, []float64{0, 0, 0.1, 0.1, 0, 0}, hp.Moments().RawMatrix().Data, 1e-12)
	assert.Equal(t, 1, hp.NumUpdates())
	assert.True(t, e.Accumulator().IsEmpty())
}

// TestAdam_BiasCorrection checks that the first Adam step has magnitude lr
// regardless of the gradient scale.
func TestAdam_BiasCorrection(t *testing.T) {
	for _, c := range []float64{0.001, 1, 1000} {
		g := autodiff.NewGraph()
		x := g.Parameter(scalar(0))
		loss := linearLoss(g, x, scalar(c))

		loss.Forward()
		loss.Backward(1)
		optim.NewAdam(optim.AdamConfig{LR: 0.01}).Step(loss.Parameters())

		assert.InDelta(t, -0.01, x.Value().At(0, 0), 1e-6, "gradient %v", c)
	}
}

// TestRegression_Univariate fits y = 0.5x + 0.2 with Adagrad.
func TestRegression_Univariate(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	g := autodiff.NewGraph()
	slope := g.Parameter(scalar(rng.NormFloat64()))
	intercept := g.Parameter(scalar(rng.NormFloat64()))

	x := g.Input(scalar(0))
	y := g.Input(scalar(0))
	yHat := slope.Mul(x).Add(intercept)
	loss := y.Sub(yHat).Square()

	optimizer := optim.NewAdagrad(optim.AdagradConfig{LR: 0.5})
	for range 1000 {
		xv := rng.Float64()
		x.SetScalar(xv)
		y.SetScalar(0.5*xv + 0.2)

		loss.Forward()
		loss.Backward(1)
		optimizer.Step(loss.Parameters())
	}

	loss.Forward()
	loss.Clear()
	assert.Less(t, mat.Sum(loss.Value()), 1e-2)
}

// TestRegression_Multivariate fits y = x·[1 2 3] + 5 with SGD.
func TestRegression_Multivariate(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	g := autodiff.NewGraph()
	slope := g.Parameter(mat.NewDense(1, 3, []float64{rng.NormFloat64(), rng.NormFloat64(), rng.NormFloat64()}))
	intercept := g.Parameter(scalar(rng.NormFloat64()))
	coefficients := mat.NewDense(3, 1, []float64{1, 2, 3})

	x := g.Input(mat.NewDense(1, 3, nil))
	y := g.Input(scalar(0))
	yHat := x.VectorDot(slope).Add(intercept)
	loss := y.Sub(yHat).Square()

	optimizer := optim.NewSGD(optim.SGDConfig{LR: 0.1})
	var total float64
	for epoch := range 2000 {
		xv := mat.NewDense(1, 3, []float64{rng.Float64(), rng.Float64(), rng.Float64()})
		var yv mat.Dense
		yv.Mul(xv, coefficients)
		x.SetValue(xv)
		y.SetScalar(yv.At(0, 0) + 5)

		loss.Forward()
		loss.Backward(1)
		if epoch >= 1900 {
			total += mat.Sum(loss.Value())
		}
		optimizer.Step(loss.Parameters())
	}

	assert.Less(t, total/100, 1e-1)
}

// TestSynchronized_ConcurrentSteps runs many locked steps on a shared
// parameter and checks that none is lost.
func TestSynchronized_ConcurrentSteps(t *testing.T) {
	const workers, steps = 4, 50
	hp := autodiff.NewHogwildParameter(scalar(0))
	optimizer := optim.NewSynchronized(optim.NewSGD(optim.SGDConfig{LR: 1}))

	var wg sync.WaitGroup
	for range workers {
		g := autodiff.NewGraph()
		p := g.SharedParameter(hp)
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range steps {
				p.Accumulator().AddDense(scalar(-1))
				optimizer.Step([]autodiff.Parameter{p})
			}
		}()
	}
	wg.Wait()

	require.Equal(t, workers*steps, hp.NumUpdates())
	assert.Equal(t, float64(workers*steps), hp.Value().At(0, 0))
}
