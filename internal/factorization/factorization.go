// Package factorization trains a low-rank embedding factorization of a
// synthetic matrix, optionally with many Hogwild workers sharing the
// embedding tables without locks.
//
// The target X = U*·V*ᵀ is generated from random factors. Each training
// example is one cell (i, j) and the model predicts it as the inner product
// of row i of U and row j of V, so every step touches one row of each table
// and produces sparse gradients.
package factorization

import (
	"math/rand/v2"
	"runtime"
	"strings"

	"github.com/born-ml/algodiff/internal/autodiff"
	"github.com/born-ml/algodiff/internal/nn"
	"github.com/born-ml/algodiff/internal/optim"
	"github.com/born-ml/algodiff/internal/parallel"
	"github.com/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Optimizer names accepted by Config.Optimizer.
const (
	SGD     = "sgd"
	Adagrad = "adagrad"
	Adam    = "adam"
)

// Config describes one training run. Zero fields take the defaults listed
// next to them.
type Config struct {
	Rows int // Rows of the target matrix (default: 10)
	Cols int // Columns of the target matrix (default: 4)
	Dim  int // Latent dimension (default: 10)

	Epochs  int // Full passes over the matrix per worker (default: 100)
	Workers int // Concurrent workers (default: runtime.NumCPU())

	Optimizer string  // sgd, adagrad or adam (default: sgd)
	LR        float64 // Learning rate (default: the optimizer's own)

	// Synchronized serializes optimizer steps across workers with a mutex
	// instead of letting them race.
	Synchronized bool

	Seed uint64 // Seed for the target and the initial embeddings
}

// Result summarizes a training run.
type Result struct {
	// Losses holds each worker's summed squared error over its last epoch.
	Losses []float64
	// MeanLoss is the mean of Losses.
	MeanLoss float64
	// Target is the matrix being factorized.
	Target *mat.Dense
	// U and V are copies of the learned embedding tables.
	U, V *mat.Dense
	// Updates counts the optimizer steps applied to U.
	Updates int
}

// WithDefaults returns c with zero fields replaced by their defaults.
func (c Config) WithDefaults() Config {
	if c.Rows == 0 {
		c.Rows = 10
	}
	if c.Cols == 0 {
		c.Cols = 4
	}
	if c.Dim == 0 {
		c.Dim = 10
	}
	if c.Epochs == 0 {
		c.Epochs = 100
	}
	if c.Workers == 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.Optimizer == "" {
		c.Optimizer = SGD
	}
	c.Optimizer = strings.ToLower(c.Optimizer)
	return c
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Rows < 1 || c.Cols < 1:
		return errors.Errorf("matrix must be at least 1x1, got %dx%d", c.Rows, c.Cols)
	case c.Dim < 1:
		return errors.Errorf("latent dimension must be positive, got %d", c.Dim)
	case c.Epochs < 1:
		return errors.Errorf("epochs must be positive, got %d", c.Epochs)
	case c.Workers < 1:
		return errors.Errorf("workers must be positive, got %d", c.Workers)
	case c.LR < 0:
		return errors.Errorf("learning rate must not be negative, got %g", c.LR)
	}
	if _, err := newOptimizer(c); err != nil {
		return err
	}
	return nil
}

func newOptimizer(c Config) (optim.Optimizer, error) {
	switch c.Optimizer {
	case SGD:
		return optim.NewSGD(optim.SGDConfig{LR: c.LR}), nil
	case Adagrad:
		return optim.NewAdagrad(optim.AdagradConfig{LR: c.LR}), nil
	case Adam:
		return optim.NewAdam(optim.AdamConfig{LR: c.LR}), nil
	default:
		return nil, errors.Errorf("unknown optimizer %q (want %s, %s or %s)", c.Optimizer, SGD, Adagrad, Adam)
	}
}

// Train runs cfg.Workers workers concurrently against shared U and V tables
// and returns the per-worker losses of the final epoch.
func Train(cfg Config) (*Result, error) {
	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "factorization config")
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	target := mat.NewDense(cfg.Rows, cfg.Cols, nil)
	target.Mul(nn.Randn(cfg.Rows, cfg.Dim, rng), nn.Randn(cfg.Cols, cfg.Dim, rng).T())

	u := nn.NewEmbedding(cfg.Rows, cfg.Dim, rng)
	v := nn.NewEmbedding(cfg.Cols, cfg.Dim, rng)

	var shared optim.Optimizer
	if cfg.Synchronized {
		opt, err := newOptimizer(cfg)
		if err != nil {
			return nil, err
		}
		shared = optim.NewSynchronized(opt)
	}

	losses := parallel.Map(cfg.Workers, func(int) float64 {
		opt := shared
		if opt == nil {
			// Validated above; optimizers hold no per-parameter state.
			opt, _ = newOptimizer(cfg)
		}
		return newWorker(u, v).train(target, cfg.Epochs, opt)
	}, parallel.WorkerConfig(cfg.Workers))

	var sum float64
	for _, l := range losses {
		sum += l
	}
	return &Result{
		Losses:   losses,
		MeanLoss: sum / float64(len(losses)),
		Target:   target,
		U:        mat.DenseCopyOf(u.Weight.Value()),
		V:        mat.DenseCopyOf(v.Weight.Value()),
		Updates:  u.Weight.NumUpdates(),
	}, nil
}

// worker owns one graph over the shared tables.
type worker struct {
	uIndex, vIndex autodiff.IndexInput
	observed       autodiff.Input
	loss           autodiff.Variable
}

func newWorker(u, v *nn.Embedding) *worker {
	g := autodiff.NewGraph()
	w := &worker{
		uIndex:   g.IndexInput(0),
		vIndex:   g.IndexInput(0),
		observed: g.Scalar(0),
	}
	prediction := u.Forward(w.uIndex).VectorDot(v.Forward(w.vIndex))
	w.loss = w.observed.Sub(prediction).Square()
	return w
}

// train runs the epochs and returns the summed loss of the last one.
func (w *worker) train(target *mat.Dense, epochs int, opt optim.Optimizer) float64 {
	rows, cols := target.Dims()
	params := w.loss.Parameters()

	var epochLoss float64
	for range epochs {
		epochLoss = 0
		for i := 0; i < rows; i++ {
			for j := 0; j < cols; j++ {
				w.uIndex.SetIndex(i)
				w.vIndex.SetIndex(j)
				w.observed.SetScalar(target.At(i, j))

				w.loss.Forward()
				w.loss.Backward(1)
				epochLoss += w.loss.Value().At(0, 0)

				opt.Step(params)
			}
		}
	}
	return epochLoss
}
