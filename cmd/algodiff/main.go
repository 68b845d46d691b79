// Command algodiff trains a low-rank factorization of a synthetic matrix with
// Hogwild workers and reports the per-worker losses.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/born-ml/algodiff/internal/factorization"
)

const version = "v0.0.1-dev"

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "algodiff:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		usage(out)
		return nil
	}

	switch args[0] {
	case "version":
		fmt.Fprintf(out, "algodiff %s\n", version)
		return nil
	case "train":
		return train(args[1:], out)
	case "help", "-h", "--help":
		usage(out)
		return nil
	default:
		usage(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func usage(out io.Writer) {
	fmt.Fprintln(out, "algodiff - reverse-mode automatic differentiation for Go")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Usage:")
	fmt.Fprintln(out, "  algodiff train [flags]   Factorize a random matrix with Hogwild workers")
	fmt.Fprintln(out, "  algodiff version         Show version information")
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Run 'algodiff train -h' for the training flags.")
}

func train(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("train", flag.ContinueOnError)
	fs.SetOutput(out)

	var cfg factorization.Config
	fs.IntVar(&cfg.Workers, "workers", 0, "Concurrent workers (0 = number of CPUs)")
	fs.IntVar(&cfg.Epochs, "epochs", 100, "Passes over the matrix per worker")
	fs.IntVar(&cfg.Rows, "rows", 10, "Rows of the target matrix")
	fs.IntVar(&cfg.Cols, "cols", 4, "Columns of the target matrix")
	fs.IntVar(&cfg.Dim, "dim", 10, "Latent dimension")
	fs.StringVar(&cfg.Optimizer, "optimizer", factorization.SGD, "Optimizer: sgd, adagrad or adam")
	fs.Float64Var(&cfg.LR, "lr", 0, "Learning rate (0 = optimizer default)")
	fs.BoolVar(&cfg.Synchronized, "sync", false, "Serialize optimizer steps with a mutex")
	fs.Uint64Var(&cfg.Seed, "seed", 42, "Random seed")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 0 {
		return fmt.Errorf("train: unexpected arguments %v", fs.Args())
	}

	res, err := factorization.Train(cfg)
	if err != nil {
		return err
	}

	cfg = cfg.WithDefaults()
	mode := "hogwild"
	if cfg.Synchronized {
		mode = "synchronized"
	}
	fmt.Fprintf(out, "Factorized %dx%d matrix (dim %d) with %d %s workers, %s, %d epochs\n",
		cfg.Rows, cfg.Cols, cfg.Dim, cfg.Workers, mode, cfg.Optimizer, cfg.Epochs)
	for i, loss := range res.Losses {
		fmt.Fprintf(out, "  worker %-3d loss %.6f\n", i, loss)
	}
	fmt.Fprintf(out, "Mean loss: %.6f\n", res.MeanLoss)
	fmt.Fprintf(out, "Updates:   %d\n", res.Updates)
	return nil
}
