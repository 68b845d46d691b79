package nn

import (
	"math"
	"math/rand/v2"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Xavier (Glorot) initialization for weights.
//
// Initializes weights with values drawn from a uniform distribution:
// U(-sqrt(6/(fan_in + fan_out)), sqrt(6/(fan_in + fan_out)))
//
// This initialization helps maintain variance of activations across layers.
// A nil src uses the global random source.
func Xavier(fanIn, fanOut, rows, cols int, src rand.Source) *mat.Dense {
	bound := math.Sqrt(6.0 / float64(fanIn+fanOut))
	return sample(rows, cols, distuv.Uniform{Min: -bound, Max: bound, Src: src})
}

// Randn returns a matrix of N(0, 1) samples.
func Randn(rows, cols int, src rand.Source) *mat.Dense {
	return sample(rows, cols, distuv.Normal{Mu: 0, Sigma: 1, Src: src})
}

// Zeros creates a matrix filled with zeros.
//
// This is commonly used for bias initialization.
func Zeros(rows, cols int) *mat.Dense {
	return mat.NewDense(rows, cols, nil)
}

func sample(rows, cols int, dist distuv.Rander) *mat.Dense {
	data := make([]float64, rows*cols)
	for i := range data {
		data[i] = dist.Rand()
	}
	return mat.NewDense(rows, cols, data)
}
