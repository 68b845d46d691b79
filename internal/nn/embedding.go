package nn

import (
	"math/rand/v2"

	"github.com/born-ml/algodiff/internal/autodiff"
	"gonum.org/v1/gonum/mat"
)

// Embedding is a lookup table that maps discrete indices to dense vectors.
//
// Architecture:
//   - Weight: [NumEmbed, EmbedDim] shared parameter
//   - Forward: indices [n] -> embeddings [n, EmbedDim]
//   - Backward: gradients are written to the touched weight rows only
//
// Because lookups produce sparse gradients, an embedding table can be shared
// by many Hogwild workers with little contention.
//
// Example:
//
//	embed := nn.NewEmbedding(10000, 64, nil)
//
//	g := autodiff.NewGraph()
//	ids := g.IndexInput(42)
//	vec := embed.Forward(ids) // [1, 64]
type Embedding struct {
	Weight   *autodiff.HogwildParameter // Embedding weight matrix [NumEmbed, EmbedDim]
	NumEmbed int                        // Number of embeddings (vocabulary size)
	EmbedDim int                        // Embedding dimension (vector size)
}

// NewEmbedding creates an Embedding with N(0, 1) weights. A nil src uses the
// global random source.
func NewEmbedding(numEmbeddings, embeddingDim int, src rand.Source) *Embedding {
	return NewEmbeddingWithWeight(Randn(numEmbeddings, embeddingDim, src))
}

// NewEmbeddingWithWeight creates an Embedding from a copy of weight.
func NewEmbeddingWithWeight(weight mat.Matrix) *Embedding {
	r, c := weight.Dims()
	return &Embedding{
		Weight:   autodiff.NewHogwildParameter(weight),
		NumEmbed: r,
		EmbedDim: c,
	}
}

// Forward looks up the rows selected by indices on the indices' graph.
func (e *Embedding) Forward(indices autodiff.IndexInput) autodiff.Variable {
	return indices.Graph().SharedParameter(e.Weight).Index(indices)
}

// Parameters returns the weight table.
func (e *Embedding) Parameters() []*autodiff.HogwildParameter {
	return []*autodiff.HogwildParameter{e.Weight}
}
