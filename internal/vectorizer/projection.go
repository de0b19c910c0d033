package vectorizer

import (
	"math"
	"math/rand"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// Projection is a linear transform from the sparse tf-idf space into a dense
// latent topic space, using a seeded sparse random projection (Achlioptas
// construction). Term rows are derived deterministically from the seed and
// the feature id, so the matrix is never materialized or persisted: the same
// seed always reproduces the same transform.
type Projection struct {
	topics int
	seed   int64
	scale  float32
}

// NewProjection creates a projection into the given number of topics.
func NewProjection(topics int, seed int64) *Projection {
	return &Projection{
		topics: topics,
		seed:   seed,
		scale:  float32(math.Sqrt(3 / float64(topics))),
	}
}

// Topics returns the dimensionality of the output space.
func (p *Projection) Topics() int { return p.topics }

// Seed returns the seed the transform was built from.
func (p *Projection) Seed() int64 { return p.seed }

// Transform projects a sparse vector into the dense topic space.
func (p *Projection) Transform(sv domain.SparseVector) []float32 {
	out := make([]float32, p.topics)
	row := make([]float32, p.topics)
	for i, id := range sv.Indices {
		p.termRow(id, row)
		v := sv.Values[i]
		for t, r := range row {
			out[t] += v * r
		}
	}
	return out
}

// termRow fills row with the projection entries of a single feature id.
// Entries are +scale with probability 1/6, -scale with 1/6, zero otherwise.
func (p *Projection) termRow(id int32, row []float32) {
	// Fibonacci-hash the feature id in uint64 space to spread per-term seeds.
	mixed := (uint64(id) + 1) * 0x9E3779B97F4A7C15
	rng := rand.New(rand.NewSource(p.seed ^ int64(mixed)))
	for t := range row {
		switch rng.Int63n(6) {
		case 0:
			row[t] = p.scale
		case 1:
			row[t] = -p.scale
		default:
			row[t] = 0
		}
	}
}
