// Package dense implements an in-memory similarity index backed by one
// row-major float32 matrix. Rows are L2-normalized at build time so a
// cosine similarity query is a single dot product per row.
package dense

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/sim"
)

// ctxCheckRows is how many rows a scan processes between cancellation checks.
const ctxCheckRows = 4096

// Index is an immutable dense similarity index. It does not support
// incremental addition: rebuild wholesale when the corpus changes.
type Index struct {
	dim  int
	rows int
	data []float32 // rows*dim, rows normalized
}

var _ sim.Searcher = (*Index)(nil)

// New builds a dense index from a corpus of document vectors.
// Vectors are copied and normalized; the inputs are not modified.
func New(dim int, corpus [][]float32) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("dense: dim must be positive, got %d", dim)
	}
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	data := make([]float32, 0, len(corpus)*dim)
	for i, vec := range corpus {
		if len(vec) != dim {
			return nil, fmt.Errorf("dense: document %d: %w", i, domain.NewDimMismatch(dim, len(vec)))
		}
		data = append(data, vec...)
		sim.Normalize(data[i*dim:])
	}

	return &Index{dim: dim, rows: len(corpus), data: data}, nil
}

// FromNormalized wraps a pre-normalized row-major matrix without copying.
// It is the persistence path: shard files store rows already normalized,
// so reloading skips renormalization and round-trips scores exactly.
func FromNormalized(dim, rows int, data []float32) (*Index, error) {
	if rows*dim != len(data) {
		return nil, fmt.Errorf("dense: %d rows x %d dim != %d values", rows, dim, len(data))
	}
	return &Index{dim: dim, rows: rows, data: data}, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return x.rows }

// Dim returns the feature-space size.
func (x *Index) Dim() int { return x.dim }

// Raw exposes the normalized row-major matrix for persistence.
func (x *Index) Raw() []float32 { return x.data }

// Query returns the cosine similarity of vec against every row,
// in insertion order.
func (x *Index) Query(ctx context.Context, vec []float32) ([]float32, error) {
	q, err := x.prepareQuery(vec)
	if err != nil {
		return nil, err
	}

	scores := make([]float32, x.rows)
	for i := 0; i < x.rows; i++ {
		if i%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("dense query: %w", err)
			}
		}
		scores[i] = sim.Dot(x.data[i*x.dim:(i+1)*x.dim], q)
	}
	return scores, nil
}

// QueryBest returns the k best matches for vec, score descending,
// ties stable by insertion order.
func (x *Index) QueryBest(ctx context.Context, vec []float32, k int) ([]domain.Match, error) {
	scores, err := x.Query(ctx, vec)
	if err != nil {
		return nil, err
	}
	return sim.SelectBest(scores, k), nil
}

// prepareQuery validates dimensions and returns a normalized copy of vec.
func (x *Index) prepareQuery(vec []float32) ([]float32, error) {
	if len(vec) != x.dim {
		return nil, domain.NewDimMismatch(x.dim, len(vec))
	}
	q := make([]float32, x.dim)
	copy(q, vec)
	sim.Normalize(q)
	return q, nil
}
