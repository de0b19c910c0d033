// Package sparse implements an in-memory similarity index in compressed
// sparse row (CSR) form. It carries the same query contract as the dense
// variant but stores only non-zero entries, so memory and query cost are
// proportional to the number of non-zeros rather than rows x dim.
package sparse

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/sim"
)

const ctxCheckRows = 4096

// Index is an immutable CSR similarity index with L2-normalized rows.
type Index struct {
	dim    int
	rowPtr []uint32 // len rows+1, offsets into cols/vals
	cols   []int32
	vals   []float32
}

var _ sim.Searcher = (*Index)(nil)

// New builds a sparse index from a corpus of sparse document vectors.
// Values are copied and rows normalized; the inputs are not modified.
func New(dim int, corpus []domain.SparseVector) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("sparse: dim must be positive, got %d", dim)
	}
	if len(corpus) == 0 {
		return nil, domain.ErrEmptyCorpus
	}

	var nnz int
	for i, sv := range corpus {
		if int(sv.MaxIndex()) >= dim {
			return nil, fmt.Errorf("sparse: document %d: feature id %d out of range: %w",
				i, sv.MaxIndex(), domain.NewDimMismatch(dim, int(sv.MaxIndex())+1))
		}
		nnz += sv.NNZ()
	}

	x := &Index{
		dim:    dim,
		rowPtr: make([]uint32, 1, len(corpus)+1),
		cols:   make([]int32, 0, nnz),
		vals:   make([]float32, 0, nnz),
	}
	for _, sv := range corpus {
		norm := sv.Norm()
		inv := float32(1)
		if norm > 0 {
			inv = 1 / norm
		}
		for i, idx := range sv.Indices {
			x.cols = append(x.cols, idx)
			x.vals = append(x.vals, sv.Values[i]*inv)
		}
		x.rowPtr = append(x.rowPtr, uint32(len(x.cols)))
	}
	return x, nil
}

// FromRaw wraps pre-normalized CSR arrays without copying (persistence path).
func FromRaw(dim int, rowPtr []uint32, cols []int32, vals []float32) (*Index, error) {
	if len(rowPtr) < 1 {
		return nil, fmt.Errorf("sparse: empty row pointer array")
	}
	if len(cols) != len(vals) {
		return nil, fmt.Errorf("sparse: %d cols vs %d vals", len(cols), len(vals))
	}
	if int(rowPtr[len(rowPtr)-1]) != len(cols) {
		return nil, fmt.Errorf("sparse: row pointer tail %d != nnz %d", rowPtr[len(rowPtr)-1], len(cols))
	}
	return &Index{dim: dim, rowPtr: rowPtr, cols: cols, vals: vals}, nil
}

// Len returns the number of indexed documents.
func (x *Index) Len() int { return len(x.rowPtr) - 1 }

// Dim returns the feature-space size.
func (x *Index) Dim() int { return x.dim }

// NNZ returns the total number of stored entries.
func (x *Index) NNZ() int { return len(x.vals) }

// Raw exposes the normalized CSR arrays for persistence.
func (x *Index) Raw() (rowPtr []uint32, cols []int32, vals []float32) {
	return x.rowPtr, x.cols, x.vals
}

// Query returns the cosine similarity of vec against every row,
// in insertion order.
func (x *Index) Query(ctx context.Context, vec []float32) ([]float32, error) {
	if len(vec) != x.dim {
		return nil, domain.NewDimMismatch(x.dim, len(vec))
	}
	q := make([]float32, x.dim)
	copy(q, vec)
	sim.Normalize(q)

	rows := x.Len()
	scores := make([]float32, rows)
	for i := 0; i < rows; i++ {
		if i%ctxCheckRows == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("sparse query: %w", err)
			}
		}
		var sum float32
		for j := x.rowPtr[i]; j < x.rowPtr[i+1]; j++ {
			sum += x.vals[j] * q[x.cols[j]]
		}
		scores[i] = sum
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
