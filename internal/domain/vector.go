package domain

import (
	"fmt"
	"math"
)

// SparseVector is a sparse document vector stored as parallel index/value arrays.
// Indices are feature ids, strictly ascending. Zero values are never stored.
type SparseVector struct {
	Indices []int32
	Values  []float32
}

// NewSparseVector validates and wraps parallel index/value arrays.
func NewSparseVector(indices []int32, values []float32) (SparseVector, error) {
	if len(indices) != len(values) {
		return SparseVector{}, fmt.Errorf("sparse vector: %d indices vs %d values", len(indices), len(values))
	}
	for i := range indices {
		if indices[i] < 0 {
			return SparseVector{}, fmt.Errorf("sparse vector: negative index %d", indices[i])
		}
		if i > 0 && indices[i] <= indices[i-1] {
			return SparseVector{}, fmt.Errorf("sparse vector: indices not strictly ascending at position %d", i)
		}
	}
	return SparseVector{Indices: indices, Values: values}, nil
}

// SparseFromDense converts a dense vector to sparse form, dropping zeros.
func SparseFromDense(dense []float32) SparseVector {
	var nnz int
	for _, v := range dense {
		if v != 0 {
			nnz++
		}
	}
	sv := SparseVector{
		Indices: make([]int32, 0, nnz),
		Values:  make([]float32, 0, nnz),
	}
	for i, v := range dense {
		if v != 0 {
			sv.Indices = append(sv.Indices, int32(i))
			sv.Values = append(sv.Values, v)
		}
	}
	return sv
}

// NNZ returns the number of stored (non-zero) entries.
func (sv SparseVector) NNZ() int { return len(sv.Values) }

// Dot computes the dot product with a dense vector.
// Indices beyond the dense length contribute nothing.
func (sv SparseVector) Dot(dense []float32) float32 {
	var sum float32
	for i, idx := range sv.Indices {
		if int(idx) < len(dense) {
			sum += sv.Values[i] * dense[idx]
		}
	}
	return sum
}

// Norm returns the L2 norm of the vector.
func (sv SparseVector) Norm() float32 {
	var sum float64
	for _, v := range sv.Values {
		sum += float64(v) * float64(v)
	}
	return float32(math.Sqrt(sum))
}

// Scale multiplies every stored value in place.
func (sv SparseVector) Scale(f float32) {
	for i := range sv.Values {
		sv.Values[i] *= f
	}
}

// ToDense expands the vector into a dense slice of the given dimension.
// Indices outside [0, dim) are dropped.
func (sv SparseVector) ToDense(dim int) []float32 {
	dense := make([]float32, dim)
	for i, idx := range sv.Indices {
		if int(idx) < dim {
			dense[idx] = sv.Values[i]
		}
	}
	return dense
}

// MaxIndex returns the largest stored feature id, or -1 for an empty vector.
func (sv SparseVector) MaxIndex() int32 {
	if len(sv.Indices) == 0 {
		return -1
	}
	return sv.Indices[len(sv.Indices)-1]
}
