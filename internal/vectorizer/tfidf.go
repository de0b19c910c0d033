package vectorizer

import (
	"math"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// TFIDF reweights bag-of-words vectors by inverse document frequency and
// L2-normalizes the result.
type TFIDF struct {
	idf []float32
}

// NewTFIDF computes idf weights from dictionary document frequencies:
// idf = log2(numDocs / docFreq). Terms present in every document get
// weight zero and vanish from the output.
func NewTFIDF(d *Dictionary) *TFIDF {
	idf := make([]float32, d.Len())
	n := float64(d.NumDocs())
	for id := range idf {
		if df := float64(d.DocFreq(int32(id))); df > 0 {
			idf[id] = float32(math.Log2(n / df))
		}
	}
	return &TFIDF{idf: idf}
}

// Transform maps a term-count vector into the L2-normalized tf-idf space.
func (t *TFIDF) Transform(bow domain.SparseVector) domain.SparseVector {
	out := domain.SparseVector{
		Indices: make([]int32, 0, bow.NNZ()),
		Values:  make([]float32, 0, bow.NNZ()),
	}
	for i, id := range bow.Indices {
		if int(id) >= len(t.idf) {
			continue
		}
		if w := bow.Values[i] * t.idf[id]; w != 0 {
			out.Indices = append(out.Indices, id)
			out.Values = append(out.Values, w)
		}
	}

	if norm := out.Norm(); norm > 0 {
		out.Scale(1 / norm)
	}
	return out
}
