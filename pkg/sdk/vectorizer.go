package simdex

import (
	"context"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// Vectorizer converts text to vectors. Implement it to plug an external
// embedding provider into the SDK; the built-in bag-of-words pipeline is
// used when none is supplied.
type Vectorizer interface {
	Vectorize(ctx context.Context, text string) (VectorizeResult, error)
}

// VectorizeResult carries the vector and token usage.
type VectorizeResult struct {
	Vector []float32
	Tokens int
}

// vectorizerAdapter bridges the public Vectorizer to the domain interface.
type vectorizerAdapter struct {
	inner Vectorizer
}

func (a vectorizerAdapter) Vectorize(ctx context.Context, text string) (domain.VectorizeResult, error) {
	res, err := a.inner.Vectorize(ctx, text)
	if err != nil {
		return domain.VectorizeResult{}, err
	}
	return domain.VectorizeResult{Vector: res.Vector, Tokens: res.Tokens}, nil
}
