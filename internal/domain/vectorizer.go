package domain

import (
	"context"
	"fmt"
)

// Vectorizer is the shared text-to-vector contract between layers.
type Vectorizer interface {
	Vectorize(ctx context.Context, text string) (VectorizeResult, error)
}

// HealthChecker verifies vectorizer provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// VectorizeResult carries the topic-space vector and token usage through the
// decorator chain. Tokens is zero for local providers and cache hits.
type VectorizeResult struct {
	Vector []float32
	Tokens int
}

// VectorizeBatch runs Vectorize for each text in order. Providers with a
// native batch endpoint can shadow this with their own implementation.
func VectorizeBatch(ctx context.Context, v Vectorizer, texts []string) ([][]float32, int, error) {
	vectors := make([][]float32, len(texts))
	var tokens int

	for i, text := range texts {
		res, err := v.Vectorize(ctx, text)
		if err != nil {
			return nil, 0, fmt.Errorf("vectorize [%d]: %w", i, err)
		}
		vectors[i] = res.Vector
		tokens += res.Tokens
	}

	return vectors, tokens, nil
}
