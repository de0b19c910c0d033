// Package sim defines the similarity-index contract shared by the dense,
// sparse, and sharded implementations, plus the top-k selection semantics.
package sim

import (
	"context"
	"sort"

	"github.com/kailas-cloud/simdex/internal/domain"
)

// Searcher is the uniform query contract of every index variant.
//
// Query returns the full cosine similarity vector, one score per indexed
// document in insertion order. QueryBest returns the k highest-scoring
// documents sorted by score descending; ties are broken by ascending
// document id, so results are deterministic for identical inputs.
// Both fail with domain.ErrDimMismatch when the query vector's feature
// space does not match the index's.
type Searcher interface {
	Query(ctx context.Context, vec []float32) ([]float32, error)
	QueryBest(ctx context.Context, vec []float32, k int) ([]domain.Match, error)
	Len() int
	Dim() int
}

// SelectBest returns the k highest entries of a score vector as matches,
// sorted by score descending, ties stable by ascending document id.
// k greater than len(scores) returns everything sorted; k <= 0 returns nil.
func SelectBest(scores []float32, k int) []domain.Match {
	if k <= 0 || len(scores) == 0 {
		return nil
	}
	matches := make([]domain.Match, len(scores))
	for i, s := range scores {
		matches[i] = domain.Match{DocID: i, Score: s}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if k < len(matches) {
		matches = matches[:k]
	}
	return matches
}

// MergeBest merges pre-sorted per-shard match lists into a single global
// top-k, score descending, ties stable by ascending document id.
func MergeBest(partials [][]domain.Match, k int) []domain.Match {
	if k <= 0 {
		return nil
	}
	var total int
	for _, p := range partials {
		total += len(p)
	}
	merged := make([]domain.Match, 0, total)
	for _, p := range partials {
		merged = append(merged, p...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].DocID < merged[j].DocID
	})
	if k < len(merged) {
		merged = merged[:k]
	}
	return merged
}
