// Package search implements the query use case: resolve an index, turn the
// query into a vector, and run a full-score or top-k similarity search.
package search

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/metrics"
)

// Service handles similarity queries against named indexes.
type Service struct {
	indexes Indexes
}

// New creates a search service.
func New(indexes Indexes) *Service {
	return &Service{indexes: indexes}
}

// Request is a similarity query. Exactly one of Text or Vector must be set.
// TopK == 0 requests the full score vector in insertion order.
type Request struct {
	Text     string
	Vector   []float32
	TopK     int
	MinScore float32
}

// Match is a scored hit with the external document id when one was indexed.
type Match struct {
	DocID int
	ID    string
	Score float32
}

// Response carries either the top-k matches or the full score vector.
type Response struct {
	Matches []Match
	Scores  []float32
	Tokens  int
}

// Search resolves the index, vectorizes the query if needed, and runs it.
func (s *Service) Search(ctx context.Context, indexName string, req Request) (Response, error) {
	if (req.Text == "") == (req.Vector == nil) {
		return Response{}, fmt.Errorf("%w: exactly one of text or vector is required", domain.ErrInvalidQuery)
	}
	if req.TopK < 0 {
		return Response{}, fmt.Errorf("%w: top_k must not be negative, got %d", domain.ErrInvalidQuery, req.TopK)
	}

	target, err := s.indexes.Target(indexName)
	if err != nil {
		return Response{}, fmt.Errorf("resolve index: %w", err)
	}

	vec := req.Vector
	var tokens int
	if vec == nil {
		res, err := target.Vectorizer.Vectorize(ctx, req.Text)
		if err != nil {
			return Response{}, fmt.Errorf("vectorize query: %w", err)
		}
		vec = res.Vector
		tokens = res.Tokens
	}

	mode := "full"
	if req.TopK > 0 {
		mode = "top_k"
	}

	start := time.Now()
	resp, err := s.run(ctx, target, vec, req)
	metrics.QueryDuration.WithLabelValues(indexName, mode).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.QueriesTotal.WithLabelValues(indexName, mode, "error").Inc()
		return Response{}, err
	}
	metrics.QueriesTotal.WithLabelValues(indexName, mode, "success").Inc()

	resp.Tokens = tokens
	return resp, nil
}

func (s *Service) run(ctx context.Context, target Target, vec []float32, req Request) (Response, error) {
	if req.TopK == 0 {
		scores, err := target.Searcher.Query(ctx, vec)
		if err != nil {
			return Response{}, fmt.Errorf("query: %w", err)
		}
		return Response{Scores: scores}, nil
	}

	matches, err := target.Searcher.QueryBest(ctx, vec, req.TopK)
	if err != nil {
		return Response{}, fmt.Errorf("query best: %w", err)
	}

	out := make([]Match, 0, len(matches))
	for _, m := range matches {
		if m.Score < req.MinScore {
			continue
		}
		hit := Match{DocID: m.DocID, Score: m.Score}
		if m.DocID < len(target.IDs) {
			hit.ID = target.IDs[m.DocID]
		}
		out = append(out, hit)
	}
	return Response{Matches: out}, nil
}
