package simdex

import (
	"context"
	"time"

	searchuc "github.com/kailas-cloud/simdex/internal/usecase/search"
)

// QueryOption configures a single query.
type QueryOption func(*searchuc.Request)

// Text queries by text; the index's vectorizer turns it into a vector.
func Text(text string) QueryOption {
	return func(r *searchuc.Request) {
		r.Text = text
	}
}

// ByVector queries by a pre-computed vector of the index's dimensionality.
func ByVector(vec []float32) QueryOption {
	return func(r *searchuc.Request) {
		r.Vector = vec
	}
}

// TopK limits the result to the k best matches. Without it the full
// score vector is returned in insertion order.
func TopK(k int) QueryOption {
	return func(r *searchuc.Request) {
		r.TopK = k
	}
}

// MinScore drops matches below the threshold. Applies to top-k queries.
func MinScore(score float32) QueryOption {
	return func(r *searchuc.Request) {
		r.MinScore = score
	}
}

// Query runs a similarity query against a named index.
func (c *Client) Query(ctx context.Context, indexName string, opts ...QueryOption) (QueryResult, error) {
	var req searchuc.Request
	for _, o := range opts {
		o(&req)
	}

	start := time.Now()
	resp, err := c.searchSvc.Search(ctx, indexName, req)
	c.obs.observe("query", start, err)
	if err != nil {
		return QueryResult{}, err
	}

	out := QueryResult{Scores: resp.Scores, Tokens: resp.Tokens}
	if resp.Matches != nil {
		out.Matches = make([]Match, len(resp.Matches))
		for i, m := range resp.Matches {
			out.Matches[i] = Match{DocID: m.DocID, ID: m.ID, Score: m.Score}
		}
	}
	return out, nil
}
