// Package simdex provides cosine-similarity search over dense vector
// corpora: build an index from vectors on disk, append more, and query
// for the full score vector or the best matches.
package simdex

import (
	"context"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/sim"
	"github.com/kailas-cloud/simdex/internal/sim/sharded"
)

// Sentinel errors surfaced by the public API.
var (
	ErrIndexNotFound  = domain.ErrIndexNotFound
	ErrDimMismatch    = domain.ErrDimMismatch
	ErrEmptyCorpus    = domain.ErrEmptyCorpus
	ErrIndexClosed    = domain.ErrIndexClosed
	ErrShardCorrupted = domain.ErrShardCorrupted
)

// Match is a scored corpus position.
type Match = domain.Match

// Index is a persistent sharded cosine-similarity index.
type Index struct {
	inner *sharded.Index
}

// Build creates a new index at dir from an initial corpus of vectors.
// All vectors must share the same dimensionality. The corpus may be
// empty only when dim is positive, so vectors can be appended later.
func Build(dir string, dim int, corpus [][]float32, opts ...Option) (*Index, error) {
	cfg := applyOptions(opts)

	inner, err := sharded.Create(dir, dim, sharded.Options{
		ShardCapacity:    cfg.shardCapacity,
		DensityThreshold: cfg.densityThreshold,
		Workers:          cfg.workers,
	})
	if err != nil {
		return nil, err
	}

	idx := &Index{inner: inner}
	if len(corpus) > 0 {
		if err := inner.Add(context.Background(), corpus); err != nil {
			_ = inner.Close()
			return nil, err
		}
		if err := inner.Save(); err != nil {
			_ = inner.Close()
			return nil, err
		}
	}
	return idx, nil
}

// Open loads an existing index from dir.
func Open(dir string) (*Index, error) {
	inner, err := sharded.Open(dir)
	if err != nil {
		return nil, err
	}
	return &Index{inner: inner}, nil
}

// Add appends vectors to the index. Shards that reach capacity are
// sealed and persisted; the remainder stays in an in-memory buffer
// until Save or Close.
func (x *Index) Add(ctx context.Context, vectors [][]float32) error {
	return x.inner.Add(ctx, vectors)
}

// Query returns the cosine similarity of the query against every
// indexed vector, in insertion order.
func (x *Index) Query(ctx context.Context, query []float32) ([]float32, error) {
	return x.inner.Query(ctx, query)
}

// QueryBest returns up to k best matches sorted by score descending,
// ties broken by ascending insertion order.
func (x *Index) QueryBest(ctx context.Context, query []float32, k int) ([]Match, error) {
	return x.inner.QueryBest(ctx, query, k)
}

// Save seals the pending buffer into a shard and persists the manifest.
func (x *Index) Save() error {
	return x.inner.Save()
}

// Close saves pending state and marks the index closed.
func (x *Index) Close() error {
	return x.inner.Close()
}

// Len returns the number of indexed vectors.
func (x *Index) Len() int {
	return x.inner.Len()
}

// Dim returns the vector dimensionality.
func (x *Index) Dim() int {
	return x.inner.Dim()
}

// Stats reports document and shard counts.
func (x *Index) Stats() Stats {
	st := x.inner.Stats()
	return Stats{
		Docs:         st.Docs,
		SealedShards: st.SealedShards,
		PendingDocs:  st.PendingDocs,
	}
}

// Stats describes index composition.
type Stats struct {
	Docs         int
	SealedShards int
	PendingDocs  int
}

// SelectBest picks the k best entries from a full score vector, sorted
// by score descending with ties broken by ascending position. Useful
// for post-processing scores obtained via Query.
func SelectBest(scores []float32, k int) []Match {
	return sim.SelectBest(scores, k)
}
