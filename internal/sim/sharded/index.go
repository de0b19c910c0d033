// Package sharded implements the out-of-core similarity index: an append-only
// sequence of fixed-capacity shards, each stored dense or sparse depending on
// the observed density of its documents, plus an in-memory buffer for the
// documents of the shard still being filled. Sealed shards live in their own
// files, so the full index never has to be rebuilt (or even resident) at once.
package sharded

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/sim"
	"github.com/kailas-cloud/simdex/internal/sim/dense"
	"github.com/kailas-cloud/simdex/internal/sim/sparse"
)

// Options control shard sealing and query parallelism.
type Options struct {
	// ShardCapacity is the number of documents per sealed shard.
	ShardCapacity int
	// DensityThreshold selects sparse storage for a shard whose measured
	// density (nnz / rows*dim) falls below it.
	DensityThreshold float64
	// Workers bounds the number of shards queried concurrently.
	Workers int
}

// DefaultOptions returns the sealing defaults.
func DefaultOptions() Options {
	return Options{
		ShardCapacity:    16384,
		DensityThreshold: 0.3,
		Workers:          runtime.GOMAXPROCS(0),
	}
}

func (o *Options) applyDefaults() {
	def := DefaultOptions()
	if o.ShardCapacity <= 0 {
		o.ShardCapacity = def.ShardCapacity
	}
	if o.DensityThreshold <= 0 {
		o.DensityThreshold = def.DensityThreshold
	}
	if o.Workers <= 0 {
		o.Workers = def.Workers
	}
}

// shard is a sealed, immutable partition of the index.
type shard struct {
	file     string
	kind     string
	base     int // global doc id of the shard's first row
	searcher sim.Searcher
}

// Index is a sharded similarity index rooted at a directory.
//
// Sealed shards are never mutated; Add only appends to the open buffer and
// seals it into a new shard file when capacity is reached. Queries take a
// read-locked snapshot, so they never race a concurrent Add.
type Index struct {
	mu        sync.RWMutex
	dir       string
	dim       int
	opts      Options
	shards    []*shard
	buffer    [][]float32 // normalized pending rows
	bufferNNZ int
	closed    bool
}

var _ sim.Searcher = (*Index)(nil)

// Create initializes an empty sharded index in dir and persists its manifest.
func Create(dir string, dim int, opts Options) (*Index, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("sharded: dim must be positive, got %d", dim)
	}
	opts.applyDefaults()

	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	x := &Index{dir: dir, dim: dim, opts: opts}
	if err := writeManifest(dir, x.manifestLocked()); err != nil {
		return nil, err
	}
	return x, nil
}

// Open loads an existing sharded index from dir.
func Open(dir string) (*Index, error) {
	m, err := readManifest(dir)
	if err != nil {
		return nil, err
	}

	x := &Index{
		dir: dir,
		dim: m.Dim,
		opts: Options{
			ShardCapacity:    m.ShardCapacity,
			DensityThreshold: m.DensityThreshold,
		},
	}
	x.opts.applyDefaults()

	base := 0
	for _, entry := range m.Shards {
		searcher, err := readShard(filepath.Join(dir, entry.File))
		if err != nil {
			return nil, err
		}
		if searcher.Len() != entry.Rows || searcher.Dim() != m.Dim {
			return nil, fmt.Errorf("shard %s: %dx%d does not match manifest %dx%d: %w",
				entry.File, searcher.Len(), searcher.Dim(), entry.Rows, m.Dim, domain.ErrShardCorrupted)
		}
		x.shards = append(x.shards, &shard{
			file:     entry.File,
			kind:     entry.Kind,
			base:     base,
			searcher: searcher,
		})
		base += entry.Rows
	}
	return x, nil
}

// Dim returns the feature-space size.
func (x *Index) Dim() int { return x.dim }

// Len returns the total number of indexed documents, sealed and pending.
func (x *Index) Len() int {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return x.lenLocked()
}

func (x *Index) lenLocked() int {
	n := len(x.buffer)
	for _, sh := range x.shards {
		n += sh.searcher.Len()
	}
	return n
}

// Stats summarizes the index layout.
type Stats struct {
	Docs         int
	SealedShards int
	PendingDocs  int
}

// Stats returns the current document and shard counts.
func (x *Index) Stats() Stats {
	x.mu.RLock()
	defer x.mu.RUnlock()
	return Stats{
		Docs:         x.lenLocked(),
		SealedShards: len(x.shards),
		PendingDocs:  len(x.buffer),
	}
}

// Add appends document vectors to the index. The open shard is sealed to its
// own file whenever it reaches capacity. A failed Add never leaves a partial
// shard on disk: shard files are written to a temp path and renamed, and the
// manifest is only updated after the shard file is durable.
func (x *Index) Add(ctx context.Context, vecs [][]float32) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("add documents: %w", err)
	}
	for i, vec := range vecs {
		if len(vec) != x.dim {
			return fmt.Errorf("document %d: %w", i, domain.NewDimMismatch(x.dim, len(vec)))
		}
	}

	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrIndexClosed
	}

	for _, vec := range vecs {
		row := make([]float32, x.dim)
		copy(row, vec)
		for _, v := range row {
			if v != 0 {
				x.bufferNNZ++
			}
		}
		sim.Normalize(row)
		x.buffer = append(x.buffer, row)

		if len(x.buffer) >= x.opts.ShardCapacity {
			if err := x.sealLocked(); err != nil {
				return err
			}
		}
	}
	return nil
}

// Save seals any pending documents into a (possibly partial) shard and
// persists the manifest. After Save the directory is self-contained and
// Open reproduces identical query results.
func (x *Index) Save() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return domain.ErrIndexClosed
	}
	if len(x.buffer) > 0 {
		return x.sealLocked()
	}
	return writeManifest(x.dir, x.manifestLocked())
}

// Close marks the index closed. Pending documents are sealed first.
func (x *Index) Close() error {
	x.mu.Lock()
	defer x.mu.Unlock()
	if x.closed {
		return nil
	}
	if len(x.buffer) > 0 {
		if err := x.sealLocked(); err != nil {
			return err
		}
	}
	x.closed = true
	return nil
}

// sealLocked freezes the buffer into a new shard: measures density, picks the
// storage kind, writes the shard file, then commits manifest and in-memory
// state. On error nothing is committed and the buffer is left intact.
func (x *Index) sealLocked() error {
	rows := len(x.buffer)
	density := float64(x.bufferNNZ) / (float64(rows) * float64(x.dim))

	var (
		searcher sim.Searcher
		kind     string
		err      error
	)
	if density < x.opts.DensityThreshold {
		kind = kindSparse
		searcher, err = x.buildSparseLocked()
	} else {
		kind = kindDense
		searcher, err = x.buildDenseLocked()
	}
	if err != nil {
		return fmt.Errorf("seal shard: %w", err)
	}

	file := fmt.Sprintf("shard-%05d.bin", len(x.shards))
	if err := writeShard(filepath.Join(x.dir, file), searcher); err != nil {
		return err
	}

	base := 0
	for _, sh := range x.shards {
		base += sh.searcher.Len()
	}
	next := append(x.shards[:len(x.shards):len(x.shards)], &shard{
		file:     file,
		kind:     kind,
		base:     base,
		searcher: searcher,
	})

	m := x.manifestLocked()
	m.Shards = append(m.Shards, manifestShard{File: file, Kind: kind, Rows: rows})
	if err := writeManifest(x.dir, m); err != nil {
		return err
	}

	x.shards = next
	x.buffer = nil
	x.bufferNNZ = 0
	return nil
}

// buildDenseLocked flattens the normalized buffer into a dense index.
func (x *Index) buildDenseLocked() (sim.Searcher, error) {
	data := make([]float32, 0, len(x.buffer)*x.dim)
	for _, row := range x.buffer {
		data = append(data, row...)
	}
	return dense.FromNormalized(x.dim, len(x.buffer), data)
}

// buildSparseLocked converts the normalized buffer into a CSR index.
func (x *Index) buildSparseLocked() (sim.Searcher, error) {
	rowPtr := make([]uint32, 1, len(x.buffer)+1)
	var cols []int32
	var vals []float32
	for _, row := range x.buffer {
		for i, v := range row {
			if v != 0 {
				cols = append(cols, int32(i))
				vals = append(vals, v)
			}
		}
		rowPtr = append(rowPtr, uint32(len(cols)))
	}
	return sparse.FromRaw(x.dim, rowPtr, cols, vals)
}

func (x *Index) manifestLocked() manifest {
	m := manifest{
		Version:          formatVersion,
		Dim:              x.dim,
		ShardCapacity:    x.opts.ShardCapacity,
		DensityThreshold: x.opts.DensityThreshold,
		Shards:           make([]manifestShard, 0, len(x.shards)),
	}
	for _, sh := range x.shards {
		m.Shards = append(m.Shards, manifestShard{File: sh.file, Kind: sh.kind, Rows: sh.searcher.Len()})
	}
	return m
}

// snapshot returns a consistent read view of the index.
func (x *Index) snapshot() (shards []*shard, buffer [][]float32, bufferBase int, err error) {
	x.mu.RLock()
	defer x.mu.RUnlock()
	if x.closed {
		return nil, nil, 0, domain.ErrIndexClosed
	}
	bufferBase = 0
	for _, sh := range x.shards {
		bufferBase += sh.searcher.Len()
	}
	return x.shards, x.buffer, bufferBase, nil
}

// Query returns the full similarity vector in insertion order: sealed shards
// in shard order, then pending documents. Shards are scanned concurrently
// (scatter), results are concatenated in shard order (gather).
func (x *Index) Query(ctx context.Context, vec []float32) ([]float32, error) {
	if len(vec) != x.dim {
		return nil, domain.NewDimMismatch(x.dim, len(vec))
	}
	shards, buffer, _, err := x.snapshot()
	if err != nil {
		return nil, err
	}

	partials := make([][]float32, len(shards))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.Workers)
	for i, sh := range shards {
		i, sh := i, sh
		g.Go(func() error {
			scores, err := sh.searcher.Query(gctx, vec)
			if err != nil {
				return fmt.Errorf("shard %s: %w", sh.file, err)
			}
			partials[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	total := len(buffer)
	for _, p := range partials {
		total += len(p)
	}
	scores := make([]float32, 0, total)
	for _, p := range partials {
		scores = append(scores, p...)
	}
	return append(scores, x.bufferScores(vec, buffer)...), nil
}

// QueryBest computes a local top-k per shard concurrently, then merges the
// partial results into a global top-k: score descending, ties stable by
// insertion order (shard order, then row order within the shard).
func (x *Index) QueryBest(ctx context.Context, vec []float32, k int) ([]domain.Match, error) {
	if len(vec) != x.dim {
		return nil, domain.NewDimMismatch(x.dim, len(vec))
	}
	if k <= 0 {
		return nil, nil
	}
	shards, buffer, bufferBase, err := x.snapshot()
	if err != nil {
		return nil, err
	}

	partials := make([][]domain.Match, len(shards)+1)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.opts.Workers)
	for i, sh := range shards {
		i, sh := i, sh
		g.Go(func() error {
			matches, err := sh.searcher.QueryBest(gctx, vec, k)
			if err != nil {
				return fmt.Errorf("shard %s: %w", sh.file, err)
			}
			for j := range matches {
				matches[j].DocID += sh.base
			}
			partials[i] = matches
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	bufMatches := sim.SelectBest(x.bufferScores(vec, buffer), k)
	for j := range bufMatches {
		bufMatches[j].DocID += bufferBase
	}
	partials[len(shards)] = bufMatches

	return sim.MergeBest(partials, k), nil
}

// bufferScores scans the pending rows. Buffer rows are normalized on Add,
// so the scan is a plain dot product against the normalized query.
func (x *Index) bufferScores(vec []float32, buffer [][]float32) []float32 {
	if len(buffer) == 0 {
		return nil
	}
	q := make([]float32, len(vec))
	copy(q, vec)
	sim.Normalize(q)

	scores := make([]float32, len(buffer))
	for i, row := range buffer {
		scores[i] = sim.Dot(row, q)
	}
	return scores
}
