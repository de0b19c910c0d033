// Package index implements index lifecycle: creating a named index from an
// initial corpus, appending documents, and resolving indexes for querying.
// Each index lives in its own directory under the data dir: the shard files
// and manifest of the sharded similarity index, a meta file with external
// document ids, and (for the local provider) the fitted vectorizer model.
package index

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	"github.com/kailas-cloud/simdex/internal/metrics"
	"github.com/kailas-cloud/simdex/internal/sim/sharded"
	searchuc "github.com/kailas-cloud/simdex/internal/usecase/search"
	"github.com/kailas-cloud/simdex/internal/vectorizer"
)

// ProviderLocal is the built-in bag-of-words + projection vectorizer.
const ProviderLocal = "local"

const (
	metaFile  = "meta.json"
	modelFile = "model.json"
)

var nameRe = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Defaults hold index creation parameters from configuration.
type Defaults struct {
	Topics           int
	Seed             int64
	ShardCapacity    int
	DensityThreshold float64
}

// Service manages the registry of named indexes.
type Service struct {
	mu         sync.RWMutex
	dataDir    string
	defaults   Defaults
	remote     domain.Vectorizer // nil when no remote provider is configured
	remoteName string
	entries    map[string]*entry
	logger     *zap.Logger
}

type entry struct {
	name      string
	provider  string
	createdAt time.Time
	idx       *sharded.Index
	vec       domain.Vectorizer
	ids       []string
}

// meta is the persisted per-index metadata next to the shard manifest.
type meta struct {
	Version   int       `json:"version"`
	Name      string    `json:"name"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
	IDs       []string  `json:"ids"`
}

// Info describes an index to callers.
type Info struct {
	Name         string
	Provider     string
	Dim          int
	Docs         int
	SealedShards int
	PendingDocs  int
	CreatedAt    time.Time
}

// New creates the index service. remote may be nil when only the local
// vectorizer provider is configured.
func New(dataDir string, defaults Defaults, remote domain.Vectorizer, remoteName string, logger *zap.Logger) *Service {
	return &Service{
		dataDir:    dataDir,
		defaults:   defaults,
		remote:     remote,
		remoteName: remoteName,
		entries:    make(map[string]*entry),
		logger:     logger,
	}
}

// LoadAll opens every index directory under the data dir.
func (s *Service) LoadAll() error {
	if err := os.MkdirAll(s.dataDir, 0o750); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	dirs, err := os.ReadDir(s.dataDir)
	if err != nil {
		return fmt.Errorf("read data dir: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		e, err := s.openEntry(d.Name())
		if err != nil {
			return fmt.Errorf("open index %q: %w", d.Name(), err)
		}
		s.entries[e.name] = e
		s.updateGauges(e)
		s.logger.Info("Index loaded",
			zap.String("index", e.name),
			zap.String("provider", e.provider),
			zap.Int("docs", e.idx.Len()),
		)
	}
	return nil
}

func (s *Service) openEntry(name string) (*entry, error) {
	dir := filepath.Join(s.dataDir, name)

	m, err := readMeta(dir)
	if err != nil {
		return nil, err
	}

	idx, err := sharded.Open(dir)
	if err != nil {
		return nil, err
	}

	vec, err := s.resolveVectorizer(m.Provider, dir)
	if err != nil {
		return nil, err
	}

	return &entry{
		name:      m.Name,
		provider:  m.Provider,
		createdAt: m.CreatedAt,
		idx:       idx,
		vec:       vec,
		ids:       m.IDs,
	}, nil
}

func (s *Service) resolveVectorizer(provider, dir string) (domain.Vectorizer, error) {
	switch provider {
	case ProviderLocal:
		return vectorizer.LoadPipeline(filepath.Join(dir, modelFile))
	case s.remoteName:
		if s.remote == nil {
			return nil, fmt.Errorf("provider %q is not configured", provider)
		}
		return s.remote, nil
	default:
		return nil, fmt.Errorf("unknown vectorizer provider %q", provider)
	}
}

// Create builds a new named index from an initial corpus, fits the local
// vectorizer model when needed, and persists everything immediately.
func (s *Service) Create(ctx context.Context, name, provider string, docs []domain.Document) (Info, error) {
	if !nameRe.MatchString(name) {
		return Info{}, fmt.Errorf("%w: invalid index name %q", domain.ErrInvalidQuery, name)
	}
	if provider == "" {
		provider = ProviderLocal
	}
	if len(docs) == 0 {
		return Info{}, domain.ErrEmptyCorpus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[name]; ok {
		return Info{}, fmt.Errorf("index %q: %w", name, domain.ErrAlreadyExists)
	}

	dir := filepath.Join(s.dataDir, name)
	if _, err := os.Stat(dir); err == nil {
		return Info{}, fmt.Errorf("index dir %q: %w", name, domain.ErrAlreadyExists)
	}

	e, err := s.buildEntry(ctx, name, provider, dir, docs)
	if err != nil {
		// A half-built directory must not shadow the name forever.
		_ = os.RemoveAll(dir)
		return Info{}, err
	}

	s.entries[name] = e
	s.updateGauges(e)
	s.logger.Info("Index created",
		zap.String("index", name),
		zap.String("provider", provider),
		zap.Int("docs", len(docs)),
		zap.Int("dim", e.idx.Dim()),
	)
	return s.infoLocked(e), nil
}

func (s *Service) buildEntry(ctx context.Context, name, provider, dir string, docs []domain.Document) (*entry, error) {
	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
		ids[i] = d.ID
	}

	var vec domain.Vectorizer
	switch provider {
	case ProviderLocal:
		pipeline, err := vectorizer.NewPipeline(s.defaults.Topics, s.defaults.Seed)
		if err != nil {
			return nil, err
		}
		if err := pipeline.Fit(texts); err != nil {
			return nil, fmt.Errorf("fit vectorizer: %w", err)
		}
		vec = pipeline
	case s.remoteName:
		if s.remote == nil {
			return nil, fmt.Errorf("%w: provider %q is not configured", domain.ErrInvalidQuery, provider)
		}
		vec = s.remote
	default:
		return nil, fmt.Errorf("%w: unknown vectorizer provider %q", domain.ErrInvalidQuery, provider)
	}

	vectors, _, err := domain.VectorizeBatch(ctx, vec, texts)
	if err != nil {
		return nil, err
	}

	idx, err := sharded.Create(dir, len(vectors[0]), sharded.Options{
		ShardCapacity:    s.defaults.ShardCapacity,
		DensityThreshold: s.defaults.DensityThreshold,
	})
	if err != nil {
		return nil, err
	}
	if err := idx.Add(ctx, vectors); err != nil {
		return nil, err
	}
	if err := idx.Save(); err != nil {
		return nil, err
	}

	if pipeline, ok := vec.(*vectorizer.Pipeline); ok {
		if err := pipeline.Save(filepath.Join(dir, modelFile)); err != nil {
			return nil, err
		}
	}

	e := &entry{
		name:      name,
		provider:  provider,
		createdAt: time.Now().UTC(),
		idx:       idx,
		vec:       vec,
		ids:       ids,
	}
	if err := writeMeta(dir, e); err != nil {
		return nil, err
	}
	return e, nil
}

// Add vectorizes and appends documents to an existing index.
func (s *Service) Add(ctx context.Context, name string, docs []domain.Document) (Info, error) {
	if len(docs) == 0 {
		return Info{}, domain.ErrEmptyCorpus
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return Info{}, fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
	}

	texts := make([]string, len(docs))
	ids := make([]string, len(docs))
	for i, d := range docs {
		texts[i] = d.Text
		ids[i] = d.ID
	}

	vectors, _, err := domain.VectorizeBatch(ctx, e.vec, texts)
	if err != nil {
		return Info{}, err
	}

	if err := e.idx.Add(ctx, vectors); err != nil {
		return Info{}, err
	}
	if err := e.idx.Save(); err != nil {
		return Info{}, err
	}

	e.ids = append(e.ids, ids...)
	if err := writeMeta(filepath.Join(s.dataDir, name), e); err != nil {
		return Info{}, err
	}

	s.updateGauges(e)
	return s.infoLocked(e), nil
}

// Get returns the info of a named index.
func (s *Service) Get(name string) (Info, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return Info{}, fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
	}
	return s.infoLocked(e), nil
}

// List returns info for every index, sorted is not guaranteed.
func (s *Service) List() []Info {
	s.mu.RLock()
	defer s.mu.RUnlock()
	infos := make([]Info, 0, len(s.entries))
	for _, e := range s.entries {
		infos = append(infos, s.infoLocked(e))
	}
	return infos
}

// Delete closes an index and removes its directory.
func (s *Service) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[name]
	if !ok {
		return fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
	}

	if err := e.idx.Close(); err != nil {
		s.logger.Warn("Failed to close index on delete", zap.String("index", name), zap.Error(err))
	}
	if err := os.RemoveAll(filepath.Join(s.dataDir, name)); err != nil {
		return fmt.Errorf("remove index dir: %w", err)
	}

	delete(s.entries, name)
	metrics.IndexDocuments.DeleteLabelValues(name)
	metrics.IndexShards.DeleteLabelValues(name)
	s.logger.Info("Index deleted", zap.String("index", name))
	return nil
}

// CloseAll seals and closes every open index. Used on shutdown.
func (s *Service) CloseAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for name, e := range s.entries {
		if err := e.idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("close index %q: %w", name, err)
		}
	}
	return firstErr
}

// Target resolves an index for querying. Implements search.Indexes.
func (s *Service) Target(name string) (searchuc.Target, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.entries[name]
	if !ok {
		return searchuc.Target{}, fmt.Errorf("index %q: %w", name, domain.ErrIndexNotFound)
	}
	return searchuc.Target{
		Vectorizer: e.vec,
		Searcher:   e.idx,
		IDs:        e.ids,
	}, nil
}

func (s *Service) infoLocked(e *entry) Info {
	stats := e.idx.Stats()
	return Info{
		Name:         e.name,
		Provider:     e.provider,
		Dim:          e.idx.Dim(),
		Docs:         stats.Docs,
		SealedShards: stats.SealedShards,
		PendingDocs:  stats.PendingDocs,
		CreatedAt:    e.createdAt,
	}
}

func (s *Service) updateGauges(e *entry) {
	stats := e.idx.Stats()
	metrics.IndexDocuments.WithLabelValues(e.name).Set(float64(stats.Docs))
	metrics.IndexShards.WithLabelValues(e.name).Set(float64(stats.SealedShards))
}

func writeMeta(dir string, e *entry) error {
	m := meta{
		Version:   1,
		Name:      e.name,
		Provider:  e.provider,
		CreatedAt: e.createdAt,
		IDs:       e.ids,
	}
	data, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal meta: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".meta-*")
	if err != nil {
		return fmt.Errorf("create temp meta: %w", err)
	}
	tmpName := tmp.Name()

	if _, err = tmp.Write(data); err == nil {
		err = tmp.Sync()
	}
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("write meta: %w", err)
	}

	if err := os.Rename(tmpName, filepath.Join(dir, metaFile)); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("rename meta: %w", err)
	}
	return nil
}

func readMeta(dir string) (meta, error) {
	data, err := os.ReadFile(filepath.Join(dir, metaFile))
	if err != nil {
		if os.IsNotExist(err) {
			return meta{}, fmt.Errorf("meta in %s: %w", dir, domain.ErrIndexNotFound)
		}
		return meta{}, fmt.Errorf("read meta: %w", err)
	}

	var m meta
	if err := json.Unmarshal(data, &m); err != nil {
		return meta{}, fmt.Errorf("parse meta: %w", err)
	}
	if m.Name == "" || m.Provider == "" {
		return meta{}, fmt.Errorf("malformed meta in %s", dir)
	}
	return m, nil
}
