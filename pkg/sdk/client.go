package simdex

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/domain"
	healthuc "github.com/kailas-cloud/simdex/internal/usecase/health"
	indexuc "github.com/kailas-cloud/simdex/internal/usecase/index"
	searchuc "github.com/kailas-cloud/simdex/internal/usecase/search"
)

// Внутренние интерфейсы для подмены в тестах.
type indexUseCase interface {
	Create(ctx context.Context, name, provider string, docs []domain.Document) (indexuc.Info, error)
	Add(ctx context.Context, name string, docs []domain.Document) (indexuc.Info, error)
	Get(name string) (indexuc.Info, error)
	List() []indexuc.Info
	Delete(name string) error
	CloseAll() error
}

type searchUseCase interface {
	Search(ctx context.Context, indexName string, req searchuc.Request) (searchuc.Response, error)
}

type healthUseCase interface {
	Check(ctx context.Context) healthuc.Status
}

// Client is the simdex SDK entry point.
type Client struct {
	indexSvc  indexUseCase
	searchSvc searchUseCase
	healthSvc healthUseCase
	obs       *observer
}

// New creates a simdex Client and loads all indexes from the data dir.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		dataDir:          "data",
		topics:           200,
		seed:             42,
		shardCapacity:    16384,
		densityThreshold: 0.3,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	var remote domain.Vectorizer
	if cfg.vectorizer != nil {
		remote = vectorizerAdapter{inner: cfg.vectorizer}
	}

	indexSvc := indexuc.New(cfg.dataDir, indexuc.Defaults{
		Topics:           cfg.topics,
		Seed:             cfg.seed,
		ShardCapacity:    cfg.shardCapacity,
		DensityThreshold: cfg.densityThreshold,
	}, remote, cfg.vectorizerName, zap.NewNop())

	if err := indexSvc.LoadAll(); err != nil {
		return nil, err
	}

	var vecChecker healthuc.VectorizerChecker
	if hc, ok := cfg.vectorizer.(healthuc.VectorizerChecker); ok {
		vecChecker = hc
	}

	return &Client{
		indexSvc:  indexSvc,
		searchSvc: searchuc.New(indexSvc),
		healthSvc: healthuc.New(cfg.dataDir, nil, vecChecker),
		obs:       obs,
	}, nil
}

// Close seals pending buffers and closes all indexes.
func (c *Client) Close() error {
	start := time.Now()
	err := c.indexSvc.CloseAll()
	c.obs.observe("close", start, err)
	return err
}
