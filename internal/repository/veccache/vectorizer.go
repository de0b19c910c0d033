// Package veccache caches vectorizer output in a key-value store, so
// repeated queries skip the remote embedding round trip.
package veccache

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/simdex/internal/db"
	"github.com/kailas-cloud/simdex/internal/domain"
)

const cacheKeyPrefix = "simdex:vec_cache:"

// store is the consumer interface for the vector cache (ISP).
type store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// CachedVectorizer is a caching decorator around a domain.Vectorizer.
type CachedVectorizer struct {
	inner      domain.Vectorizer
	store      store
	scope      string // cache namespace, e.g. "openai/text-embedding-3-small"
	ttl        time.Duration
	cacheTotal *prometheus.CounterVec
	logger     *zap.Logger
}

// New creates a caching decorator. scope isolates entries of different
// providers/models. cacheTotal is a counter vec with label "result"
// ("hit"/"miss"), passed explicitly.
func New(
	inner domain.Vectorizer,
	s store,
	scope string,
	ttl time.Duration,
	cacheTotal *prometheus.CounterVec,
	logger *zap.Logger,
) *CachedVectorizer {
	return &CachedVectorizer{
		inner:      inner,
		store:      s,
		scope:      scope,
		ttl:        ttl,
		cacheTotal: cacheTotal,
		logger:     logger,
	}
}

// Vectorize returns a cached vector or calls the inner vectorizer.
// Cache hit: Tokens = 0 (no real tokens consumed).
func (c *CachedVectorizer) Vectorize(ctx context.Context, text string) (domain.VectorizeResult, error) {
	key := c.cacheKey(text)

	if vec, ok := c.getFromCache(ctx, key); ok {
		c.incCache("hit")
		return domain.VectorizeResult{Vector: vec}, nil
	}

	c.incCache("miss")

	result, err := c.inner.Vectorize(ctx, text)
	if err != nil {
		return domain.VectorizeResult{}, fmt.Errorf("vectorize text: %w", err)
	}

	c.putToCache(ctx, key, result.Vector)
	return result, nil
}

// HealthCheck delegates to the inner vectorizer when it supports checks.
func (c *CachedVectorizer) HealthCheck(ctx context.Context) error {
	if hc, ok := c.inner.(domain.HealthChecker); ok {
		return hc.HealthCheck(ctx)
	}
	return nil
}

func (c *CachedVectorizer) incCache(result string) {
	if c.cacheTotal != nil {
		c.cacheTotal.WithLabelValues(result).Inc()
	}
}

func (c *CachedVectorizer) cacheKey(text string) string {
	h := sha256.Sum256([]byte(text))
	return cacheKeyPrefix + c.scope + ":" + hex.EncodeToString(h[:])
}

func (c *CachedVectorizer) getFromCache(ctx context.Context, key string) ([]float32, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, db.ErrKeyNotFound) {
			c.logger.Warn("Failed to get cached vector", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}
	if len(data) == 0 {
		return nil, false
	}

	vec, err := bytesToVector(data)
	if err != nil {
		c.logger.Warn("Failed to parse cached vector", zap.String("key", key), zap.Error(err))
		return nil, false
	}

	return vec, true
}

func (c *CachedVectorizer) putToCache(ctx context.Context, key string, vec []float32) {
	data := vectorToCacheBytes(vec)
	if err := c.store.SetWithTTL(ctx, key, data, c.ttl); err != nil {
		c.logger.Warn("Failed to cache vector", zap.String("key", key), zap.Error(err))
	}
}

func vectorToCacheBytes(v []float32) []byte {
	buf := make([]byte, len(v)*4)
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func bytesToVector(data []byte) ([]float32, error) {
	if len(data)%4 != 0 {
		return nil, fmt.Errorf("invalid vector cache data: len=%d (not multiple of 4)", len(data))
	}
	vec := make([]float32, len(data)/4)
	for i := range vec {
		vec[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return vec, nil
}
