package simdex

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	dataDir string

	topics           int
	seed             int64
	shardCapacity    int
	densityThreshold float64

	vectorizer     Vectorizer
	vectorizerName string

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithDataDir sets the directory where indexes are stored.
// Default: "data".
func WithDataDir(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.dataDir = dir
	})
}

// WithTopics sets the dimensionality of the built-in vectorizer's
// projected space. Default: 200.
func WithTopics(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.topics = n
	})
}

// WithSeed sets the random projection seed of the built-in vectorizer.
// Indexes built with different seeds are incompatible. Default: 42.
func WithSeed(seed int64) Option {
	return optionFunc(func(c *clientConfig) {
		c.seed = seed
	})
}

// WithShardCapacity sets how many vectors a shard holds before it is
// sealed to disk. Default: 16384.
func WithShardCapacity(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.shardCapacity = n
	})
}

// WithDensityThreshold sets the nonzero-ratio above which a sealed shard
// is stored dense instead of sparse. Default: 0.3.
func WithDensityThreshold(t float64) Option {
	return optionFunc(func(c *clientConfig) {
		c.densityThreshold = t
	})
}

// WithVectorizer registers an external embedding provider under the given
// name. Indexes created with that provider name use it instead of the
// built-in pipeline. The name "local" is reserved.
func WithVectorizer(name string, v Vectorizer) Option {
	return optionFunc(func(c *clientConfig) {
		c.vectorizerName = name
		c.vectorizer = v
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
