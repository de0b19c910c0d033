package simdex

import "runtime"

// Option configures index creation.
type Option func(*buildConfig)

type buildConfig struct {
	shardCapacity    int
	densityThreshold float64
	workers          int
}

func applyOptions(opts []Option) buildConfig {
	cfg := buildConfig{
		shardCapacity:    16384,
		densityThreshold: 0.3,
		workers:          runtime.GOMAXPROCS(0),
	}
	for _, o := range opts {
		o(&cfg)
	}
	return cfg
}

// WithShardCapacity sets how many vectors a shard holds before it is
// sealed to disk.
func WithShardCapacity(n int) Option {
	return func(c *buildConfig) {
		c.shardCapacity = n
	}
}

// WithDensityThreshold sets the nonzero-ratio above which a sealed
// shard is stored dense instead of sparse.
func WithDensityThreshold(t float64) Option {
	return func(c *buildConfig) {
		c.densityThreshold = t
	}
}

// WithWorkers caps the shards queried concurrently.
func WithWorkers(n int) Option {
	return func(c *buildConfig) {
		c.workers = n
	}
}
