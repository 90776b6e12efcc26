// Package config defines service configuration and its loading order:
// defaults, then an optional YAML file, then MILES_-prefixed environment
// variables.
package config

import "time"

// Config contains process configuration.
type Config struct {
	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// DataDir holds the SQLite database file.
	DataDir string `koanf:"data_dir"`

	// Redis settings for the distributed rate limiter. Empty RedisAddr
	// disables Redis and the in-memory fallback limiter takes over.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Epsilon is the bandit exploration rate.
	Epsilon float64 `koanf:"epsilon"`

	// TopK caps how many candidates survive similarity filtering.
	TopK int `koanf:"top_k"`

	// BatchUpdate buffers reward samples and refits in batches when true;
	// false refits on every sample.
	BatchUpdate bool `koanf:"batch_update"`

	// EmbeddingDim is the vector length the embedding provider emits.
	EmbeddingDim int `koanf:"embedding_dim"`

	// EmbeddingCacheTTL bounds how long skill vectors stay cached.
	EmbeddingCacheTTL time.Duration `koanf:"embedding_cache_ttl"`

	// SnapshotInterval controls periodic bandit model persistence.
	SnapshotInterval time.Duration `koanf:"snapshot_interval"`

	// IPLimitPerMinute caps requests per client IP.
	IPLimitPerMinute int `koanf:"ip_limit_per_minute"`
}

// New returns a Config populated with defaults.
func New() *Config {
	return &Config{
		Addr:              ":8080",
		LogLevel:          "info",
		DataDir:           "./data",
		Epsilon:           0.1,
		TopK:              3,
		BatchUpdate:       true,
		EmbeddingDim:      384,
		EmbeddingCacheTTL: time.Hour,
		SnapshotInterval:  5 * time.Minute,
		IPLimitPerMinute:  120,
	}
}
