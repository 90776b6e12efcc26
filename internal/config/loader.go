package config

import (
	"errors"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if MILES_CONFIG is set
//  3. env (prefix MILES_)
func Load() (*Config, error) {
	base := New()

	k := koanf.New(".")

	if path := os.Getenv("MILES_CONFIG"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// Environment variables: MILES_ADDR, MILES_TOP_K, ...
	// Keys map to the koanf struct tags with underscores preserved.
	envProvider := env.Provider("MILES_", ".", func(s string) string {
		s = strings.ToLower(s)
		s = strings.TrimPrefix(s, "miles_")
		return s
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, err
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return errors.New("epsilon must be within [0, 1]")
	}
	if c.TopK <= 0 {
		return errors.New("top_k must be positive")
	}
	if c.EmbeddingDim <= 0 {
		return errors.New("embedding_dim must be positive")
	}
	return nil
}
