package pipeline

import (
	"fmt"
	"os"
	"time"

	yaml "gopkg.in/yaml.v3"

	"github.com/plateful/recipescout/internal/cache"
	"github.com/plateful/recipescout/internal/recipe"
	"github.com/plateful/recipescout/internal/score"
	"github.com/plateful/recipescout/internal/search"
)

// Config consolidates every tunable the pipeline uses: one authoritative
// surface instead of constants scattered across components. The numeric
// values are tuning detail, adjustable without changing behavior contracts.
type Config struct {
	// MaxConcurrent bounds simultaneous extraction operations. 1 degrades to
	// strictly sequential processing. Default 3.
	MaxConcurrent int `yaml:"maxConcurrent"`
	// WallBudget bounds the whole run. Default 45s.
	WallBudget time.Duration `yaml:"wallBudget"`
	// PerURLTimeout bounds one extraction attempt end to end so a hung URL
	// never blocks siblings. Default 20s.
	PerURLTimeout time.Duration `yaml:"perURLTimeout"`
	// DiscoverAttempts is the per-query retry ceiling on a provider. Default 3.
	DiscoverAttempts int `yaml:"discoverAttempts"`
	// CandidateFactor oversamples discovery: candidates requested =
	// requested count * factor. Default 2.
	CandidateFactor int `yaml:"candidateFactor"`

	Weights score.Weights        `yaml:"weights"`
	TTLs    map[string]time.Duration `yaml:"ttls"`
	Filter  search.FilterOptions `yaml:"-"`
}

// Default returns the tuned defaults.
func Default() Config {
	return Config{
		MaxConcurrent:    3,
		WallBudget:       45 * time.Second,
		PerURLTimeout:    20 * time.Second,
		DiscoverAttempts: 3,
		CandidateFactor:  2,
		Weights:          score.DefaultWeights(),
	}
}

func (c Config) maxConcurrent() int {
	if c.MaxConcurrent > 0 {
		return c.MaxConcurrent
	}
	return 3
}

func (c Config) wallBudget() time.Duration {
	if c.WallBudget > 0 {
		return c.WallBudget
	}
	return 45 * time.Second
}

func (c Config) perURLTimeout() time.Duration {
	if c.PerURLTimeout > 0 {
		return c.PerURLTimeout
	}
	return 20 * time.Second
}

func (c Config) candidateFactor() int {
	if c.CandidateFactor > 0 {
		return c.CandidateFactor
	}
	return 2
}

// TTLTable converts the config's class-name map into the cache's table,
// falling back to defaults for classes left unset.
func (c Config) TTLTable() cache.TTLTable {
	out := cache.DefaultTTLs()
	for name, d := range c.TTLs {
		if d > 0 {
			out[recipe.Class(name)] = d
		}
	}
	return out
}

// LoadConfigFile reads a YAML config file into a Config starting from the
// defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := Default()
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
