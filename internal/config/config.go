// Package config provides configuration loading for recalld.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fyrsmithlabs/recalld/internal/logging"
)

// Sentinel errors for configuration.
var (
	// ErrInvalidConfig indicates invalid configuration values.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config is the root configuration for recalld.
type Config struct {
	Memory  MemoryConfig    `koanf:"memory"`
	Logging *logging.Config `koanf:"logging"`
}

// MemoryConfig configures the memory subsystem.
type MemoryConfig struct {
	// DataDir holds shard artifacts and the record database.
	// Default: ~/.local/share/recalld
	DataDir string `koanf:"data_dir"`

	// EmbeddingModel is the embedding model name.
	// Default: BAAI/bge-small-en-v1.5
	EmbeddingModel string `koanf:"embedding_model"`

	// ModelCacheDir is where embedding model files are cached.
	// Default: <DataDir>/models
	ModelCacheDir string `koanf:"model_cache_dir"`

	// EmbeddingCacheEntries bounds the in-process embedding cache.
	EmbeddingCacheEntries int64 `koanf:"embedding_cache_entries"`

	// TopK is the default number of search results.
	TopK int `koanf:"top_k"`

	// RecentMessages is the default recency window for conversation context.
	RecentMessages int `koanf:"recent_messages"`

	// MinRelevance is the minimum similarity score for assembled context.
	MinRelevance float32 `koanf:"min_relevance"`
}

// Default returns configuration with documented defaults applied.
func Default() *Config {
	dataDir := "~/.local/share/recalld"
	if home, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(home, ".local", "share", "recalld")
	}
	return &Config{
		Memory: MemoryConfig{
			DataDir:               dataDir,
			EmbeddingModel:        "BAAI/bge-small-en-v1.5",
			ModelCacheDir:         filepath.Join(dataDir, "models"),
			EmbeddingCacheEntries: 4096,
			TopK:                  8,
			RecentMessages:        5,
			MinRelevance:          0.5,
		},
		Logging: logging.NewDefaultConfig(),
	}
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.Memory.DataDir == "" {
		return fmt.Errorf("%w: memory.data_dir required", ErrInvalidConfig)
	}
	if c.Memory.TopK <= 0 {
		return fmt.Errorf("%w: memory.top_k must be positive", ErrInvalidConfig)
	}
	if c.Memory.RecentMessages < 0 {
		return fmt.Errorf("%w: memory.recent_messages cannot be negative", ErrInvalidConfig)
	}
	if c.Memory.MinRelevance < 0 || c.Memory.MinRelevance > 1 {
		return fmt.Errorf("%w: memory.min_relevance must be in [0, 1]", ErrInvalidConfig)
	}
	if c.Memory.EmbeddingCacheEntries < 0 {
		return fmt.Errorf("%w: memory.embedding_cache_entries cannot be negative", ErrInvalidConfig)
	}
	if c.Logging != nil {
		if err := c.Logging.Validate(); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	}
	return nil
}
