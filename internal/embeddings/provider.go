package embeddings

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

var (
	// ErrEmptyInput indicates empty or nil input texts.
	ErrEmptyInput = errors.New("empty or nil input texts")

	// ErrInvalidConfig indicates invalid configuration.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrEmbeddingFailed indicates embedding generation failure.
	ErrEmbeddingFailed = errors.New("embedding generation failed")

	// ErrModelUnavailable indicates the embedding model could not be loaded.
	ErrModelUnavailable = errors.New("embedding model unavailable")
)

// Provider is the interface for embedding providers.
type Provider interface {
	// EmbedDocuments generates embeddings for multiple texts, one vector per
	// input text, preserving order.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery generates an embedding for a single query.
	// Some models optimize differently for queries vs documents.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the embedding dimension for the current model.
	Dimension() int

	// Close releases resources held by the provider.
	Close() error
}

// Config holds configuration for creating an embedding provider.
type Config struct {
	// Model is the embedding model name.
	Model string

	// CacheDir is the model file cache directory.
	CacheDir string
}

// NewProvider creates an embedding provider for the configured model.
//
// Model loading failure is not fatal: callers must not depend on absolute
// vector semantics, only on relative similarity, so a deterministic
// hash-derived fallback is returned instead and the degradation is logged.
func NewProvider(cfg Config, logger *zap.Logger) Provider {
	if logger == nil {
		logger = zap.NewNop()
	}

	p, err := NewFastEmbedProvider(FastEmbedConfig{
		Model:    cfg.Model,
		CacheDir: cfg.CacheDir,
	})
	if err != nil {
		logger.Warn("embedding model unavailable, using deterministic fallback",
			zap.String("model", cfg.Model),
			zap.Error(err),
		)
		return NewHashProvider()
	}

	logger.Info("embedding model loaded",
		zap.String("model", cfg.Model),
		zap.Int("dimension", p.Dimension()),
	)
	return p
}

// Process-wide provider state. Model initialization is expensive (ONNX
// session plus weights), so exactly one provider is shared per process.
var (
	defaultMu       sync.Mutex
	defaultProvider Provider
)

// Default returns the process-wide shared provider, initializing it on first
// call. Initialization is idempotent and safe to race: the first completed
// initialization wins and later callers observe the cached provider.
func Default(cfg Config, logger *zap.Logger) Provider {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultProvider == nil {
		defaultProvider = NewProvider(cfg, logger)
	}
	return defaultProvider
}

// ResetDefault discards the process-wide provider. Intended for tests.
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()

	if defaultProvider != nil {
		_ = defaultProvider.Close()
		defaultProvider = nil
	}
}
