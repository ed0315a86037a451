package embeddings_test

import (
	"testing"

	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProviderFallsBackWhenModelUnavailable(t *testing.T) {
	// An unsupported model name cannot be loaded, so the provider must
	// degrade to the deterministic fallback instead of failing.
	p := embeddings.NewProvider(embeddings.Config{
		Model:    "no-such-model",
		CacheDir: t.TempDir(),
	}, zap.NewNop())
	t.Cleanup(func() { _ = p.Close() })

	require.NotNil(t, p)
	assert.Equal(t, embeddings.HashDimension, p.Dimension())
}

func TestDefaultReturnsSameProvider(t *testing.T) {
	embeddings.ResetDefault()
	t.Cleanup(embeddings.ResetDefault)

	cfg := embeddings.Config{Model: "no-such-model", CacheDir: t.TempDir()}
	first := embeddings.Default(cfg, zap.NewNop())
	second := embeddings.Default(cfg, zap.NewNop())

	assert.Same(t, first.(*embeddings.HashProvider), second.(*embeddings.HashProvider))
}

func TestDefaultConcurrentInitialization(t *testing.T) {
	embeddings.ResetDefault()
	t.Cleanup(embeddings.ResetDefault)

	cfg := embeddings.Config{Model: "no-such-model", CacheDir: t.TempDir()}

	results := make(chan embeddings.Provider, 8)
	for i := 0; i < 8; i++ {
		go func() {
			results <- embeddings.Default(cfg, zap.NewNop())
		}()
	}

	first := <-results
	for i := 1; i < 8; i++ {
		assert.Same(t, first, <-results)
	}
}
