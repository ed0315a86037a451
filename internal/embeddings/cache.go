package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto"
	"go.uber.org/zap"
)

// Cache key namespaces. Queries and documents are embedded with different
// prefixes by BGE-style models, so their cache entries must not collide.
const (
	docKeyPrefix   = "d\x00"
	queryKeyPrefix = "q\x00"
)

// CachedProvider memoizes embedding results for repeated texts.
//
// Message and fact content is frequently re-embedded (consolidation re-embeds
// on every upsert, context assembly re-embeds the same generic query), so a
// small in-process cache removes most model invocations.
type CachedProvider struct {
	inner   Provider
	cache   *ristretto.Cache
	metrics *Metrics
	model   string
}

// NewCachedProvider wraps inner with a ristretto cache of at most maxEntries
// embeddings and otel instrumentation.
func NewCachedProvider(inner Provider, model string, maxEntries int64, logger *zap.Logger) (*CachedProvider, error) {
	if inner == nil {
		return nil, fmt.Errorf("%w: inner provider is required", ErrInvalidConfig)
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxEntries <= 0 {
		maxEntries = 4096
	}

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: maxEntries * 10,
		MaxCost:     maxEntries,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedding cache: %w", err)
	}

	return &CachedProvider{
		inner:   inner,
		cache:   cache,
		metrics: NewMetrics(logger),
		model:   model,
	}, nil
}

// EmbedDocuments returns cached vectors where available and embeds only the
// misses, preserving input order in the result.
func (c *CachedProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		c.metrics.RecordGeneration(ctx, c.model, "embed_documents", time.Since(start), len(texts), genErr)
	}()

	if len(texts) == 0 {
		genErr = fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
		return nil, genErr
	}

	vectors := make([][]float32, len(texts))
	var missTexts []string
	var missIdx []int

	for i, text := range texts {
		if v, ok := c.cache.Get(docKeyPrefix + text); ok {
			vectors[i] = v.([]float32)
			continue
		}
		missTexts = append(missTexts, text)
		missIdx = append(missIdx, i)
	}

	if len(missTexts) > 0 {
		embedded, err := c.inner.EmbedDocuments(ctx, missTexts)
		if err != nil {
			genErr = err
			return nil, err
		}
		for j, v := range embedded {
			vectors[missIdx[j]] = v
			c.cache.Set(docKeyPrefix+missTexts[j], v, 1)
		}
	}

	return vectors, nil
}

// EmbedQuery returns the cached query vector or embeds and caches it.
func (c *CachedProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	var genErr error
	defer func() {
		c.metrics.RecordGeneration(ctx, c.model, "embed_query", time.Since(start), 1, genErr)
	}()

	if v, ok := c.cache.Get(queryKeyPrefix + text); ok {
		return v.([]float32), nil
	}

	vector, err := c.inner.EmbedQuery(ctx, text)
	if err != nil {
		genErr = err
		return nil, err
	}
	c.cache.Set(queryKeyPrefix+text, vector, 1)
	return vector, nil
}

// Wait blocks until buffered cache writes are applied. Ristretto admits
// entries asynchronously; tests use this to observe deterministic hits.
func (c *CachedProvider) Wait() {
	c.cache.Wait()
}

// Dimension returns the inner provider's dimension.
func (c *CachedProvider) Dimension() int {
	return c.inner.Dimension()
}

// Close releases the cache and the inner provider.
func (c *CachedProvider) Close() error {
	c.cache.Close()
	return c.inner.Close()
}
