package embeddings_test

import (
	"context"
	"testing"

	"github.com/fyrsmithlabs/recalld/internal/embeddings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dot(a, b []float32) float32 {
	var sum float32
	for i := range a {
		sum += a[i] * b[i]
	}
	return sum
}

func TestHashProviderDeterministic(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx := context.Background()

	a, err := p.EmbedQuery(ctx, "my favorite city is Paris")
	require.NoError(t, err)
	b, err := p.EmbedQuery(ctx, "my favorite city is Paris")
	require.NoError(t, err)

	assert.Equal(t, a, b)
	assert.Len(t, a, embeddings.HashDimension)
}

func TestHashProviderDimension(t *testing.T) {
	p := embeddings.NewHashProvider()
	assert.Equal(t, embeddings.HashDimension, p.Dimension())
}

func TestHashProviderBatchPreservesOrder(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx := context.Background()

	texts := []string{"alpha", "bravo", "charlie"}
	batch, err := p.EmbedDocuments(ctx, texts)
	require.NoError(t, err)
	require.Len(t, batch, len(texts))

	for i, text := range texts {
		single, err := p.EmbedQuery(ctx, text)
		require.NoError(t, err)
		assert.Equal(t, single, batch[i], "batch vector %d must match single embedding", i)
	}
}

func TestHashProviderSimilarityRankOrder(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx := context.Background()

	query, err := p.EmbedQuery(ctx, "pet cat")
	require.NoError(t, err)
	related, err := p.EmbedQuery(ctx, "pet: cat")
	require.NoError(t, err)
	unrelated, err := p.EmbedQuery(ctx, "quarterly revenue forecast")
	require.NoError(t, err)

	assert.Greater(t, dot(query, related), dot(query, unrelated))
}

func TestHashProviderNormalized(t *testing.T) {
	p := embeddings.NewHashProvider()

	v, err := p.EmbedQuery(context.Background(), "normalize me please")
	require.NoError(t, err)

	assert.InDelta(t, 1.0, float64(dot(v, v)), 0.001)
}

func TestHashProviderEmptyInput(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx := context.Background()

	_, err := p.EmbedDocuments(ctx, nil)
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)

	_, err = p.EmbedQuery(ctx, "")
	assert.ErrorIs(t, err, embeddings.ErrEmptyInput)
}

func TestHashProviderContextCancellation(t *testing.T) {
	p := embeddings.NewHashProvider()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := p.EmbedQuery(ctx, "anything")
	assert.ErrorIs(t, err, context.Canceled)
}
