package embeddings

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

// HashDimension is the fixed dimension of fallback vectors.
const HashDimension = 64

// HashProvider is a deterministic, model-free embedding provider.
//
// It hashes lowercased tokens into a fixed-size bag-of-words vector and
// L2-normalizes the result. The same text always produces the same vector,
// and texts sharing tokens score higher under inner product than unrelated
// texts. Absolute similarity values carry no meaning beyond rank order.
type HashProvider struct {
	dimension int
}

// NewHashProvider creates the deterministic fallback provider.
func NewHashProvider() *HashProvider {
	return &HashProvider{dimension: HashDimension}
}

// EmbedDocuments generates embeddings for multiple texts, preserving order.
func (p *HashProvider) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: texts cannot be empty", ErrEmptyInput)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = p.embed(text)
	}
	return vectors, nil
}

// EmbedQuery generates an embedding for a single query.
func (p *HashProvider) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: text cannot be empty", ErrEmptyInput)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	return p.embed(text), nil
}

// Dimension returns the fallback vector dimension.
func (p *HashProvider) Dimension() int {
	return p.dimension
}

// Close is a no-op.
func (p *HashProvider) Close() error {
	return nil
}

// embed builds a normalized token-hash vector.
func (p *HashProvider) embed(text string) []float32 {
	vector := make([]float32, p.dimension)

	tokens := tokenize(text)
	for _, token := range tokens {
		h := fnv.New64a()
		_, _ = h.Write([]byte(token))
		vector[h.Sum64()%uint64(p.dimension)] += 1
	}

	var sumSq float64
	for _, v := range vector {
		sumSq += float64(v) * float64(v)
	}
	if sumSq > 0 {
		norm := float32(1 / math.Sqrt(sumSq))
		for i := range vector {
			vector[i] *= norm
		}
	}
	return vector
}

// tokenize splits lowercased text on non-alphanumeric runes.
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
