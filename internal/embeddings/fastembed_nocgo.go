//go:build !cgo

package embeddings

import (
	"context"
	"fmt"
)

// FastEmbedConfig holds configuration for the FastEmbed provider.
type FastEmbedConfig struct {
	Model     string
	CacheDir  string
	MaxLength int
}

// FastEmbedProvider is a stub for non-CGO builds. The ONNX runtime requires
// CGO; without it NewProvider falls back to the hash provider.
type FastEmbedProvider struct{}

// NewFastEmbedProvider returns ErrModelUnavailable when CGO is disabled.
func NewFastEmbedProvider(_ FastEmbedConfig) (*FastEmbedProvider, error) {
	return nil, fmt.Errorf("%w: binary built without CGO", ErrModelUnavailable)
}

// EmbedDocuments returns ErrModelUnavailable when CGO is disabled.
func (p *FastEmbedProvider) EmbedDocuments(_ context.Context, _ []string) ([][]float32, error) {
	return nil, ErrModelUnavailable
}

// EmbedQuery returns ErrModelUnavailable when CGO is disabled.
func (p *FastEmbedProvider) EmbedQuery(_ context.Context, _ string) ([]float32, error) {
	return nil, ErrModelUnavailable
}

// Dimension returns 0 when CGO is disabled.
func (p *FastEmbedProvider) Dimension() int {
	return 0
}

// Close is a no-op when CGO is disabled.
func (p *FastEmbedProvider) Close() error {
	return nil
}
