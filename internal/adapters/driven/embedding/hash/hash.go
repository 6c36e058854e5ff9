// Package hash provides a deterministic embedding service that needs no
// network access or credentials. Vectors are derived from SHA-256
// digests of the input text, so identical text always maps to the same
// vector and similarity search stays meaningful for exact and
// near-exact matches. It is the fallback when no embedding provider is
// configured and the backbone of offline tests.
package hash

import (
	"context"
	"crypto/sha256"
	"fmt"
	"strings"

	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure EmbeddingService implements the port.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// ModelName identifies this embedder in stored index metadata.
const ModelName = "hash-sha256"

// DefaultDimensions is the default embedding vector size.
const DefaultDimensions = 384

// EmbeddingService generates deterministic pseudo-embeddings.
type EmbeddingService struct {
	dimensions int
}

// Option configures the service.
type Option func(*EmbeddingService)

// WithDimensions sets the embedding vector size.
func WithDimensions(d int) Option {
	return func(s *EmbeddingService) {
		if d > 0 {
			s.dimensions = d
		}
	}
}

// New creates a hash embedding service.
func New(opts ...Option) *EmbeddingService {
	s := &EmbeddingService{dimensions: DefaultDimensions}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Embed generates a vector for the given text. The vector is a pure
// function of the trimmed text: SHA-256 digests of "<seed>-<counter>"
// are concatenated and each byte scaled into [0, 1] until the dimension
// is filled.
func (s *EmbeddingService) Embed(_ context.Context, text string) ([]float32, error) {
	seed := strings.TrimSpace(text)
	if seed == "" {
		seed = "empty"
	}

	vec := make([]float32, 0, s.dimensions)
	for counter := 0; len(vec) < s.dimensions; counter++ {
		sum := sha256.Sum256(fmt.Appendf(nil, "%s-%d", seed, counter))
		for _, b := range sum {
			if len(vec) == s.dimensions {
				break
			}
			vec = append(vec, float32(b)/255.0)
		}
	}

	return vec, nil
}

// EmbedBatch generates embeddings for multiple texts.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vecs := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := s.Embed(ctx, text)
		if err != nil {
			return nil, err
		}
		vecs[i] = vec
	}
	return vecs, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the embedder identifier.
func (s *EmbeddingService) ModelName() string {
	return ModelName
}

// Close is a no-op; the service holds no resources.
func (s *EmbeddingService) Close() error {
	return nil
}
