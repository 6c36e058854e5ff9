package driven

import "context"

// EmbeddingService generates vector embeddings from text.
//
// Two variants exist: a provider-backed service (OpenAI) and a
// deterministic hash embedder that needs no network access. The variant
// is chosen once at construction; stored chunks and query embeddings must
// always come from the same variant.
//
// Implementations must be pure functions of the text: embedding the same
// text twice yields the same vector.
type EmbeddingService interface {
	// Embed generates a vector embedding for the given text.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch generates embeddings for multiple texts efficiently.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the embedding vector size (e.g., 384, 1536).
	Dimensions() int

	// ModelName returns the name of the embedding model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}
