package driven

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// VectorStore persists chunks with their embeddings and supports
// nearest-neighbour retrieval by cosine similarity.
//
// Upsert is idempotent: re-upserting an existing chunk ID reports
// created=false, which is how ingestion counts only new chunks.
// Concurrent upserts for distinct IDs are safe; racing on the same ID is
// last-write-wins.
type VectorStore interface {
	// Upsert stores a chunk and its embedding. It returns true when the
	// chunk ID was not previously present.
	Upsert(ctx context.Context, chunk domain.Chunk) (created bool, err error)

	// Has reports whether a chunk ID is already stored.
	Has(ctx context.Context, chunkID string) (bool, error)

	// Query returns the topK most similar chunks, descending similarity,
	// ties broken by insertion order. An empty store yields an empty slice.
	Query(ctx context.Context, embedding []float32, topK int) ([]domain.RetrievedChunk, error)

	// Count returns the total number of stored chunks.
	Count(ctx context.Context) (int, error)

	// Clear removes all stored chunks.
	Clear(ctx context.Context) error
}

// EmbedderGuard validates that the configured embedder matches the one
// that populated the index. A mismatch on a non-empty index fails with
// domain.ErrEmbedderMismatch.
type EmbedderGuard interface {
	CheckEmbedder(ctx context.Context, name string, dimensions int) error
}

// ConversationStore persists the append-only question/answer log.
type ConversationStore interface {
	// Append records one exchange.
	Append(ctx context.Context, conv domain.Conversation) error

	// Recent returns up to limit exchanges, most recent first.
	Recent(ctx context.Context, limit int) ([]domain.Conversation, error)
}
