// Package memory provides in-memory implementations of the storage
// ports. Nothing survives a restart; the package exists for tests and
// for ephemeral runs where persistence is unwanted.
package memory

import (
	"context"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure implementations satisfy the ports.
var (
	_ driven.VectorStore       = (*VectorStore)(nil)
	_ driven.ConversationStore = (*ConversationStore)(nil)
)

// VectorStore keeps chunks in memory, preserving insertion order so tie
// breaking matches the SQLite store.
type VectorStore struct {
	mu     sync.RWMutex
	order  []string
	chunks map[string]domain.Chunk
}

// NewVectorStore creates an empty in-memory vector store.
func NewVectorStore() *VectorStore {
	return &VectorStore{
		chunks: make(map[string]domain.Chunk),
	}
}

// Upsert stores a chunk. It returns true when the chunk ID was not
// previously present.
func (s *VectorStore) Upsert(_ context.Context, chunk domain.Chunk) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	_, exists := s.chunks[chunk.ID]
	if !exists {
		s.order = append(s.order, chunk.ID)
	}
	s.chunks[chunk.ID] = chunk

	return !exists, nil
}

// Has reports whether a chunk ID is already stored.
func (s *VectorStore) Has(_ context.Context, chunkID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.chunks[chunkID]
	return ok, nil
}

// Query returns the topK most similar chunks by cosine similarity,
// descending, ties broken by insertion order.
func (s *VectorStore) Query(_ context.Context, embedding []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	hits := make([]domain.RetrievedChunk, 0, len(s.order))
	for _, id := range s.order {
		chunk := s.chunks[id]
		hits = append(hits, domain.RetrievedChunk{
			Chunk:      chunk,
			Similarity: cosineSimilarity(embedding, chunk.Embedding),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}

	return hits, nil
}

// Count returns the total number of stored chunks.
func (s *VectorStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.chunks), nil
}

// Clear removes all stored chunks.
func (s *VectorStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.order = nil
	s.chunks = make(map[string]domain.Chunk)
	return nil
}

// ConversationStore keeps the exchange log in memory.
type ConversationStore struct {
	mu    sync.RWMutex
	convs []domain.Conversation
}

// NewConversationStore creates an empty in-memory conversation store.
func NewConversationStore() *ConversationStore {
	return &ConversationStore{}
}

// Append records one exchange.
func (s *ConversationStore) Append(_ context.Context, conv domain.Conversation) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}
	s.convs = append(s.convs, conv)
	return nil
}

// Recent returns up to limit exchanges, most recent first.
func (s *ConversationStore) Recent(_ context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		return nil, nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	n := len(s.convs)
	if limit > n {
		limit = n
	}

	out := make([]domain.Conversation, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, s.convs[i])
	}
	return out, nil
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
