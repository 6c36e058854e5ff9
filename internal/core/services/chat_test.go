package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// fixedEmbedder returns the same vector for every text, so tests can
// steer retrieval by choosing the stored embeddings.
type fixedEmbedder struct {
	vec      []float32
	embedErr error
	calls    int
}

func (m *fixedEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	m.calls++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	return m.vec, nil
}

func (m *fixedEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	result := make([][]float32, len(texts))
	for i := range texts {
		vec, err := m.Embed(context.Background(), texts[i])
		if err != nil {
			return nil, err
		}
		result[i] = vec
	}
	return result, nil
}

func (m *fixedEmbedder) Dimensions() int   { return len(m.vec) }
func (m *fixedEmbedder) ModelName() string { return "fixed-embedder" }
func (m *fixedEmbedder) Close() error      { return nil }

// mockLLM implements driven.LLMService for testing.
type mockLLM struct {
	response string
	err      error
	prompts  []string
}

func (m *mockLLM) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.prompts = append(m.prompts, prompt)
	if m.err != nil {
		return "", m.err
	}
	return m.response, nil
}

func (m *mockLLM) ModelName() string { return "mock-llm" }
func (m *mockLLM) Close() error      { return nil }

// --- Helpers ---

func storeWith(t *testing.T, chunks ...domain.Chunk) *memory.VectorStore {
	t.Helper()
	store := memory.NewVectorStore()
	for _, c := range chunks {
		_, err := store.Upsert(context.Background(), c)
		require.NoError(t, err)
	}
	return store
}

func supportChunk(id, file string, page int, content string, embedding []float32) domain.Chunk {
	return domain.Chunk{
		ID:         id,
		SourceFile: file,
		Page:       page,
		Content:    content,
		Embedding:  embedding,
	}
}

// --- Tests ---

func TestChat_EmptyQuestion(t *testing.T) {
	embedder := &fixedEmbedder{vec: []float32{1, 0}}
	svc := NewChatService(embedder, memory.NewVectorStore(), memory.NewConversationStore(), nil, nil, ChatConfig{})

	for _, q := range []string{"", "   ", "\n\t"} {
		_, err := svc.Chat(context.Background(), q)
		assert.ErrorIs(t, err, domain.ErrEmptyQuestion)
	}

	assert.Equal(t, 0, embedder.calls, "blank questions must be rejected before any embedding")
}

func TestChat_EmptyIndex(t *testing.T) {
	convStore := memory.NewConversationStore()
	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		memory.NewVectorStore(),
		convStore,
		nil, nil, ChatConfig{},
	)

	answer, err := svc.Chat(context.Background(), "how do I activate roaming?")
	require.NoError(t, err)

	assert.True(t, answer.Extractive)
	assert.Empty(t, answer.Sources)
	assert.NotEmpty(t, answer.Text)

	// The exchange is still recorded
	recent, err := convStore.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, "how do I activate roaming?", recent[0].Question)
}

func TestChat_ExtractiveWithoutLLM(t *testing.T) {
	store := storeWith(t,
		supportChunk("best", "docs/roaming.txt", 2, "Roaming must be activated 24 hours in advance.", []float32{1, 0}),
		supportChunk("worse", "docs/billing.txt", 1, "Invoices are issued monthly.", []float32{0, 1}),
	)

	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		store,
		memory.NewConversationStore(),
		nil, nil, ChatConfig{},
	)

	answer, err := svc.Chat(context.Background(), "how do I activate roaming?")
	require.NoError(t, err)

	assert.True(t, answer.Extractive)
	assert.Equal(t, "Roaming must be activated 24 hours in advance.", answer.Text)

	require.Len(t, answer.Sources, 2)
	assert.Equal(t, 1, answer.Sources[0].Rank)
	assert.Equal(t, "roaming.txt", answer.Sources[0].File)
	assert.Equal(t, 2, answer.Sources[0].Page)
	assert.Equal(t, "best", answer.Sources[0].ChunkID)
}

func TestChat_SynthesizedAnswer(t *testing.T) {
	store := storeWith(t,
		supportChunk("c1", "docs/roaming.txt", 1, "Roaming must be activated 24 hours in advance.", []float32{1, 0}),
	)
	llm := &mockLLM{response: "Activate roaming at least 24 hours before travelling."}

	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		store,
		memory.NewConversationStore(),
		llm, nil, ChatConfig{},
	)

	answer, err := svc.Chat(context.Background(), "how do I activate roaming?")
	require.NoError(t, err)

	assert.False(t, answer.Extractive)
	assert.Equal(t, "Activate roaming at least 24 hours before travelling.", answer.Text)
	assert.Len(t, answer.Sources, 1)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "Roaming must be activated")
	assert.Contains(t, llm.prompts[0], "how do I activate roaming?")
}

func TestChat_LLMFailureFallsBack(t *testing.T) {
	store := storeWith(t,
		supportChunk("c1", "docs/roaming.txt", 1, "Roaming must be activated 24 hours in advance.", []float32{1, 0}),
	)
	llm := &mockLLM{err: errors.New("model overloaded")}

	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		store,
		memory.NewConversationStore(),
		llm, nil, ChatConfig{},
	)

	answer, err := svc.Chat(context.Background(), "how do I activate roaming?")
	require.NoError(t, err, "synthesis failures must never fail the request")

	assert.True(t, answer.Extractive)
	assert.Equal(t, "Roaming must be activated 24 hours in advance.", answer.Text)
	assert.Len(t, answer.Sources, 1)
}

func TestChat_AnswerMaxChars(t *testing.T) {
	long := strings.Repeat("policy detail ", 100)
	store := storeWith(t,
		supportChunk("c1", "docs/policy.txt", 1, long, []float32{1, 0}),
	)

	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		store,
		memory.NewConversationStore(),
		nil, nil, ChatConfig{AnswerMaxChars: 100},
	)

	answer, err := svc.Chat(context.Background(), "what is the policy?")
	require.NoError(t, err)
	assert.Len(t, answer.Text, 100)
}

func TestChat_TopKLimitsSources(t *testing.T) {
	store := storeWith(t,
		supportChunk("c1", "docs/a.txt", 1, "first", []float32{1, 0}),
		supportChunk("c2", "docs/b.txt", 1, "second", []float32{0.9, 0.1}),
		supportChunk("c3", "docs/c.txt", 1, "third", []float32{0.8, 0.2}),
	)

	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		store,
		memory.NewConversationStore(),
		nil, nil, ChatConfig{TopK: 2},
	)

	answer, err := svc.Chat(context.Background(), "anything?")
	require.NoError(t, err)
	assert.Len(t, answer.Sources, 2)
}

func TestChat_PromptBudget(t *testing.T) {
	bulky := strings.Repeat("x", 400)
	store := storeWith(t,
		supportChunk("c1", "docs/a.txt", 1, bulky, []float32{1, 0}),
		supportChunk("c2", "docs/b.txt", 1, "should not fit", []float32{0.9, 0.1}),
	)
	llm := &mockLLM{response: "ok"}

	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		store,
		memory.NewConversationStore(),
		llm, nil, ChatConfig{PromptCharBudget: 430},
	)

	_, err := svc.Chat(context.Background(), "anything?")
	require.NoError(t, err)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], "xxx")
	assert.NotContains(t, llm.prompts[0], "should not fit",
		"chunks beyond the prompt budget must be dropped")
}

func TestChat_EmbeddingFailureSurfaces(t *testing.T) {
	convStore := memory.NewConversationStore()
	svc := NewChatService(
		&fixedEmbedder{embedErr: domain.ErrEmbeddingProvider},
		storeWith(t, supportChunk("c1", "docs/a.txt", 1, "content", []float32{1, 0})),
		convStore,
		nil, nil, ChatConfig{},
	)

	_, err := svc.Chat(context.Background(), "anything?")
	assert.ErrorIs(t, err, domain.ErrEmbeddingProvider)

	// A failed request records nothing
	recent, err := convStore.Recent(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestChat_EmbedderMismatch(t *testing.T) {
	guard := &mockGuard{err: domain.ErrEmbedderMismatch}
	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		memory.NewVectorStore(),
		memory.NewConversationStore(),
		nil, guard, ChatConfig{},
	)

	_, err := svc.Chat(context.Background(), "anything?")
	assert.ErrorIs(t, err, domain.ErrEmbedderMismatch)
}

func TestHistory(t *testing.T) {
	convStore := memory.NewConversationStore()
	svc := NewChatService(
		&fixedEmbedder{vec: []float32{1, 0}},
		memory.NewVectorStore(),
		convStore,
		nil, nil, ChatConfig{HistoryLimit: 2},
	)
	ctx := context.Background()

	for _, q := range []string{"first?", "second?", "third?"} {
		_, err := svc.Chat(ctx, q)
		require.NoError(t, err)
	}

	// Explicit limit
	history, err := svc.History(ctx, 1)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "third?", history[0].Question)

	// Default limit from config
	history, err = svc.History(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
