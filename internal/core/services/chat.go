package services

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.SupportAgent = (*ChatService)(nil)

// Default tuning values for the chat service.
const (
	DefaultTopK            = 4
	DefaultAnswerMaxChars  = 600
	DefaultPromptBudget    = 6000
	DefaultHistoryLimit    = 50
	defaultNoContextAnswer = "I could not find relevant information in the knowledge base."
)

// answerPromptTemplate frames retrieved context for the LLM.
const answerPromptTemplate = `You are a support assistant. Answer the question using only the provided context.
If the context does not contain the answer, say that you do not know.
Be concise.

Context:
%s

Question: %s

Answer:`

// ChatConfig holds tuning parameters for the chat service.
type ChatConfig struct {
	// TopK is how many chunks to retrieve per question (default: 4).
	TopK int

	// AnswerMaxChars caps extractive answers (default: 600).
	AnswerMaxChars int

	// PromptCharBudget caps the context section of the LLM prompt
	// (default: 6000).
	PromptCharBudget int

	// HistoryLimit is the default number of exchanges History returns
	// (default: 50).
	HistoryLimit int
}

// withDefaults fills zero fields with default values.
func (c ChatConfig) withDefaults() ChatConfig {
	if c.TopK <= 0 {
		c.TopK = DefaultTopK
	}
	if c.AnswerMaxChars <= 0 {
		c.AnswerMaxChars = DefaultAnswerMaxChars
	}
	if c.PromptCharBudget <= 0 {
		c.PromptCharBudget = DefaultPromptBudget
	}
	if c.HistoryLimit <= 0 {
		c.HistoryLimit = DefaultHistoryLimit
	}
	return c
}

// ChatService answers questions over the ingested knowledge base.
//
// Answer synthesis degrades, never fails: when no LLM is configured or
// the completion call errors, the answer falls back to verbatim text of
// the best-matching chunk. Retrieval failures, by contrast, surface as
// errors, since an answer without retrieved context would be fabricated.
type ChatService struct {
	embedder    driven.EmbeddingService
	vectorStore driven.VectorStore
	convStore   driven.ConversationStore
	llm         driven.LLMService
	guard       driven.EmbedderGuard
	cfg         ChatConfig
}

// NewChatService creates a new chat service.
// The llm and guard parameters are optional (can be nil).
func NewChatService(
	embedder driven.EmbeddingService,
	vectorStore driven.VectorStore,
	convStore driven.ConversationStore,
	llm driven.LLMService,
	guard driven.EmbedderGuard,
	cfg ChatConfig,
) *ChatService {
	return &ChatService{
		embedder:    embedder,
		vectorStore: vectorStore,
		convStore:   convStore,
		llm:         llm,
		guard:       guard,
		cfg:         cfg.withDefaults(),
	}
}

// Chat retrieves context for the question and synthesizes an answer.
func (s *ChatService) Chat(ctx context.Context, question string) (*domain.Answer, error) {
	logger.Section("Chat")

	// Validate before touching any store
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.ErrEmptyQuestion
	}
	logger.Debug("Question: %q", question)

	if s.guard != nil {
		if err := s.guard.CheckEmbedder(ctx, s.embedder.ModelName(), s.embedder.Dimensions()); err != nil {
			return nil, err
		}
	}

	embedding, err := s.embedder.Embed(ctx, question)
	if err != nil {
		// Unlike synthesis, a failed query embedding cannot degrade:
		// similarity against vectors from another embedder is meaningless.
		return nil, fmt.Errorf("embedding question: %w", err)
	}

	hits, err := s.vectorStore.Query(ctx, embedding, s.cfg.TopK)
	if err != nil {
		return nil, fmt.Errorf("querying index: %w", err)
	}
	logger.Debug("Retrieved %d chunks", len(hits))

	answer := s.synthesize(ctx, question, hits)
	s.record(ctx, answer)

	return answer, nil
}

// synthesize builds the answer from the retrieved chunks.
func (s *ChatService) synthesize(ctx context.Context, question string, hits domain.RetrievalResult) *domain.Answer {
	if len(hits) == 0 {
		return &domain.Answer{
			Question:   question,
			Text:       defaultNoContextAnswer,
			Sources:    []domain.Citation{},
			Extractive: true,
		}
	}

	answer := &domain.Answer{
		Question: question,
		Sources:  hits.Citations(),
	}

	if s.llm != nil {
		text, err := s.llm.Complete(ctx, s.buildPrompt(question, hits), driven.CompleteOptions{
			MaxTokens:   s.cfg.AnswerMaxChars / 2,
			Temperature: 0.2,
		})
		if err == nil && strings.TrimSpace(text) != "" {
			answer.Text = strings.TrimSpace(text)
			return answer
		}
		logger.Warn("Synthesis failed, falling back to extractive answer: %v", err)
	}

	answer.Text = truncate(strings.TrimSpace(hits[0].Chunk.Content), s.cfg.AnswerMaxChars)
	answer.Extractive = true
	return answer
}

// buildPrompt assembles the LLM prompt, keeping the context section
// within the configured character budget. The top chunk is always
// included, truncated if it alone exceeds the budget.
func (s *ChatService) buildPrompt(question string, hits domain.RetrievalResult) string {
	var sb strings.Builder
	for i, hit := range hits {
		section := fmt.Sprintf("[%s, page %d]\n%s\n\n",
			filepath.Base(hit.Chunk.SourceFile), hit.Chunk.Page, hit.Chunk.Content)

		if sb.Len()+len(section) > s.cfg.PromptCharBudget {
			if i == 0 {
				sb.WriteString(truncate(section, s.cfg.PromptCharBudget))
			}
			break
		}
		sb.WriteString(section)
	}

	return fmt.Sprintf(answerPromptTemplate, strings.TrimSpace(sb.String()), question)
}

// record appends the exchange to the conversation log. Logging failures
// are reported but never fail the answer that was already produced.
func (s *ChatService) record(ctx context.Context, answer *domain.Answer) {
	if s.convStore == nil {
		return
	}

	conv := domain.Conversation{
		ID:         uuid.NewString(),
		Question:   answer.Question,
		Answer:     answer.Text,
		Sources:    answer.Sources,
		Extractive: answer.Extractive,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.convStore.Append(ctx, conv); err != nil {
		logger.Warn("Recording conversation failed: %v", err)
	}
}

// History returns up to limit past exchanges, most recent first.
// A non-positive limit uses the configured default.
func (s *ChatService) History(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = s.cfg.HistoryLimit
	}
	return s.convStore.Recent(ctx, limit)
}

// truncate cuts s to at most max characters.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
