package driving

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// SupportAgent answers questions from the ingested knowledge base.
type SupportAgent interface {
	// Chat retrieves context for the question and synthesizes an answer.
	// A blank question fails with domain.ErrEmptyQuestion before any
	// retrieval happens. Provider failures degrade to the extractive
	// fallback; only retrieval/storage failures surface as errors.
	Chat(ctx context.Context, question string) (*domain.Answer, error)

	// History returns up to limit past exchanges, most recent first.
	History(ctx context.Context, limit int) ([]domain.Conversation, error)
}
