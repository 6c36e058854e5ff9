package domain

import "time"

// Answer is the synthesized response to a question, with the citations
// that back it.
type Answer struct {
	// Question is the originating question, trimmed.
	Question string

	// Text is the answer body.
	Text string

	// Sources lists the chunks the answer was built from, rank order.
	Sources []Citation

	// Extractive is true when the answer is verbatim source text rather
	// than generated prose (no LLM configured, or the LLM call failed).
	Extractive bool
}

// Conversation is one persisted question/answer exchange.
// Conversation records are append-only.
type Conversation struct {
	// ID is a unique identifier for the exchange.
	ID string

	// Question is the user's question.
	Question string

	// Answer is the synthesized answer text.
	Answer string

	// Sources are the citations returned with the answer.
	Sources []Citation

	// Extractive records whether the answer was verbatim source text.
	Extractive bool

	// CreatedAt is when the exchange happened.
	CreatedAt time.Time
}
