package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity or path does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrEmptyQuestion indicates a chat request with a blank question.
	// Rejected before any store access.
	ErrEmptyQuestion = errors.New("question cannot be empty")

	// ErrNoDocuments indicates a source directory held no supported documents.
	ErrNoDocuments = errors.New("no supported documents found")

	// ErrEmbeddingProvider indicates the embedding provider call failed.
	// During ingestion the affected file is skipped and reported; during a
	// query it fails the request, since mixing embedder variants would make
	// similarity scores meaningless.
	ErrEmbeddingProvider = errors.New("embedding provider failed")

	// ErrSynthesisProvider indicates the LLM completion call failed.
	// Always absorbed by the extractive fallback, never surfaced to callers.
	ErrSynthesisProvider = errors.New("synthesis provider failed")

	// ErrStoreUnavailable indicates the persistence layer is unreachable.
	// Fatal for the current request.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrEmbedderMismatch indicates the configured embedder does not match
	// the one that populated a non-empty store. Stored and query embeddings
	// must come from the same embedder variant.
	ErrEmbedderMismatch = errors.New("embedder does not match existing index")
)
