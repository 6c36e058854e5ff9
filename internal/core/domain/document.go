package domain

import "time"

// Document represents a source file in the knowledge base.
// It is immutable once ingested; re-ingesting an unchanged file is a no-op.
type Document struct {
	// SourceFile is the path of the file the document was loaded from.
	SourceFile string

	// Title is the human-readable name, usually the file name.
	Title string

	// Pages is the number of pages extracted from the file.
	// Plain text documents always have one page.
	Pages int
}

// Page is a single page of extracted text, the unit the chunker consumes.
type Page struct {
	// SourceFile is the path of the file the page came from.
	SourceFile string

	// Number is the 1-based page number within the source file.
	Number int

	// Text is the raw extracted text of the page.
	Text string
}

// Chunk is a bounded span of page text, the unit of retrieval.
// Chunks are never mutated after creation; the ID is derived from
// source file, page and character offset so re-ingestion produces
// the same IDs.
type Chunk struct {
	// ID is the stable chunk identifier.
	ID string

	// SourceFile is the path of the originating document.
	SourceFile string

	// Page is the 1-based page number the chunk was cut from.
	Page int

	// CharStart and CharEnd delimit the chunk within the page text.
	CharStart int
	CharEnd   int

	// Content is the chunk text.
	Content string

	// Embedding is the vector representation, populated by the embedder.
	Embedding []float32

	// CreatedAt is when the chunk was first persisted.
	CreatedAt time.Time
}

// LoadFailure records a file that could not be read or parsed during
// ingestion. Failures are per-file and never abort the batch.
type LoadFailure struct {
	// File is the path of the failed file.
	File string

	// Reason is a short human-readable description of the failure.
	Reason string
}

// LoadBatch is the output of loading a source directory.
type LoadBatch struct {
	// Documents lists the files that loaded successfully.
	Documents []Document

	// Pages holds the extracted text, one entry per page.
	Pages []Page

	// Failures lists the files that could not be loaded.
	Failures []LoadFailure
}
