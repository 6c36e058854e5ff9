package driving

import "context"

// IngestReport summarises one ingestion run.
type IngestReport struct {
	// DocumentsProcessed is the number of files loaded successfully.
	DocumentsProcessed int `json:"documents_processed"`

	// PagesLoaded is the number of pages extracted across those files.
	PagesLoaded int `json:"pages_loaded"`

	// ChunksCreated is the number of chunks newly added to the store.
	// Re-ingesting unchanged sources reports zero.
	ChunksCreated int `json:"chunks_created"`

	// Failures lists the files that could not be read or parsed.
	Failures []string `json:"failures"`
}

// Ingestor loads, chunks, embeds and stores source documents.
type Ingestor interface {
	// Ingest processes every supported file under dir. Idempotent: only
	// chunk IDs not already present are embedded and stored.
	Ingest(ctx context.Context, dir string) (*IngestReport, error)

	// Reset clears the vector store.
	Reset(ctx context.Context) error
}
