package driven

import (
	"context"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

// DocumentLoader reads source documents from a directory and extracts
// their text page by page.
//
// A missing directory is an error. A file that cannot be parsed is not:
// it is skipped and reported in the batch's Failures so the rest of the
// directory still ingests.
type DocumentLoader interface {
	// Load walks dir and extracts text from every supported file.
	Load(ctx context.Context, dir string) (*domain.LoadBatch, error)

	// SupportedExtensions returns the file extensions this loader handles.
	SupportedExtensions() []string
}

// Chunker splits page text into overlapping spans suitable for embedding.
// Identical input always yields identical chunk boundaries and IDs.
type Chunker interface {
	// Split cuts one page into ordered, overlapping chunks. Text shorter
	// than the chunk size yields exactly one chunk.
	Split(page domain.Page) []domain.Chunk
}

// CommandRunner executes an external command and returns its standard
// output. Extracted as a port so text-extraction tools can be stubbed in
// tests.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}
