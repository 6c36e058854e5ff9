package services

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Ensure IngestService implements the interface.
var _ driving.Ingestor = (*IngestService)(nil)

// IngestService runs the ingestion pipeline: load documents, chunk
// their pages, embed new chunks and store them.
//
// Ingestion is idempotent. Chunk IDs are derived from source file, page
// and offset, so re-ingesting unchanged sources finds every ID already
// present and embeds nothing.
type IngestService struct {
	loader      driven.DocumentLoader
	chunker     driven.Chunker
	embedder    driven.EmbeddingService
	vectorStore driven.VectorStore
	guard       driven.EmbedderGuard
}

// NewIngestService creates a new ingest service.
// The guard parameter is optional (can be nil).
func NewIngestService(
	loader driven.DocumentLoader,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	vectorStore driven.VectorStore,
	guard driven.EmbedderGuard,
) *IngestService {
	return &IngestService{
		loader:      loader,
		chunker:     chunker,
		embedder:    embedder,
		vectorStore: vectorStore,
		guard:       guard,
	}
}

// Ingest processes every supported file under dir.
//
// Files that fail to load or embed are reported in the failures list
// and never abort the run. A directory with no supported files at all
// fails with domain.ErrNoDocuments.
func (s *IngestService) Ingest(ctx context.Context, dir string) (*driving.IngestReport, error) {
	logger.Section("Ingestion")
	logger.Debug("Source directory: %s", dir)

	if s.guard != nil {
		if err := s.guard.CheckEmbedder(ctx, s.embedder.ModelName(), s.embedder.Dimensions()); err != nil {
			return nil, err
		}
	}

	batch, err := s.loader.Load(ctx, dir)
	if err != nil {
		return nil, err
	}

	if len(batch.Documents) == 0 && len(batch.Failures) == 0 {
		return nil, fmt.Errorf("%s: %w", dir, domain.ErrNoDocuments)
	}

	report := &driving.IngestReport{
		PagesLoaded: len(batch.Pages),
		Failures:    make([]string, 0, len(batch.Failures)),
	}
	for _, f := range batch.Failures {
		report.Failures = append(report.Failures, fmt.Sprintf("%s: %s", f.File, f.Reason))
	}

	// Pages are grouped per source file so one provider failure skips
	// only that file.
	for _, pages := range groupBySource(batch.Pages) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		created, err := s.ingestFile(ctx, pages)
		if err != nil {
			file := pages[0].SourceFile
			logger.Warn("Skipping %s: %v", file, err)
			report.Failures = append(report.Failures, fmt.Sprintf("%s: %v", file, err))
			continue
		}
		report.DocumentsProcessed++
		report.ChunksCreated += created
	}

	logger.Info("Ingested %d documents, %d new chunks, %d failures",
		report.DocumentsProcessed, report.ChunksCreated, len(report.Failures))

	return report, nil
}

// ingestFile chunks, embeds and stores the pages of one source file.
// It returns the number of chunks newly added to the store.
func (s *IngestService) ingestFile(ctx context.Context, pages []domain.Page) (int, error) {
	var pending []domain.Chunk
	for _, page := range pages {
		for _, chunk := range s.chunker.Split(page) {
			exists, err := s.vectorStore.Has(ctx, chunk.ID)
			if err != nil {
				return 0, err
			}
			if exists {
				continue
			}
			pending = append(pending, chunk)
		}
	}

	if len(pending) == 0 {
		logger.Debug("%s: all chunks already indexed", filepath.Base(pages[0].SourceFile))
		return 0, nil
	}

	texts := make([]string, len(pending))
	for i, chunk := range pending {
		texts[i] = chunk.Content
	}

	embeddings, err := s.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("embedding %d chunks: %w", len(pending), err)
	}
	if len(embeddings) != len(pending) {
		return 0, fmt.Errorf("embedding count mismatch: got %d, want %d: %w",
			len(embeddings), len(pending), domain.ErrEmbeddingProvider)
	}

	created := 0
	for i, chunk := range pending {
		chunk.Embedding = embeddings[i]
		wasNew, err := s.vectorStore.Upsert(ctx, chunk)
		if err != nil {
			return created, err
		}
		if wasNew {
			created++
		}
	}

	logger.Debug("%s: %d chunks embedded and stored", filepath.Base(pages[0].SourceFile), created)
	return created, nil
}

// Reset clears the vector store.
func (s *IngestService) Reset(ctx context.Context) error {
	logger.Info("Clearing vector store")
	return s.vectorStore.Clear(ctx)
}

// groupBySource splits pages into per-file groups, preserving the
// loader's ordering of both files and pages.
func groupBySource(pages []domain.Page) [][]domain.Page {
	var groups [][]domain.Page
	for _, page := range pages {
		n := len(groups)
		if n > 0 && groups[n-1][0].SourceFile == page.SourceFile {
			groups[n-1] = append(groups[n-1], page)
			continue
		}
		groups = append(groups, []domain.Page{page})
	}
	return groups
}
