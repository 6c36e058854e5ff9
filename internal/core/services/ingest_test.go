package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/adapters/driven/storage/memory"
	"github.com/ragdesk/ragdesk/internal/chunker"
	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLoader implements driven.DocumentLoader for testing.
type mockLoader struct {
	batch   *domain.LoadBatch
	loadErr error
}

func (m *mockLoader) Load(_ context.Context, _ string) (*domain.LoadBatch, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	return m.batch, nil
}

func (m *mockLoader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".pdf"}
}

// mockEmbedder implements driven.EmbeddingService for testing.
// Vectors are a trivial function of text length so distinct texts get
// distinct but deterministic embeddings.
type mockEmbedder struct {
	embedErr       error
	failOnSubstr   string
	embedBatchCall int
}

func (m *mockEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vecs, err := m.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

func (m *mockEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	m.embedBatchCall++
	if m.embedErr != nil {
		return nil, m.embedErr
	}
	result := make([][]float32, len(texts))
	for i, text := range texts {
		if m.failOnSubstr != "" && strings.Contains(text, m.failOnSubstr) {
			return nil, fmt.Errorf("provider rejected input: %w", domain.ErrEmbeddingProvider)
		}
		result[i] = []float32{float32(len(text) % 17), float32(len(text) % 5), 1}
	}
	return result, nil
}

func (m *mockEmbedder) Dimensions() int   { return 3 }
func (m *mockEmbedder) ModelName() string { return "mock-embedder" }
func (m *mockEmbedder) Close() error      { return nil }

// mockGuard implements driven.EmbedderGuard for testing.
type mockGuard struct {
	err   error
	calls int
}

func (m *mockGuard) CheckEmbedder(_ context.Context, _ string, _ int) error {
	m.calls++
	return m.err
}

// --- Helpers ---

func loaderFor(pages ...domain.Page) *mockLoader {
	batch := &domain.LoadBatch{Pages: pages}
	seen := map[string]int{}
	for _, p := range pages {
		seen[p.SourceFile]++
	}
	for file, count := range seen {
		batch.Documents = append(batch.Documents, domain.Document{
			SourceFile: file,
			Title:      file,
			Pages:      count,
		})
	}
	return &mockLoader{batch: batch}
}

func newTestIngestor(loader driven.DocumentLoader, store driven.VectorStore) *IngestService {
	return NewIngestService(
		loader,
		chunker.New(chunker.WithChunkSize(50), chunker.WithOverlap(10)),
		&mockEmbedder{},
		store,
		nil,
	)
}

// --- Tests ---

func TestIngest_EndToEnd(t *testing.T) {
	store := memory.NewVectorStore()
	loader := loaderFor(
		domain.Page{SourceFile: "docs/roaming.txt", Number: 1, Text: strings.Repeat("roaming info ", 20)},
		domain.Page{SourceFile: "docs/billing.md", Number: 1, Text: "Invoices are issued monthly."},
	)

	svc := newTestIngestor(loader, store)
	report, err := svc.Ingest(context.Background(), "docs")
	require.NoError(t, err)

	assert.Equal(t, 2, report.DocumentsProcessed)
	assert.Equal(t, 2, report.PagesLoaded)
	assert.Greater(t, report.ChunksCreated, 1)
	assert.Empty(t, report.Failures)

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report.ChunksCreated, count)
}

func TestIngest_Idempotent(t *testing.T) {
	store := memory.NewVectorStore()
	loader := loaderFor(
		domain.Page{SourceFile: "docs/faq.txt", Number: 1, Text: strings.Repeat("frequently asked ", 15)},
	)

	svc := newTestIngestor(loader, store)
	ctx := context.Background()

	first, err := svc.Ingest(ctx, "docs")
	require.NoError(t, err)
	require.Greater(t, first.ChunksCreated, 0)

	second, err := svc.Ingest(ctx, "docs")
	require.NoError(t, err)
	assert.Equal(t, 0, second.ChunksCreated, "re-ingesting unchanged sources must create nothing")
	assert.Equal(t, 1, second.DocumentsProcessed)

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, first.ChunksCreated, count)
}

func TestIngest_MissingDirectory(t *testing.T) {
	loader := &mockLoader{loadErr: fmt.Errorf("source directory docs: %w", domain.ErrNotFound)}
	svc := newTestIngestor(loader, memory.NewVectorStore())

	_, err := svc.Ingest(context.Background(), "docs")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestIngest_NoDocuments(t *testing.T) {
	loader := &mockLoader{batch: &domain.LoadBatch{}}
	svc := newTestIngestor(loader, memory.NewVectorStore())

	_, err := svc.Ingest(context.Background(), "empty-dir")
	assert.ErrorIs(t, err, domain.ErrNoDocuments)
}

func TestIngest_LoaderFailuresReported(t *testing.T) {
	loader := loaderFor(
		domain.Page{SourceFile: "docs/good.txt", Number: 1, Text: "usable content"},
	)
	loader.batch.Failures = []domain.LoadFailure{
		{File: "docs/broken.pdf", Reason: "no extractable text"},
	}

	svc := newTestIngestor(loader, memory.NewVectorStore())
	report, err := svc.Ingest(context.Background(), "docs")
	require.NoError(t, err)

	assert.Equal(t, 1, report.DocumentsProcessed)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "broken.pdf")
	assert.Contains(t, report.Failures[0], "no extractable text")
}

func TestIngest_EmbedFailureSkipsOnlyThatFile(t *testing.T) {
	store := memory.NewVectorStore()
	loader := loaderFor(
		domain.Page{SourceFile: "docs/poison.txt", Number: 1, Text: "POISON content"},
		domain.Page{SourceFile: "docs/fine.txt", Number: 1, Text: "harmless content"},
	)

	svc := NewIngestService(
		loader,
		chunker.New(),
		&mockEmbedder{failOnSubstr: "POISON"},
		store,
		nil,
	)

	report, err := svc.Ingest(context.Background(), "docs")
	require.NoError(t, err, "a provider failure on one file must not abort the run")

	assert.Equal(t, 1, report.DocumentsProcessed)
	assert.Equal(t, 1, report.ChunksCreated)
	require.Len(t, report.Failures, 1)
	assert.Contains(t, report.Failures[0], "poison.txt")
}

func TestIngest_EmbedderMismatch(t *testing.T) {
	guard := &mockGuard{err: domain.ErrEmbedderMismatch}
	svc := NewIngestService(
		loaderFor(domain.Page{SourceFile: "docs/a.txt", Number: 1, Text: "text"}),
		chunker.New(),
		&mockEmbedder{},
		memory.NewVectorStore(),
		guard,
	)

	_, err := svc.Ingest(context.Background(), "docs")
	assert.ErrorIs(t, err, domain.ErrEmbedderMismatch)
	assert.Equal(t, 1, guard.calls)
}

func TestIngest_Reset(t *testing.T) {
	store := memory.NewVectorStore()
	loader := loaderFor(domain.Page{SourceFile: "docs/a.txt", Number: 1, Text: "some content"})

	svc := newTestIngestor(loader, store)
	ctx := context.Background()

	_, err := svc.Ingest(ctx, "docs")
	require.NoError(t, err)

	require.NoError(t, svc.Reset(ctx))

	count, err := store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestIngest_CancelledContext(t *testing.T) {
	loader := loaderFor(domain.Page{SourceFile: "docs/a.txt", Number: 1, Text: "some content"})
	svc := newTestIngestor(loader, memory.NewVectorStore())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.Ingest(ctx, "docs")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGroupBySource(t *testing.T) {
	pages := []domain.Page{
		{SourceFile: "a", Number: 1},
		{SourceFile: "a", Number: 2},
		{SourceFile: "b", Number: 1},
	}

	groups := groupBySource(pages)
	require.Len(t, groups, 2)
	assert.Len(t, groups[0], 2)
	assert.Len(t, groups[1], 1)
	assert.Equal(t, "b", groups[1][0].SourceFile)

	assert.Empty(t, groupBySource(nil))
}

func TestIngest_ErrorsAreWrapped(t *testing.T) {
	loader := &mockLoader{loadErr: errors.New("disk on fire")}
	svc := newTestIngestor(loader, memory.NewVectorStore())

	_, err := svc.Ingest(context.Background(), "docs")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")
}
