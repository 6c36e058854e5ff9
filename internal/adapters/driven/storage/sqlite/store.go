package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/ragdesk/ragdesk/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Store is a unified SQLite-based storage that provides access to the
// vector index and the conversation log through wrapper types.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.ragdesk/data/ragdesk.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragdesk", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "ragdesk.db")

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// VectorStore returns a VectorStore interface backed by this store.
func (s *Store) VectorStore() driven.VectorStore {
	return &vectorStore{store: s}
}

// ConversationStore returns a ConversationStore interface backed by this store.
func (s *Store) ConversationStore() driven.ConversationStore {
	return &conversationStore{store: s}
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_initial.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(
			"INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// CheckEmbedder verifies the configured embedder matches the one that
// populated the index. On an empty index the metadata is (re)written;
// on a populated index a different embedder or dimension fails with
// domain.ErrEmbedderMismatch, since similarity between vectors from
// different embedders is meaningless.
func (s *Store) CheckEmbedder(ctx context.Context, name string, dimensions int) error {
	var storedName string
	var storedDims int
	row := s.db.QueryRowContext(ctx,
		"SELECT embedder, dimensions FROM index_meta WHERE id = 1")
	err := row.Scan(&storedName, &storedDims)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO index_meta (id, embedder, dimensions) VALUES (1, ?, ?)
		`, name, dimensions)
		if err != nil {
			return fmt.Errorf("recording embedder metadata: %w", err)
		}
		return nil
	case err != nil:
		return fmt.Errorf("reading embedder metadata: %w", err)
	}

	if storedName == name && storedDims == dimensions {
		return nil
	}

	var count int
	row = s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return fmt.Errorf("counting chunks: %w", err)
	}

	if count > 0 {
		return fmt.Errorf("index built with %s (%d dims), configured %s (%d dims): %w",
			storedName, storedDims, name, dimensions, domain.ErrEmbedderMismatch)
	}

	// Empty index: safe to switch embedders
	logger.Info("switching embedder from %s to %s on empty index", storedName, name)
	_, err = s.db.ExecContext(ctx, `
		UPDATE index_meta SET embedder = ?, dimensions = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
	`, name, dimensions)
	if err != nil {
		return fmt.Errorf("updating embedder metadata: %w", err)
	}
	return nil
}

// ==================== Vector Store ====================

// vectorStore implements driven.VectorStore.
type vectorStore struct {
	store *Store
}

var _ driven.VectorStore = (*vectorStore)(nil)

// Upsert stores a chunk and its embedding. It returns true when the
// chunk ID was not previously present.
func (s *vectorStore) Upsert(ctx context.Context, chunk domain.Chunk) (bool, error) {
	if chunk.CreatedAt.IsZero() {
		chunk.CreatedAt = time.Now().UTC()
	}

	exists, err := s.Has(ctx, chunk.ID)
	if err != nil {
		return false, err
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO chunks (id, source_file, page, char_start, char_end, content, embedding, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_file = excluded.source_file,
			page = excluded.page,
			char_start = excluded.char_start,
			char_end = excluded.char_end,
			content = excluded.content,
			embedding = excluded.embedding
	`, chunk.ID, chunk.SourceFile, chunk.Page, chunk.CharStart, chunk.CharEnd,
		chunk.Content, float32SliceToBytes(chunk.Embedding), chunk.CreatedAt)
	if err != nil {
		return false, fmt.Errorf("upserting chunk: %v: %w", err, domain.ErrStoreUnavailable)
	}

	return !exists, nil
}

// Has reports whether a chunk ID is already stored.
func (s *vectorStore) Has(ctx context.Context, chunkID string) (bool, error) {
	var one int
	row := s.store.db.QueryRowContext(ctx,
		"SELECT 1 FROM chunks WHERE id = ?", chunkID)
	if err := row.Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("checking chunk: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return true, nil
}

// Query returns the topK most similar chunks by cosine similarity,
// descending, ties broken by insertion order.
func (s *vectorStore) Query(ctx context.Context, embedding []float32, topK int) ([]domain.RetrievedChunk, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, source_file, page, char_start, char_end, content, embedding, created_at
		FROM chunks ORDER BY rowid
	`)
	if err != nil {
		return nil, fmt.Errorf("querying chunks: %v: %w", err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var hits []domain.RetrievedChunk //nolint:prealloc // size unknown from query
	for rows.Next() {
		var chunk domain.Chunk
		var embeddingBlob []byte
		if err := rows.Scan(&chunk.ID, &chunk.SourceFile, &chunk.Page,
			&chunk.CharStart, &chunk.CharEnd, &chunk.Content,
			&embeddingBlob, &chunk.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning chunk: %v: %w", err, domain.ErrStoreUnavailable)
		}
		chunk.Embedding = bytesToFloat32Slice(embeddingBlob)

		hits = append(hits, domain.RetrievedChunk{
			Chunk:      chunk,
			Similarity: cosineSimilarity(embedding, chunk.Embedding),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chunks: %v: %w", err, domain.ErrStoreUnavailable)
	}

	// Stable sort keeps insertion order for equal similarities
	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Similarity > hits[j].Similarity
	})

	if len(hits) > topK {
		hits = hits[:topK]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}

	return hits, nil
}

// Count returns the total number of stored chunks.
func (s *vectorStore) Count(ctx context.Context) (int, error) {
	var count int
	row := s.store.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks")
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting chunks: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return count, nil
}

// Clear removes all stored chunks and the embedder metadata.
func (s *vectorStore) Clear(ctx context.Context) error {
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM chunks"); err != nil {
		return fmt.Errorf("clearing chunks: %v: %w", err, domain.ErrStoreUnavailable)
	}
	if _, err := s.store.db.ExecContext(ctx, "DELETE FROM index_meta"); err != nil {
		return fmt.Errorf("clearing index metadata: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

// ==================== Conversation Store ====================

// conversationStore implements driven.ConversationStore.
type conversationStore struct {
	store *Store
}

var _ driven.ConversationStore = (*conversationStore)(nil)

// Append records one exchange.
func (s *conversationStore) Append(ctx context.Context, conv domain.Conversation) error {
	sources := conv.Sources
	if sources == nil {
		sources = []domain.Citation{}
	}
	sourcesJSON, err := json.Marshal(sources)
	if err != nil {
		return fmt.Errorf("marshalling sources: %w", err)
	}

	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = time.Now().UTC()
	}

	_, err = s.store.db.ExecContext(ctx, `
		INSERT INTO conversations (id, question, answer, extractive, sources, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, conv.ID, conv.Question, conv.Answer, conv.Extractive,
		string(sourcesJSON), conv.CreatedAt)
	if err != nil {
		return fmt.Errorf("appending conversation: %v: %w", err, domain.ErrStoreUnavailable)
	}
	return nil
}

// Recent returns up to limit exchanges, most recent first.
func (s *conversationStore) Recent(ctx context.Context, limit int) ([]domain.Conversation, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.store.db.QueryContext(ctx, `
		SELECT id, question, answer, extractive, sources, created_at
		FROM conversations
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying conversations: %v: %w", err, domain.ErrStoreUnavailable)
	}
	defer rows.Close()

	var convs []domain.Conversation //nolint:prealloc // size unknown from query
	for rows.Next() {
		var conv domain.Conversation
		var sourcesJSON string
		if err := rows.Scan(&conv.ID, &conv.Question, &conv.Answer,
			&conv.Extractive, &sourcesJSON, &conv.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning conversation: %v: %w", err, domain.ErrStoreUnavailable)
		}
		if err := json.Unmarshal([]byte(sourcesJSON), &conv.Sources); err != nil {
			return nil, fmt.Errorf("unmarshaling sources: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating conversations: %v: %w", err, domain.ErrStoreUnavailable)
	}

	return convs, nil
}

// ==================== Helpers ====================

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}

// cosineSimilarity computes the cosine similarity between two vectors.
// Mismatched lengths or zero vectors score 0.
func cosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
