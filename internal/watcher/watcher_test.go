package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
)

// countingIngestor records ingestion runs.
type countingIngestor struct {
	mu    sync.Mutex
	calls int
}

func (c *countingIngestor) Ingest(_ context.Context, _ string) (*driving.IngestReport, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return &driving.IngestReport{}, nil
}

func (c *countingIngestor) Reset(_ context.Context) error { return nil }

func (c *countingIngestor) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func TestRun_TriggersOnChange(t *testing.T) {
	dir := t.TempDir()
	ingestor := &countingIngestor{}

	w := New(ingestor, dir, 50*time.Millisecond, []string{".txt", ".md", ".pdf"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	// Give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "new.txt"), []byte("content"), 0o644))

	require.Eventually(t, func() bool {
		return ingestor.count() >= 1
	}, 3*time.Second, 25*time.Millisecond, "expected a write to trigger re-ingestion")

	cancel()
	<-done
}

func TestRun_DebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	ingestor := &countingIngestor{}

	w := New(ingestor, dir, 150*time.Millisecond, []string{".txt"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	// A burst of writes inside the debounce window
	for i := 0; i < 5; i++ {
		name := filepath.Join(dir, "burst.txt")
		require.NoError(t, os.WriteFile(name, []byte("rev"), 0o644))
		time.Sleep(20 * time.Millisecond)
	}

	require.Eventually(t, func() bool {
		return ingestor.count() >= 1
	}, 3*time.Second, 25*time.Millisecond)

	// Settle, then verify the burst collapsed into one run
	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 1, ingestor.count(), "burst of writes should trigger a single ingestion")

	cancel()
	<-done
}

func TestRun_IgnoresUnsupportedFiles(t *testing.T) {
	dir := t.TempDir()
	ingestor := &countingIngestor{}

	w := New(ingestor, dir, 50*time.Millisecond, []string{".txt"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = w.Run(ctx)
	}()

	time.Sleep(100 * time.Millisecond)

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.csv"), []byte("a,b"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".hidden.txt"), []byte("x"), 0o644))

	time.Sleep(300 * time.Millisecond)
	assert.Equal(t, 0, ingestor.count(), "unsupported and hidden files must not trigger ingestion")

	cancel()
	<-done
}

func TestRun_MissingDirectory(t *testing.T) {
	w := New(&countingIngestor{}, "/nonexistent/watch/path", 0, []string{".txt"})

	err := w.Run(context.Background())
	assert.Error(t, err)
}

func TestRun_ContextCancel(t *testing.T) {
	dir := t.TempDir()
	w := New(&countingIngestor{}, dir, 0, []string{".txt"})

	ctx, cancel := context.WithCancel(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- w.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("watcher did not stop on context cancel")
	}
}
