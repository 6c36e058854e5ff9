// Package watcher re-ingests the source directory when its files
// change. Bursts of filesystem events (editors write temp files, bulk
// copies touch many files) are debounced into a single ingestion run.
package watcher

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ragdesk/ragdesk/internal/core/ports/driving"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// DefaultDebounce is how long to wait after the last event before
// re-ingesting.
const DefaultDebounce = 1500 * time.Millisecond

// Watcher triggers ingestion runs on filesystem changes.
type Watcher struct {
	ingestor   driving.Ingestor
	dir        string
	debounce   time.Duration
	extensions map[string]bool
}

// New creates a watcher over dir. A non-positive debounce uses the
// default. Only files with the given extensions trigger runs.
func New(ingestor driving.Ingestor, dir string, debounce time.Duration, extensions []string) *Watcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	exts := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		exts[strings.ToLower(e)] = true
	}

	return &Watcher{
		ingestor:   ingestor,
		dir:        dir,
		debounce:   debounce,
		extensions: exts,
	}
}

// Run watches until the context is cancelled. Ingestion failures are
// logged and watching continues; only watcher setup errors are fatal.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.addRecursive(fsw, w.dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.dir, err)
	}

	logger.Info("Watching %s for changes", w.dir)

	// The timer starts stopped; events arm it
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if !w.relevant(event) {
				continue
			}
			logger.Debug("Change detected: %s %s", event.Op, event.Name)

			// New subdirectories need their own watch
			if event.Op.Has(fsnotify.Create) {
				if err := w.addRecursive(fsw, event.Name); err != nil {
					logger.Debug("not watching %s: %v", event.Name, err)
				}
			}

			timer.Reset(w.debounce)

		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			logger.Warn("Watcher error: %v", err)

		case <-timer.C:
			report, err := w.ingestor.Ingest(ctx, w.dir)
			if err != nil {
				logger.Warn("Re-ingestion failed: %v", err)
				continue
			}
			logger.Info("Re-ingested: %d new chunks", report.ChunksCreated)
		}
	}
}

// relevant reports whether an event should trigger re-ingestion:
// changes to supported files, or directory-level create/rename/remove.
func (w *Watcher) relevant(event fsnotify.Event) bool {
	if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) &&
		!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
		return false
	}

	name := filepath.Base(event.Name)
	if strings.HasPrefix(name, ".") {
		return false
	}

	ext := strings.ToLower(filepath.Ext(event.Name))
	if ext == "" {
		// Likely a directory
		return true
	}
	return w.extensions[ext]
}

// addRecursive watches path and every subdirectory beneath it.
// Non-directory paths are ignored.
func (w *Watcher) addRecursive(fsw *fsnotify.Watcher, path string) error {
	return filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".") && p != path {
			return filepath.SkipDir
		}
		return fsw.Add(p)
	})
}
