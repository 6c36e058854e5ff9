// Package loaders reads source documents from disk and extracts their
// text page by page. Plain text and markdown files load directly; PDF
// text is extracted through the external pdftotext tool.
package loaders

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
	"github.com/ragdesk/ragdesk/internal/logger"
)

// Ensure Loader implements the port.
var _ driven.DocumentLoader = (*Loader)(nil)

// pdfTool is the external program used for PDF text extraction.
const pdfTool = "pdftotext"

// Loader walks a source directory and extracts text from every
// supported file. Files that cannot be read or parsed are reported as
// per-file failures and never abort the batch.
type Loader struct {
	runner driven.CommandRunner
}

// Option configures the loader.
type Option func(*Loader)

// WithRunner sets the command runner used for PDF extraction.
// Defaults to ExecRunner.
func WithRunner(r driven.CommandRunner) Option {
	return func(l *Loader) {
		if r != nil {
			l.runner = r
		}
	}
}

// New creates a document loader with the given options.
func New(opts ...Option) *Loader {
	l := &Loader{runner: ExecRunner{}}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// SupportedExtensions returns the file extensions this loader handles.
func (l *Loader) SupportedExtensions() []string {
	return []string{".txt", ".md", ".pdf"}
}

// Load walks dir and extracts text from every supported file, in
// lexical path order so repeated runs see the same sequence. A missing
// or unreadable directory fails with domain.ErrNotFound.
func (l *Loader) Load(ctx context.Context, dir string) (*domain.LoadBatch, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("source directory %s: %w", dir, domain.ErrNotFound)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("source path %s is not a directory: %w", dir, domain.ErrNotFound)
	}

	files, err := l.collect(dir)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", dir, err)
	}

	logger.Section("Loading documents")
	logger.Debug("found %d supported files under %s", len(files), dir)

	batch := &domain.LoadBatch{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pages, err := l.loadFile(ctx, path)
		if err != nil {
			logger.Warn("skipping %s: %v", path, err)
			batch.Failures = append(batch.Failures, domain.LoadFailure{
				File:   path,
				Reason: err.Error(),
			})
			continue
		}

		batch.Documents = append(batch.Documents, domain.Document{
			SourceFile: path,
			Title:      filepath.Base(path),
			Pages:      len(pages),
		})
		batch.Pages = append(batch.Pages, pages...)
		logger.Debug("loaded %s (%d pages)", path, len(pages))
	}

	return batch, nil
}

// collect returns the supported files under dir in lexical order.
// Hidden files and directories are skipped.
func (l *Loader) collect(dir string) ([]string, error) {
	supported := make(map[string]bool)
	for _, ext := range l.SupportedExtensions() {
		supported[ext] = true
	}

	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") && path != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() {
			return nil
		}
		if supported[strings.ToLower(filepath.Ext(name))] {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Strings(files)
	return files, nil
}

// loadFile extracts the pages of a single file.
func (l *Loader) loadFile(ctx context.Context, path string) ([]domain.Page, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return l.loadPDF(ctx, path)
	default:
		return l.loadPlainText(path)
	}
}

// loadPlainText reads a text or markdown file as a single page.
func (l *Loader) loadPlainText(path string) ([]domain.Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading file: %w", err)
	}

	text := strings.TrimSpace(string(data))
	if text == "" {
		return nil, fmt.Errorf("file is empty")
	}

	return []domain.Page{{SourceFile: path, Number: 1, Text: text}}, nil
}

// loadPDF extracts text with pdftotext. The tool separates pages with
// form feeds, which map onto 1-based page numbers. Pages whose text is
// blank (scanned images, separators) are dropped.
func (l *Loader) loadPDF(ctx context.Context, path string) ([]domain.Page, error) {
	out, err := l.runner.Run(ctx, pdfTool, "-layout", "-enc", "UTF-8", path, "-")
	if err != nil {
		return nil, fmt.Errorf("extracting text: %w", err)
	}

	var pages []domain.Page
	for i, raw := range strings.Split(string(out), "\f") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		pages = append(pages, domain.Page{
			SourceFile: path,
			Number:     i + 1,
			Text:       text,
		})
	}

	if len(pages) == 0 {
		return nil, fmt.Errorf("no extractable text")
	}

	return pages, nil
}
