// Package chunker provides fixed-size text chunking with overlap.
package chunker

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/ragdesk/ragdesk/internal/core/domain"
	"github.com/ragdesk/ragdesk/internal/core/ports/driven"
)

// Ensure Chunker implements the port.
var _ driven.Chunker = (*Chunker)(nil)

// DefaultChunkSize is the default number of characters per chunk.
const DefaultChunkSize = 800

// DefaultOverlap is the default number of overlapping characters.
const DefaultOverlap = 150

// Chunker splits page text into overlapping fixed-size spans.
//
// Chunk IDs are derived from source file, page number and character
// offset, so splitting the same page twice yields identical chunks.
// That stability is what makes re-ingestion idempotent.
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker.
type Option func(*Chunker)

// WithChunkSize sets the chunk size in characters.
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		if size > 0 {
			c.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		if overlap >= 0 {
			c.overlap = overlap
		}
	}
}

// New creates a chunker with the given options.
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	// Overlap must stay below chunk size or the window never advances
	if c.overlap >= c.chunkSize {
		c.overlap = c.chunkSize / 4
	}

	return c
}

// Split cuts one page into ordered, overlapping chunks.
//
// Consecutive chunks overlap by the configured amount; the
// non-overlapping portions concatenate back to the original text.
// Text shorter than the chunk size yields exactly one chunk. Empty
// text yields none.
func (c *Chunker) Split(page domain.Page) []domain.Chunk {
	text := page.Text
	if text == "" {
		return nil
	}

	step := c.chunkSize - c.overlap
	estimated := len(text)/step + 1
	chunks := make([]domain.Chunk, 0, estimated)

	for start := 0; start < len(text); start += step {
		end := start + c.chunkSize
		if end > len(text) {
			end = len(text)
		}

		chunks = append(chunks, domain.Chunk{
			ID:         ChunkID(page.SourceFile, page.Number, start),
			SourceFile: page.SourceFile,
			Page:       page.Number,
			CharStart:  start,
			CharEnd:    end,
			Content:    text[start:end],
		})

		if end == len(text) {
			break
		}
	}

	return chunks
}

// ChunkID derives the stable identifier for a chunk from its source
// file, page number and character offset.
func ChunkID(sourceFile string, page, offset int) string {
	sum := sha256.Sum256(fmt.Appendf(nil, "%s|%d|%d", sourceFile, page, offset))
	return hex.EncodeToString(sum[:8])
}
