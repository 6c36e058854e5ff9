package chunker

import (
	"strings"
	"testing"

	"github.com/ragdesk/ragdesk/internal/core/domain"
)

func TestNew(t *testing.T) {
	t.Run("default values", func(t *testing.T) {
		c := New()
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected chunkSize %d, got %d", DefaultChunkSize, c.chunkSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected overlap %d, got %d", DefaultOverlap, c.overlap)
		}
	})

	t.Run("custom sizes", func(t *testing.T) {
		c := New(WithChunkSize(500), WithOverlap(100))
		if c.chunkSize != 500 {
			t.Errorf("expected chunkSize 500, got %d", c.chunkSize)
		}
		if c.overlap != 100 {
			t.Errorf("expected overlap 100, got %d", c.overlap)
		}
	})

	t.Run("overlap exceeds chunk size", func(t *testing.T) {
		c := New(WithChunkSize(100), WithOverlap(150))
		if c.overlap >= c.chunkSize {
			t.Error("overlap should be reduced when it exceeds chunk size")
		}
	})

	t.Run("zero values ignored", func(t *testing.T) {
		c := New(WithChunkSize(0), WithOverlap(-1))
		if c.chunkSize != DefaultChunkSize {
			t.Errorf("expected default chunkSize, got %d", c.chunkSize)
		}
		if c.overlap != DefaultOverlap {
			t.Errorf("expected default overlap, got %d", c.overlap)
		}
	})
}

func TestSplit_EmptyText(t *testing.T) {
	c := New()
	chunks := c.Split(domain.Page{SourceFile: "a.txt", Number: 1})
	if len(chunks) != 0 {
		t.Errorf("expected 0 chunks for empty text, got %d", len(chunks))
	}
}

func TestSplit_ShortText(t *testing.T) {
	c := New(WithChunkSize(100), WithOverlap(20))
	page := domain.Page{SourceFile: "a.txt", Number: 1, Text: "Roaming must be activated 24 hours in advance."}

	chunks := c.Split(page)
	if len(chunks) != 1 {
		t.Fatalf("expected 1 chunk for short text, got %d", len(chunks))
	}
	if chunks[0].Content != page.Text {
		t.Errorf("expected chunk content to equal page text")
	}
	if chunks[0].Page != 1 {
		t.Errorf("expected page 1, got %d", chunks[0].Page)
	}
	if chunks[0].CharStart != 0 || chunks[0].CharEnd != len(page.Text) {
		t.Errorf("unexpected offsets: %d..%d", chunks[0].CharStart, chunks[0].CharEnd)
	}
}

func TestSplit_Coverage(t *testing.T) {
	// De-overlapped chunks must reconstruct the source exactly.
	cases := map[string]string{
		"multiple of step": strings.Repeat("abcdefg", 40),
		"ragged tail":      strings.Repeat("x", 283),
		"single byte":      "y",
	}

	c := New(WithChunkSize(50), WithOverlap(10))
	for name, text := range cases {
		t.Run(name, func(t *testing.T) {
			chunks := c.Split(domain.Page{SourceFile: "doc.txt", Number: 1, Text: text})

			var sb strings.Builder
			cur := 0
			for _, ch := range chunks {
				if ch.CharEnd <= cur {
					continue
				}
				sb.WriteString(ch.Content[cur-ch.CharStart:])
				cur = ch.CharEnd
			}
			if sb.String() != text {
				t.Errorf("reconstructed text does not match source (got %d chars, want %d)",
					sb.Len(), len(text))
			}
		})
	}
}

func TestSplit_Overlap(t *testing.T) {
	c := New(WithChunkSize(10), WithOverlap(3))
	text := "0123456789ABCDEFGHIJ"

	chunks := c.Split(domain.Page{SourceFile: "doc.txt", Number: 1, Text: text})
	if len(chunks) < 2 {
		t.Fatalf("expected at least 2 chunks, got %d", len(chunks))
	}

	// Consecutive chunks share the configured overlap
	first, second := chunks[0], chunks[1]
	if second.CharStart != first.CharEnd-3 {
		t.Errorf("expected second chunk to start at %d, got %d", first.CharEnd-3, second.CharStart)
	}
	if !strings.HasPrefix(second.Content, first.Content[len(first.Content)-3:]) {
		t.Error("expected second chunk to begin with the tail of the first")
	}
}

func TestSplit_Deterministic(t *testing.T) {
	c := New(WithChunkSize(40), WithOverlap(8))
	page := domain.Page{SourceFile: "faq.pdf", Number: 3, Text: strings.Repeat("deterministic ", 20)}

	a := c.Split(page)
	b := c.Split(page)
	if len(a) != len(b) {
		t.Fatalf("chunk counts differ: %d vs %d", len(a), len(b))
	}
	for i := range a {
		if a[i].ID != b[i].ID || a[i].Content != b[i].Content {
			t.Errorf("chunk %d differs between runs", i)
		}
	}
}

func TestChunkID_Stable(t *testing.T) {
	a := ChunkID("docs/faq.pdf", 2, 700)
	b := ChunkID("docs/faq.pdf", 2, 700)
	if a != b {
		t.Errorf("expected stable IDs, got %q and %q", a, b)
	}
	if ChunkID("docs/faq.pdf", 2, 0) == a {
		t.Error("expected different offsets to produce different IDs")
	}
}
