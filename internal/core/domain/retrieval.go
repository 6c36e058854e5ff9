package domain

import "path/filepath"

// RetrievedChunk is a single similarity search hit.
type RetrievedChunk struct {
	// Chunk is the matched chunk.
	Chunk Chunk

	// Similarity is the cosine similarity to the query embedding (0-1).
	Similarity float64

	// Rank is the 1-based position by descending similarity.
	Rank int
}

// RetrievalResult is an ordered list of hits, rank 1 first.
// An empty result means the store held nothing relevant; it is not an error.
type RetrievalResult []RetrievedChunk

// Citation points a caller back at the source of a retrieved chunk.
type Citation struct {
	// Rank is the position in the retrieval result, 1 = most similar.
	Rank int `json:"rank"`

	// File is the source file name.
	File string `json:"file"`

	// Page is the 1-based page number within the source file.
	Page int `json:"page"`

	// ChunkID identifies the chunk in the vector store.
	ChunkID string `json:"chunk_id,omitempty"`
}

// Citations builds citation metadata from the result, preserving rank order.
func (r RetrievalResult) Citations() []Citation {
	citations := make([]Citation, len(r))
	for i, hit := range r {
		citations[i] = Citation{
			Rank:    hit.Rank,
			File:    filepath.Base(hit.Chunk.SourceFile),
			Page:    hit.Chunk.Page,
			ChunkID: hit.Chunk.ID,
		}
	}
	return citations
}
