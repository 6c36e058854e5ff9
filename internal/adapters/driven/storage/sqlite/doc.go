// Package sqlite provides SQLite-backed persistence for the chunk
// index and the conversation log.
//
// A single database file holds:
//   - chunks: chunk text, offsets and embedding blobs
//   - index_meta: which embedder populated the index
//   - conversations: the append-only question/answer log
//   - schema_migrations: applied migration versions
//
// Similarity search is a brute-force cosine scan over all stored
// embeddings. That is deliberate: support knowledge bases are small
// (thousands of chunks, not millions) and a scan keeps the storage
// layer to one file with no native extensions.
package sqlite
