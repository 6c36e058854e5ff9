// Package driving provides interfaces exposed to primary adapters
// (HTTP API, CLI, TUI): ingestion and the chat pipeline.
package driving
