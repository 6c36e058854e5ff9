// Package domain contains the core business entities of the support agent:
// documents, chunks, retrieval results, answers and conversation records.
// It has no dependencies on adapters or frameworks.
package domain
