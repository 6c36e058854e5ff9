// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): embedding and LLM providers, the vector
// store, the conversation log and document loading.
package driven
