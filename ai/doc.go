// Package ai defines the embedding abstraction used by the ingestion
// pipeline and search, along with its configuration.
//
// The Embedder interface is implemented by the openai subpackage for real
// OpenAI-compatible services and by the mock subpackage for tests.
// BatchEmbedder wraps any Embedder with sub-batching, per-item failure
// isolation, and retry with exponential backoff.
package ai
