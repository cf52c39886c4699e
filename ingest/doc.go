// Package ingest orchestrates document ingestion: validation, content
// fetching, chunking, embedding and storage, with progress checkpoints
// written to the document's status record throughout.
//
// Pipeline is the synchronous orchestrator; Service wraps it in a worker
// pool for fire-and-forget ingestion. StatusTracker owns the document
// metadata records that make in-flight progress queryable.
package ingest
