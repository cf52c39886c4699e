package storage

import (
	"context"
)

// VectorStore is the system of record for documents and chunks. Records
// live in namespaces (logical collections); the pipeline keeps document
// metadata records and chunk records apart through NamespaceDocuments and
// NamespaceChunks.
//
// Implementations must be thread-safe and support concurrent upserts keyed
// by distinct record IDs.
type VectorStore interface {
	// Upsert inserts or overwrites records by ID. Upserting an existing ID
	// replaces its vector and metadata; the operation is idempotent.
	// Callers cap batches at MaxWriteBatch records per call.
	Upsert(ctx context.Context, namespace string, records ...*Record) error

	// Fetch retrieves a single record by ID.
	// Returns ErrNotFound if the record doesn't exist.
	Fetch(ctx context.Context, namespace, id string) (*Record, error)

	// Query returns up to topK records matching the filter, ranked by
	// similarity to the query vector (highest first). A nil vector performs
	// a metadata-only query: every filter match is returned with a zero
	// score, ordered by record ID.
	Query(ctx context.Context, namespace string, vector []float32, filter *Filter, topK int) ([]*Match, error)

	// Delete removes records by their IDs. Missing IDs are ignored so the
	// operation is idempotent.
	Delete(ctx context.Context, namespace string, ids ...string) error

	// Close closes the storage backend and releases resources.
	Close() error
}
