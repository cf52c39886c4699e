package ingest

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/retry"
	"github.com/fathomlight/docsmith/storage"
)

// placeholderDim is the dimension of the dummy vector carried by document
// metadata records. Document records are never similarity-searched; the
// vector only satisfies backends that require one on every entry.
const placeholderDim = 8

// StatusTracker persists document processing status as metadata records in
// the vector store. It is the sole writer of document status fields while
// a pipeline runs.
//
// Updates are best-effort: a lost progress checkpoint is tolerable and is
// logged rather than raised. The pipeline guarantees the terminal write is
// attempted separately via UpdateTerminal.
type StatusTracker struct {
	store  storage.VectorStore
	logger *slog.Logger
}

// NewStatusTracker creates a status tracker over the given store.
func NewStatusTracker(store storage.VectorStore, logger *slog.Logger) (*StatusTracker, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTracker{
		store:  store,
		logger: logger.With("component", "status-tracker"),
	}, nil
}

// Save merges the full document into its metadata record, creating the
// record if absent. Best-effort: failures are logged, never raised.
func (t *StatusTracker) Save(ctx context.Context, doc *core.Document) {
	if err := t.save(ctx, doc); err != nil {
		t.logger.Warn("failed to persist document record", "documentID", doc.ID, "err", err)
	}
}

func (t *StatusTracker) save(ctx context.Context, doc *core.Document) error {
	existing, err := t.Get(ctx, doc.ID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return err
	}

	if doc.CreatedAt.IsZero() {
		if existing != nil && !existing.CreatedAt.IsZero() {
			doc.CreatedAt = existing.CreatedAt
		} else {
			doc.CreatedAt = time.Now().UTC()
		}
	}
	doc.UpdatedAt = time.Now().UTC()

	record := &storage.Record{
		ID:       doc.ID,
		Vector:   storage.PlaceholderVector(placeholderDim),
		Metadata: doc.ToMetadata(),
	}
	return t.store.Upsert(ctx, storage.NamespaceDocuments, record)
}

// Update performs a read-modify-write of the document's status fields.
// A chunkCount below zero leaves the stored chunk count untouched.
// Best-effort: failures are logged, never raised into the pipeline.
func (t *StatusTracker) Update(ctx context.Context, documentID string, status core.DocumentStatus, progress int, message string, chunkCount int) {
	if err := t.update(ctx, documentID, status, progress, message, chunkCount); err != nil {
		t.logger.Warn("failed to persist status checkpoint",
			"documentID", documentID, "status", status, "progress", progress, "err", err)
	}
}

// UpdateTerminal writes the document's terminal status, retrying transient
// store errors. Losing an intermediate checkpoint is tolerable; losing the
// terminal status is not, so this write gets the backoff policy. The error
// is still only logged: a failed terminal write must not mask the
// pipeline's own result.
func (t *StatusTracker) UpdateTerminal(ctx context.Context, documentID string, status core.DocumentStatus, progress int, message string, chunkCount int) {
	err := retry.Do(ctx, func() error {
		return t.update(ctx, documentID, status, progress, message, chunkCount)
	}, 3, 500*time.Millisecond)
	if err != nil {
		t.logger.Error("failed to persist terminal status",
			"documentID", documentID, "status", status, "err", err)
	}
}

func (t *StatusTracker) update(ctx context.Context, documentID string, status core.DocumentStatus, progress int, message string, chunkCount int) error {
	doc, err := t.Get(ctx, documentID)
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			return err
		}
		// Synthesize a placeholder so progress remains queryable even when
		// registration was lost.
		doc = &core.Document{ID: documentID, CreatedAt: time.Now().UTC()}
	}

	doc.Status = status
	doc.Progress = progress
	doc.UpdatedAt = time.Now().UTC()
	if status == core.StatusFailed {
		doc.ErrorMessage = message
	} else {
		doc.ErrorMessage = ""
	}
	if chunkCount >= 0 {
		doc.ChunkCount = chunkCount
	}

	record := &storage.Record{
		ID:       doc.ID,
		Vector:   storage.PlaceholderVector(placeholderDim),
		Metadata: doc.ToMetadata(),
	}
	return t.store.Upsert(ctx, storage.NamespaceDocuments, record)
}

// Get retrieves the document's stored metadata record.
// Returns storage.ErrNotFound if no record exists.
func (t *StatusTracker) Get(ctx context.Context, documentID string) (*core.Document, error) {
	record, err := t.store.Fetch(ctx, storage.NamespaceDocuments, documentID)
	if err != nil {
		return nil, err
	}
	return core.DocumentFromMetadata(record.Metadata), nil
}
