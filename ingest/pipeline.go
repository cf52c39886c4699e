// Copyright 2025 Fathomlight
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fathomlight/docsmith/ai"
	"github.com/fathomlight/docsmith/chunk"
	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/retry"
	"github.com/fathomlight/docsmith/storage"
)

// Progress checkpoints written to the document record as the pipeline
// advances through its stages.
const (
	progressRegistered = 5
	progressChunked    = 20
	progressEmbedded   = 60
	progressStored     = 90
	progressDone       = 100
)

// Config tunes the ingestion pipeline.
type Config struct {
	// ChunkSize is the maximum chunk length in characters.
	ChunkSize int
	// ChunkOverlap is the number of trailing characters carried between
	// adjacent chunks.
	ChunkOverlap int
	// Strategy selects the chunking strategy.
	Strategy chunk.Strategy
	// EmbedBatchSize is the number of chunks sent per embedding request.
	EmbedBatchSize int
	// Dimensions is the expected embedding dimensionality.
	Dimensions int
	// EmbeddingModel names the model recorded on processed documents.
	EmbeddingModel string
	// UpsertBatchSize caps records per store write.
	UpsertBatchSize int
	// MaxRetries is the attempt ceiling for transient operations.
	MaxRetries int
	// RetryDelay is the base backoff delay.
	RetryDelay time.Duration
	// FetchTimeout bounds a single content fetch request.
	FetchTimeout time.Duration
}

// DefaultConfig returns the pipeline defaults.
func DefaultConfig() *Config {
	return &Config{
		ChunkSize:       chunk.DefaultMaxChunkSize,
		ChunkOverlap:    chunk.DefaultOverlap,
		Strategy:        chunk.StrategyHybrid,
		EmbedBatchSize:  8,
		Dimensions:      1536,
		EmbeddingModel:  "text-embedding-3-small",
		UpsertBatchSize: storage.MaxWriteBatch,
		MaxRetries:      3,
		RetryDelay:      time.Second,
		FetchTimeout:    30 * time.Second,
	}
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithConfig replaces the pipeline configuration.
func WithConfig(cfg *Config) Option {
	return func(p *Pipeline) {
		if cfg != nil {
			p.cfg = cfg
		}
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithFetcher sets the content fetcher used when a document arrives
// without inline content.
func WithFetcher(fetcher ContentFetcher) Option {
	return func(p *Pipeline) {
		if fetcher != nil {
			p.fetcher = fetcher
		}
	}
}

// Pipeline turns raw documents into embedded, searchable chunk records.
// A document moves through validation, fetch, chunking, embedding and
// storage; the tracker records progress checkpoints along the way so the
// document's status stays queryable while work is in flight.
type Pipeline struct {
	store    storage.VectorStore
	embedder ai.Embedder
	fetcher  ContentFetcher
	tracker  *StatusTracker
	cfg      *Config
	logger   *slog.Logger
}

// NewPipeline creates a pipeline over the given store and embedder.
func NewPipeline(store storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Pipeline, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	p := &Pipeline{
		store:    store,
		embedder: embedder,
		cfg:      DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "ingest-pipeline")

	if p.fetcher == nil {
		p.fetcher = NewHTTPFetcher(p.cfg.FetchTimeout, p.cfg.MaxRetries, p.cfg.RetryDelay)
	}

	tracker, err := NewStatusTracker(p.store, p.logger)
	if err != nil {
		return nil, err
	}
	p.tracker = tracker
	return p, nil
}

// Tracker exposes the pipeline's status tracker so callers can query
// document state without reaching into the store.
func (p *Pipeline) Tracker() *StatusTracker {
	return p.tracker
}

// ProcessDocument runs the full ingestion pipeline for one document.
// When content is empty the document's StoragePath is fetched instead.
// onProgress may be nil.
//
// The returned ProcessingResult is non-nil whenever the document got far
// enough to have an ID; the error, when non-nil, is a *core.ProcessingError
// carrying the failing stage and code. Partial embedding failures do not
// fail the document: surviving chunks are stored and the outcome is
// partial_success.
func (p *Pipeline) ProcessDocument(ctx context.Context, doc *core.Document, content string, onProgress ai.ProgressFunc) (*core.ProcessingResult, error) {
	started := time.Now()

	if doc == nil || doc.ID == "" {
		// No ID means no record to attach status to; fail fast.
		return nil, core.NewProcessingError(core.CodeMissingID, "", core.StageValidating, core.ErrMissingDocumentID)
	}

	result := &core.ProcessingResult{DocumentID: doc.ID}
	log := p.logger.With("documentID", doc.ID, "name", doc.Name)

	// Until the previous chunk set has been cleared a failed terminal write
	// keeps the stored chunk count; afterwards those chunks are gone and the
	// count must drop to zero.
	failChunkCount := -1
	fail := func(code core.ErrorCode, stage core.Stage, err error) (*core.ProcessingResult, error) {
		perr := core.NewProcessingError(code, doc.ID, stage, err)
		result.Outcome = core.OutcomeFailed
		result.ErrorMessage = perr.Error()
		result.Elapsed = time.Since(started)
		// Terminal status write uses a background-derived context so a
		// cancelled ctx cannot also swallow the failure record.
		p.tracker.UpdateTerminal(context.WithoutCancel(ctx), doc.ID, core.StatusFailed, doc.Progress, string(code), failChunkCount)
		log.Error("ingestion failed", "stage", stage, "code", code, "err", err)
		return result, perr
	}

	// Validation.
	if err := core.ValidateDocument(doc); err != nil {
		return fail(core.CodeProcessingError, core.StageValidating, err)
	}

	// Fetch when content was not supplied inline.
	if strings.TrimSpace(content) == "" && doc.StoragePath != "" {
		fetched, err := p.fetcher.Fetch(ctx, doc.StoragePath)
		if err != nil {
			if ctx.Err() != nil {
				return fail(core.CodeCancelled, core.StageFetching, ctx.Err())
			}
			return fail(core.CodeFetchFailed, core.StageFetching, err)
		}
		content = fetched
	}
	if strings.TrimSpace(content) == "" {
		return fail(core.CodeEmptyContent, core.StageValidating, core.ErrEmptyContent)
	}

	// Register the document before any heavy work so its status is visible
	// immediately.
	digest := core.ContentDigest(content)
	if doc.ContentDigest != "" && doc.ContentDigest == digest {
		msg := "content unchanged since last ingestion"
		result.Warnings = append(result.Warnings, msg)
		log.Info(msg, "digest", digest)
	}
	doc.ContentDigest = digest
	doc.Status = core.StatusProcessing
	doc.Progress = progressRegistered
	doc.ErrorMessage = ""
	doc.EmbeddingModel = p.cfg.EmbeddingModel
	p.tracker.Save(ctx, doc)
	reportProgress(onProgress, progressRegistered)

	// Reprocessing replaces the previous chunk set wholesale. Deleting up
	// front means a shrinking document cannot leave stale chunks behind.
	if err := p.deleteChunks(ctx, doc.ID); err != nil {
		log.Warn("failed to clear previous chunks, stale entries may remain", "err", err)
		result.Warnings = append(result.Warnings, "failed to clear previous chunks")
	} else {
		failChunkCount = 0
	}

	// Chunking.
	splitter, err := chunk.NewSplitter(p.cfg.ChunkSize, p.cfg.ChunkOverlap, p.cfg.Strategy)
	if err != nil {
		return fail(core.CodeProcessingError, core.StageChunking, err)
	}
	pieces := splitter.Split(content)
	if len(pieces) == 0 {
		return fail(core.CodeNoValidChunks, core.StageChunking, fmt.Errorf("no informative chunks in %d bytes of content", len(content)))
	}
	result.TotalChunks = len(pieces)
	doc.Progress = progressChunked
	p.tracker.Update(ctx, doc.ID, core.StatusProcessing, progressChunked, "", -1)
	reportProgress(onProgress, progressChunked)
	log.Info("document chunked", "chunks", len(pieces), "strategy", p.cfg.Strategy)

	// Embedding. Progress scales from 20 to 60 as batches complete.
	batcher, err := ai.NewBatchEmbedder(p.embedder, ai.NewConfig(
		ai.WithBatchSize(p.cfg.EmbedBatchSize),
		ai.WithDimensions(p.cfg.Dimensions),
		ai.WithMaxRetries(p.cfg.MaxRetries),
		ai.WithRetryDelay(p.cfg.RetryDelay),
	), ai.WithLogger(log))
	if err != nil {
		return fail(core.CodeProcessingError, core.StageEmbedding, err)
	}

	embedded, err := batcher.EmbedAll(ctx, pieces, func(completed, total int) {
		pct := progressChunked + (progressEmbedded-progressChunked)*completed/total
		p.tracker.Update(ctx, doc.ID, core.StatusProcessing, pct, "", -1)
		reportProgress(onProgress, pct)
	})
	if err != nil {
		if ctx.Err() != nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return fail(core.CodeCancelled, core.StageEmbedding, err)
		}
		return fail(core.CodeProcessingError, core.StageEmbedding, err)
	}
	if embedded.Succeeded == 0 {
		return fail(core.CodeEmbeddingFailed, core.StageEmbedding,
			fmt.Errorf("all %d chunks failed to embed", len(pieces)))
	}
	result.FailedChunks = embedded.Failed
	if embedded.Failed > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d of %d chunks failed to embed", embedded.Failed, len(pieces)))
	}
	doc.Progress = progressEmbedded
	p.tracker.Update(ctx, doc.ID, core.StatusProcessing, progressEmbedded, "", -1)
	reportProgress(onProgress, progressEmbedded)

	// Storage. Only chunks with a surviving vector are written.
	now := time.Now().UTC()
	records := make([]*storage.Record, 0, embedded.Succeeded)
	for i, piece := range pieces {
		if embedded.Vectors[i] == nil {
			continue
		}
		ch := &core.Chunk{
			ID:           core.ChunkID(doc.ID, i),
			DocumentID:   doc.ID,
			Index:        i,
			Content:      piece,
			Vector:       embedded.Vectors[i],
			DocumentName: doc.Name,
			FileType:     doc.FileType,
			OwnerID:      doc.OwnerID,
			CreatedAt:    now,
		}
		records = append(records, &storage.Record{
			ID:       ch.ID,
			Vector:   ch.Vector,
			Metadata: ch.ToMetadata(),
		})
	}

	stored, storeFailed, err := p.upsertChunks(ctx, records, log)
	if err != nil {
		return fail(core.CodeCancelled, core.StageStoring, err)
	}
	if stored == 0 {
		return fail(core.CodeProcessingError, core.StageStoring,
			fmt.Errorf("no chunk batch could be written"))
	}
	if storeFailed > 0 {
		result.Warnings = append(result.Warnings,
			fmt.Sprintf("%d embedded chunks could not be stored", storeFailed))
	}
	result.SuccessfulChunks = stored
	result.FailedChunks = result.TotalChunks - stored
	doc.Progress = progressStored
	p.tracker.Update(ctx, doc.ID, core.StatusProcessing, progressStored, "", -1)
	reportProgress(onProgress, progressStored)

	// Finalize.
	if result.FailedChunks > 0 {
		result.Outcome = core.OutcomePartialSuccess
	} else {
		result.Outcome = core.OutcomeSuccess
	}
	result.Elapsed = time.Since(started)
	doc.Status = core.StatusIndexed
	doc.Progress = progressDone
	doc.ChunkCount = stored
	p.tracker.UpdateTerminal(context.WithoutCancel(ctx), doc.ID, core.StatusIndexed, progressDone, "", stored)
	reportProgress(onProgress, progressDone)

	log.Info("document ingested",
		"outcome", result.Outcome,
		"chunks", result.TotalChunks,
		"stored", stored,
		"failed", result.FailedChunks,
		"elapsed", result.Elapsed)
	return result, nil
}

// upsertChunks writes records in UpsertBatchSize slices, each wrapped in a
// retry. A batch whose retries are exhausted is dropped and counted; later
// batches still get their chance. Cancellation stops the loop and is
// returned so the document fails instead of finalizing over a partial
// chunk set.
func (p *Pipeline) upsertChunks(ctx context.Context, records []*storage.Record, log *slog.Logger) (stored, failed int, err error) {
	size := p.cfg.UpsertBatchSize
	if size <= 0 || size > storage.MaxWriteBatch {
		size = storage.MaxWriteBatch
	}
	for start := 0; start < len(records); start += size {
		if cerr := ctx.Err(); cerr != nil {
			return stored, failed, cerr
		}
		end := min(start+size, len(records))
		batch := records[start:end]
		berr := retry.Do(ctx, func() error {
			return p.store.Upsert(ctx, storage.NamespaceChunks, batch...)
		}, p.cfg.MaxRetries, p.cfg.RetryDelay)
		if berr != nil {
			if ctx.Err() != nil {
				return stored, failed, ctx.Err()
			}
			failed += len(batch)
			log.Warn("chunk batch write failed", "batchStart", start, "batchSize", len(batch), "err", berr)
			continue
		}
		stored += len(batch)
	}
	return stored, failed, nil
}

// DeleteDocument removes the document's chunks and its metadata record.
// Deleting a document that was never ingested is not an error.
func (p *Pipeline) DeleteDocument(ctx context.Context, documentID string) error {
	if documentID == "" {
		return core.ErrMissingDocumentID
	}
	if err := p.deleteChunks(ctx, documentID); err != nil {
		return fmt.Errorf("deleting chunks for %s: %w", documentID, err)
	}
	if err := p.store.Delete(ctx, storage.NamespaceDocuments, documentID); err != nil {
		return fmt.Errorf("deleting document record %s: %w", documentID, err)
	}
	p.logger.Info("document deleted", "documentID", documentID)
	return nil
}

// deleteChunks removes every chunk record owned by documentID, batching
// deletes to the store's write ceiling.
func (p *Pipeline) deleteChunks(ctx context.Context, documentID string) error {
	filter := storage.NewFilter().Eq(core.MetaDocumentID, documentID)
	matches, err := p.store.Query(ctx, storage.NamespaceChunks, nil, filter, 0)
	if err != nil {
		return err
	}
	if len(matches) == 0 {
		return nil
	}

	ids := make([]string, len(matches))
	for i, m := range matches {
		ids[i] = m.Record.ID
	}
	for start := 0; start < len(ids); start += storage.MaxWriteBatch {
		end := min(start+storage.MaxWriteBatch, len(ids))
		if err := p.store.Delete(ctx, storage.NamespaceChunks, ids[start:end]...); err != nil {
			return err
		}
	}
	return nil
}

func reportProgress(fn ai.ProgressFunc, pct int) {
	if fn != nil {
		fn(pct, progressDone)
	}
}
