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

package docsmith

import (
	"context"
	"log/slog"
	"time"

	"github.com/fathomlight/docsmith/ai"
	"github.com/fathomlight/docsmith/ai/openai"
	"github.com/fathomlight/docsmith/chunk"
	"github.com/fathomlight/docsmith/config"
	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/ingest"
	"github.com/fathomlight/docsmith/search"
	"github.com/fathomlight/docsmith/storage"
	"github.com/fathomlight/docsmith/storage/badger"
)

// Index bundles the vector store, embedder, ingestion pipeline and searcher
// behind one handle. It is the embedding-level API of the module: open an
// index, feed it documents, search it, close it.
type Index struct {
	store    *badger.Store
	embedder ai.Embedder
	pipeline *ingest.Pipeline
	searcher *search.Searcher
	logger   *slog.Logger
}

// IndexOption configures an Index.
type IndexOption func(*indexOptions)

type indexOptions struct {
	aiConfig       *ai.Config
	pipelineConfig *ingest.Config
	embedder       ai.Embedder
	inMemory       bool
	logger         *slog.Logger
}

// WithAIConfig sets the embedding client configuration.
func WithAIConfig(cfg *ai.Config) IndexOption {
	return func(o *indexOptions) {
		if cfg != nil {
			o.aiConfig = cfg
		}
	}
}

// WithPipelineConfig sets the ingestion pipeline configuration.
func WithPipelineConfig(cfg *ingest.Config) IndexOption {
	return func(o *indexOptions) {
		if cfg != nil {
			o.pipelineConfig = cfg
		}
	}
}

// WithEmbedder replaces the default OpenAI-compatible embedder.
func WithEmbedder(embedder ai.Embedder) IndexOption {
	return func(o *indexOptions) {
		if embedder != nil {
			o.embedder = embedder
		}
	}
}

// WithInMemory opens the backing store in memory, ignoring the file path.
func WithInMemory() IndexOption {
	return func(o *indexOptions) {
		o.inMemory = true
	}
}

// WithIndexLogger sets the logger shared by the index components.
func WithIndexLogger(logger *slog.Logger) IndexOption {
	return func(o *indexOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// Open opens (or creates) an index backed by the store at filePath.
func Open(filePath string, opts ...IndexOption) (*Index, error) {
	options := &indexOptions{
		aiConfig: ai.DefaultConfig(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(options)
	}

	store, err := badger.Open(filePath, options.inMemory)
	if err != nil {
		return nil, err
	}

	embedder := options.embedder
	if embedder == nil {
		embedder, err = openai.NewEmbedder(options.aiConfig)
		if err != nil {
			store.Close()
			return nil, err
		}
	}

	pipelineOpts := []ingest.Option{ingest.WithLogger(options.logger)}
	if options.pipelineConfig != nil {
		pipelineOpts = append(pipelineOpts, ingest.WithConfig(options.pipelineConfig))
	}
	pipeline, err := ingest.NewPipeline(store, embedder, pipelineOpts...)
	if err != nil {
		store.Close()
		return nil, err
	}

	searcher, err := search.NewSearcher(store, embedder, search.WithLogger(options.logger))
	if err != nil {
		store.Close()
		return nil, err
	}

	return &Index{
		store:    store,
		embedder: embedder,
		pipeline: pipeline,
		searcher: searcher,
		logger:   options.logger,
	}, nil
}

// OpenFromConfig opens an index wired from the application configuration.
func OpenFromConfig(cfg *config.AppConfig, opts ...IndexOption) (*Index, error) {
	aiCfg := ai.NewConfig(
		ai.WithEmbeddingHost(cfg.Embedder.Host),
		ai.WithEmbeddingModel(cfg.Embedder.Model),
		ai.WithAPIKey(cfg.Embedder.APIKey()),
		ai.WithDimensions(cfg.Embedder.Dimensions),
		ai.WithBatchSize(cfg.Embedder.BatchSize),
	)
	pipelineCfg := ingest.DefaultConfig()
	pipelineCfg.ChunkSize = cfg.Chunker.MaxChunkSize
	pipelineCfg.ChunkOverlap = cfg.Chunker.Overlap
	pipelineCfg.Strategy = chunk.Strategy(cfg.Chunker.Strategy)
	pipelineCfg.EmbedBatchSize = cfg.Embedder.BatchSize
	pipelineCfg.Dimensions = cfg.Embedder.Dimensions
	pipelineCfg.EmbeddingModel = cfg.Embedder.Model
	pipelineCfg.MaxRetries = cfg.Ingest.MaxRetries
	pipelineCfg.RetryDelay = time.Duration(cfg.Ingest.RetryDelayMillis) * time.Millisecond
	pipelineCfg.FetchTimeout = time.Duration(cfg.Ingest.FetchTimeoutSecs) * time.Second

	merged := []IndexOption{WithAIConfig(aiCfg), WithPipelineConfig(pipelineCfg)}
	if cfg.Store.InMemory {
		merged = append(merged, WithInMemory())
	}
	merged = append(merged, opts...)
	return Open(cfg.Store.Path, merged...)
}

// Process ingests one document synchronously. See ingest.Pipeline.ProcessDocument.
func (idx *Index) Process(ctx context.Context, doc *core.Document, content string, onProgress ai.ProgressFunc) (*core.ProcessingResult, error) {
	return idx.pipeline.ProcessDocument(ctx, doc, content, onProgress)
}

// Search finds chunks relevant to the query.
func (idx *Index) Search(ctx context.Context, query *search.Query) ([]*core.SearchResult, error) {
	return idx.searcher.Search(ctx, query)
}

// Delete removes a document and all its chunks. Deleting an unknown
// document is not an error.
func (idx *Index) Delete(ctx context.Context, documentID string) error {
	return idx.pipeline.DeleteDocument(ctx, documentID)
}

// Status returns the document's stored processing state.
// Returns storage.ErrNotFound for unknown documents.
func (idx *Index) Status(ctx context.Context, documentID string) (*core.Document, error) {
	return idx.pipeline.Tracker().Get(ctx, documentID)
}

// Documents lists every document record in the index, ordered by ID.
func (idx *Index) Documents(ctx context.Context) ([]*core.Document, error) {
	matches, err := idx.store.Query(ctx, storage.NamespaceDocuments, nil, nil, 0)
	if err != nil {
		return nil, err
	}
	docs := make([]*core.Document, len(matches))
	for i, m := range matches {
		docs[i] = core.DocumentFromMetadata(m.Record.Metadata)
	}
	return docs, nil
}

// NewService creates an asynchronous ingestion service over the index's
// pipeline. The caller owns the service and must Release it.
func (idx *Index) NewService(opts ...ingest.ServiceOption) (*ingest.Service, error) {
	return ingest.NewService(idx.pipeline, opts...)
}

// Close closes the backing store.
func (idx *Index) Close() error {
	if err := idx.store.Close(); err != nil {
		idx.logger.Error("error closing store", "err", err)
		return err
	}
	return nil
}
