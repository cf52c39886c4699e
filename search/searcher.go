package search

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/fathomlight/docsmith/ai"
	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/storage"
)

// DefaultTopK is the result limit used when a query does not set one.
const DefaultTopK = 10

// verbatimBoost is added to a result's score when every query word appears
// in the chunk text.
const verbatimBoost = 0.3

// Query holds the knobs for one search.
type Query struct {
	// Text is the natural-language query. Required.
	Text string
	// TopK caps the number of results. Zero means DefaultTopK.
	TopK int
	// OwnerID restricts results to chunks owned by this principal.
	OwnerID string
	// DocumentIDs restricts results to chunks of these documents.
	DocumentIDs []string
	// FileType restricts results to chunks from documents of this file type.
	FileType string
	// MinScore drops results whose similarity score falls below the
	// threshold, measured before the verbatim boost.
	MinScore float32
}

// Searcher runs semantic search over stored chunks: the query is embedded
// and matched against chunk vectors, with metadata filters narrowing the
// candidate set inside the store.
type Searcher struct {
	store    storage.VectorStore
	embedder ai.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(store storage.VectorStore, embedder ai.Embedder, opts ...Option) (*Searcher, error) {
	if store == nil {
		return nil, ErrStoreRequired
	}
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}

	s := &Searcher{
		store:    store,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Search finds chunks relevant to the query, ranked by relevance score.
func (s *Searcher) Search(ctx context.Context, query *Query) ([]*core.SearchResult, error) {
	return s.SearchWithMonitor(ctx, query, nil)
}

// SearchWithMonitor runs a search with monitoring. The monitor receives
// callbacks at each stage of the search process.
func (s *Searcher) SearchWithMonitor(ctx context.Context, query *Query, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}
	if query == nil || strings.TrimSpace(query.Text) == "" {
		return nil, ErrEmptyQuery
	}

	topK := query.TopK
	if topK <= 0 {
		topK = DefaultTopK
	}

	monitor.Start(query.Text)

	embedding, err := s.embedder.EmbedText(ctx, query.Text)
	if err != nil {
		s.logger.Error("error generating embedding for query", "err", err)
		return nil, err
	}
	monitor.AfterQueryEmbedding(len(embedding))

	matches, err := s.store.Query(ctx, storage.NamespaceChunks, embedding, s.buildFilter(query), topK)
	if err != nil {
		s.logger.Error("error querying for similar chunks", "err", err)
		return nil, err
	}

	ids := make([]string, 0, len(matches))
	for _, m := range matches {
		ids = append(ids, m.Record.ID)
	}
	monitor.AfterVectorSearch(ids)

	results := make([]*core.SearchResult, 0, len(matches))
	for _, m := range matches {
		if m.Score < query.MinScore {
			continue
		}
		chunk := core.ChunkFromMetadata(m.Record.ID, m.Record.Vector, m.Record.Metadata)

		score := m.Score
		if containsAllQueryWords(chunk.Content, query.Text) {
			score += verbatimBoost
			monitor.VerbatimHit(chunk)
		}

		results = append(results, &core.SearchResult{
			Chunk: chunk,
			Score: score,
		})
	}

	// The boost can reorder results relative to raw similarity.
	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	monitor.Finish(results)

	return results, nil
}

func (s *Searcher) buildFilter(query *Query) *storage.Filter {
	if query.OwnerID == "" && len(query.DocumentIDs) == 0 && query.FileType == "" {
		return nil
	}
	filter := storage.NewFilter()
	if query.OwnerID != "" {
		filter.Eq(core.MetaOwnerID, query.OwnerID)
	}
	if len(query.DocumentIDs) > 0 {
		filter.In(core.MetaDocumentID, query.DocumentIDs...)
	}
	if query.FileType != "" {
		filter.Eq(core.MetaFileType, query.FileType)
	}
	return filter
}
