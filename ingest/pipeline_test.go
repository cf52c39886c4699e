package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fathomlight/docsmith/ai/mock"
	"github.com/fathomlight/docsmith/chunk"
	"github.com/fathomlight/docsmith/core"
	"github.com/fathomlight/docsmith/storage"
	"github.com/fathomlight/docsmith/storage/badger"
)

const testDims = 8

func testConfig() *Config {
	return &Config{
		ChunkSize:       80,
		ChunkOverlap:    0,
		Strategy:        chunk.StrategyFixed,
		EmbedBatchSize:  3,
		Dimensions:      testDims,
		EmbeddingModel:  "test-model",
		UpsertBatchSize: storage.MaxWriteBatch,
		MaxRetries:      2,
		RetryDelay:      time.Millisecond,
		FetchTimeout:    time.Second,
	}
}

func newTestPipeline(t *testing.T, embedder *mock.Embedder) (*Pipeline, *badger.Store) {
	t.Helper()
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	if embedder.Dimensions == 0 {
		embedder.Dimensions = testDims
	}
	p, err := NewPipeline(store, embedder, WithConfig(testConfig()), WithLogger(slog.Default()))
	require.NoError(t, err)
	return p, store
}

// paragraphs returns n informative paragraphs, each short enough to become
// its own chunk under the test config's 80-char chunk size.
func paragraphs(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("paragraph %02d covers another distinct topic in reasonable detail", i)
	}
	return strings.Join(parts, "\n\n")
}

func testDocument(id string) *core.Document {
	return &core.Document{
		ID:       id,
		OwnerID:  "owner-1",
		Name:     "notes.md",
		FileType: "markdown",
	}
}

func chunksFor(t *testing.T, store storage.VectorStore, documentID string) []*storage.Match {
	t.Helper()
	filter := storage.NewFilter().Eq(core.MetaDocumentID, documentID)
	matches, err := store.Query(context.Background(), storage.NamespaceChunks, nil, filter, 0)
	require.NoError(t, err)
	return matches
}

func TestProcessDocument_Success(t *testing.T) {
	p, store := newTestPipeline(t, mock.NewEmbedder())

	doc := testDocument("doc-1")
	result, err := p.ProcessDocument(context.Background(), doc, paragraphs(5), nil)
	require.NoError(t, err)

	assert.Equal(t, core.OutcomeSuccess, result.Outcome)
	assert.Equal(t, 5, result.TotalChunks)
	assert.Equal(t, 5, result.SuccessfulChunks)
	assert.Equal(t, 0, result.FailedChunks)

	stored, err := p.Tracker().Get(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.Equal(t, core.StatusIndexed, stored.Status)
	assert.Equal(t, 100, stored.Progress)
	assert.Equal(t, 5, stored.ChunkCount)
	assert.Equal(t, "test-model", stored.EmbeddingModel)
	assert.NotEmpty(t, stored.ContentDigest)
	assert.Empty(t, stored.ErrorMessage)

	matches := chunksFor(t, store, "doc-1")
	assert.Len(t, matches, 5)
	for _, m := range matches {
		assert.Len(t, m.Record.Vector, testDims)
		assert.Equal(t, "doc-1", m.Record.Metadata[core.MetaDocumentID])
		assert.NotEmpty(t, m.Record.Metadata[core.MetaContent])
	}
}

func TestProcessDocument_DeterministicChunkIDs(t *testing.T) {
	p, store := newTestPipeline(t, mock.NewEmbedder())

	_, err := p.ProcessDocument(context.Background(), testDocument("doc-ids"), paragraphs(3), nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := store.Fetch(context.Background(), storage.NamespaceChunks, fmt.Sprintf("doc-ids#%05d", i))
		assert.NoError(t, err, "chunk %d should exist under its deterministic ID", i)
	}
}

func TestProcessDocument_ProgressCheckpoints(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewEmbedder())

	var seen []int
	_, err := p.ProcessDocument(context.Background(), testDocument("doc-prog"), paragraphs(6), func(completed, total int) {
		assert.Equal(t, 100, total)
		seen = append(seen, completed)
	})
	require.NoError(t, err)

	require.NotEmpty(t, seen)
	assert.Equal(t, 5, seen[0])
	assert.Equal(t, 100, seen[len(seen)-1])
	assert.Contains(t, seen, 20)
	assert.Contains(t, seen, 60)
	assert.Contains(t, seen, 90)
	for i := 1; i < len(seen); i++ {
		assert.GreaterOrEqual(t, seen[i], seen[i-1], "progress must never go backwards")
	}
}

func TestProcessDocument_PartialSuccess(t *testing.T) {
	// Batches are [0-2], [3-5], [6-8]; the middle batch fails every attempt.
	embedder := mock.NewEmbedder()
	embedder.Dimensions = testDims
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		if strings.Contains(texts[0], "paragraph 03") {
			return nil, errors.New("rate limited")
		}
		out := make([][]float32, len(texts))
		for i, text := range texts {
			out[i] = mock.DeterministicVector(text, testDims)
		}
		return out, nil
	}

	p, store := newTestPipeline(t, embedder)
	result, err := p.ProcessDocument(context.Background(), testDocument("doc-partial"), paragraphs(9), nil)
	require.NoError(t, err)

	assert.Equal(t, core.OutcomePartialSuccess, result.Outcome)
	assert.Equal(t, 9, result.TotalChunks)
	assert.Equal(t, 6, result.SuccessfulChunks)
	assert.Equal(t, 3, result.FailedChunks)
	assert.NotEmpty(t, result.Warnings)

	stored, err := p.Tracker().Get(context.Background(), "doc-partial")
	require.NoError(t, err)
	assert.Equal(t, core.StatusIndexed, stored.Status)
	assert.Equal(t, 6, stored.ChunkCount)

	assert.Len(t, chunksFor(t, store, "doc-partial"), 6)
}

func TestProcessDocument_AllEmbeddingsFail(t *testing.T) {
	embedder := mock.NewEmbedder()
	embedder.EmbedTextsFunc = func(ctx context.Context, texts []string) ([][]float32, error) {
		return nil, errors.New("service down")
	}

	p, _ := newTestPipeline(t, embedder)
	result, err := p.ProcessDocument(context.Background(), testDocument("doc-dead"), paragraphs(4), nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeEmbeddingFailed, core.CodeOf(err))
	assert.Equal(t, core.OutcomeFailed, result.Outcome)

	stored, serr := p.Tracker().Get(context.Background(), "doc-dead")
	require.NoError(t, serr)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Equal(t, string(core.CodeEmbeddingFailed), stored.ErrorMessage)
}

func TestProcessDocument_NoValidChunks(t *testing.T) {
	p, store := newTestPipeline(t, mock.NewEmbedder())
	ctx := context.Background()

	// An earlier run left four indexed chunks and a matching chunk count.
	_, err := p.ProcessDocument(ctx, testDocument("doc-noise"), paragraphs(4), nil)
	require.NoError(t, err)

	result, err := p.ProcessDocument(ctx, testDocument("doc-noise"), "a b a b a", nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeNoValidChunks, core.CodeOf(err))
	assert.Equal(t, core.OutcomeFailed, result.Outcome)

	stored, serr := p.Tracker().Get(ctx, "doc-noise")
	require.NoError(t, serr)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Equal(t, string(core.CodeNoValidChunks), stored.ErrorMessage)
	// Reprocessing cleared the old chunk set before failing, so the count
	// must not linger at four.
	assert.Equal(t, 0, stored.ChunkCount)
	assert.Empty(t, chunksFor(t, store, "doc-noise"))
}

func TestProcessDocument_EmptyContent(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewEmbedder())

	doc := testDocument("doc-empty")
	_, err := p.ProcessDocument(context.Background(), doc, "   \n\t  ", nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeEmptyContent, core.CodeOf(err))
}

func TestProcessDocument_MissingID(t *testing.T) {
	p, store := newTestPipeline(t, mock.NewEmbedder())

	result, err := p.ProcessDocument(context.Background(), &core.Document{Name: "anon.txt"}, paragraphs(2), nil)
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, core.CodeMissingID, core.CodeOf(err))

	// No status record can exist without an ID.
	matches, qerr := store.Query(context.Background(), storage.NamespaceDocuments, nil, nil, 0)
	require.NoError(t, qerr)
	assert.Empty(t, matches)
}

func TestProcessDocument_Cancelled(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewEmbedder())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := p.ProcessDocument(ctx, testDocument("doc-cancel"), paragraphs(4), nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeCancelled, core.CodeOf(err))
	assert.Equal(t, core.OutcomeFailed, result.Outcome)

	// Terminal status must land even though ctx is cancelled.
	stored, serr := p.Tracker().Get(context.Background(), "doc-cancel")
	require.NoError(t, serr)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Equal(t, string(core.CodeCancelled), stored.ErrorMessage)
}

// cancelOnUpsertStore cancels its context once the first chunk batch lands,
// simulating a caller giving up while chunk writes are still in flight.
type cancelOnUpsertStore struct {
	storage.VectorStore
	cancel      context.CancelFunc
	chunkWrites int
}

func (s *cancelOnUpsertStore) Upsert(ctx context.Context, namespace string, records ...*storage.Record) error {
	if err := s.VectorStore.Upsert(ctx, namespace, records...); err != nil {
		return err
	}
	if namespace == storage.NamespaceChunks {
		s.chunkWrites++
		if s.chunkWrites == 1 {
			s.cancel()
		}
	}
	return nil
}

func TestProcessDocument_CancelledDuringStore(t *testing.T) {
	inner, err := badger.NewMemoryStore()
	require.NoError(t, err)
	t.Cleanup(func() { inner.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	store := &cancelOnUpsertStore{VectorStore: inner, cancel: cancel}

	embedder := mock.NewEmbedder()
	embedder.Dimensions = testDims
	cfg := testConfig()
	cfg.UpsertBatchSize = 1

	p, err := NewPipeline(store, embedder, WithConfig(cfg))
	require.NoError(t, err)

	result, err := p.ProcessDocument(ctx, testDocument("doc-store-cancel"), paragraphs(4), nil)
	require.Error(t, err)
	assert.Equal(t, core.CodeCancelled, core.CodeOf(err))
	assert.Equal(t, core.OutcomeFailed, result.Outcome)

	// The document must not finalize as indexed over a partial chunk set;
	// the terminal failed status still lands despite the cancelled ctx.
	stored, serr := p.Tracker().Get(context.Background(), "doc-store-cancel")
	require.NoError(t, serr)
	assert.Equal(t, core.StatusFailed, stored.Status)
	assert.Equal(t, string(core.CodeCancelled), stored.ErrorMessage)
}

func TestProcessDocument_ReprocessReplacesChunks(t *testing.T) {
	p, store := newTestPipeline(t, mock.NewEmbedder())
	ctx := context.Background()

	_, err := p.ProcessDocument(ctx, testDocument("doc-re"), paragraphs(7), nil)
	require.NoError(t, err)
	require.Len(t, chunksFor(t, store, "doc-re"), 7)

	// Shrinking the document must not leave stale chunks behind.
	result, err := p.ProcessDocument(ctx, testDocument("doc-re"), paragraphs(2), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, result.SuccessfulChunks)
	assert.Len(t, chunksFor(t, store, "doc-re"), 2)

	stored, err := p.Tracker().Get(ctx, "doc-re")
	require.NoError(t, err)
	assert.Equal(t, 2, stored.ChunkCount)
}

func TestProcessDocument_UnchangedContentWarns(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewEmbedder())
	ctx := context.Background()
	content := paragraphs(3)

	doc := testDocument("doc-same")
	_, err := p.ProcessDocument(ctx, doc, content, nil)
	require.NoError(t, err)

	// Reprocess with the digest from the previous run carried on the doc.
	result, err := p.ProcessDocument(ctx, doc, content, nil)
	require.NoError(t, err)
	assert.Equal(t, core.OutcomeSuccess, result.Outcome)
	require.NotEmpty(t, result.Warnings)
	assert.Contains(t, result.Warnings[0], "unchanged")
}

func TestDeleteDocument(t *testing.T) {
	p, store := newTestPipeline(t, mock.NewEmbedder())
	ctx := context.Background()

	_, err := p.ProcessDocument(ctx, testDocument("doc-del"), paragraphs(4), nil)
	require.NoError(t, err)

	require.NoError(t, p.DeleteDocument(ctx, "doc-del"))

	assert.Empty(t, chunksFor(t, store, "doc-del"))
	_, err = p.Tracker().Get(ctx, "doc-del")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestDeleteDocument_Idempotent(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewEmbedder())

	assert.NoError(t, p.DeleteDocument(context.Background(), "never-ingested"))
}

func TestDeleteDocument_MissingID(t *testing.T) {
	p, _ := newTestPipeline(t, mock.NewEmbedder())

	err := p.DeleteDocument(context.Background(), "")
	assert.ErrorIs(t, err, core.ErrMissingDocumentID)
}

func TestNewPipeline_RequiresDependencies(t *testing.T) {
	store, err := badger.NewMemoryStore()
	require.NoError(t, err)
	defer store.Close()

	_, err = NewPipeline(nil, mock.NewEmbedder())
	assert.ErrorIs(t, err, ErrStoreRequired)

	_, err = NewPipeline(store, nil)
	assert.ErrorIs(t, err, ErrEmbedderRequired)
}
