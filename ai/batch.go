package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fathomlight/docsmith/retry"
)

// ProgressFunc receives incremental progress after each embedding sub-batch.
type ProgressFunc func(completed, total int)

// BatchResult holds the outcome of embedding a set of texts. Vectors has
// one slot per input text, in order; a slot is nil when embedding failed
// for that item.
type BatchResult struct {
	Vectors   [][]float32
	Succeeded int
	Failed    int
}

// BatchEmbedder drives an Embedder across arbitrarily many texts in
// rate-limit-friendly sub-batches, retrying transient failures with
// exponential backoff. A sub-batch that exhausts its retries marks all of
// its items as failed without aborting the remaining sub-batches.
type BatchEmbedder struct {
	embedder   Embedder
	batchSize  int
	dimensions int
	maxRetries int
	retryDelay time.Duration
	logger     *slog.Logger
}

// BatchOption configures a BatchEmbedder.
type BatchOption func(*BatchEmbedder)

// WithLogger sets a custom logger. Default is slog.Default().
func WithLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchEmbedder) {
		if logger == nil {
			logger = slog.Default()
		}
		b.logger = logger
	}
}

// NewBatchEmbedder creates a batch embedder over the given Embedder using
// the batching and retry parameters from cfg.
func NewBatchEmbedder(embedder Embedder, cfg *Config, opts ...BatchOption) (*BatchEmbedder, error) {
	if embedder == nil {
		return nil, ErrEmbedderRequired
	}
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	b := &BatchEmbedder{
		embedder:   embedder,
		batchSize:  cfg.BatchSize,
		dimensions: cfg.Dimensions,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
		logger:     slog.Default().With("component", "batch-embedder"),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// EmbedAll embeds all texts and returns one vector slot per input.
// Per-item failures (API error, empty content, degenerate or wrongly-sized
// output) leave a nil slot and are counted, never raised. The only error
// returned is context cancellation, checked between sub-batches.
func (b *BatchEmbedder) EmbedAll(ctx context.Context, texts []string, onProgress ProgressFunc) (*BatchResult, error) {
	result := &BatchResult{Vectors: make([][]float32, len(texts))}
	if len(texts) == 0 {
		return result, nil
	}

	total := len(texts)
	for start := 0; start < total; start += b.batchSize {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		end := start + b.batchSize
		if end > total {
			end = total
		}

		b.embedBatch(ctx, texts, start, end, result)

		if onProgress != nil {
			onProgress(end, total)
		}
	}

	return result, nil
}

// embedBatch embeds texts[start:end] into result, absorbing failures.
func (b *BatchEmbedder) embedBatch(ctx context.Context, texts []string, start, end int, result *BatchResult) {
	// Empty inputs fail immediately without touching the API.
	positions := make([]int, 0, end-start)
	batch := make([]string, 0, end-start)
	for i := start; i < end; i++ {
		if strings.TrimSpace(texts[i]) == "" {
			result.Failed++
			continue
		}
		positions = append(positions, i)
		batch = append(batch, texts[i])
	}
	if len(batch) == 0 {
		return
	}

	var vectors [][]float32
	err := retry.Do(ctx, func() error {
		var embedErr error
		vectors, embedErr = b.embedder.EmbedTexts(ctx, batch)
		if embedErr != nil {
			return embedErr
		}
		if len(vectors) != len(batch) {
			return fmt.Errorf("embedding count mismatch: expected %d, got %d", len(batch), len(vectors))
		}
		return nil
	}, b.maxRetries, b.retryDelay)

	if err != nil {
		b.logger.Warn("embedding sub-batch failed after retries",
			"items", len(batch), "maxRetries", b.maxRetries, "err", err)
		result.Failed += len(batch)
		return
	}

	for i, pos := range positions {
		vec := vectors[i]
		if b.degenerate(vec) {
			b.logger.Debug("discarding degenerate embedding", "index", pos, "dimension", len(vec))
			result.Failed++
			continue
		}
		result.Vectors[pos] = vec
		result.Succeeded++
	}
}

// degenerate reports whether a vector must be discarded: empty, all-zero,
// or not matching the configured model dimension.
func (b *BatchEmbedder) degenerate(vec []float32) bool {
	if len(vec) == 0 {
		return true
	}
	if b.dimensions > 0 && len(vec) != b.dimensions {
		return true
	}
	for _, v := range vec {
		if v != 0 {
			return false
		}
	}
	return true
}
