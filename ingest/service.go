package ingest

import (
	"context"
	"log/slog"
	"runtime"
	"sync"

	"github.com/panjf2000/ants/v2"

	"github.com/fathomlight/docsmith/core"
)

// ServiceOption configures a Service.
type ServiceOption func(*Service) error

// WithPoolSize sets the worker pool size for concurrent document
// processing. Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) ServiceOption {
	return func(s *Service) error {
		if size < 1 {
			size = 1
		}
		if s.pool != nil {
			s.pool.Release()
		}
		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		s.pool = pool
		return nil
	}
}

// WithServiceLogger sets a custom logger.
// Default is slog.Default().
func WithServiceLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// Service runs ingestion pipelines on a bounded worker pool so callers can
// enqueue documents without blocking on embedding latency. Errors during
// async processing are logged and reflected in the document's status
// record; they do not surface to the enqueuer.
type Service struct {
	pipeline *Pipeline
	pool     *ants.Pool
	wg       sync.WaitGroup
	logger   *slog.Logger
}

// NewService creates an ingestion service over the given pipeline.
func NewService(pipeline *Pipeline, opts ...ServiceOption) (*Service, error) {
	if pipeline == nil {
		return nil, ErrPipelineRequired
	}

	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}
	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	s := &Service{
		pipeline: pipeline,
		pool:     pool,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if optErr := opt(s); optErr != nil {
			s.Release()
			return nil, optErr
		}
	}
	return s, nil
}

// Enqueue submits a document for asynchronous processing. The document's
// status record tracks its fate; pipeline failures are logged here, not
// returned. The submitted work uses its own context so an enqueuer's
// cancelled request cannot abort a document mid-pipeline.
func (s *Service) Enqueue(doc *core.Document, content string) error {
	if doc == nil || doc.ID == "" {
		return core.ErrMissingDocumentID
	}
	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		result, perr := s.pipeline.ProcessDocument(context.Background(), doc, content, nil)
		if perr != nil {
			s.logger.Error("async ingestion failed", "documentID", doc.ID, "err", perr)
			return
		}
		s.logger.Info("async ingestion finished",
			"documentID", doc.ID, "outcome", result.Outcome, "chunks", result.SuccessfulChunks)
	})
	if err != nil {
		s.wg.Done()
		return err
	}
	return nil
}

// Wait blocks until every enqueued document has finished processing.
func (s *Service) Wait() {
	s.wg.Wait()
}

// Release waits for in-flight work and releases the worker pool.
// The service should not be used after calling Release.
func (s *Service) Release() {
	s.wg.Wait()
	if s.pool != nil {
		s.pool.Release()
	}
}
