package core

import (
	"time"
)

// DocumentStatus describes where a document is in its processing lifecycle.
type DocumentStatus string

const (
	// StatusProcessing indicates the ingestion pipeline is currently running.
	StatusProcessing DocumentStatus = "processing"
	// StatusIndexed indicates all surviving chunks were embedded and stored.
	StatusIndexed DocumentStatus = "indexed"
	// StatusFailed indicates the pipeline terminated without storing any chunk.
	StatusFailed DocumentStatus = "failed"
)

// Outcome is the terminal result of a single pipeline invocation.
type Outcome string

const (
	// OutcomeSuccess means every surviving chunk was embedded and stored.
	OutcomeSuccess Outcome = "success"
	// OutcomePartialSuccess means some, but not all, chunks made it into the store.
	OutcomePartialSuccess Outcome = "partial_success"
	// OutcomeFailed means no chunk was stored.
	OutcomeFailed Outcome = "failed"
)

// Document represents one uploaded source file and its processing state.
// The vector store is the system of record; this struct is a projection of
// the document's metadata record.
type Document struct {
	ID             string
	OwnerID        string
	Name           string
	Description    string
	FileType       string
	Size           int64
	StoragePath    string
	Status         DocumentStatus
	Progress       int    // 0-100
	ErrorMessage   string // set only when Status is StatusFailed
	ChunkCount     int
	EmbeddingModel string
	ContentDigest  string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// Chunk is the atomic unit of embedding and retrieval: one bounded-size
// segment of a document's text. Chunk IDs are derived from the owning
// document ID and ordinal index, so reprocessing a document overwrites
// its chunks instead of duplicating them.
type Chunk struct {
	ID           string
	DocumentID   string
	Index        int
	Content      string
	Vector       []float32
	DocumentName string
	FileType     string
	OwnerID      string
	CreatedAt    time.Time
}

// ProcessingResult is the ephemeral value object returned by one pipeline
// invocation. It is never persisted.
type ProcessingResult struct {
	DocumentID       string
	Outcome          Outcome
	TotalChunks      int
	SuccessfulChunks int
	FailedChunks     int
	Elapsed          time.Duration
	ErrorMessage     string
	Warnings         []string
}

// SearchResult pairs a retrieved chunk with its relevance score.
type SearchResult struct {
	Chunk *Chunk
	Score float32
}
