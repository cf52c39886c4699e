package core

import (
	"errors"
	"testing"
	"time"
)

func TestChunkID(t *testing.T) {
	tests := []struct {
		documentID string
		index      int
		want       string
	}{
		{"doc-1", 0, "doc-1#00000"},
		{"doc-1", 7, "doc-1#00007"},
		{"doc-1", 99999, "doc-1#99999"},
		{"doc-1", 123456, "doc-1#123456"},
	}
	for _, tt := range tests {
		if got := ChunkID(tt.documentID, tt.index); got != tt.want {
			t.Errorf("ChunkID(%q, %d) = %q, want %q", tt.documentID, tt.index, got, tt.want)
		}
	}
}

func TestNewDocumentID_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		id := NewDocumentID()
		if id == "" {
			t.Fatal("NewDocumentID() returned empty string")
		}
		if seen[id] {
			t.Fatalf("NewDocumentID() returned duplicate %q", id)
		}
		seen[id] = true
	}
}

func TestContentDigest(t *testing.T) {
	a := ContentDigest("hello world")
	b := ContentDigest("hello world")
	c := ContentDigest("hello worlds")

	if a != b {
		t.Errorf("same content produced different digests: %q vs %q", a, b)
	}
	if a == c {
		t.Errorf("different content produced the same digest: %q", a)
	}
	if len(a) != 32 { // 16 bytes hex-encoded
		t.Errorf("digest length = %d, want 32", len(a))
	}
}

func TestDocumentMetadataRoundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	doc := &Document{
		ID:             "doc-1",
		OwnerID:        "owner-1",
		Name:           "report.pdf",
		Description:    "quarterly report",
		FileType:       "pdf",
		Size:           4096,
		StoragePath:    "https://files.example.com/report.pdf",
		Status:         StatusIndexed,
		Progress:       100,
		ChunkCount:     12,
		EmbeddingModel: "text-embedding-3-small",
		ContentDigest:  "abc123",
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	got := DocumentFromMetadata(doc.ToMetadata())

	if got.ID != doc.ID || got.OwnerID != doc.OwnerID || got.Name != doc.Name {
		t.Errorf("identity fields lost: got %+v", got)
	}
	if got.Size != doc.Size || got.Progress != doc.Progress || got.ChunkCount != doc.ChunkCount {
		t.Errorf("numeric fields lost: got %+v", got)
	}
	if got.Status != StatusIndexed || got.ContentDigest != doc.ContentDigest {
		t.Errorf("state fields lost: got %+v", got)
	}
	if !got.CreatedAt.Equal(now) || !got.UpdatedAt.Equal(now) {
		t.Errorf("timestamps lost: got created=%v updated=%v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestChunkMetadataRoundtrip(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Millisecond)
	ch := &Chunk{
		ID:           ChunkID("doc-1", 3),
		DocumentID:   "doc-1",
		Index:        3,
		Content:      "some informative chunk text",
		DocumentName: "report.pdf",
		FileType:     "pdf",
		OwnerID:      "owner-1",
		CreatedAt:    now,
	}

	got := ChunkFromMetadata(ch.ID, []float32{0.1, 0.2}, ch.ToMetadata())

	if got.ID != ch.ID || got.DocumentID != ch.DocumentID || got.Index != 3 {
		t.Errorf("identity fields lost: got %+v", got)
	}
	if got.Content != ch.Content || got.OwnerID != ch.OwnerID || got.FileType != ch.FileType {
		t.Errorf("content fields lost: got %+v", got)
	}
	if len(got.Vector) != 2 {
		t.Errorf("vector not carried: got %v", got.Vector)
	}
	if !got.CreatedAt.Equal(now) {
		t.Errorf("timestamp lost: got %v", got.CreatedAt)
	}
}

func TestProcessingError(t *testing.T) {
	cause := errors.New("connection refused")
	err := NewProcessingError(CodeFetchFailed, "doc-1", StageFetching, cause)

	if !errors.Is(err, cause) {
		t.Error("ProcessingError should unwrap to its cause")
	}
	if CodeOf(err) != CodeFetchFailed {
		t.Errorf("CodeOf() = %v, want %v", CodeOf(err), CodeFetchFailed)
	}
	if CodeOf(cause) != CodeProcessingError {
		t.Errorf("CodeOf(plain error) = %v, want %v", CodeOf(cause), CodeProcessingError)
	}
}

func TestErrorCodeRetryable(t *testing.T) {
	retryable := []ErrorCode{CodeFetchFailed, CodeProcessingError}
	terminal := []ErrorCode{CodeEmptyContent, CodeMissingID, CodeNoValidChunks, CodeEmbeddingFailed, CodeCancelled}

	for _, code := range retryable {
		if !code.Retryable() {
			t.Errorf("%s.Retryable() = false, want true", code)
		}
	}
	for _, code := range terminal {
		if code.Retryable() {
			t.Errorf("%s.Retryable() = true, want false", code)
		}
	}
}
