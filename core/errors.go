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

package core

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a pipeline failure. Codes are stable strings that
// end up in the document's error_message metadata and in logs.
type ErrorCode string

const (
	// CodeEmptyContent indicates the document content was empty or whitespace.
	CodeEmptyContent ErrorCode = "empty_content"
	// CodeMissingID indicates the document had no identifier.
	CodeMissingID ErrorCode = "missing_id"
	// CodeNoValidChunks indicates no chunk survived the informativeness filter.
	CodeNoValidChunks ErrorCode = "no_valid_chunks"
	// CodeFetchFailed indicates the content source could not be fetched
	// after exhausting retries.
	CodeFetchFailed ErrorCode = "fetch_failed"
	// CodeEmbeddingFailed indicates every embedding in the document failed.
	CodeEmbeddingFailed ErrorCode = "embedding_generation_failed"
	// CodeCancelled indicates the caller aborted the pipeline.
	CodeCancelled ErrorCode = "cancelled"
	// CodeProcessingError wraps unexpected failures.
	CodeProcessingError ErrorCode = "processing_error"
)

// Retryable reports whether failures with this code are worth retrying at
// the pipeline level. Validation failures are terminal immediately.
func (c ErrorCode) Retryable() bool {
	switch c {
	case CodeFetchFailed, CodeProcessingError:
		return true
	default:
		return false
	}
}

// Stage names the pipeline stage at which a failure occurred.
type Stage string

const (
	StageValidating Stage = "validating"
	StageFetching   Stage = "fetching"
	StageChunking   Stage = "chunking"
	StageEmbedding  Stage = "embedding"
	StageStoring    Stage = "storing"
	StageFinalizing Stage = "finalizing"
)

// ProcessingError is the typed error returned for pipeline-level failures.
// It carries the document and stage context so callers and logs can tell
// where the pipeline gave up.
type ProcessingError struct {
	Code       ErrorCode
	DocumentID string
	Stage      Stage
	Err        error
}

func (e *ProcessingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: document %s, stage %s: %v", e.Code, e.DocumentID, e.Stage, e.Err)
	}
	return fmt.Sprintf("%s: document %s, stage %s", e.Code, e.DocumentID, e.Stage)
}

func (e *ProcessingError) Unwrap() error {
	return e.Err
}

// NewProcessingError builds a ProcessingError for the given document and stage.
func NewProcessingError(code ErrorCode, documentID string, stage Stage, err error) *ProcessingError {
	return &ProcessingError{Code: code, DocumentID: documentID, Stage: stage, Err: err}
}

// CodeOf extracts the ErrorCode from err, or CodeProcessingError if err is
// not a ProcessingError.
func CodeOf(err error) ErrorCode {
	var pe *ProcessingError
	if errors.As(err, &pe) {
		return pe.Code
	}
	return CodeProcessingError
}

// Domain validation errors.
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyContent indicates the document content is empty after trimming.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMissingDocumentID indicates the document has no ID.
	ErrMissingDocumentID = errors.New("document id is required")

	// ErrInvalidProgress indicates a progress value outside 0-100.
	ErrInvalidProgress = errors.New("progress must be between 0 and 100")

	// ErrInvalidStatus indicates an unknown DocumentStatus value.
	ErrInvalidStatus = errors.New("invalid document status")
)
