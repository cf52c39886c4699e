package core

import (
	"errors"
	"testing"
)

func TestValidateDocument(t *testing.T) {
	tests := []struct {
		name    string
		doc     *Document
		wantErr error
	}{
		{
			name: "valid document",
			doc: &Document{
				ID:   "doc-1",
				Name: "report.pdf",
			},
			wantErr: nil,
		},
		{
			name: "valid document with status and progress",
			doc: &Document{
				ID:       "doc-1",
				Status:   StatusProcessing,
				Progress: 42,
			},
			wantErr: nil,
		},
		{
			name:    "nil document",
			doc:     nil,
			wantErr: ErrInvalidDocument,
		},
		{
			name:    "missing ID",
			doc:     &Document{Name: "report.pdf"},
			wantErr: ErrMissingDocumentID,
		},
		{
			name:    "whitespace ID",
			doc:     &Document{ID: "   "},
			wantErr: ErrMissingDocumentID,
		},
		{
			name:    "progress below range",
			doc:     &Document{ID: "doc-1", Progress: -1},
			wantErr: ErrInvalidProgress,
		},
		{
			name:    "progress above range",
			doc:     &Document{ID: "doc-1", Progress: 101},
			wantErr: ErrInvalidProgress,
		},
		{
			name:    "unknown status",
			doc:     &Document{ID: "doc-1", Status: "uploading"},
			wantErr: ErrInvalidStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateDocument(tt.doc)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("ValidateDocument() = %v, want nil", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ValidateDocument() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidateStatus(t *testing.T) {
	for _, status := range []DocumentStatus{StatusProcessing, StatusIndexed, StatusFailed} {
		if err := ValidateStatus(status); err != nil {
			t.Errorf("ValidateStatus(%q) = %v, want nil", status, err)
		}
	}
	if err := ValidateStatus("done"); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("ValidateStatus(done) = %v, want ErrInvalidStatus", err)
	}
}

func TestValidateContent(t *testing.T) {
	if err := ValidateContent("some text"); err != nil {
		t.Errorf("ValidateContent() = %v, want nil", err)
	}
	for _, content := range []string{"", "   ", "\n\t "} {
		if err := ValidateContent(content); !errors.Is(err, ErrEmptyContent) {
			t.Errorf("ValidateContent(%q) = %v, want ErrEmptyContent", content, err)
		}
	}
}
