// Package archive persists committed documents. The triage core calls
// Commit exactly once per auto-archive or confirmed candidate; everything
// about the on-disk layout is this package's concern alone.
package archive

import (
	"time"

	"github.com/streamq/doc-scanner/internal/detect"
)

// Document is a committed capture.
type Document struct {
	ID         string              `json:"id"`
	Path       string              `json:"path,omitempty"`
	DocType    detect.DocumentType `json:"doc_type"`
	Confidence float64             `json:"confidence"`
	Method     string              `json:"method,omitempty"`
	Features   []string            `json:"features,omitempty"`
	SavedAt    time.Time           `json:"saved_at"`
	SizeBytes  int64               `json:"size_bytes"`

	// Text is the OCR transcript, filled in after commit when OCR
	// refinement is enabled.
	Text string `json:"text,omitempty"`
}

// Store commits document images to durable storage.
type Store interface {
	// Commit persists the image with the detection metadata that produced
	// it, using the given id. Commit failures are surfaced to the caller;
	// the candidate is never re-queued automatically.
	Commit(id string, imageBytes []byte, res detect.Result, docType detect.DocumentType) (*Document, error)
}
