package triage

import (
	"bytes"
	"image"
	"time"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"

	"github.com/streamq/doc-scanner/internal/detect"
)

// Candidate is a frame judged likely to be a document, awaiting a triage
// outcome. It exclusively owns its image bytes; confirm/reject move the
// candidate between stores rather than copying it.
type Candidate struct {
	// ID uniquely identifies the candidate across the pending queue and
	// the archive.
	ID string `json:"id"`

	// Image is the JPEG-encoded capture.
	Image []byte `json:"-"`

	// Detection is the result that produced this candidate.
	Detection detect.Result `json:"detection"`

	// DocType is the human-facing document type label.
	DocType detect.DocumentType `json:"doc_type"`

	// CapturedAt is when the frame was triaged.
	CapturedAt time.Time `json:"captured_at"`
}

func newCandidate(img []byte, res detect.Result, docType detect.DocumentType, at time.Time) *Candidate {
	return &Candidate{
		ID:         uuid.NewString(),
		Image:      img,
		Detection:  res,
		DocType:    docType,
		CapturedAt: at,
	}
}

const (
	thumbnailMaxSide = 120
	thumbnailQuality = 70
)

// thumbnail produces a small JPEG preview for pending-document
// notifications, or nil when the bytes cannot be decoded.
func thumbnail(imageBytes []byte) []byte {
	img, _, err := image.Decode(bytes.NewReader(imageBytes))
	if err != nil {
		return nil
	}
	small := imaging.Fit(img, thumbnailMaxSide, thumbnailMaxSide, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, small, imaging.JPEG, imaging.JPEGQuality(thumbnailQuality)); err != nil {
		return nil
	}
	return buf.Bytes()
}
