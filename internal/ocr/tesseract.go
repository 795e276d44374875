// Package ocr extracts text from archived documents and classifies their
// type from the transcript. It runs after commit, off the capture path, so
// OCR latency never stalls frame processing.
package ocr

import (
	"fmt"
	"os"

	"github.com/otiai10/gosseract/v2"
)

// Reader extracts text from an encoded image. Implementations may be slow;
// callers run them off the capture path.
type Reader interface {
	Text(imageBytes []byte) (string, error)
}

// TesseractReader performs OCR through the Tesseract engine.
type TesseractReader struct {
	// Language is the Tesseract language code (e.g. "eng", "pol").
	// The corresponding language data must be installed on the system.
	Language string
}

// Text runs Tesseract over the image bytes and returns the raw transcript.
//
// Tesseract works from file paths, so the bytes are staged in a temporary
// file that is removed before returning.
func (r *TesseractReader) Text(imageBytes []byte) (string, error) {
	tmpFile, err := os.CreateTemp("", "docscan-ocr-*.jpg")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer os.Remove(tmpPath)

	if _, err := tmpFile.Write(imageBytes); err != nil {
		tmpFile.Close()
		return "", fmt.Errorf("failed to write temp image: %w", err)
	}
	tmpFile.Close()

	client := gosseract.NewClient()
	defer client.Close()

	if r.Language != "" {
		if err := client.SetLanguage(r.Language); err != nil {
			return "", fmt.Errorf("failed to set language: %w", err)
		}
	}
	if err := client.SetImage(tmpPath); err != nil {
		return "", fmt.Errorf("failed to set image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("OCR failed: %w", err)
	}
	return text, nil
}
