package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/streamq/doc-scanner/internal/detect"
)

// FSStore writes each committed document as a JPEG plus a JSON metadata
// sidecar in a flat directory. Filenames are time-prefixed so a directory
// listing reads chronologically.
type FSStore struct {
	dir string
	now func() time.Time
}

// NewFSStore creates the archive directory if needed.
func NewFSStore(dir string) (*FSStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &FSStore{dir: dir, now: time.Now}, nil
}

// Commit writes the image and its sidecar. A sidecar write failure fails the
// whole commit; a document without metadata is not considered archived.
func (s *FSStore) Commit(id string, imageBytes []byte, res detect.Result, docType detect.DocumentType) (*Document, error) {
	if id == "" {
		id = uuid.NewString()
	}
	savedAt := s.now()

	base := fmt.Sprintf("%s_%s_%s", savedAt.Format("20060102-150405"), docType, id)
	imagePath := filepath.Join(s.dir, base+".jpg")

	if err := os.WriteFile(imagePath, imageBytes, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write document image: %w", err)
	}

	doc := &Document{
		ID:         id,
		Path:       imagePath,
		DocType:    docType,
		Confidence: res.Confidence,
		Method:     res.Method,
		Features:   res.Features,
		SavedAt:    savedAt,
		SizeBytes:  int64(len(imageBytes)),
	}

	if err := s.writeSidecar(doc); err != nil {
		os.Remove(imagePath)
		return nil, err
	}
	return doc, nil
}

// UpdateText rewrites the sidecar with the OCR transcript attached.
func (s *FSStore) UpdateText(doc *Document, text string) error {
	doc.Text = text
	return s.writeSidecar(doc)
}

// List returns up to limit archived documents, newest first, read back from
// the sidecar files.
func (s *FSStore) List(limit int) ([]*Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var docs []*Document
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(s.dir, e.Name()))
		if err != nil {
			continue
		}
		var doc Document
		if err := json.Unmarshal(data, &doc); err != nil {
			continue
		}
		docs = append(docs, &doc)
	}

	sort.Slice(docs, func(i, j int) bool {
		return docs[i].SavedAt.After(docs[j].SavedAt)
	})
	if limit > 0 && len(docs) > limit {
		docs = docs[:limit]
	}
	return docs, nil
}

func (s *FSStore) writeSidecar(doc *Document) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document metadata: %w", err)
	}
	sidecarPath := strings.TrimSuffix(doc.Path, ".jpg") + ".json"
	if err := os.WriteFile(sidecarPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write document metadata: %w", err)
	}
	return nil
}
