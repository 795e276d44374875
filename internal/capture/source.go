package capture

import (
	"fmt"
	"image"
	_ "image/gif"  // Register GIF format decoder
	_ "image/jpeg" // Register JPEG format decoder
	_ "image/png"  // Register PNG format decoder
	"io"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"
)

// FrameSource produces raw frames from a capture backend. The pipeline does
// not care whether it is backed by screen capture, a webcam, an RTSP stream,
// or a directory of files.
type FrameSource interface {
	// Read blocks until the next frame is available. It returns io.EOF
	// when the stream ends; any other error means the source dropped.
	Read() (image.Image, error)

	// Close releases the underlying capture handle.
	Close() error

	// Description identifies the source for logs and diagnostics.
	// Implementations must mask embedded credentials.
	Description() string
}

// DirectorySource replays a directory of image files as a frame stream,
// in filename order. Used by the CLI for batch scanning and by tests.
type DirectorySource struct {
	files    []string
	idx      int
	interval time.Duration
	lastRead time.Time
	dir      string
}

// NewDirectorySource lists the image files under dir. A non-zero interval
// paces Read calls to simulate a live source's frame rate.
func NewDirectorySource(dir string, interval time.Duration) (*DirectorySource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read source directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".png", ".jpg", ".jpeg", ".gif":
			files = append(files, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(files)

	if len(files) == 0 {
		return nil, fmt.Errorf("no image files in %s", dir)
	}
	return &DirectorySource{files: files, interval: interval, dir: dir}, nil
}

// Read decodes the next file, pacing to the configured interval.
func (s *DirectorySource) Read() (image.Image, error) {
	if s.idx >= len(s.files) {
		return nil, io.EOF
	}

	if s.interval > 0 && !s.lastRead.IsZero() {
		if wait := s.interval - time.Since(s.lastRead); wait > 0 {
			time.Sleep(wait)
		}
	}
	s.lastRead = time.Now()

	path := s.files[s.idx]
	s.idx++

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open frame %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode frame %s: %w", path, err)
	}
	return img, nil
}

// Close is a no-op; the source holds no open handle between reads.
func (s *DirectorySource) Close() error { return nil }

// Description returns a dir:// pseudo-URL for logs.
func (s *DirectorySource) Description() string {
	return "dir://" + s.dir
}

var credentialPattern = regexp.MustCompile(`://([^:/@]+):([^@]+)@`)

// MaskCredentials hides the password embedded in a stream URL so it never
// reaches logs or notifications.
func MaskCredentials(url string) string {
	if url == "" {
		return ""
	}
	return credentialPattern.ReplaceAllString(url, "://$1:****@")
}
