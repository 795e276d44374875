// Package dedup decides whether a newly captured document image duplicates
// a recently archived one, and whether the new capture should replace it.
//
// Comparison is scoped by document type: a receipt is never compared against
// an invoice, regardless of visual similarity. The recent window is bounded
// both by entry count (FIFO eviction) and by age, so a document re-presented
// much later is treated as a fresh capture.
package dedup

import (
	"sync"
	"time"

	"github.com/streamq/doc-scanner/internal/detect"
)

// Match reasons reported alongside a duplicate verdict.
const (
	ReasonBetterCapture = "same_document_better_capture"
	ReasonLowerQuality  = "same_document_lower_quality"
)

// Config holds the tuned duplicate-detection constants. All of them are
// deliberately configurable; the defaults come from field tuning, not from
// any derivation.
type Config struct {
	// MaxHashDistance is the largest Hamming distance (out of 64 bits)
	// still considered the same document. Tuned high on the similarity
	// side: duplicates must be near-identical, not merely the same kind
	// of document.
	MaxHashDistance int

	// ReplaceQualityMargin is how much better the new capture's quality
	// score must be before it replaces the stored one.
	ReplaceQualityMargin float64

	// WindowSize bounds the recent window by entry count (FIFO).
	WindowSize int

	// WindowAge bounds the recent window by entry age.
	WindowAge time.Duration
}

// DefaultConfig returns the tuned defaults.
func DefaultConfig() Config {
	return Config{
		MaxHashDistance:      6,
		ReplaceQualityMargin: 0,
		WindowSize:           16,
		WindowAge:            5 * time.Second,
	}
}

// Entry is one recently archived document kept for duplicate comparison.
// Entries are owned by the Checker; callers must not retain pointers past
// the call that produced them except through Replace.
type Entry struct {
	ID      string
	DocType detect.DocumentType
	Hash    Hash
	Quality float64
	Image   []byte
	AddedAt time.Time
}

// Match is the outcome of a duplicate check.
type Match struct {
	// IsDuplicate reports whether the candidate matches a recent entry.
	IsDuplicate bool

	// Similarity is the best hash similarity found, in [0, 1].
	Similarity float64

	// Matched is the matching entry, or nil when IsDuplicate is false.
	Matched *Entry

	// Replace reports whether the candidate is a better capture of the
	// matched document and should supersede it.
	Replace bool

	// Reason explains the verdict for diagnostics and notifications.
	Reason string

	// Quality is the candidate's computed quality score, returned so the
	// caller does not have to re-decode the image.
	Quality float64

	// Hash is the candidate's computed perceptual hash.
	Hash Hash
}

// Checker maintains the bounded recent-archive window and answers duplicate
// queries against it. Safe for concurrent use.
type Checker struct {
	mu      sync.Mutex
	cfg     Config
	entries []*Entry

	now func() time.Time // injectable for tests
}

// NewChecker creates a checker with the given configuration. Zero-valued
// config fields fall back to defaults.
func NewChecker(cfg Config) *Checker {
	def := DefaultConfig()
	if cfg.MaxHashDistance <= 0 {
		cfg.MaxHashDistance = def.MaxHashDistance
	}
	if cfg.WindowSize <= 0 {
		cfg.WindowSize = def.WindowSize
	}
	if cfg.WindowAge <= 0 {
		cfg.WindowAge = def.WindowAge
	}
	return &Checker{cfg: cfg, now: time.Now}
}

// Check decides whether imageBytes duplicates a recent same-type entry.
//
// An empty window never yields a duplicate. Corrupt image bytes return an
// error and a non-duplicate match: the engine favors over-capturing over
// silently dropping a real document.
func (c *Checker) Check(imageBytes []byte, docType detect.DocumentType) (Match, error) {
	hash, quality, err := fingerprint(imageBytes)
	if err != nil {
		return Match{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()

	match := Match{Quality: quality, Hash: hash}
	bestDistance := c.cfg.MaxHashDistance + 1

	for _, e := range c.entries {
		if e.DocType != docType {
			continue
		}
		d := hash.Distance(e.Hash)
		if d < bestDistance {
			bestDistance = d
			match.Matched = e
			match.Similarity = hash.Similarity(e.Hash)
		}
	}

	if match.Matched == nil || bestDistance > c.cfg.MaxHashDistance {
		return Match{Quality: quality, Hash: hash}, nil
	}

	match.IsDuplicate = true
	if quality > match.Matched.Quality+c.cfg.ReplaceQualityMargin {
		match.Replace = true
		match.Reason = ReasonBetterCapture
	} else {
		match.Reason = ReasonLowerQuality
	}
	return match, nil
}

// Add appends a new entry to the recent window, evicting the oldest entry
// when the count bound is exceeded.
func (c *Checker) Add(id string, docType detect.DocumentType, imageBytes []byte) error {
	hash, quality, err := fingerprint(imageBytes)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()

	c.entries = append(c.entries, &Entry{
		ID:      id,
		DocType: docType,
		Hash:    hash,
		Quality: quality,
		Image:   imageBytes,
		AddedAt: c.now(),
	})
	if len(c.entries) > c.cfg.WindowSize {
		c.entries = c.entries[len(c.entries)-c.cfg.WindowSize:]
	}
	return nil
}

// Replace updates a matched entry in place with a better capture: bytes,
// quality, and hash all take the new image's values. The entry keeps its id
// and position in the window.
func (c *Checker) Replace(matched *Entry, imageBytes []byte) error {
	hash, quality, err := fingerprint(imageBytes)
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	matched.Image = imageBytes
	matched.Quality = quality
	matched.Hash = hash
	return nil
}

// Len returns the current window size.
func (c *Checker) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prune()
	return len(c.entries)
}

// prune drops entries older than the age bound. Caller must hold the lock.
func (c *Checker) prune() {
	cutoff := c.now().Add(-c.cfg.WindowAge)
	kept := c.entries[:0]
	for _, e := range c.entries {
		if e.AddedAt.After(cutoff) {
			kept = append(kept, e)
		}
	}
	c.entries = kept
}
