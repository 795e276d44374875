package dedup

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"

	"github.com/streamq/doc-scanner/internal/detect"
)

// encodeJPEG renders a test image to JPEG bytes
func encodeJPEG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("jpeg encode failed: %v", err)
	}
	return buf.Bytes()
}

// splitImage creates an image with a dark left half and bright right half.
// The contrast parameter controls how far apart the halves are, which raises
// the quality score without changing the hash bit pattern.
func splitImage(t *testing.T, dark, bright uint8) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			v := dark
			if x >= 32 {
				v = bright
			}
			img.Set(x, y, color.Gray{Y: v})
		}
	}
	return encodeJPEG(t, img)
}

// stripeImage creates a horizontally striped image, visually unrelated to
// splitImage.
func stripeImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		v := uint8(30)
		if (y/16)%2 == 0 {
			v = 220
		}
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.Gray{Y: v})
		}
	}
	return encodeJPEG(t, img)
}

func TestChecker_EmptyWindowNeverDuplicate(t *testing.T) {
	c := NewChecker(DefaultConfig())

	match, err := c.Check(splitImage(t, 30, 220), detect.TypeReceipt)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if match.IsDuplicate {
		t.Error("Expected no duplicate against an empty window")
	}
	if match.Hash == 0 {
		t.Error("Expected the candidate hash to be computed")
	}
}

func TestChecker_DetectsDuplicate(t *testing.T) {
	c := NewChecker(DefaultConfig())
	img := splitImage(t, 30, 220)

	if err := c.Add("doc-1", detect.TypeReceipt, img); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	match, err := c.Check(img, detect.TypeReceipt)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !match.IsDuplicate {
		t.Fatal("Expected identical image to be a duplicate")
	}
	if match.Matched == nil || match.Matched.ID != "doc-1" {
		t.Errorf("Expected match against doc-1, got %+v", match.Matched)
	}
	if match.Similarity < 0.9 {
		t.Errorf("Expected near-perfect similarity, got %v", match.Similarity)
	}
	// Identical quality never triggers replacement.
	if match.Replace {
		t.Error("Expected no replacement for equal-quality capture")
	}
	if match.Reason != ReasonLowerQuality {
		t.Errorf("Expected reason %q, got %q", ReasonLowerQuality, match.Reason)
	}
}

func TestChecker_DifferentImageNotDuplicate(t *testing.T) {
	c := NewChecker(DefaultConfig())

	if err := c.Add("doc-1", detect.TypeReceipt, splitImage(t, 30, 220)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	match, err := c.Check(stripeImage(t), detect.TypeReceipt)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if match.IsDuplicate {
		t.Errorf("Expected visually unrelated image to pass, similarity %v", match.Similarity)
	}
}

func TestChecker_TypeScoped(t *testing.T) {
	c := NewChecker(DefaultConfig())
	img := splitImage(t, 30, 220)

	if err := c.Add("doc-1", detect.TypeReceipt, img); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Same pixels, different document type: never compared.
	match, err := c.Check(img, detect.TypeInvoice)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if match.IsDuplicate {
		t.Error("Expected no cross-type duplicate match")
	}
}

func TestChecker_BetterCaptureReplaces(t *testing.T) {
	c := NewChecker(DefaultConfig())

	// Low-contrast capture first, then a sharp one of the same layout.
	if err := c.Add("doc-1", detect.TypeReceipt, splitImage(t, 100, 160)); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	sharp := splitImage(t, 30, 220)
	match, err := c.Check(sharp, detect.TypeReceipt)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !match.IsDuplicate {
		t.Fatal("Expected same layout to match")
	}
	if !match.Replace {
		t.Errorf("Expected higher-quality capture to replace, qualities %v vs %v",
			match.Quality, match.Matched.Quality)
	}
	if match.Reason != ReasonBetterCapture {
		t.Errorf("Expected reason %q, got %q", ReasonBetterCapture, match.Reason)
	}

	// Apply the replacement and verify the entry took the new fingerprint.
	oldQuality := match.Matched.Quality
	if err := c.Replace(match.Matched, sharp); err != nil {
		t.Fatalf("Replace failed: %v", err)
	}
	if match.Matched.Quality <= oldQuality {
		t.Error("Expected replaced entry to carry the higher quality")
	}
	if match.Matched.ID != "doc-1" {
		t.Error("Expected replaced entry to keep its id")
	}

	// A rerun of the weaker capture now reads as a lower-quality duplicate.
	again, err := c.Check(splitImage(t, 100, 160), detect.TypeReceipt)
	if err != nil {
		t.Fatalf("Check failed: %v", err)
	}
	if !again.IsDuplicate || again.Replace {
		t.Errorf("Expected weaker recapture to be skipped, got %+v", again)
	}
}

func TestChecker_CorruptBytes(t *testing.T) {
	c := NewChecker(DefaultConfig())

	if _, err := c.Check([]byte("not an image"), detect.TypeReceipt); err == nil {
		t.Error("Expected error for corrupt image bytes")
	}
	if err := c.Add("doc-1", detect.TypeReceipt, []byte("not an image")); err == nil {
		t.Error("Expected error when adding corrupt image bytes")
	}
}

func TestChecker_WindowSizeEviction(t *testing.T) {
	cfg := DefaultConfig()
	cfg.WindowSize = 2
	c := NewChecker(cfg)

	imgs := [][]byte{
		splitImage(t, 30, 220),
		stripeImage(t),
		splitImage(t, 100, 160),
	}
	for i, img := range imgs {
		if err := c.Add(string(rune('a'+i)), detect.TypeReceipt, img); err != nil {
			t.Fatalf("Add %d failed: %v", i, err)
		}
	}

	if c.Len() != 2 {
		t.Errorf("Expected window capped at 2, got %d", c.Len())
	}
}

func TestChecker_AgeEviction(t *testing.T) {
	c := NewChecker(DefaultConfig())
	img := splitImage(t, 30, 220)

	current := time.Now()
	c.now = func() time.Time { return current }

	if err := c.Add("doc-1", detect.TypeReceipt, img); err != nil {
		t.Fatalf("Add failed: %v", err)
	}

	// Within the window: still a duplicate.
	current = current.Add(3 * time.Second)
	match, _ := c.Check(img, detect.TypeReceipt)
	if !match.IsDuplicate {
		t.Fatal("Expected duplicate inside the age window")
	}

	// Past the window: the entry ages out and the document reads as new.
	current = current.Add(10 * time.Second)
	match, _ = c.Check(img, detect.TypeReceipt)
	if match.IsDuplicate {
		t.Error("Expected aged-out entry to be pruned")
	}
	if c.Len() != 0 {
		t.Errorf("Expected empty window after aging, got %d", c.Len())
	}
}

func TestAverageHash_Properties(t *testing.T) {
	bright := image.NewRGBA(image.Rect(0, 0, 32, 32))
	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			v := uint8(30)
			if x >= 16 {
				v = 220
			}
			bright.Set(x, y, color.Gray{Y: v})
		}
	}

	h1 := AverageHash(bright)
	h2 := AverageHash(bright)
	if h1 != h2 {
		t.Error("Expected hash to be deterministic")
	}
	if h1.Distance(h1) != 0 {
		t.Error("Expected zero self-distance")
	}
	if h1.Similarity(h1) != 1.0 {
		t.Error("Expected perfect self-similarity")
	}
	if len(h1.String()) != 16 {
		t.Errorf("Expected 16 hex digits, got %q", h1.String())
	}
}
