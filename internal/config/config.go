// Package config loads scanner configuration from the environment, with an
// optional .env file. All settings use the SQ_ prefix.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/streamq/doc-scanner/internal/dedup"
	"github.com/streamq/doc-scanner/internal/detect"
)

// Thresholds are the confidence tiers driving triage decisions. They are
// loaded once at startup and treated as immutable during a session unless
// explicitly changed through the settings commands.
//
// Invariant: 0 <= MinConfidence <= ConfirmThreshold <= AutoSaveThreshold <= 1.
type Thresholds struct {
	// MinConfidence is the floor below which a detection is ignored entirely.
	MinConfidence float64

	// ConfirmThreshold queues the candidate for human confirmation.
	ConfirmThreshold float64

	// AutoSaveThreshold archives the candidate without confirmation.
	AutoSaveThreshold float64

	// CooldownSec is the quiet period after an accepted triage action,
	// converted to frames using the measured source frame rate.
	CooldownSec float64
}

// DefaultThresholds returns the shipped tier defaults.
func DefaultThresholds() Thresholds {
	return Thresholds{
		MinConfidence:     0.25,
		ConfirmThreshold:  0.60,
		AutoSaveThreshold: 0.85,
		CooldownSec:       2,
	}
}

// Validate reports whether the tier ordering invariant holds.
func (t Thresholds) Validate() error {
	if t.MinConfidence < 0 || t.AutoSaveThreshold > 1 {
		return fmt.Errorf("thresholds outside [0,1]: min=%v auto=%v", t.MinConfidence, t.AutoSaveThreshold)
	}
	if t.MinConfidence > t.ConfirmThreshold || t.ConfirmThreshold > t.AutoSaveThreshold {
		return fmt.Errorf("threshold ordering violated: min=%v confirm=%v auto=%v",
			t.MinConfidence, t.ConfirmThreshold, t.AutoSaveThreshold)
	}
	if t.CooldownSec < 0 {
		return fmt.Errorf("negative cooldown: %v", t.CooldownSec)
	}
	return nil
}

// Normalize clamps each tier into [0,1] and restores the ordering invariant
// by raising later tiers to meet earlier ones. Misconfigured values degrade
// to a stricter pipeline rather than an invalid one.
func (t *Thresholds) Normalize() {
	t.MinConfidence = clamp01(t.MinConfidence)
	t.ConfirmThreshold = clamp01(t.ConfirmThreshold)
	t.AutoSaveThreshold = clamp01(t.AutoSaveThreshold)

	if t.ConfirmThreshold < t.MinConfidence {
		t.ConfirmThreshold = t.MinConfidence
	}
	if t.AutoSaveThreshold < t.ConfirmThreshold {
		t.AutoSaveThreshold = t.ConfirmThreshold
	}
	if t.CooldownSec < 0 {
		t.CooldownSec = 0
	}
}

// Config is the full scanner configuration.
type Config struct {
	Thresholds Thresholds

	// ScanFPS is the target detection rate; frames arriving faster than
	// this are shown in the preview but not analyzed.
	ScanFPS float64

	// JPEGQuality is the encode quality for archived candidates.
	JPEGQuality int

	// EnabledTypes selects which shape detectors participate in the cascade.
	EnabledTypes []detect.DocumentType

	// UseObjectModel enables the object-detection fallback stage.
	UseObjectModel bool

	// Detection holds the shape-detector tuning constants.
	Detection detect.Tuning

	// Dedup holds the duplicate-detection tuning constants.
	Dedup dedup.Config

	// ArchiveDir is where committed documents are written.
	ArchiveDir string

	// SourceDir optionally names a directory of image files to use as the
	// frame source; SourceURL names a stream URL. Exactly one is consumed
	// by the CLI.
	SourceDir string
	SourceURL string

	// OCRLanguage is the Tesseract language used when refining document
	// types after archive; empty disables OCR refinement.
	OCRLanguage string

	// MetricsAddr is the listen address for the Prometheus endpoint;
	// empty disables it.
	MetricsAddr string

	LogLevel  string
	LogPretty bool
}

// Load reads configuration from a .env file (if present) and the process
// environment. Threshold misordering is normalized, not rejected, so a bad
// .env cannot keep the scanner from starting.
func Load() (*Config, error) {
	// A missing .env is fine; the environment alone is a valid source.
	_ = godotenv.Load()

	t := DefaultThresholds()
	t.MinConfidence = getFloat("SQ_SCANNER_MIN_CONFIDENCE", t.MinConfidence)
	t.ConfirmThreshold = getFloat("SQ_SCANNER_CONFIRM_THRESHOLD", t.ConfirmThreshold)
	t.AutoSaveThreshold = getFloat("SQ_SCANNER_AUTO_SAVE_THRESHOLD", t.AutoSaveThreshold)
	t.CooldownSec = getFloat("SQ_SCANNER_COOLDOWN_SEC", t.CooldownSec)
	t.Normalize()

	var enabled []detect.DocumentType
	if getBool("SQ_SCANNER_DETECT_RECEIPTS", true) {
		enabled = append(enabled, detect.TypeReceipt)
	}
	if getBool("SQ_SCANNER_DETECT_INVOICES", true) {
		enabled = append(enabled, detect.TypeInvoice)
	}
	if getBool("SQ_SCANNER_DETECT_DOCUMENTS", true) {
		enabled = append(enabled, detect.TypeGeneric)
	}

	tuning := detect.DefaultTuning()
	tuning.ReceiptAspectMin = getFloat("SQ_RECEIPT_ASPECT_MIN", tuning.ReceiptAspectMin)
	tuning.ReceiptAreaMin = getFloat("SQ_RECEIPT_AREA_MIN", tuning.ReceiptAreaMin)
	tuning.ReceiptBrightnessMin = getFloat("SQ_RECEIPT_BRIGHTNESS_MIN", tuning.ReceiptBrightnessMin)
	tuning.InvoiceAspectMin = getFloat("SQ_INVOICE_ASPECT_MIN", tuning.InvoiceAspectMin)
	tuning.InvoiceAspectMax = getFloat("SQ_INVOICE_ASPECT_MAX", tuning.InvoiceAspectMax)
	tuning.InvoiceAreaMin = getFloat("SQ_INVOICE_AREA_MIN", tuning.InvoiceAreaMin)
	tuning.EdgeDensityMin = getFloat("SQ_EDGE_DENSITY_MIN", tuning.EdgeDensityMin)
	tuning.ContourAreaMin = getFloat("SQ_CONTOUR_AREA_MIN", tuning.ContourAreaMin)
	tuning.ContourAreaMax = getFloat("SQ_CONTOUR_AREA_MAX", tuning.ContourAreaMax)

	dd := dedup.DefaultConfig()
	dd.MaxHashDistance = getInt("SQ_DUPLICATE_MAX_DISTANCE", dd.MaxHashDistance)
	dd.ReplaceQualityMargin = getFloat("SQ_DUPLICATE_REPLACE_MARGIN", dd.ReplaceQualityMargin)
	dd.WindowSize = getInt("SQ_DUPLICATE_WINDOW_SIZE", dd.WindowSize)
	dd.WindowAge = time.Duration(getFloat("SQ_DUPLICATE_WINDOW_SEC", dd.WindowAge.Seconds()) * float64(time.Second))

	cfg := &Config{
		Thresholds:     t,
		ScanFPS:        getFloat("SQ_SCANNER_FPS", 2),
		JPEGQuality:    getInt("SQ_SCANNER_JPEG_QUALITY", 90),
		EnabledTypes:   enabled,
		UseObjectModel: getBool("SQ_SCANNER_USE_YOLO", false),
		Detection:      tuning,
		Dedup:          dd,
		ArchiveDir:     getEnv("SQ_ARCHIVE_DIR", "./archive"),
		SourceDir:      getEnv("SQ_SOURCE_DIR", ""),
		SourceURL:      getEnv("SQ_DEFAULT_URL", ""),
		OCRLanguage:    getEnv("SQ_OCR_LANGUAGE", ""),
		MetricsAddr:    getEnv("SQ_METRICS_ADDR", ""),
		LogLevel:       getEnv("SQ_LOG_LEVEL", "info"),
		LogPretty:      getBool("SQ_LOG_PRETTY", false),
	}

	if cfg.ScanFPS <= 0 {
		return nil, fmt.Errorf("SQ_SCANNER_FPS must be positive, got %v", cfg.ScanFPS)
	}
	if cfg.JPEGQuality < 1 || cfg.JPEGQuality > 100 {
		return nil, fmt.Errorf("SQ_SCANNER_JPEG_QUALITY must be in 1-100, got %d", cfg.JPEGQuality)
	}
	return cfg, nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func getInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if n, err := strconv.Atoi(val); err == nil {
			return n
		}
	}
	return defaultVal
}

func getBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		switch val {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}
