package config

import (
	"testing"
)

func TestDefaultThresholds_Valid(t *testing.T) {
	th := DefaultThresholds()
	if err := th.Validate(); err != nil {
		t.Fatalf("default thresholds invalid: %v", err)
	}
}

func TestThresholds_ValidateOrdering(t *testing.T) {
	th := Thresholds{MinConfidence: 0.7, ConfirmThreshold: 0.5, AutoSaveThreshold: 0.9}
	if err := th.Validate(); err == nil {
		t.Error("Expected ordering violation to be rejected")
	}

	th = Thresholds{MinConfidence: 0.2, ConfirmThreshold: 0.5, AutoSaveThreshold: 1.5}
	if err := th.Validate(); err == nil {
		t.Error("Expected out-of-range threshold to be rejected")
	}

	th = Thresholds{MinConfidence: 0.2, ConfirmThreshold: 0.5, AutoSaveThreshold: 0.9, CooldownSec: -1}
	if err := th.Validate(); err == nil {
		t.Error("Expected negative cooldown to be rejected")
	}
}

func TestThresholds_NormalizeRaisesLaterTiers(t *testing.T) {
	th := Thresholds{MinConfidence: 0.7, ConfirmThreshold: 0.5, AutoSaveThreshold: 0.6}
	th.Normalize()

	if err := th.Validate(); err != nil {
		t.Fatalf("normalized thresholds still invalid: %v", err)
	}
	if th.ConfirmThreshold != 0.7 {
		t.Errorf("Expected confirm raised to 0.7, got %v", th.ConfirmThreshold)
	}
	if th.AutoSaveThreshold != 0.7 {
		t.Errorf("Expected auto raised to 0.7, got %v", th.AutoSaveThreshold)
	}
}

func TestThresholds_NormalizeClamps(t *testing.T) {
	th := Thresholds{MinConfidence: -0.5, ConfirmThreshold: 0.5, AutoSaveThreshold: 2.0, CooldownSec: -3}
	th.Normalize()

	if th.MinConfidence != 0 {
		t.Errorf("Expected min clamped to 0, got %v", th.MinConfidence)
	}
	if th.AutoSaveThreshold != 1 {
		t.Errorf("Expected auto clamped to 1, got %v", th.AutoSaveThreshold)
	}
	if th.CooldownSec != 0 {
		t.Errorf("Expected cooldown clamped to 0, got %v", th.CooldownSec)
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Thresholds != DefaultThresholds() {
		t.Errorf("Expected default thresholds, got %+v", cfg.Thresholds)
	}
	if cfg.ScanFPS != 2 {
		t.Errorf("Expected default scan FPS 2, got %v", cfg.ScanFPS)
	}
	if cfg.JPEGQuality != 90 {
		t.Errorf("Expected default JPEG quality 90, got %d", cfg.JPEGQuality)
	}
	if len(cfg.EnabledTypes) != 3 {
		t.Errorf("Expected all three detectors enabled, got %v", cfg.EnabledTypes)
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("SQ_SCANNER_MIN_CONFIDENCE", "0.4")
	t.Setenv("SQ_SCANNER_AUTO_SAVE_THRESHOLD", "0.95")
	t.Setenv("SQ_SCANNER_DETECT_RECEIPTS", "false")
	t.Setenv("SQ_SCANNER_JPEG_QUALITY", "75")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Thresholds.MinConfidence != 0.4 {
		t.Errorf("Expected min confidence 0.4, got %v", cfg.Thresholds.MinConfidence)
	}
	if cfg.Thresholds.AutoSaveThreshold != 0.95 {
		t.Errorf("Expected auto threshold 0.95, got %v", cfg.Thresholds.AutoSaveThreshold)
	}
	if cfg.JPEGQuality != 75 {
		t.Errorf("Expected JPEG quality 75, got %d", cfg.JPEGQuality)
	}
	for _, dt := range cfg.EnabledTypes {
		if dt == "receipt" {
			t.Error("Expected receipts disabled")
		}
	}
}

func TestLoad_NormalizesMisorderedEnv(t *testing.T) {
	t.Setenv("SQ_SCANNER_MIN_CONFIDENCE", "0.9")
	t.Setenv("SQ_SCANNER_CONFIRM_THRESHOLD", "0.5")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if err := cfg.Thresholds.Validate(); err != nil {
		t.Errorf("Loaded thresholds violate ordering: %v", err)
	}
}

func TestLoad_RejectsBadFPS(t *testing.T) {
	t.Setenv("SQ_SCANNER_FPS", "-1")

	if _, err := Load(); err == nil {
		t.Error("Expected negative FPS to be rejected")
	}
}

func TestLoad_RejectsBadQuality(t *testing.T) {
	t.Setenv("SQ_SCANNER_JPEG_QUALITY", "150")

	if _, err := Load(); err == nil {
		t.Error("Expected out-of-range JPEG quality to be rejected")
	}
}
