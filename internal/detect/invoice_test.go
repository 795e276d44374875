package detect

import (
	"image/color"
	"testing"
)

func TestInvoiceDetector_A4Portrait(t *testing.T) {
	// Bright page with A4 portrait proportions (1.4 aspect) on a dark scene.
	img := createTestImage(200, 260, color.Gray{Y: 30})
	fillRect(img, 50, 50, 149, 189, color.Gray{Y: 220})

	d := &InvoiceDetector{Tuning: DefaultTuning()}
	result := d.Detect(img)

	if !result.Detected {
		t.Fatal("Expected A4-shaped page to be detected")
	}
	if result.Type != TypeInvoice {
		t.Errorf("Expected type invoice, got %s", result.Type)
	}
	if result.Confidence <= invoiceScoreFloor {
		t.Errorf("Expected confidence above %v, got %v", invoiceScoreFloor, result.Confidence)
	}

	hasA4 := false
	for _, f := range result.Features {
		if f == "a4_format" {
			hasA4 = true
		}
	}
	if !hasA4 {
		t.Errorf("Expected a4_format feature, got %v", result.Features)
	}
}

func TestInvoiceDetector_SquareBlobRejected(t *testing.T) {
	// A square page matches neither the portrait nor the landscape band.
	img := createTestImage(200, 200, color.Gray{Y: 30})
	fillRect(img, 50, 50, 149, 149, color.Gray{Y: 220})

	d := &InvoiceDetector{Tuning: DefaultTuning()}
	result := d.Detect(img)

	if result.Detected {
		t.Errorf("Expected square blob to miss the score floor, got confidence %v", result.Confidence)
	}
}

func TestInvoiceDetector_UniformImage(t *testing.T) {
	img := createTestImage(200, 200, color.Gray{Y: 30})

	d := &InvoiceDetector{Tuning: DefaultTuning()}
	result := d.Detect(img)

	if result.Detected {
		t.Error("Expected no detection on uniform dark image")
	}
}

func TestInvoiceDetector_NilImage(t *testing.T) {
	d := &InvoiceDetector{Tuning: DefaultTuning()}
	if d.Detect(nil).Detected {
		t.Error("Expected no detection for nil image")
	}
}
