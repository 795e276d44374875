package detect

import (
	"image/color"
	"testing"
)

func TestGeneralDetector_RectangularPage(t *testing.T) {
	// Bright filled page over a dark scene; the page outline becomes a clean
	// rectangular contour in the edge map.
	img := createTestImage(200, 200, color.Gray{Y: 30})
	fillRect(img, 40, 50, 159, 149, color.Gray{Y: 220})

	d := &GeneralDetector{Tuning: DefaultTuning()}
	result := d.Detect(img)

	if !result.Detected {
		t.Fatal("Expected rectangular page to be detected")
	}
	if result.Type != TypeGeneric {
		t.Errorf("Expected type document, got %s", result.Type)
	}
	if result.Confidence <= generalScoreFloor {
		t.Errorf("Expected confidence above %v, got %v", generalScoreFloor, result.Confidence)
	}
	if result.BBox == nil {
		t.Fatal("Expected a bounding box on detection")
	}
}

func TestGeneralDetector_UniformImage(t *testing.T) {
	img := createTestImage(200, 200, color.Gray{Y: 128})

	d := &GeneralDetector{Tuning: DefaultTuning()}
	result := d.Detect(img)

	if result.Detected {
		t.Errorf("Expected no detection on uniform image, got confidence %v", result.Confidence)
	}
}

func TestGeneralDetector_EdgeDensityRescue(t *testing.T) {
	// Many small scattered squares: every individual contour is below the
	// contour area floor, but the frame's overall edge density is high.
	img := createTestImage(200, 200, color.Gray{Y: 30})
	for by := 10; by < 190; by += 20 {
		for bx := 10; bx < 190; bx += 20 {
			fillRect(img, bx, by, bx+9, by+9, color.Gray{Y: 220})
		}
	}

	d := &GeneralDetector{Tuning: DefaultTuning()}
	result := d.Detect(img)

	if !result.Detected {
		t.Fatal("Expected edge-dense frame to be rescued")
	}
	if result.BBox == nil {
		t.Fatal("Expected a bounding box on rescue")
	}
	// The rescue path reports the whole frame at reduced confidence.
	if result.Confidence > 0.5 {
		t.Errorf("Expected reduced rescue confidence, got %v", result.Confidence)
	}
}

func TestGeneralDetector_NilImage(t *testing.T) {
	d := &GeneralDetector{Tuning: DefaultTuning()}
	if d.Detect(nil).Detected {
		t.Error("Expected no detection for nil image")
	}
}
