package ocr

import (
	"testing"

	"github.com/streamq/doc-scanner/internal/detect"
)

func TestClassifyText_Receipt(t *testing.T) {
	text := "PARAGON FISKALNY\nSUMA PLN 23.00\nGOTÓWKA\nKASJER nr 4"

	docType, confidence := ClassifyText(text)
	if docType != detect.TypeReceipt {
		t.Errorf("Expected receipt, got %s", docType)
	}
	if confidence < 0.8 {
		t.Errorf("Expected high confidence, got %v", confidence)
	}
}

func TestClassifyText_Invoice(t *testing.T) {
	text := "FAKTURA VAT 12/2026\nNABYWCA: Firma A\nSPRZEDAWCA: Firma B\nNETTO 100.00 BRUTTO 123.00"

	docType, confidence := ClassifyText(text)
	if docType != detect.TypeInvoice {
		t.Errorf("Expected invoice, got %s", docType)
	}
	if confidence < 0.8 {
		t.Errorf("Expected high confidence, got %v", confidence)
	}
}

func TestClassifyText_EnglishReceipt(t *testing.T) {
	text := "RECEIPT\nSUBTOTAL 10.00\nTAX 0.80\nTOTAL 10.80\nCASH"

	docType, _ := ClassifyText(text)
	if docType != detect.TypeReceipt {
		t.Errorf("Expected receipt from English transcript, got %s", docType)
	}
}

func TestClassifyText_AmbiguousFallsBackToGeneric(t *testing.T) {
	// One shared keyword: both vocabularies tie below the floor.
	docType, confidence := ClassifyText("VAT")
	if docType != detect.TypeGeneric {
		t.Errorf("Expected generic for weak evidence, got %s", docType)
	}
	if confidence <= 0 || confidence > 0.3 {
		t.Errorf("Expected weak confidence, got %v", confidence)
	}
}

func TestClassifyText_NoKeywords(t *testing.T) {
	docType, confidence := ClassifyText("lorem ipsum dolor sit amet")
	if docType != detect.TypeUnknown || confidence != 0 {
		t.Errorf("Expected unknown at zero confidence, got %s at %v", docType, confidence)
	}
}

func TestClassifyText_Empty(t *testing.T) {
	docType, confidence := ClassifyText("")
	if docType != detect.TypeUnknown || confidence != 0 {
		t.Errorf("Expected unknown for empty transcript, got %s at %v", docType, confidence)
	}
}

func TestClassifyText_CaseInsensitive(t *testing.T) {
	upper, upperConf := ClassifyText("PARAGON FISKALNY SUMA KASJER GOTÓWKA")
	lower, lowerConf := ClassifyText("paragon fiskalny suma kasjer gotówka")

	if upper != lower || upperConf != lowerConf {
		t.Errorf("Expected case-insensitive match: %s/%v vs %s/%v", upper, upperConf, lower, lowerConf)
	}
}
