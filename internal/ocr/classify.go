package ocr

import (
	"strings"

	"github.com/streamq/doc-scanner/internal/detect"
)

// Keyword vocabularies for text-based type classification. Polish terms are
// kept alongside English ones; the scanner's primary deployment processes
// Polish receipts and invoices.
var receiptKeywords = []string{
	"paragon", "fiskalny", "nip", "ptu", "vat", "suma", "razem", "gotówka",
	"karta", "reszta", "sprzedaż", "kasjer", "receipt", "total", "subtotal",
	"tax", "change", "cash", "card", "payment", "qty", "price",
}

var invoiceKeywords = []string{
	"faktura", "vat", "nip", "netto", "brutto", "nabywca", "sprzedawca",
	"termin płatności", "data wystawienia", "invoice", "buyer", "seller",
	"due date", "issue date", "amount", "quantity", "unit price",
}

// classifyNormalizer: hitting this many keywords maps to full confidence.
const keywordSaturation = 5

// classifyFloor is the minimum normalized score for a definite type call.
const classifyFloor = 0.3

// ClassifyText assigns a document type from an OCR transcript by counting
// keyword hits per vocabulary.
//
// Scores are normalized so keywordSaturation hits saturate at confidence
// 1.0. A clear winner above the floor takes its type; any hits at all fall
// back to the generic type; an empty or keyword-free transcript is unknown.
func ClassifyText(text string) (detect.DocumentType, float64) {
	if text == "" {
		return detect.TypeUnknown, 0
	}
	lower := strings.ToLower(text)

	receiptScore := countHits(lower, receiptKeywords)
	invoiceScore := countHits(lower, invoiceKeywords)

	receiptConf := normalize(receiptScore)
	invoiceConf := normalize(invoiceScore)

	switch {
	case receiptConf > invoiceConf && receiptConf > classifyFloor:
		return detect.TypeReceipt, receiptConf
	case invoiceConf > receiptConf && invoiceConf > classifyFloor:
		return detect.TypeInvoice, invoiceConf
	case receiptConf > 0 || invoiceConf > 0:
		if invoiceConf > receiptConf {
			return detect.TypeGeneric, invoiceConf
		}
		return detect.TypeGeneric, receiptConf
	}
	return detect.TypeUnknown, 0
}

func countHits(text string, keywords []string) int {
	hits := 0
	for _, kw := range keywords {
		if strings.Contains(text, kw) {
			hits++
		}
	}
	return hits
}

func normalize(hits int) float64 {
	conf := float64(hits) / keywordSaturation
	if conf > 1 {
		conf = 1
	}
	return conf
}
