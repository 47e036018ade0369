// Package structured parses typed financial entities out of recognized text.
//
// Extraction is deterministic: fixed regular expressions and date layouts,
// no model calls. Per-entity confidences are assigned from the pattern that
// matched, and the overall extraction confidence is derived once at
// construction of the ExtractedData.
package structured

import (
	"context"
	"log/slog"
	"strings"

	"github.com/docuflow/docuflow/internal/entity"
)

type Extractor struct {
	logger *slog.Logger
}

func NewExtractor(logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{logger: logger}
}

// ExtractEntities parses amounts, dates and named entities out of the OCR
// text. Empty input yields an empty ExtractedData with zero confidence; it
// is not an error.
func (x *Extractor) ExtractEntities(_ context.Context, doc entity.Document, ocr entity.OCRResult) (entity.ExtractedData, error) {
	text := strings.TrimSpace(ocr.Text)
	if text == "" {
		return entity.NewExtractedData(doc.ID, ocr.Method, nil, nil, nil, nil), nil
	}

	amounts := extractAmounts(text)
	dates := extractDates(text)
	names := extractNames(text)
	accounts := extractAccounts(text)

	data := entity.NewExtractedData(doc.ID, ocr.Method, amounts, dates, names, accounts)
	x.logger.Debug("entities extracted",
		"document_id", doc.ID,
		"amounts", len(amounts),
		"dates", len(dates),
		"names", len(names),
		"accounts", len(accounts),
		"confidence", data.ExtractionConfidence,
	)
	return data, nil
}
