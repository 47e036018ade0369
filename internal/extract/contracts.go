package extract

import (
	"context"

	"github.com/docuflow/docuflow/internal/entity"
)

// TextExtractor is stage 1: document -> raw text. An Enhance re-run uses a
// higher-cost recognition configuration; implementations may return the same
// result if they cannot do better.
type TextExtractor interface {
	Extract(ctx context.Context, doc entity.Document) (entity.OCRResult, error)
	Enhance(ctx context.Context, doc entity.Document) (entity.OCRResult, error)
}

// StructuredExtractor is stage 2: raw text -> typed financial entities.
// Empty input must yield an empty ExtractedData with zero confidence, not
// an error.
type StructuredExtractor interface {
	ExtractEntities(ctx context.Context, doc entity.Document, ocr entity.OCRResult) (entity.ExtractedData, error)
}
