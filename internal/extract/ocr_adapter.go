package extract

import (
	"context"
	"time"

	"github.com/docuflow/docuflow/internal/entity"
	"github.com/docuflow/docuflow/internal/ocr"
)

// OCRAdapter bridges the ocr.Engine onto the pipeline's TextExtractor
// contract. The enhanced path runs a second engine built from the
// higher-cost configuration.
type OCRAdapter struct {
	base     *ocr.Engine
	enhanced *ocr.Engine
}

func NewOCRAdapter(e *ocr.Engine) *OCRAdapter {
	return &OCRAdapter{
		base:     e,
		enhanced: ocr.NewEngine(e.Config().EnhancedConfig(), nil),
	}
}

// WithEnhancedEngine overrides the enhanced-pass engine; used by tests.
func (a *OCRAdapter) WithEnhancedEngine(e *ocr.Engine) *OCRAdapter {
	a.enhanced = e
	return a
}

func (a *OCRAdapter) Extract(ctx context.Context, doc entity.Document) (entity.OCRResult, error) {
	return a.run(ctx, a.base, doc, false)
}

func (a *OCRAdapter) Enhance(ctx context.Context, doc entity.Document) (entity.OCRResult, error) {
	return a.run(ctx, a.enhanced, doc, true)
}

func (a *OCRAdapter) run(ctx context.Context, e *ocr.Engine, doc entity.Document, enhanced bool) (entity.OCRResult, error) {
	r, err := e.Extract(ctx, doc.SourcePath)
	if err != nil {
		return entity.OCRResult{DocumentID: doc.ID}, err
	}
	return entity.OCRResult{
		DocumentID: doc.ID,
		Text:       r.Text,
		Confidence: r.Confidence,
		Regions:    regionsFor(r.Regions),
		Pages:      r.Pages,
		Method:     r.Method,
		Language:   r.Language,
		Enhanced:   enhanced,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

func regionsFor(in []ocr.Region) []entity.Region {
	if len(in) == 0 {
		return nil
	}
	out := make([]entity.Region, len(in))
	for i, r := range in {
		out[i] = entity.Region{
			Text:       r.Text,
			Page:       r.Page,
			X:          r.X,
			Y:          r.Y,
			Width:      r.Width,
			Height:     r.Height,
			Confidence: r.Confidence,
		}
	}
	return out
}
