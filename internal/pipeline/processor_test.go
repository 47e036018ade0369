package pipeline

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
	"github.com/docuflow/docuflow/internal/extract/structured"
	"github.com/docuflow/docuflow/internal/validate"
)

const goodText = "Acme Widgets Inc\n" +
	"Invoice date: 2024-03-15\n" +
	"Account #: 12345678\n" +
	"Total due: $1,234.56\n"

// stubText serves canned recognition results per document.
type stubText struct {
	results map[uuid.UUID]entity.OCRResult
	errs    map[uuid.UUID]error

	enhanceResults map[uuid.UUID]entity.OCRResult
	enhanceErr     error
	enhanceCalls   int
}

func (s *stubText) Extract(_ context.Context, doc entity.Document) (entity.OCRResult, error) {
	if err := s.errs[doc.ID]; err != nil {
		return entity.OCRResult{}, err
	}
	res := s.results[doc.ID]
	res.DocumentID = doc.ID
	return res, nil
}

func (s *stubText) Enhance(_ context.Context, doc entity.Document) (entity.OCRResult, error) {
	s.enhanceCalls++
	if s.enhanceErr != nil {
		return entity.OCRResult{}, s.enhanceErr
	}
	res := s.enhanceResults[doc.ID]
	res.DocumentID = doc.ID
	return res, nil
}

func newTestCoordinator(t *testing.T, text *stubText, cfg Config) *Coordinator {
	t.Helper()
	validator, err := validate.NewEngine(validate.Config{Tier: cfg.Tier}, nil)
	if err != nil {
		t.Fatalf("validate.NewEngine: %v", err)
	}
	return NewCoordinator(text, structured.NewExtractor(nil), validator, nil, nil, cfg)
}

func TestProcessDocumentCompletes(t *testing.T) {
	doc := entity.NewDocument("/in/invoice.pdf", 1024, constants.Invoice)
	text := &stubText{results: map[uuid.UUID]entity.OCRResult{
		doc.ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text", Pages: 1},
	}}
	c := newTestCoordinator(t, text, Config{})
	state := NewWorkflowState()

	res := c.ProcessDocument(context.Background(), state, doc)

	if !res.Succeeded() {
		t.Fatalf("status = %s, want COMPLETED (err: %+v)", res.Status, res.Err)
	}
	if res.Extracted == nil || res.Extracted.Empty() {
		t.Fatal("expected structured data on a successful run")
	}
	if st, _ := state.Status(doc.ID); st != constants.DocStatusCompleted {
		t.Fatalf("state status = %s, want COMPLETED", st)
	}
	if _, ok := state.ExtractedData(doc.ID); !ok {
		t.Fatal("extracted data missing from state")
	}
}

func TestProcessDocumentStopsAtValidatedOnLowConfidence(t *testing.T) {
	doc := entity.NewDocument("/in/blurry.png", 512, constants.Receipt)
	text := &stubText{results: map[uuid.UUID]entity.OCRResult{
		doc.ID: {Text: "noise", Confidence: 0.4, Method: "image-ocr"},
	}}
	// Standard tier: enhancement is skipped even though assessment wants it.
	c := newTestCoordinator(t, text, Config{Tier: constants.TierStandard})
	state := NewWorkflowState()

	res := c.ProcessDocument(context.Background(), state, doc)

	if res.Status != constants.DocStatusValidated {
		t.Fatalf("status = %s, want VALIDATED", res.Status)
	}
	if res.Err != nil {
		t.Fatalf("low confidence is a normal outcome, got error %+v", res.Err)
	}
	if text.enhanceCalls != 0 {
		t.Fatalf("enhanceCalls = %d, want 0 on standard tier", text.enhanceCalls)
	}
	if res.Validation == nil || res.Validation.IsValid {
		t.Fatal("expected an invalid validation result")
	}
}

func TestProcessDocumentEnhancementRaisesConfidence(t *testing.T) {
	doc := entity.NewDocument("/in/scan.png", 512, constants.Invoice)
	text := &stubText{
		results: map[uuid.UUID]entity.OCRResult{
			doc.ID: {Text: goodText, Confidence: 0.5, Method: "image-ocr"},
		},
		enhanceResults: map[uuid.UUID]entity.OCRResult{
			doc.ID: {Text: goodText, Confidence: 0.95, Method: "image-ocr"},
		},
	}
	c := newTestCoordinator(t, text, Config{Tier: constants.TierAdvanced})
	state := NewWorkflowState()

	res := c.ProcessDocument(context.Background(), state, doc)

	if text.enhanceCalls != 1 {
		t.Fatalf("enhanceCalls = %d, want 1", text.enhanceCalls)
	}
	ocrRes, ok := state.OCRResult(doc.ID)
	if !ok {
		t.Fatal("missing OCR result in state")
	}
	// 0.5 plus the advanced-tier bonus of 0.10; the 0.95 re-run claim is capped.
	if !approx(ocrRes.Confidence, 0.60) {
		t.Fatalf("merged confidence = %v, want 0.60", ocrRes.Confidence)
	}
	if !ocrRes.Enhanced {
		t.Fatal("Enhanced flag not set on merged result")
	}
	if res.Status != constants.DocStatusValidated {
		t.Fatalf("status = %s, want VALIDATED below the validity threshold", res.Status)
	}
}

func TestProcessDocumentEnhancementFailureKeepsOriginal(t *testing.T) {
	doc := entity.NewDocument("/in/scan.png", 512, constants.Invoice)
	text := &stubText{
		results: map[uuid.UUID]entity.OCRResult{
			doc.ID: {Text: goodText, Confidence: 0.75, Method: "image-ocr"},
		},
		enhanceErr: fmt.Errorf("%w: tesseract crashed", common.ErrRecognitionFailed),
	}
	c := newTestCoordinator(t, text, Config{Tier: constants.TierAdvanced})
	state := NewWorkflowState()

	res := c.ProcessDocument(context.Background(), state, doc)

	if res.Status != constants.DocStatusCompleted {
		t.Fatalf("status = %s, want COMPLETED from the original result", res.Status)
	}
	ocrRes, _ := state.OCRResult(doc.ID)
	if !approx(ocrRes.Confidence, 0.75) {
		t.Fatalf("confidence = %v, want the original 0.75", ocrRes.Confidence)
	}
	errs := state.Errors()
	if len(errs) != 1 || errs[0].Severity != entity.ErrorLow {
		t.Fatalf("errors = %+v, want one low-severity enhancement error", errs)
	}
}

func TestProcessDocumentUnsupportedFormat(t *testing.T) {
	doc := entity.NewDocument("/in/report.docx", 1024, constants.OtherDoc)
	c := newTestCoordinator(t, &stubText{}, Config{})
	state := NewWorkflowState()

	res := c.ProcessDocument(context.Background(), state, doc)

	if res.Status != constants.DocStatusFailed {
		t.Fatalf("status = %s, want FAILED", res.Status)
	}
	if res.Err == nil || res.Err.Severity != entity.ErrorHigh {
		t.Fatalf("err = %+v, want a high-severity error", res.Err)
	}
}

func TestProcessBatchIsolatesFailures(t *testing.T) {
	docs := []entity.Document{
		entity.NewDocument("/in/a.pdf", 100, constants.Invoice),
		entity.NewDocument("/in/corrupt.pdf", 100, constants.Invoice),
		entity.NewDocument("/in/c.pdf", 100, constants.Invoice),
	}
	text := &stubText{
		results: map[uuid.UUID]entity.OCRResult{
			docs[0].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
			docs[2].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
		},
		errs: map[uuid.UUID]error{
			docs[1].ID: fmt.Errorf("%w: truncated file", common.ErrSourceLoadFailed),
		},
	}
	c := newTestCoordinator(t, text, Config{MaxWorkers: 2})
	state := NewWorkflowState()

	results := c.ProcessBatch(context.Background(), state, docs)

	if len(results) != len(docs) {
		t.Fatalf("results = %d, want one per document (%d)", len(results), len(docs))
	}
	for i, r := range results {
		if r.DocumentID != docs[i].ID {
			t.Fatalf("results[%d] is for %s, want input order preserved", i, r.DocumentID)
		}
	}
	if !results[0].Succeeded() || !results[2].Succeeded() {
		t.Fatalf("sibling documents must not be affected: %+v / %+v", results[0], results[2])
	}
	if results[1].Status != constants.DocStatusFailed {
		t.Fatalf("corrupt doc status = %s, want FAILED", results[1].Status)
	}
	if results[1].Err == nil || results[1].Err.Stage != constants.StageTextExtraction {
		t.Fatalf("corrupt doc err = %+v, want a text_extraction failure", results[1].Err)
	}
}

func TestProcessBatchSummaries(t *testing.T) {
	docs := []entity.Document{
		entity.NewDocument("/in/a.pdf", 100, constants.Invoice),
		entity.NewDocument("/in/b.pdf", 100, constants.Invoice),
	}
	text := &stubText{results: map[uuid.UUID]entity.OCRResult{
		docs[0].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
		docs[1].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
	}}
	c := newTestCoordinator(t, text, Config{})
	state := NewWorkflowState()

	c.ProcessBatch(context.Background(), state, docs)

	sum, ok := state.StageSummary(constants.StageTextExtraction)
	if !ok {
		t.Fatal("missing text_extraction summary")
	}
	if sum.ProcessedCount != 2 || sum.TotalCount != 2 {
		t.Fatalf("summary = %+v, want 2/2", sum)
	}
	if len(sum.NextSteps) != 1 || sum.NextSteps[0] != "extract_structured_data" {
		t.Fatalf("NextSteps = %v, want extract_structured_data at high confidence", sum.NextSteps)
	}
}

func TestProcessDocumentAdvisoryTimeout(t *testing.T) {
	doc := entity.NewDocument("/in/slow.pdf", 1024, constants.Invoice)
	text := &stubText{results: map[uuid.UUID]entity.OCRResult{
		doc.ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
	}}
	c := newTestCoordinator(t, text, Config{DocumentTimeout: time.Nanosecond})
	state := NewWorkflowState()

	res := c.ProcessDocument(context.Background(), state, doc)

	// The ceiling is advisory: overrunning it must not fail the document.
	if !res.Succeeded() {
		t.Fatalf("status = %s, want COMPLETED despite the overrun", res.Status)
	}
	var found bool
	for _, e := range state.Errors() {
		if e.Stage == constants.StagePipeline && e.Severity == entity.ErrorMedium {
			found = true
		}
		if e.Stage == constants.StageTextExtraction {
			t.Fatalf("timeout misattributed to text_extraction: %+v", e)
		}
	}
	if !found {
		t.Fatalf("errors = %+v, want a medium pipeline-stage overrun record", state.Errors())
	}
}

func TestProcessBatchQualityAggregates(t *testing.T) {
	docs := []entity.Document{
		entity.NewDocument("/in/a.pdf", 100, constants.Invoice),
		entity.NewDocument("/in/b.pdf", 100, constants.Receipt),
	}
	text := &stubText{results: map[uuid.UUID]entity.OCRResult{
		docs[0].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
		docs[1].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
	}}
	c := newTestCoordinator(t, text, Config{})
	state := NewWorkflowState()

	c.ProcessBatch(context.Background(), state, docs)

	metrics, review, ok := state.QualityMetrics()
	if !ok {
		t.Fatal("quality metrics not recorded on state after the batch")
	}
	if metrics.OverallScore <= 0.8 || metrics.OverallScore >= 0.95 {
		t.Fatalf("OverallScore = %v, want the batch mean inside (0.8, 0.95)", metrics.OverallScore)
	}
	if metrics.AccuracyScore <= 0 || metrics.ConsistencyScore <= 0 {
		t.Fatalf("metrics = %+v, want derived accuracy/consistency scores", metrics)
	}
	if review != entity.ReviewInProgress {
		t.Fatalf("review = %s, want in_progress for a mid-band score", review)
	}

	txns := state.Transactions()
	if len(txns) != 2 {
		t.Fatalf("transactions = %d, want one per extracted amount", len(txns))
	}
	byDoc := map[uuid.UUID]entity.Transaction{}
	for _, tx := range txns {
		byDoc[tx.DocumentID] = tx
	}
	if byDoc[docs[0].ID].Category != entity.CategoryPayable {
		t.Fatalf("invoice category = %s, want payable", byDoc[docs[0].ID].Category)
	}
	if byDoc[docs[1].ID].Category != entity.CategoryExpense {
		t.Fatalf("receipt category = %s, want expense", byDoc[docs[1].ID].Category)
	}
	if byDoc[docs[0].ID].Date == nil {
		t.Fatal("invoice transaction should carry the extracted date")
	}
	if byDoc[docs[0].ID].Amount.Value != 1234.56 {
		t.Fatalf("amount = %v, want 1234.56", byDoc[docs[0].ID].Amount.Value)
	}
}

func TestProcessBatchCancelledContext(t *testing.T) {
	docs := []entity.Document{entity.NewDocument("/in/a.pdf", 100, constants.Invoice)}
	text := &stubText{results: map[uuid.UUID]entity.OCRResult{
		docs[0].ID: {Text: goodText, Confidence: 0.9, Method: "pdf-text"},
	}}
	c := newTestCoordinator(t, text, Config{})
	state := NewWorkflowState()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	results := c.ProcessBatch(ctx, state, docs)

	if len(results) != 1 {
		t.Fatalf("results = %d, want 1", len(results))
	}
	if results[0].Err == nil {
		t.Fatal("expected a cancellation error on the result")
	}
}