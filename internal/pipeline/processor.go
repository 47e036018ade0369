package pipeline

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
	"github.com/docuflow/docuflow/internal/extract"
	"github.com/docuflow/docuflow/internal/notify"
	"github.com/docuflow/docuflow/internal/validate"
)

// Config holds coordinator thresholds and concurrency limits.
type Config struct {
	Tier constants.ServiceTier
	// MaxWorkers bounds concurrent document runs in a batch. Default 2.
	MaxWorkers int
	// MaxRecognition caps in-flight recognition calls independently of
	// document concurrency; the OCR engine is a throughput-limited
	// external resource. Default 2.
	MaxRecognition int64
	// DocumentTimeout is advisory: overrunning it records a medium-severity
	// ProcessingError but does not abort the document or the batch.
	DocumentTimeout time.Duration
}

func (c Config) withDefaults() Config {
	if c.Tier == "" {
		c.Tier = constants.TierStandard
	}
	if c.MaxWorkers <= 0 {
		c.MaxWorkers = 2
	}
	if c.MaxRecognition <= 0 {
		c.MaxRecognition = 2
	}
	return c
}

// Coordinator sequences the pipeline stages for each document, applies the
// per-stage error policy, and aggregates metrics. Stages for one document
// run strictly in order; different documents run concurrently up to the
// configured limits.
type Coordinator struct {
	text       extract.TextExtractor
	structured extract.StructuredExtractor
	validator  *validate.Engine
	sink       notify.Sink
	logger     *slog.Logger
	cfg        Config

	recSem *semaphore.Weighted
}

func NewCoordinator(
	text extract.TextExtractor,
	structured extract.StructuredExtractor,
	validator *validate.Engine,
	sink notify.Sink,
	logger *slog.Logger,
	cfg Config,
) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = notify.NopSink{}
	}
	cfg = cfg.withDefaults()
	return &Coordinator{
		text:       text,
		structured: structured,
		validator:  validator,
		sink:       sink,
		logger:     logger,
		cfg:        cfg,
		recSem:     semaphore.NewWeighted(cfg.MaxRecognition),
	}
}

// ProcessDocument drives one document through the pipeline, mutating state
// at each stage. It always returns exactly one result for the document;
// stage failures are converted into a ProcessingError and a FAILED status,
// never a panic or a batch abort.
func (c *Coordinator) ProcessDocument(ctx context.Context, state *WorkflowState, doc entity.Document) entity.PipelineResult {
	start := time.Now()
	state.AddDocument(doc)

	res := c.run(ctx, state, doc)
	res.Duration = time.Since(start)

	if c.cfg.DocumentTimeout > 0 && res.Duration > c.cfg.DocumentTimeout {
		state.RecordError(entity.ProcessingError{
			DocumentID: doc.ID,
			Stage:      constants.StagePipeline,
			Message:    "document processing exceeded the configured ceiling",
			Severity:   entity.ErrorMedium,
			Timestamp:  time.Now().UTC(),
			Context:    map[string]string{"elapsed": res.Duration.String(), "ceiling": c.cfg.DocumentTimeout.String()},
		})
	}

	c.sink.Terminal(ctx, notify.TerminalEvent{
		DocumentID: doc.ID,
		Status:     res.Status,
		Confidence: res.Confidence,
	})
	return res
}

func (c *Coordinator) run(ctx context.Context, state *WorkflowState, doc entity.Document) entity.PipelineResult {
	if doc.Format() == "" {
		return c.fail(state, doc, constants.StageTextExtraction, common.ErrUnsupportedFileType, entity.ErrorHigh)
	}

	// Stage 1: text extraction.
	if err := ctx.Err(); err != nil {
		return c.cancelled(state, doc, err)
	}
	state.withDoc(doc.ID, func(sl *docSlot) { sl.status = constants.DocStatusOCRActive })
	c.progress(ctx, doc, constants.StageTextExtraction, 10)

	ocrRes, err := c.recognize(ctx, doc, false)
	if err != nil {
		return c.fail(state, doc, constants.StageTextExtraction, err, severityFor(err))
	}
	state.withDoc(doc.ID, func(sl *docSlot) {
		sl.ocr = &ocrRes
		sl.status = constants.DocStatusOCRDone
	})
	c.progress(ctx, doc, constants.StageTextExtraction, 30)

	// Stage 2: quality assessment (pure).
	assessment := Assess(ocrRes)
	state.withDoc(doc.ID, func(sl *docSlot) { sl.assessment = &assessment })
	c.progress(ctx, doc, constants.StageQualityAssessment, 40)

	// Stage 3: optional enhancement. One retry per document per run; a tier
	// that disallows it is a policy gate, not an error path.
	if assessment.NeedsEnhancement && c.cfg.Tier.AllowsEnhancement() {
		if err := ctx.Err(); err != nil {
			return c.cancelled(state, doc, err)
		}
		if rerun, enhErr := c.recognize(ctx, doc, true); enhErr != nil {
			// Keep the original result; the re-run failing must not lose work.
			state.RecordError(entity.ProcessingError{
				DocumentID: doc.ID,
				Stage:      constants.StageEnhancement,
				Message:    enhErr.Error(),
				Severity:   entity.ErrorLow,
				Timestamp:  time.Now().UTC(),
			})
		} else {
			merged := mergeEnhanced(ocrRes, rerun, c.cfg.Tier)
			ocrRes = merged
			state.withDoc(doc.ID, func(sl *docSlot) { sl.ocr = &merged })
		}
		c.progress(ctx, doc, constants.StageEnhancement, 50)
	}

	// Stage 4: validation of the recognition result.
	if err := ctx.Err(); err != nil {
		return c.cancelled(state, doc, err)
	}
	vres := c.validator.ValidateOCR(doc, ocrRes)
	state.withDoc(doc.ID, func(sl *docSlot) {
		sl.validation = &vres
		sl.status = constants.DocStatusValidated
	})
	c.progress(ctx, doc, constants.StageValidation, 70)

	if !vres.IsValid {
		// Normal outcome, not an error: the document stops at VALIDATED and
		// is handed to manual review.
		return entity.PipelineResult{
			DocumentID: doc.ID,
			Status:     constants.DocStatusValidated,
			Confidence: vres.Score,
			Validation: &vres,
		}
	}

	// Stage 5: structured extraction, then final validation of the data.
	if err := ctx.Err(); err != nil {
		return c.cancelled(state, doc, err)
	}
	data, err := c.structured.ExtractEntities(ctx, doc, ocrRes)
	if err != nil {
		return c.fail(state, doc, constants.StageStructuredExtraction, common.WrapError(err, "extract entities"), entity.ErrorHigh)
	}
	state.withDoc(doc.ID, func(sl *docSlot) {
		sl.extracted = &data
		sl.status = constants.DocStatusExtracted
	})
	c.progress(ctx, doc, constants.StageStructuredExtraction, 90)

	final, err := c.validator.ValidateExtracted(doc, data)
	if err != nil {
		return c.fail(state, doc, constants.StageValidation, err, entity.ErrorHigh)
	}
	state.withDoc(doc.ID, func(sl *docSlot) {
		sl.validation = &final
		sl.status = constants.DocStatusCompleted
	})
	c.progress(ctx, doc, constants.StageStructuredExtraction, 100)

	return entity.PipelineResult{
		DocumentID: doc.ID,
		Status:     constants.DocStatusCompleted,
		Confidence: final.Score,
		Extracted:  &data,
		Validation: &final,
	}
}

// recognize runs a recognition pass under the in-flight cap.
func (c *Coordinator) recognize(ctx context.Context, doc entity.Document, enhanced bool) (entity.OCRResult, error) {
	if err := c.recSem.Acquire(ctx, 1); err != nil {
		return entity.OCRResult{}, err
	}
	defer c.recSem.Release(1)
	if enhanced {
		return c.text.Enhance(ctx, doc)
	}
	return c.text.Extract(ctx, doc)
}

func (c *Coordinator) progress(ctx context.Context, doc entity.Document, stage string, percent int) {
	c.sink.Progress(ctx, notify.ProgressEvent{
		DocumentID:      doc.ID,
		Stage:           stage,
		PercentComplete: percent,
	})
}

// fail records the error on state, marks the document FAILED, and returns
// the per-document result. Sibling documents are unaffected.
func (c *Coordinator) fail(state *WorkflowState, doc entity.Document, stage string, err error, sev entity.ErrorSeverity) entity.PipelineResult {
	perr := entity.ProcessingError{
		DocumentID: doc.ID,
		Stage:      stage,
		Message:    err.Error(),
		Severity:   sev,
		Timestamp:  time.Now().UTC(),
	}
	state.RecordError(perr)
	state.withDoc(doc.ID, func(sl *docSlot) { sl.status = constants.DocStatusFailed })
	c.logger.Error("stage failed",
		"document_id", doc.ID,
		"stage", stage,
		"err", err,
	)
	return entity.PipelineResult{
		DocumentID: doc.ID,
		Status:     constants.DocStatusFailed,
		Err:        &perr,
	}
}

// cancelled stops the run between stages. Partial results already committed
// to state are retained, not rolled back.
func (c *Coordinator) cancelled(state *WorkflowState, doc entity.Document, cause error) entity.PipelineResult {
	status := constants.DocStatusPending
	state.withDoc(doc.ID, func(sl *docSlot) { status = sl.status })
	perr := entity.ProcessingError{
		DocumentID: doc.ID,
		Stage:      constants.StagePipeline,
		Message:    cause.Error(),
		Severity:   entity.ErrorMedium,
		Timestamp:  time.Now().UTC(),
		Context:    map[string]string{"cancelled": "true"},
	}
	state.RecordError(perr)
	return entity.PipelineResult{
		DocumentID: doc.ID,
		Status:     status,
		Err:        &perr,
	}
}

func severityFor(err error) entity.ErrorSeverity {
	switch {
	case errors.Is(err, common.ErrUnsupportedFileType):
		return entity.ErrorHigh
	case errors.Is(err, common.ErrSourceLoadFailed):
		return entity.ErrorHigh
	case errors.Is(err, common.ErrRecognitionFailed):
		return entity.ErrorMedium
	default:
		return entity.ErrorMedium
	}
}
