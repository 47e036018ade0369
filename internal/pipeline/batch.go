package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
	"github.com/docuflow/docuflow/internal/validate"
)

// ProcessBatch runs the pipeline over a batch of documents with bounded
// concurrency. The output preserves input order and always holds one result
// per input document; one document failing never discards the others.
func (c *Coordinator) ProcessBatch(ctx context.Context, state *WorkflowState, docs []entity.Document) []entity.PipelineResult {
	results := make([]entity.PipelineResult, len(docs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.MaxWorkers)
	for i, doc := range docs {
		g.Go(func() error {
			results[i] = c.ProcessDocument(gctx, state, doc)
			return nil
		})
	}
	// Workers never return errors; failures land in the per-document results.
	_ = g.Wait()

	c.Summarize(state, results)
	return results
}

// Summarize emits the per-stage aggregates, next-step hints, batch quality
// metrics, and categorized transactions after a run. ProcessBatch calls it;
// callers that drive ProcessDocument themselves call it once at the end.
func (c *Coordinator) Summarize(state *WorkflowState, results []entity.PipelineResult) {
	total := len(results)
	if total == 0 {
		return
	}

	errCount := map[string]int{}
	for _, perr := range state.Errors() {
		errCount[perr.Stage]++
	}

	var ocrDone, validated, extracted int
	var confSum float64
	var confN int
	for _, r := range results {
		switch r.Status {
		case constants.DocStatusCompleted:
			ocrDone++
			validated++
			extracted++
		case constants.DocStatusExtracted:
			ocrDone++
			validated++
			extracted++
		case constants.DocStatusValidated:
			ocrDone++
			validated++
		case constants.DocStatusOCRDone:
			ocrDone++
		}
		if r.Confidence > 0 {
			confSum += float64(r.Confidence)
			confN++
		}
	}

	var avg float32
	if confN > 0 {
		avg = float32(confSum / float64(confN))
	}

	state.SetStageSummary(entity.StageSummary{
		Stage:             constants.StageTextExtraction,
		ProcessedCount:    ocrDone,
		TotalCount:        total,
		ErrorCount:        errCount[constants.StageTextExtraction],
		AverageConfidence: avg,
		NextSteps:         nextStepsFor(avg),
	})
	state.SetStageSummary(entity.StageSummary{
		Stage:             constants.StageValidation,
		ProcessedCount:    validated,
		TotalCount:        total,
		ErrorCount:        errCount[constants.StageValidation],
		AverageConfidence: avg,
		NextSteps:         nextStepsFor(avg),
	})
	state.SetStageSummary(entity.StageSummary{
		Stage:             constants.StageStructuredExtraction,
		ProcessedCount:    extracted,
		TotalCount:        total,
		ErrorCount:        errCount[constants.StageStructuredExtraction],
		AverageConfidence: avg,
	})

	vres := state.ValidationResults()
	checks := validate.ChecksFromResults(vres)
	metrics := validate.AggregateQuality(vres, checks)
	state.SetQualityMetrics(metrics, validate.ReviewStatusFor(metrics.OverallScore))
	state.SetTransactions(categorizeTransactions(state))
}

// nextStepsFor hints downstream orchestration based on batch quality.
func nextStepsFor(avgConfidence float32) []string {
	if avgConfidence >= enhancementThreshold {
		return []string{"extract_structured_data"}
	}
	return []string{"manual_verification_required"}
}
