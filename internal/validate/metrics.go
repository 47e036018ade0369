package validate

import (
	"errors"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docuflow/docuflow/internal/entity"
)

// Timeliness has no per-document signal in a local pipeline; batches are
// processed as they arrive, so it is reported as a constant.
const timelinessScore = 0.9

func asValidationError(err error, target **jsonschema.ValidationError) bool {
	return errors.As(err, target)
}

// AggregateQuality computes batch quality metrics from validation results
// and quality checks. Metrics are recomputed from scratch on every call.
func AggregateQuality(results []entity.ValidationResult, checks []entity.QualityCheck) entity.QualityMetrics {
	m := entity.QualityMetrics{TimelinessScore: timelinessScore}

	if len(results) > 0 {
		var sum float64
		for _, r := range results {
			sum += float64(r.Score)
		}
		m.OverallScore = float32(sum / float64(len(results)))
	}

	m.AccuracyScore = meanByKind(checks, entity.CheckAccuracy)
	m.CompletenessScore = meanByKind(checks, entity.CheckCompleteness)
	m.ConsistencyScore = meanByKind(checks, entity.CheckConsistency)
	return m
}

func meanByKind(checks []entity.QualityCheck, kind entity.QualityCheckKind) float32 {
	var sum float64
	var n int
	for _, c := range checks {
		if c.Kind != kind {
			continue
		}
		sum += float64(c.Score)
		n++
	}
	if n == 0 {
		return 0
	}
	return float32(sum / float64(n))
}

// ReviewStatusFor derives the batch review status from the overall score.
func ReviewStatusFor(overallScore float32) entity.ReviewStatus {
	switch {
	case overallScore >= 0.95:
		return entity.ReviewApproved
	case overallScore >= 0.8:
		return entity.ReviewInProgress
	default:
		return entity.ReviewNeedsRevision
	}
}

// ChecksFromResults derives per-kind quality checks from a batch of
// validation results, so metric aggregation has inputs even when no
// external checks were recorded.
func ChecksFromResults(results []entity.ValidationResult) []entity.QualityCheck {
	checks := make([]entity.QualityCheck, 0, len(results)*2)
	for _, r := range results {
		checks = append(checks, entity.QualityCheck{Kind: entity.CheckAccuracy, Score: r.Score})

		complete := float32(1.0)
		if len(r.Issues) > 0 {
			complete = 1.0 - float32(len(r.Issues))*0.2
			if complete < 0 {
				complete = 0
			}
		}
		checks = append(checks, entity.QualityCheck{Kind: entity.CheckCompleteness, Score: complete})

		consistent := float32(1.0)
		if !r.IsValid {
			consistent = 0.5
		}
		checks = append(checks, entity.QualityCheck{Kind: entity.CheckConsistency, Score: consistent})
	}
	return checks
}
