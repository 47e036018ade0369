package pipeline

import "github.com/docuflow/docuflow/internal/entity"

// enhancementThreshold is the confidence below which a recognition result
// is worth re-running at a higher cost.
const enhancementThreshold = 0.8

// Assess scores a recognition result and decides whether enhancement is
// warranted. Pure function: no I/O, deterministic given its input.
//
// HasStructuralIssues is reserved for layout-consistency checks and stays
// false until those land.
func Assess(res entity.OCRResult) entity.QualityAssessment {
	return entity.QualityAssessment{
		Confidence:          res.Confidence,
		NeedsEnhancement:    res.Confidence < enhancementThreshold,
		HasStructuralIssues: false,
	}
}
