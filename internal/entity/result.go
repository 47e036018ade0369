package entity

import (
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
)

// ErrorSeverity grades processing errors recorded on workflow state.
type ErrorSeverity string

const (
	ErrorLow      ErrorSeverity = "low"
	ErrorMedium   ErrorSeverity = "medium"
	ErrorHigh     ErrorSeverity = "high"
	ErrorCritical ErrorSeverity = "critical"
)

// ProcessingError is one stage-local failure attached to workflow state.
// It never aborts sibling documents in a batch.
type ProcessingError struct {
	DocumentID uuid.UUID         `json:"document_id"`
	Stage      string            `json:"stage"`
	Message    string            `json:"message"`
	Severity   ErrorSeverity     `json:"severity"`
	Timestamp  time.Time         `json:"timestamp"`
	Context    map[string]string `json:"context,omitempty"`
}

// PipelineResult is the per-document outcome of a pipeline run. Every input
// document gets exactly one, success or failure.
type PipelineResult struct {
	DocumentID uuid.UUID           `json:"document_id"`
	Status     constants.DocStatus `json:"status"`
	Confidence float32             `json:"confidence"`
	Extracted  *ExtractedData      `json:"extracted,omitempty"`
	Validation *ValidationResult   `json:"validation,omitempty"`
	Err        *ProcessingError    `json:"error,omitempty"`
	Duration   time.Duration       `json:"duration"`
}

// Succeeded reports whether the run reached the terminal COMPLETED state.
func (r PipelineResult) Succeeded() bool {
	return r.Status == constants.DocStatusCompleted
}

// StageSummary is the aggregate emitted per stage after a batch.
type StageSummary struct {
	Stage             string   `json:"stage"`
	ProcessedCount    int      `json:"processed_count"`
	TotalCount        int      `json:"total_count"`
	ErrorCount        int      `json:"error_count"`
	AverageConfidence float32  `json:"average_confidence"`
	NextSteps         []string `json:"next_steps,omitempty"`
}
