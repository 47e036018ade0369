package entity

import (
	"time"

	"github.com/google/uuid"
)

// IssueSeverity grades validation issues.
type IssueSeverity string

const (
	SeverityLow    IssueSeverity = "low"
	SeverityMedium IssueSeverity = "medium"
	SeverityHigh   IssueSeverity = "high"
)

// ValidationIssue is one problem found while validating extracted data.
type ValidationIssue struct {
	Field    string        `json:"field"`
	Message  string        `json:"message"`
	Severity IssueSeverity `json:"severity"`
}

// ComplianceStatus is the advisory outcome of a regulation sub-check.
type ComplianceStatus string

const (
	Compliant     ComplianceStatus = "compliant"
	NonCompliant  ComplianceStatus = "non_compliant"
	NeedsReview   ComplianceStatus = "needs_review"
	NotApplicable ComplianceStatus = "not_applicable"
)

// ComplianceCheck records one regulation check. Compliance never blocks
// validity; it is advisory only.
type ComplianceCheck struct {
	RegulationID string           `json:"regulation_id"`
	Status       ComplianceStatus `json:"status"`
	Detail       string           `json:"detail,omitempty"`
}

// ValidationResult is the outcome of validating one document's data.
type ValidationResult struct {
	DocumentID      uuid.UUID         `json:"document_id"`
	IsValid         bool              `json:"is_valid"`
	Score           float32           `json:"score"`
	Issues          []ValidationIssue `json:"issues"`
	Recommendations []string          `json:"recommendations"`
	Compliance      []ComplianceCheck `json:"compliance,omitempty"`
	CreatedAt       time.Time         `json:"created_at"`
}

// QualityCheckKind classifies a quality check for metric aggregation.
type QualityCheckKind string

const (
	CheckAccuracy     QualityCheckKind = "accuracy"
	CheckCompleteness QualityCheckKind = "completeness"
	CheckConsistency  QualityCheckKind = "consistency"
)

// QualityCheck is one scored check contributing to batch quality metrics.
type QualityCheck struct {
	Kind  QualityCheckKind `json:"kind"`
	Score float32          `json:"score"`
}

// QualityMetrics aggregates validation quality over a batch.
type QualityMetrics struct {
	OverallScore      float32 `json:"overall_score"`
	AccuracyScore     float32 `json:"accuracy_score"`
	CompletenessScore float32 `json:"completeness_score"`
	ConsistencyScore  float32 `json:"consistency_score"`
	TimelinessScore   float32 `json:"timeliness_score"`
}

// ReviewStatus is derived from the aggregate overall score.
type ReviewStatus string

const (
	ReviewApproved      ReviewStatus = "approved"
	ReviewInProgress    ReviewStatus = "in_progress"
	ReviewNeedsRevision ReviewStatus = "needs_revision"
)
