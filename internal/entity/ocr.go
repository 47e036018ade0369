package entity

import (
	"time"

	"github.com/google/uuid"
)

// Region is one recognized text region with its position on the page.
type Region struct {
	Text       string  `json:"text"`
	Page       int     `json:"page"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	Confidence float32 `json:"confidence"`
}

// OCRResult is the outcome of one text-extraction attempt for a document.
// An enhanced re-run produces a new OCRResult that supersedes the original.
type OCRResult struct {
	DocumentID uuid.UUID `json:"document_id"`
	Text       string    `json:"text"`
	Confidence float32   `json:"confidence"`
	Regions    []Region  `json:"regions,omitempty"`
	Pages      int       `json:"pages"`
	Method     string    `json:"method"`
	Language   string    `json:"language,omitempty"`
	Enhanced   bool      `json:"enhanced"`
	CreatedAt  time.Time `json:"created_at"`
}

// QualityAssessment is derived from an OCRResult on demand; never persisted.
type QualityAssessment struct {
	Confidence          float32 `json:"confidence"`
	NeedsEnhancement    bool    `json:"needs_enhancement"`
	HasStructuralIssues bool    `json:"has_structural_issues"`
}
