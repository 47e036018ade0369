package validate

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/common"
	"github.com/docuflow/docuflow/internal/entity"
)

// Config holds thresholds and behavior flags for validation.
type Config struct {
	DefaultThreshold float32 // default 0.70
	// Thresholds overrides the validity threshold per document type.
	Thresholds map[constants.DocumentType]float32
	Tier       constants.ServiceTier
}

// Engine checks extracted data for validity, completeness and consistency.
// A result with IsValid == false is a normal outcome, not an error; the
// error return covers rule-evaluation failures only.
type Engine struct {
	cfg    Config
	schema *jsonschema.Schema
	logger *slog.Logger
}

func NewEngine(cfg Config, logger *slog.Logger) (*Engine, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.DefaultThreshold <= 0 {
		cfg.DefaultThreshold = 0.70
	}
	schema, err := compileSchema()
	if err != nil {
		return nil, err
	}
	return &Engine{cfg: cfg, schema: schema, logger: logger}, nil
}

func (e *Engine) threshold(docType constants.DocumentType) float32 {
	if t, ok := e.cfg.Thresholds[docType]; ok && t > 0 {
		return t
	}
	return e.cfg.DefaultThreshold
}

// ValidateOCR rates a raw recognition result before structured extraction.
// It gates whether extraction is worth running for this document.
func (e *Engine) ValidateOCR(doc entity.Document, ocr entity.OCRResult) entity.ValidationResult {
	res := entity.ValidationResult{
		DocumentID:      doc.ID,
		Score:           ocr.Confidence,
		Issues:          []entity.ValidationIssue{},
		Recommendations: []string{},
		CreatedAt:       time.Now().UTC(),
	}
	if ocr.Text == "" {
		res.Issues = append(res.Issues, entity.ValidationIssue{
			Field:    "text",
			Message:  "no text recognized",
			Severity: entity.SeverityHigh,
		})
		res.Recommendations = append(res.Recommendations, "manual_verification_required")
	}
	res.IsValid = res.Score > e.threshold(doc.DocType) && ocr.Text != ""
	if !res.IsValid && ocr.Text != "" {
		res.Recommendations = append(res.Recommendations, "manual_verification_required")
	}
	return res
}

// ValidateExtracted checks the structured data: schema conformance,
// completeness per document type, and the confidence threshold rule.
// Compliance sub-checks run when the tier permits; they are advisory and
// never affect IsValid.
func (e *Engine) ValidateExtracted(doc entity.Document, data entity.ExtractedData) (entity.ValidationResult, error) {
	res := entity.ValidationResult{
		DocumentID:      doc.ID,
		Score:           data.ExtractionConfidence,
		Issues:          []entity.ValidationIssue{},
		Recommendations: []string{},
		CreatedAt:       time.Now().UTC(),
	}

	if err := e.checkSchema(data); err != nil {
		var vErr *jsonschema.ValidationError
		switch {
		case asValidationError(err, &vErr):
			res.Issues = append(res.Issues, entity.ValidationIssue{
				Field:    "payload",
				Message:  vErr.Error(),
				Severity: entity.SeverityHigh,
			})
		default:
			return res, fmt.Errorf("%w: %v", common.ErrValidationFailed, err)
		}
	}

	e.checkCompleteness(doc, data, &res)

	if e.cfg.Tier.AllowsCompliance() {
		res.Compliance = e.runComplianceChecks(doc, data)
	}

	res.IsValid = res.Score > e.threshold(doc.DocType) && !hasHighSeverity(res.Issues)
	if !res.IsValid {
		res.Recommendations = append(res.Recommendations, "manual_verification_required")
	}
	e.logger.Debug("validation completed",
		"document_id", doc.ID,
		"score", res.Score,
		"is_valid", res.IsValid,
		"issues", len(res.Issues),
	)
	return res, nil
}

// checkSchema round-trips the payload through JSON so the validator sees
// plain decoded types.
func (e *Engine) checkSchema(data entity.ExtractedData) error {
	raw, err := json.Marshal(data.Payload())
	if err != nil {
		return err
	}
	var decoded any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	return e.schema.Validate(decoded)
}

func (e *Engine) checkCompleteness(doc entity.Document, data entity.ExtractedData, res *entity.ValidationResult) {
	if len(data.Amounts) == 0 {
		res.Issues = append(res.Issues, entity.ValidationIssue{
			Field:    "amounts",
			Message:  "no monetary amounts found",
			Severity: completenessSeverity(doc.DocType),
		})
		res.Recommendations = append(res.Recommendations, "verify_totals_manually")
	}
	if len(data.Dates) == 0 {
		res.Issues = append(res.Issues, entity.ValidationIssue{
			Field:    "dates",
			Message:  "no transaction date found",
			Severity: entity.SeverityMedium,
		})
		res.Recommendations = append(res.Recommendations, "confirm_document_date")
	}
	if len(data.Names) == 0 {
		res.Issues = append(res.Issues, entity.ValidationIssue{
			Field:    "names",
			Message:  "no merchant or counterparty identified",
			Severity: entity.SeverityLow,
		})
	}
}

// Invoices, receipts and statements are money documents; a missing amount
// is a harder failure there than on a contract.
func completenessSeverity(dt constants.DocumentType) entity.IssueSeverity {
	switch dt {
	case constants.Invoice, constants.Receipt, constants.Statement:
		return entity.SeverityHigh
	default:
		return entity.SeverityLow
	}
}

func hasHighSeverity(issues []entity.ValidationIssue) bool {
	for _, is := range issues {
		if is.Severity == entity.SeverityHigh {
			return true
		}
	}
	return false
}
