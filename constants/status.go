package constants

// DocStatus is the canonical per-document status within a pipeline run.
type DocStatus string

// Stable values (persisted as these exact strings).
const (
	DocStatusPending   DocStatus = "PENDING"     // not yet picked up
	DocStatusOCRActive DocStatus = "OCR_RUNNING" // text extraction in progress
	DocStatusOCRDone   DocStatus = "OCR_OK"      // text extracted (possibly enhanced)
	DocStatusValidated DocStatus = "VALIDATED"   // validation completed
	DocStatusExtracted DocStatus = "EXTRACTED"   // structured data extracted
	DocStatusCompleted DocStatus = "COMPLETED"   // terminal success
	DocStatusFailed    DocStatus = "FAILED"      // terminal failure
)

// Stage identifiers used in progress reporting and error records.
const (
	StageTextExtraction       = "text_extraction"
	StageQualityAssessment    = "quality_assessment"
	StageEnhancement          = "enhancement"
	StageValidation           = "validation"
	StageStructuredExtraction = "structured_extraction"

	// StagePipeline attributes errors that describe a whole document run
	// rather than a single stage (advisory timeouts, cancellation, dropped
	// jobs). Not part of Stages: it is never executed.
	StagePipeline = "pipeline"
)

// Stages lists the pipeline stages in execution order.
var Stages = []string{
	StageTextExtraction,
	StageQualityAssessment,
	StageEnhancement,
	StageValidation,
	StageStructuredExtraction,
}
