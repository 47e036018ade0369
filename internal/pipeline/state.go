package pipeline

import (
	"sync"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

// docSlot is the per-document slice of workflow state. Entries are
// monotonic: once a stage result exists it is only replaced by a later
// attempt, never cleared.
type docSlot struct {
	mu sync.Mutex

	doc        entity.Document
	status     constants.DocStatus
	ocr        *entity.OCRResult
	assessment *entity.QualityAssessment
	validation *entity.ValidationResult
	extracted  *entity.ExtractedData
}

// WorkflowState is the shared, mutable record for one processing run.
// Access is serialized per document: each document's slot carries its own
// lock, so runs for different documents proceed without coordination while
// a single document's stages stay strictly ordered.
type WorkflowState struct {
	mu    sync.Mutex
	slots map[uuid.UUID]*docSlot
	order []uuid.UUID

	errMu    sync.Mutex
	errors   []entity.ProcessingError
	progress map[string]entity.StageSummary

	qaMu    sync.Mutex
	metrics *entity.QualityMetrics
	review  entity.ReviewStatus
	txns    []entity.Transaction
}

func NewWorkflowState() *WorkflowState {
	return &WorkflowState{
		slots:    make(map[uuid.UUID]*docSlot),
		progress: make(map[string]entity.StageSummary),
	}
}

// AddDocument registers a document with the run in the pending state.
// Re-adding an existing document is a no-op.
func (s *WorkflowState) AddDocument(doc entity.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.slots[doc.ID]; exists {
		return
	}
	s.slots[doc.ID] = &docSlot{doc: doc, status: constants.DocStatusPending}
	s.order = append(s.order, doc.ID)
}

// slot returns the state slice for a document, or nil if unknown.
func (s *WorkflowState) slot(id uuid.UUID) *docSlot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slots[id]
}

// withDoc runs fn with the document's slot locked. Returns false if the
// document is not part of this run.
func (s *WorkflowState) withDoc(id uuid.UUID, fn func(*docSlot)) bool {
	sl := s.slot(id)
	if sl == nil {
		return false
	}
	sl.mu.Lock()
	defer sl.mu.Unlock()
	fn(sl)
	return true
}

// Status returns the current status for a document.
func (s *WorkflowState) Status(id uuid.UUID) (constants.DocStatus, bool) {
	var st constants.DocStatus
	ok := s.withDoc(id, func(sl *docSlot) { st = sl.status })
	return st, ok
}

// OCRResult returns the latest recognition result for a document.
func (s *WorkflowState) OCRResult(id uuid.UUID) (*entity.OCRResult, bool) {
	var res *entity.OCRResult
	ok := s.withDoc(id, func(sl *docSlot) { res = sl.ocr })
	return res, ok && res != nil
}

// ValidationResult returns the latest validation result for a document.
func (s *WorkflowState) ValidationResult(id uuid.UUID) (*entity.ValidationResult, bool) {
	var res *entity.ValidationResult
	ok := s.withDoc(id, func(sl *docSlot) { res = sl.validation })
	return res, ok && res != nil
}

// ExtractedData returns the structured data for a document.
func (s *WorkflowState) ExtractedData(id uuid.UUID) (*entity.ExtractedData, bool) {
	var res *entity.ExtractedData
	ok := s.withDoc(id, func(sl *docSlot) { res = sl.extracted })
	return res, ok && res != nil
}

// RecordError appends a stage-local failure. Failures are per-document and
// never abort siblings.
func (s *WorkflowState) RecordError(perr entity.ProcessingError) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.errors = append(s.errors, perr)
}

// Errors returns a copy of the recorded processing errors.
func (s *WorkflowState) Errors() []entity.ProcessingError {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	out := make([]entity.ProcessingError, len(s.errors))
	copy(out, s.errors)
	return out
}

// SetStageSummary records the aggregate for a stage.
func (s *WorkflowState) SetStageSummary(sum entity.StageSummary) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	s.progress[sum.Stage] = sum
}

// StageSummary returns the recorded aggregate for a stage.
func (s *WorkflowState) StageSummary(stage string) (entity.StageSummary, bool) {
	s.errMu.Lock()
	defer s.errMu.Unlock()
	sum, ok := s.progress[stage]
	return sum, ok
}

// Documents returns the run's documents in registration order.
func (s *WorkflowState) Documents() []entity.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]entity.Document, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.slots[id].doc)
	}
	return out
}

// SetQualityMetrics records the batch quality aggregate and the review
// status derived from it. Each call replaces the previous aggregate.
func (s *WorkflowState) SetQualityMetrics(m entity.QualityMetrics, review entity.ReviewStatus) {
	s.qaMu.Lock()
	defer s.qaMu.Unlock()
	s.metrics = &m
	s.review = review
}

// QualityMetrics returns the batch quality aggregate, if one was recorded.
func (s *WorkflowState) QualityMetrics() (entity.QualityMetrics, entity.ReviewStatus, bool) {
	s.qaMu.Lock()
	defer s.qaMu.Unlock()
	if s.metrics == nil {
		return entity.QualityMetrics{}, "", false
	}
	return *s.metrics, s.review, true
}

// SetTransactions records the run's categorized transactions.
func (s *WorkflowState) SetTransactions(txns []entity.Transaction) {
	s.qaMu.Lock()
	defer s.qaMu.Unlock()
	s.txns = txns
}

// Transactions returns a copy of the run's categorized transactions.
func (s *WorkflowState) Transactions() []entity.Transaction {
	s.qaMu.Lock()
	defer s.qaMu.Unlock()
	out := make([]entity.Transaction, len(s.txns))
	copy(out, s.txns)
	return out
}

// ValidationResults returns all validation results present in the run.
func (s *WorkflowState) ValidationResults() []entity.ValidationResult {
	s.mu.Lock()
	ids := make([]uuid.UUID, len(s.order))
	copy(ids, s.order)
	s.mu.Unlock()

	out := make([]entity.ValidationResult, 0, len(ids))
	for _, id := range ids {
		if res, ok := s.ValidationResult(id); ok {
			out = append(out, *res)
		}
	}
	return out
}
