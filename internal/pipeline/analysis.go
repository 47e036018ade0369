package pipeline

import (
	"time"

	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

// categoryFor maps a document type to its transaction bucket.
func categoryFor(t constants.DocumentType) entity.TransactionCategory {
	switch t {
	case constants.Invoice:
		return entity.CategoryPayable
	case constants.Receipt:
		return entity.CategoryExpense
	case constants.Statement:
		return entity.CategoryBankEntry
	case constants.Contract:
		return entity.CategoryObligation
	default:
		return entity.CategoryUnknown
	}
}

// categorizeTransactions derives one transaction per extracted amount,
// bucketed by the owning document's type. The document's first extracted
// date, when present, is attached as the transaction date.
func categorizeTransactions(state *WorkflowState) []entity.Transaction {
	var out []entity.Transaction
	for _, doc := range state.Documents() {
		data, ok := state.ExtractedData(doc.ID)
		if !ok {
			continue
		}
		var when *time.Time
		if len(data.Dates) > 0 {
			d := data.Dates[0].Value
			when = &d
		}
		for _, a := range data.Amounts {
			out = append(out, entity.Transaction{
				DocumentID: doc.ID,
				Amount:     a,
				Category:   categoryFor(doc.DocType),
				Date:       when,
			})
		}
	}
	return out
}
