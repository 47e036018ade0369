package entity

import (
	"time"

	"github.com/google/uuid"
)

// TransactionCategory buckets a recognized amount by the kind of document
// it came from.
type TransactionCategory string

const (
	CategoryPayable    TransactionCategory = "payable"    // invoices
	CategoryExpense    TransactionCategory = "expense"    // receipts
	CategoryBankEntry  TransactionCategory = "bank_entry" // statements
	CategoryObligation TransactionCategory = "obligation" // contracts
	CategoryUnknown    TransactionCategory = "uncategorized"
)

// Transaction is one categorized monetary line derived from a document's
// extracted data. The date is the document's first extracted date when one
// exists; amounts without a date are still real transactions.
type Transaction struct {
	DocumentID uuid.UUID           `json:"document_id"`
	Amount     Amount              `json:"amount"`
	Category   TransactionCategory `json:"category"`
	Date       *time.Time          `json:"date,omitempty"`
}
