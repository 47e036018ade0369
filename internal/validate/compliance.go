package validate

import (
	"github.com/docuflow/docuflow/constants"
	"github.com/docuflow/docuflow/internal/entity"
)

// runComplianceChecks evaluates advisory regulation checks. Outcomes never
// block validity; callers surface them for review workflows.
func (e *Engine) runComplianceChecks(doc entity.Document, data entity.ExtractedData) []entity.ComplianceCheck {
	checks := make([]entity.ComplianceCheck, 0, 3)

	// Expense substantiation: money documents need an amount and a date.
	sub := entity.ComplianceCheck{RegulationID: "IRS-463"}
	switch {
	case doc.DocType != constants.Invoice && doc.DocType != constants.Receipt:
		sub.Status = entity.NotApplicable
	case len(data.Amounts) > 0 && len(data.Dates) > 0:
		sub.Status = entity.Compliant
	case len(data.Amounts) > 0 || len(data.Dates) > 0:
		sub.Status = entity.NeedsReview
		sub.Detail = "amount or date missing"
	default:
		sub.Status = entity.NonCompliant
		sub.Detail = "no amount and no date extracted"
	}
	checks = append(checks, sub)

	// Counterparty identification for statements and contracts.
	kyc := entity.ComplianceCheck{RegulationID: "AML-KYC"}
	switch {
	case doc.DocType != constants.Statement && doc.DocType != constants.Contract:
		kyc.Status = entity.NotApplicable
	case len(data.Names) > 0 || len(data.Accounts) > 0:
		kyc.Status = entity.Compliant
	default:
		kyc.Status = entity.NeedsReview
		kyc.Detail = "no counterparty or account identified"
	}
	checks = append(checks, kyc)

	// Retention marker: always recorded, never failing.
	checks = append(checks, entity.ComplianceCheck{
		RegulationID: "SOX-802",
		Status:       entity.Compliant,
	})
	return checks
}
