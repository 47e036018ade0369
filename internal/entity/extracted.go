package entity

import (
	"time"

	"github.com/google/uuid"
)

// EntityKind tags the variants of extracted financial entities.
type EntityKind string

const (
	KindAmount  EntityKind = "amount"
	KindDate    EntityKind = "date"
	KindName    EntityKind = "name"
	KindAccount EntityKind = "account"
)

// Amount is a matched monetary value. Matched amounts carry no confidence
// term: a value that matched the pattern is treated as present, full stop.
// This keeps them out of the extraction-confidence average on purpose.
type Amount struct {
	Raw      string  `json:"raw"`
	Value    float64 `json:"value"`
	Currency string  `json:"currency,omitempty"`
}

func (Amount) Kind() EntityKind { return KindAmount }

// Date is a matched calendar date normalized to a canonical day.
type Date struct {
	Raw        string    `json:"raw"`
	Value      time.Time `json:"value"`
	Confidence float32   `json:"confidence"`
}

func (Date) Kind() EntityKind { return KindDate }

// NameRole classifies a named entity.
type NameRole string

const (
	RoleCompany NameRole = "company"
	RolePerson  NameRole = "person"
)

// Name is a matched company or person reference.
type Name struct {
	Value      string   `json:"value"`
	Role       NameRole `json:"role"`
	Confidence float32  `json:"confidence"`
}

func (Name) Kind() EntityKind { return KindName }

// Account is a matched account or card reference.
type Account struct {
	Number     string  `json:"number"`
	Confidence float32 `json:"confidence"`
}

func (Account) Kind() EntityKind { return KindAccount }

// ExtractedData is the structured output of entity extraction for one
// document. ExtractionConfidence is computed once at construction.
type ExtractedData struct {
	DocumentID           uuid.UUID `json:"document_id"`
	SourceMethod         string    `json:"source_method,omitempty"`
	Amounts              []Amount  `json:"amounts"`
	Dates                []Date    `json:"dates"`
	Names                []Name    `json:"names"`
	Accounts             []Account `json:"accounts"`
	ExtractionConfidence float32   `json:"extraction_confidence"`
	CreatedAt            time.Time `json:"created_at"`
}

// NewExtractedData assembles an ExtractedData and derives its overall
// confidence as the mean of the entity and date confidences. Amounts are
// excluded from the average by design (see Amount).
func NewExtractedData(docID uuid.UUID, method string, amounts []Amount, dates []Date, names []Name, accounts []Account) ExtractedData {
	var sum float64
	var n int
	for _, d := range dates {
		sum += float64(d.Confidence)
		n++
	}
	for _, nm := range names {
		sum += float64(nm.Confidence)
		n++
	}
	for _, a := range accounts {
		sum += float64(a.Confidence)
		n++
	}
	var conf float32
	if n > 0 {
		conf = float32(sum / float64(n))
	}
	if amounts == nil {
		amounts = []Amount{}
	}
	if dates == nil {
		dates = []Date{}
	}
	if names == nil {
		names = []Name{}
	}
	if accounts == nil {
		accounts = []Account{}
	}
	return ExtractedData{
		DocumentID:           docID,
		SourceMethod:         method,
		Amounts:              amounts,
		Dates:                dates,
		Names:                names,
		Accounts:             accounts,
		ExtractionConfidence: conf,
		CreatedAt:            time.Now().UTC(),
	}
}

// Empty reports whether no entities of any kind were extracted.
func (d ExtractedData) Empty() bool {
	return len(d.Amounts) == 0 && len(d.Dates) == 0 && len(d.Names) == 0 && len(d.Accounts) == 0
}

// Payload renders the extracted data as a generic map suitable for
// schema validation and persistence.
func (d ExtractedData) Payload() map[string]any {
	amounts := make([]any, 0, len(d.Amounts))
	for _, a := range d.Amounts {
		amounts = append(amounts, map[string]any{"raw": a.Raw, "value": a.Value, "currency": a.Currency})
	}
	dates := make([]any, 0, len(d.Dates))
	for _, dt := range d.Dates {
		dates = append(dates, map[string]any{"raw": dt.Raw, "value": dt.Value.Format("2006-01-02"), "confidence": dt.Confidence})
	}
	names := make([]any, 0, len(d.Names))
	for _, n := range d.Names {
		names = append(names, map[string]any{"value": n.Value, "role": string(n.Role), "confidence": n.Confidence})
	}
	accounts := make([]any, 0, len(d.Accounts))
	for _, a := range d.Accounts {
		accounts = append(accounts, map[string]any{"number": a.Number, "confidence": a.Confidence})
	}
	return map[string]any{
		"document_id":           d.DocumentID.String(),
		"amounts":               amounts,
		"dates":                 dates,
		"names":                 names,
		"accounts":              accounts,
		"extraction_confidence": d.ExtractionConfidence,
	}
}
