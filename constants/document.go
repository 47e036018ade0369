package constants

import "strings"

// DocumentType is the declared type of an ingested financial document.
type DocumentType string

const (
	Invoice   DocumentType = "Invoice"
	Receipt   DocumentType = "Receipt"
	Statement DocumentType = "Statement"
	Contract  DocumentType = "Contract"
	OtherDoc  DocumentType = "Other"
)

var allDocumentTypes = []DocumentType{
	Invoice,
	Receipt,
	Statement,
	Contract,
	OtherDoc,
}

// DocumentTypes returns the known document types as strings.
func DocumentTypes() []string {
	result := make([]string, len(allDocumentTypes))
	for i, dt := range allDocumentTypes {
		result[i] = string(dt)
	}
	return result
}

// CanonicalizeDocumentType maps free-form labels to a known document type.
func CanonicalizeDocumentType(input string) (DocumentType, bool) {
	if input == "" {
		return OtherDoc, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]DocumentType{
		"bill":           Invoice,
		"tax invoice":    Invoice,
		"bank statement": Statement,
		"agreement":      Contract,
		"ticket":         Receipt,
	}
	if dt, ok := synonyms[normalized]; ok {
		return dt, true
	}

	for _, dt := range allDocumentTypes {
		if normalized == strings.ToLower(string(dt)) {
			return dt, true
		}
	}
	return OtherDoc, false
}
