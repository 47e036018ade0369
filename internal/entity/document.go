package entity

import (
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/docuflow/docuflow/constants"
)

// Document represents an ingested source document. Immutable once created;
// stages reference it by ID only.
type Document struct {
	ID          uuid.UUID              `json:"id"`
	SourcePath  string                 `json:"source_path"`
	Filename    string                 `json:"filename"`
	FileExt     string                 `json:"file_ext"`
	FileSize    int64                  `json:"file_size"`
	DocType     constants.DocumentType `json:"doc_type"`
	ContentHash []byte                 `json:"content_hash"`
	UploadedAt  time.Time              `json:"uploaded_at"`
}

// NewDocument builds a Document from a source path. The extension is
// normalized; the declared type defaults to Other when unknown.
func NewDocument(sourcePath string, size int64, docType constants.DocumentType) Document {
	if docType == "" {
		docType = constants.OtherDoc
	}
	return Document{
		ID:         uuid.New(),
		SourcePath: sourcePath,
		Filename:   filepath.Base(sourcePath),
		FileExt:    constants.NormalizeExt(filepath.Ext(sourcePath)),
		FileSize:   size,
		DocType:    docType,
		UploadedAt: time.Now().UTC(),
	}
}

// Format returns the processing format for the document, or "" if unsupported.
func (d Document) Format() string {
	return constants.MapExtToFormat(d.FileExt)
}
