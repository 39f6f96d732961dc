package model

import "time"

// DocumentType identifies which schema set governs extraction.
type DocumentType string

const (
	DocTypePlan DocumentType = "plan_document"
	DocTypeEOB  DocumentType = "eob"
	DocTypeLab  DocumentType = "lab_report"
)

// ValidDocumentType reports whether t names a known document type.
func ValidDocumentType(t DocumentType) bool {
	switch t {
	case DocTypePlan, DocTypeEOB, DocTypeLab:
		return true
	}
	return false
}

// Document is an ingested source document.
type Document struct {
	ID        string       `json:"id"`
	UserID    string       `json:"user_id"`
	Type      DocumentType `json:"doc_type"`
	Name      string       `json:"name"`
	Text      string       `json:"text,omitempty"`
	NumChunks int          `json:"num_chunks"`
	CreatedAt time.Time    `json:"created_at"`
}

// Chunk is one contiguous slice of a document's text. Index is the
// chunk's position in document order; concatenating chunks in index
// order with overlap regions removed reconstructs the source text.
type Chunk struct {
	Index int    `json:"index"`
	Text  string `json:"text"`
}
