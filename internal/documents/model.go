package documents

import "time"

// Lifecycle statuses for a document as it moves through the pipeline.
const (
	StatusUploaded   = "uploaded"
	StatusExtracting = "extracting"
	StatusExtracted  = "extracted"
	StatusAnalyzing  = "analyzing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Document represents an uploaded contract file and its pipeline state.
type Document struct {
	ID            string    `json:"id"`
	FileName      string    `json:"fileName"`
	MimeType      string    `json:"mimeType"`
	SizeBytes     int64     `json:"sizeBytes"`
	StorageKey    string    `json:"-"`
	Status        string    `json:"status"`
	PageCount     int       `json:"pageCount"`
	FailureReason string    `json:"failureReason,omitempty"`
	UploadedAt    time.Time `json:"uploadedAt"`
}

// Page holds the raw text extracted from one page of a document.
// Pages are immutable once created.
type Page struct {
	ID         string `json:"id"`
	DocumentID string `json:"documentId"`
	PageNumber int    `json:"pageNumber"`
	Text       string `json:"text"`
}
