package fields

import "time"

// Confidence markers assigned during extraction. The model reports what
// it found; confidence reflects how cleanly the value coerced to its
// declared type.
const (
	ConfidenceExtracted = 0.9
	ConfidenceMalformed = 0.2
	ConfidenceNotFound  = 0.0
)

// ExtractedField is one typed contract field pulled from a document.
// Malformed marks a value the model returned but that failed type
// coercion; the raw value is preserved so consumers can distinguish
// "not found" from "found but malformed".
type ExtractedField struct {
	ID            string    `json:"id"`
	DocumentID    string    `json:"documentId"`
	Name          string    `json:"name"`
	Type          string    `json:"type"`
	Value         any       `json:"value"`
	Confidence    float64   `json:"confidence"`
	Malformed     bool      `json:"malformed,omitempty"`
	SchemaVersion string    `json:"schemaVersion"`
	ExtractedAt   time.Time `json:"extractedAt"`
}
