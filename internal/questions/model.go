package questions

import "time"

// Lifecycle statuses for a question.
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusCompleted  = "completed"
	StatusFailed     = "failed"
)

// Failure reasons recorded on a failed question.
const (
	ReasonCancelled            = "CANCELLED"
	ReasonStaleIndex           = "STALE_INDEX"
	ReasonInferenceUnavailable = "INFERENCE_UNAVAILABLE"
)

// Question is a query against one or more documents and its resulting answer.
type Question struct {
	ID            string     `json:"id"`
	Query         string     `json:"query"`
	DocumentIDs   []string   `json:"documentIds"`
	Status        string     `json:"status"`
	Answer        string     `json:"answer,omitempty"`
	Citations     []Citation `json:"citations"`
	FailureReason string     `json:"failureReason,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	CompletedAt   *time.Time `json:"completedAt,omitempty"`
}

// Citation points back to the exact source span an answer drew from.
type Citation struct {
	DocumentID string  `json:"documentId"`
	PageNumber int     `json:"pageNumber"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	ChunkID    string  `json:"chunkId,omitempty"`
	Score      float64 `json:"score"`
}
