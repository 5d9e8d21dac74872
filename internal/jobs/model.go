package jobs

import "time"

// Task types, in pipeline order. extract_text and build_index form a
// linear chain per document; the rest run once indexing is complete.
const (
	TypeExtractText    = "extract_text"
	TypeBuildIndex     = "build_index"
	TypeExtractFields  = "extract_fields"
	TypeRunAudit       = "run_audit"
	TypeAnswerQuestion = "answer_question"
)

// Task statuses.
const (
	StatusQueued    = "queued"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

// Task tracks one asynchronous unit of work against a document or question.
type Task struct {
	ID          string     `json:"id"`
	Type        string     `json:"type"`
	DocumentID  string     `json:"documentId,omitempty"`
	QuestionID  string     `json:"questionId,omitempty"`
	Status      string     `json:"status"`
	Progress    int        `json:"progress"`
	Step        string     `json:"currentStep,omitempty"`
	ErrorCode   string     `json:"errorCode,omitempty"`
	ErrorDetail string     `json:"errorDetail,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// ValidType reports whether t is a known task type.
func ValidType(t string) bool {
	switch t {
	case TypeExtractText, TypeBuildIndex, TypeExtractFields, TypeRunAudit, TypeAnswerQuestion:
		return true
	}
	return false
}
