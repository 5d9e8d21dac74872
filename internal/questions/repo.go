package questions

import "context"

// Repo persists questions and their answers.
type Repo interface {
	Create(ctx context.Context, q Question) error
	GetByID(ctx context.Context, questionID string) (Question, error)
	// MarkProcessing moves a pending question to processing. Returns
	// ErrTerminal if the question already completed or failed.
	MarkProcessing(ctx context.Context, questionID string) error
	// Complete records the final answer and citations.
	Complete(ctx context.Context, questionID, answer string, citations []Citation) error
	// Fail records a failure reason, preserving any partial answer text
	// emitted before the failure.
	Fail(ctx context.Context, questionID, partialAnswer, reason string) error
	// DeleteByDocument removes questions scoped solely to the given document.
	DeleteByDocument(ctx context.Context, documentID string) error
}
