package jobs

import "context"

// Repo persists tasks. Progress updates are clamped so a consumer never
// observes progress decrease.
type Repo interface {
	Create(ctx context.Context, task Task) error
	GetByID(ctx context.Context, taskID string) (Task, error)
	MarkRunning(ctx context.Context, taskID string) error
	// UpdateProgress records progress and step label. Progress below the
	// stored value is clamped to the stored value.
	UpdateProgress(ctx context.Context, taskID string, progress int, step string) error
	MarkCompleted(ctx context.Context, taskID string) error
	MarkFailed(ctx context.Context, taskID, errorCode, errorDetail string) error
	// LatestByDocument returns the most recently created task per type
	// for the document, newest first.
	LatestByDocument(ctx context.Context, documentID string) ([]Task, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
