package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/queue"
	"contract-backend/internal/shared/telemetry"
)

// WithRequestID stores a request id in the context for task scheduling.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return telemetry.WithRequestID(ctx, requestID)
}

// Scheduler creates task records and enqueues them for the worker pool.
type Scheduler struct {
	Repo  Repo
	Queue queue.Client
}

// EnqueueDocumentTask persists a queued task against a document and
// sends it to the queue. The task id is returned immediately.
func (s *Scheduler) EnqueueDocumentTask(ctx context.Context, taskType, documentID string) (string, error) {
	if !ValidType(taskType) {
		return "", fmt.Errorf("unknown task type %q", taskType)
	}
	return s.enqueue(ctx, Task{
		ID:         uuid.NewString(),
		Type:       taskType,
		DocumentID: documentID,
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	})
}

// EnqueueQuestionTask persists a queued answer task for a question.
func (s *Scheduler) EnqueueQuestionTask(ctx context.Context, questionID string) (string, error) {
	return s.enqueue(ctx, Task{
		ID:         uuid.NewString(),
		Type:       TypeAnswerQuestion,
		QuestionID: questionID,
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *Scheduler) enqueue(ctx context.Context, task Task) (string, error) {
	if s.Queue == nil {
		return "", ErrJobQueueNotConfigured
	}
	if err := s.Repo.Create(ctx, task); err != nil {
		return "", err
	}

	msg := queue.NewTaskMessage(task.ID, telemetry.RequestIDFromContext(ctx), task.CreatedAt)
	if err := s.Queue.Send(ctx, msg); err != nil {
		if failErr := s.Repo.MarkFailed(ctx, task.ID, ErrorCodeInternal, "enqueue: "+err.Error()); failErr != nil {
			telemetry.Error("task.enqueue_fail_record", map[string]any{"task_id": task.ID, "error": failErr.Error()})
		}
		return "", err
	}

	telemetry.Info("task.enqueued", map[string]any{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"document_id": task.DocumentID,
		"question_id": task.QuestionID,
		"request_id":  msg.RequestID,
	})
	return task.ID, nil
}
