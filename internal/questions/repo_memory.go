package questions

import (
	"context"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu        sync.RWMutex
	questions map[string]Question
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{questions: make(map[string]Question)}
}

// Create stores a new question.
func (r *MemoryRepo) Create(ctx context.Context, q Question) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.questions[q.ID] = q
	return nil
}

// GetByID returns a question by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, questionID string) (Question, error) {
	if err := ctx.Err(); err != nil {
		return Question{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	q, ok := r.questions[questionID]
	if !ok {
		return Question{}, ErrNotFound
	}
	return q, nil
}

// MarkProcessing moves a pending question to processing.
func (r *MemoryRepo) MarkProcessing(ctx context.Context, questionID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[questionID]
	if !ok {
		return ErrNotFound
	}
	if q.Status == StatusCompleted || q.Status == StatusFailed {
		return ErrTerminal
	}
	q.Status = StatusProcessing
	r.questions[questionID] = q
	return nil
}

// Complete records the final answer and citations.
func (r *MemoryRepo) Complete(ctx context.Context, questionID, answer string, citations []Citation) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[questionID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	q.Status = StatusCompleted
	q.Answer = answer
	q.Citations = citations
	q.FailureReason = ""
	q.CompletedAt = &now
	r.questions[questionID] = q
	return nil
}

// Fail records a failure reason, preserving partial answer text.
func (r *MemoryRepo) Fail(ctx context.Context, questionID, partialAnswer, reason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	q, ok := r.questions[questionID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	q.Status = StatusFailed
	q.Answer = partialAnswer
	q.FailureReason = reason
	q.CompletedAt = &now
	r.questions[questionID] = q
	return nil
}

// DeleteByDocument removes questions scoped solely to the given document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, q := range r.questions {
		if len(q.DocumentIDs) == 1 && q.DocumentIDs[0] == documentID {
			delete(r.questions, id)
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
