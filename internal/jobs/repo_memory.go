package jobs

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	tasks map[string]Task
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{tasks: make(map[string]Task)}
}

// Create stores a new task.
func (r *MemoryRepo) Create(ctx context.Context, task Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks[task.ID] = task
	return nil
}

// GetByID returns a task by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, taskID string) (Task, error) {
	if err := ctx.Err(); err != nil {
		return Task{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return Task{}, ErrNotFound
	}
	return task, nil
}

// MarkRunning transitions a task to running and stamps its start time.
func (r *MemoryRepo) MarkRunning(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	task.Status = StatusRunning
	task.StartedAt = &now
	r.tasks[taskID] = task
	return nil
}

// UpdateProgress records progress and step. Progress never decreases.
func (r *MemoryRepo) UpdateProgress(ctx context.Context, taskID string, progress int, step string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	if progress > 100 {
		progress = 100
	}
	if progress > task.Progress {
		task.Progress = progress
	}
	if step != "" {
		task.Step = step
	}
	r.tasks[taskID] = task
	return nil
}

// MarkCompleted transitions a task to completed at 100 percent.
func (r *MemoryRepo) MarkCompleted(ctx context.Context, taskID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	task.Status = StatusCompleted
	task.Progress = 100
	task.CompletedAt = &now
	r.tasks[taskID] = task
	return nil
}

// MarkFailed transitions a task to failed with the error recorded.
func (r *MemoryRepo) MarkFailed(ctx context.Context, taskID, errorCode, errorDetail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	task, ok := r.tasks[taskID]
	if !ok {
		return ErrNotFound
	}
	now := time.Now().UTC()
	task.Status = StatusFailed
	task.ErrorCode = errorCode
	task.ErrorDetail = errorDetail
	task.CompletedAt = &now
	r.tasks[taskID] = task
	return nil
}

// LatestByDocument returns the most recent task per type, newest first.
func (r *MemoryRepo) LatestByDocument(ctx context.Context, documentID string) ([]Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	latest := map[string]Task{}
	for _, task := range r.tasks {
		if task.DocumentID != documentID {
			continue
		}
		current, ok := latest[task.Type]
		if !ok || task.CreatedAt.After(current.CreatedAt) {
			latest[task.Type] = task
		}
	}

	tasks := make([]Task, 0, len(latest))
	for _, task := range latest {
		tasks = append(tasks, task)
	}
	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// DeleteByDocument removes all tasks for a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, task := range r.tasks {
		if task.DocumentID == documentID {
			delete(r.tasks, id)
		}
	}
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
