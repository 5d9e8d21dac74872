package audit

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	byDoc map[string][]Finding
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byDoc: make(map[string][]Finding)}
}

// ReplaceForDocument atomically swaps the document's findings.
func (r *MemoryRepo) ReplaceForDocument(ctx context.Context, documentID string, findings []Finding) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]Finding, len(findings))
	copy(stored, findings)
	r.byDoc[documentID] = stored
	return nil
}

// ByDocument returns the document's findings in stored order.
func (r *MemoryRepo) ByDocument(ctx context.Context, documentID string) ([]Finding, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	findings := r.byDoc[documentID]
	out := make([]Finding, len(findings))
	copy(out, findings)
	return out, nil
}

// DeleteByDocument removes all findings for a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byDoc, documentID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
