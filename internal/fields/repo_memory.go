package fields

import (
	"context"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	byDoc map[string][]ExtractedField
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{byDoc: make(map[string][]ExtractedField)}
}

// ReplaceForDocument atomically swaps all extracted fields for a document.
func (r *MemoryRepo) ReplaceForDocument(ctx context.Context, documentID string, values []ExtractedField) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	stored := make([]ExtractedField, len(values))
	copy(stored, values)
	r.byDoc[documentID] = stored
	return nil
}

// ByDocument returns extracted fields in schema order.
func (r *MemoryRepo) ByDocument(ctx context.Context, documentID string) ([]ExtractedField, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	values, ok := r.byDoc[documentID]
	if !ok {
		return nil, ErrNotExtracted
	}
	out := make([]ExtractedField, len(values))
	copy(out, values)
	return out, nil
}

// DeleteByDocument removes all extracted fields for a document.
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
