package index

import (
	"context"
	"sync"
)

// MemoryRepo implements Repo with an in-memory map. Snapshots are immutable
// after build, so storing the pointer is safe.
type MemoryRepo struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewMemoryRepo constructs an empty in-memory index repository.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{snapshots: make(map[string]*Snapshot)}
}

// Save replaces the stored snapshot for the document.
func (r *MemoryRepo) Save(ctx context.Context, snap *Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.snapshots[snap.DocumentID] = snap
	return nil
}

// Load returns the stored snapshot for a document.
func (r *MemoryRepo) Load(ctx context.Context, documentID string) (*Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	snap, ok := r.snapshots[documentID]
	if !ok {
		return nil, ErrNotIndexed
	}
	return snap, nil
}

// DeleteByDocument removes the stored snapshot for a document.
func (r *MemoryRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.snapshots, documentID)
	return nil
}

var _ Repo = (*MemoryRepo)(nil)
