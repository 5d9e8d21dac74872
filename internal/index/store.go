package index

import "sync"

// Store holds the current snapshot per document. Put swaps atomically under
// the lock; readers either see the old complete snapshot or the new one.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*Snapshot
}

// NewStore constructs an empty snapshot store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]*Snapshot)}
}

// Put installs the snapshot for its document, replacing any previous one.
func (s *Store) Put(snap *Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[snap.DocumentID] = snap
}

// Get returns the current snapshot for a document.
func (s *Store) Get(documentID string) (*Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.snapshots[documentID]
	if !ok {
		return nil, ErrNotIndexed
	}
	return snap, nil
}

// Has reports whether a snapshot exists for the document.
func (s *Store) Has(documentID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snapshots[documentID]
	return ok
}

// Remove drops the snapshot for a document.
func (s *Store) Remove(documentID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, documentID)
}
