package index

import "context"

// Source resolves snapshots through the in-process cache and falls back to
// the repository, so any process can serve queries for a document indexed
// elsewhere or before a restart.
type Source struct {
	Cache *Store
	Repo  Repo
}

// Snapshot returns the current snapshot for a document, hydrating the cache
// from the repository on a miss.
func (s *Source) Snapshot(ctx context.Context, documentID string) (*Snapshot, error) {
	if snap, err := s.Cache.Get(documentID); err == nil {
		return snap, nil
	}
	if s.Repo == nil {
		return nil, ErrNotIndexed
	}
	snap, err := s.Repo.Load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	s.Cache.Put(snap)
	return snap, nil
}

// Install persists the snapshot and then swaps it into the cache. Readers
// keep the previous complete snapshot until the swap.
func (s *Source) Install(ctx context.Context, snap *Snapshot) error {
	if s.Repo != nil {
		if err := s.Repo.Save(ctx, snap); err != nil {
			return err
		}
	}
	s.Cache.Put(snap)
	return nil
}

// Ready reports whether a snapshot can be resolved for the document.
func (s *Source) Ready(ctx context.Context, documentID string) bool {
	_, err := s.Snapshot(ctx, documentID)
	return err == nil
}

// Remove drops the snapshot from the cache and the repository.
func (s *Source) Remove(ctx context.Context, documentID string) error {
	s.Cache.Remove(documentID)
	if s.Repo == nil {
		return nil
	}
	return s.Repo.DeleteByDocument(ctx, documentID)
}
