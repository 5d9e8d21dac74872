package index

import "context"

// Repo persists index entries so snapshots survive process restarts and can
// be hydrated by whichever process serves a query.
type Repo interface {
	// Save replaces the stored entries for the snapshot's document.
	Save(ctx context.Context, snap *Snapshot) error
	// Load rebuilds the snapshot for a document from stored entries.
	// Returns ErrNotIndexed when no entries exist.
	Load(ctx context.Context, documentID string) (*Snapshot, error)
	// DeleteByDocument removes all stored entries for a document.
	DeleteByDocument(ctx context.Context, documentID string) error
}
