package audit

import "context"

// Repo persists audit findings.
type Repo interface {
	// ReplaceForDocument atomically swaps the document's findings so
	// repeated audit runs replace rather than append.
	ReplaceForDocument(ctx context.Context, documentID string, findings []Finding) error
	ByDocument(ctx context.Context, documentID string) ([]Finding, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
