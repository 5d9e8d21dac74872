package fields

import "context"

// Repo persists extracted fields.
type Repo interface {
	// ReplaceForDocument atomically swaps all extracted fields for a
	// document, so repeated extraction runs stay idempotent.
	ReplaceForDocument(ctx context.Context, documentID string, values []ExtractedField) error
	ByDocument(ctx context.Context, documentID string) ([]ExtractedField, error)
	DeleteByDocument(ctx context.Context, documentID string) error
}
