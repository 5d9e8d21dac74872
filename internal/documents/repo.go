package documents

import "context"

// Repo defines persistence operations for documents and their pages.
// Delete cascades: no page outlives its owning document.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	GetByID(ctx context.Context, documentID string) (Document, error)
	List(ctx context.Context, limit, offset int) ([]Document, error)
	UpdateStatus(ctx context.Context, documentID, status, failureReason string) error
	SetPageCount(ctx context.Context, documentID string, pageCount int) error
	Delete(ctx context.Context, documentID string) error

	CreatePages(ctx context.Context, pages []Page) error
	PagesByDocument(ctx context.Context, documentID string) ([]Page, error)
}
