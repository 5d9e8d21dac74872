package documents

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu    sync.RWMutex
	docs  map[string]Document
	pages map[string][]Page // documentID -> pages ordered by page number
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		docs:  make(map[string]Document),
		pages: make(map[string][]Page),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs[doc.ID] = doc
	return nil
}

// GetByID returns a document by ID.
func (r *MemoryRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// List returns documents newest-first, honoring limit/offset.
func (r *MemoryRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if offset < 0 {
		offset = 0
	}
	if limit < 0 {
		limit = 0
	}

	r.mu.RLock()
	docs := make([]Document, 0, len(r.docs))
	for _, doc := range r.docs {
		docs = append(docs, doc)
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].ID < docs[j].ID
		}
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})

	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// UpdateStatus sets the lifecycle status and optional failure reason.
func (r *MemoryRepo) UpdateStatus(ctx context.Context, documentID, status, failureReason string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	doc.FailureReason = failureReason
	r.docs[documentID] = doc
	return nil
}

// SetPageCount records the number of extracted pages.
func (r *MemoryRepo) SetPageCount(ctx context.Context, documentID string, pageCount int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.docs[documentID]
	if !ok {
		return ErrNotFound
	}
	doc.PageCount = pageCount
	r.docs[documentID] = doc
	return nil
}

// Delete removes a document and its pages.
func (r *MemoryRepo) Delete(ctx context.Context, documentID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.docs[documentID]; !ok {
		return ErrNotFound
	}
	delete(r.docs, documentID)
	delete(r.pages, documentID)
	return nil
}

// CreatePages stores extracted pages.
func (r *MemoryRepo) CreatePages(ctx context.Context, pages []Page) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, page := range pages {
		r.pages[page.DocumentID] = append(r.pages[page.DocumentID], page)
	}
	for docID := range r.pages {
		sort.Slice(r.pages[docID], func(i, j int) bool {
			return r.pages[docID][i].PageNumber < r.pages[docID][j].PageNumber
		})
	}
	return nil
}

// PagesByDocument returns pages ordered by page number.
func (r *MemoryRepo) PagesByDocument(ctx context.Context, documentID string) ([]Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	pages := r.pages[documentID]
	out := make([]Page, len(pages))
	copy(out, pages)
	return out, nil
}

var _ Repo = (*MemoryRepo)(nil)
