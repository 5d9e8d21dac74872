package documents

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/shared/storage/object"
	"contract-backend/internal/shared/telemetry"
)

// Scheduler enqueues pipeline tasks for a document. Implemented by the job
// orchestrator; declared here so this package does not depend on it.
type Scheduler interface {
	EnqueueDocumentTask(ctx context.Context, taskType, documentID string) (taskID string, err error)
}

// IndexRemover drops the vector index for a deleted document, wherever its
// entries live.
type IndexRemover interface {
	Remove(ctx context.Context, documentID string) error
}

// Cleaner removes per-document data owned by another feature. Wired at
// startup so deletes cascade across fields, findings, tasks, and questions.
type Cleaner interface {
	DeleteByDocument(ctx context.Context, documentID string) error
}

// Service contains business logic for document ingestion and lifecycle.
type Service struct {
	Repo      Repo
	Store     object.ObjectStore
	Scheduler Scheduler
	Indexes   IndexRemover
	Cleanup   []Cleaner
}

// Upload stores a raw contract file, creates the document record, and
// enqueues text extraction. The document id is returned immediately;
// extraction continues in the background.
func (s *Service) Upload(ctx context.Context, fileName string, r io.Reader) (Document, error) {
	if strings.TrimSpace(fileName) == "" {
		return Document{}, errors.New("file name is required")
	}

	doc := Document{
		ID:         uuid.NewString(),
		FileName:   fileName,
		Status:     StatusUploaded,
		UploadedAt: time.Now().UTC(),
	}

	storageKey, size, mimeType, err := s.Store.Save(ctx, doc.ID, fileName, r)
	if err != nil {
		return Document{}, err
	}
	doc.StorageKey = storageKey
	doc.SizeBytes = size
	doc.MimeType = mimeType

	if err := s.Repo.Create(ctx, doc); err != nil {
		return Document{}, err
	}

	taskID, err := s.Scheduler.EnqueueDocumentTask(ctx, "extract_text", doc.ID)
	if err != nil {
		return Document{}, err
	}
	telemetry.Info("document.uploaded", map[string]any{
		"document_id": doc.ID,
		"file_name":   doc.FileName,
		"mime_type":   doc.MimeType,
		"size_bytes":  doc.SizeBytes,
		"task_id":     taskID,
	})
	return doc, nil
}

// Get returns a document by ID.
func (s *Service) Get(ctx context.Context, documentID string) (Document, error) {
	if documentID == "" {
		return Document{}, errors.New("documentID is required")
	}
	return s.Repo.GetByID(ctx, documentID)
}

// List returns documents newest-first.
func (s *Service) List(ctx context.Context, limit, offset int) ([]Document, error) {
	return s.Repo.List(ctx, limit, offset)
}

// Pages returns the extracted pages for a document.
func (s *Service) Pages(ctx context.Context, documentID string) ([]Page, error) {
	return s.Repo.PagesByDocument(ctx, documentID)
}

// FullText joins all page texts in page order, separated by blank lines.
func (s *Service) FullText(ctx context.Context, documentID string) (string, error) {
	pages, err := s.Repo.PagesByDocument(ctx, documentID)
	if err != nil {
		return "", err
	}
	texts := make([]string, 0, len(pages))
	for _, page := range pages {
		if strings.TrimSpace(page.Text) != "" {
			texts = append(texts, page.Text)
		}
	}
	return strings.Join(texts, "\n\n"), nil
}

// Delete removes a document, its stored file, and its index snapshot.
// Pages, fields, findings, and tasks cascade through the repositories.
func (s *Service) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Repo.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, documentID); err != nil {
		return err
	}
	for _, cleaner := range s.Cleanup {
		if err := cleaner.DeleteByDocument(ctx, documentID); err != nil {
			telemetry.Warn("document.cascade_delete_failed", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
	if s.Indexes != nil {
		if err := s.Indexes.Remove(ctx, documentID); err != nil {
			telemetry.Warn("document.delete_index_failed", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
	if doc.StorageKey != "" {
		if err := s.Store.Delete(ctx, doc.StorageKey); err != nil {
			telemetry.Warn("document.delete_object_failed", map[string]any{
				"document_id": documentID,
				"error":       err.Error(),
			})
		}
	}
	telemetry.Info("document.deleted", map[string]any{"document_id": documentID})
	return nil
}
