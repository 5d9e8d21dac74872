package fields

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/llm"
	"contract-backend/internal/shared/telemetry"
)

// TextProvider supplies the full extracted text of a document.
type TextProvider interface {
	FullText(ctx context.Context, documentID string) (string, error)
}

// Scheduler enqueues field extraction tasks.
type Scheduler interface {
	EnqueueDocumentTask(ctx context.Context, taskType, documentID string) (taskID string, err error)
}

// Service contains business logic for structured field extraction.
type Service struct {
	Repo      Repo
	Text      TextProvider
	Extractor *Extractor
	Scheduler Scheduler
}

// Enqueue schedules an extract_fields task for the document.
func (s *Service) Enqueue(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", errors.New("documentID is required")
	}
	return s.Scheduler.EnqueueDocumentTask(ctx, "extract_fields", documentID)
}

// Get returns the stored extracted fields for a document.
func (s *Service) Get(ctx context.Context, documentID string) ([]ExtractedField, error) {
	return s.Repo.ByDocument(ctx, documentID)
}

// Process extracts fields from the document text and replaces any prior
// results. It is the worker-side entry point for extract_fields tasks.
func (s *Service) Process(ctx context.Context, documentID string) error {
	text, err := s.Text.FullText(ctx, documentID)
	if err != nil {
		return err
	}

	extractor := &Extractor{LLM: llm.WithRetry(s.Extractor.LLM,
		telemetry.TaskIDFromContext(ctx), telemetry.RequestIDFromContext(ctx))}
	values, err := extractor.Extract(ctx, text)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	stored := make([]ExtractedField, 0, len(values))
	malformed := 0
	for _, v := range values {
		if v.Malformed {
			malformed++
		}
		stored = append(stored, ExtractedField{
			ID:            uuid.NewString(),
			DocumentID:    documentID,
			Name:          v.Name,
			Type:          v.Type,
			Value:         v.Value,
			Confidence:    v.Confidence,
			Malformed:     v.Malformed,
			SchemaVersion: SchemaVersion,
			ExtractedAt:   now,
		})
	}

	if err := s.Repo.ReplaceForDocument(ctx, documentID, stored); err != nil {
		return err
	}
	telemetry.Info("fields.extracted", map[string]any{
		"document_id": documentID,
		"fields":      len(stored),
		"malformed":   malformed,
	})
	return nil
}
