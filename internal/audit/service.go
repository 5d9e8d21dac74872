package audit

import (
	"context"
	"errors"

	"contract-backend/internal/documents"
	"contract-backend/internal/fields"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/telemetry"
)

// PageProvider supplies the extracted pages of a document.
type PageProvider interface {
	Pages(ctx context.Context, documentID string) ([]documents.Page, error)
}

// FieldProvider supplies extracted fields, when extraction has run.
type FieldProvider interface {
	Get(ctx context.Context, documentID string) ([]fields.ExtractedField, error)
}

// Scheduler enqueues audit tasks.
type Scheduler interface {
	EnqueueDocumentTask(ctx context.Context, taskType, documentID string) (taskID string, err error)
}

// Service contains business logic for running audits and serving findings.
type Service struct {
	Repo      Repo
	Pages     PageProvider
	Fields    FieldProvider
	Engine    *Engine
	Scheduler Scheduler
}

// Enqueue schedules a run_audit task for the document.
func (s *Service) Enqueue(ctx context.Context, documentID string) (string, error) {
	if documentID == "" {
		return "", errors.New("documentID is required")
	}
	return s.Scheduler.EnqueueDocumentTask(ctx, "run_audit", documentID)
}

// Findings returns the stored findings for a document.
func (s *Service) Findings(ctx context.Context, documentID string) ([]Finding, error) {
	return s.Repo.ByDocument(ctx, documentID)
}

// Process runs the audit engine over a document and replaces its stored
// findings. It is the worker-side entry point for run_audit tasks.
// Extraction results are optional; field-dependent rules simply see an
// empty field map when extraction has not run.
func (s *Service) Process(ctx context.Context, documentID string) error {
	pages, err := s.Pages.Pages(ctx, documentID)
	if err != nil {
		return err
	}

	fieldMap := map[string]fields.ExtractedField{}
	if s.Fields != nil {
		extracted, err := s.Fields.Get(ctx, documentID)
		if err != nil && !errors.Is(err, fields.ErrNotExtracted) {
			return err
		}
		for _, f := range extracted {
			fieldMap[f.Name] = f
		}
	}

	findings, skipped := s.Engine.Run(ctx, Input{
		DocumentID: documentID,
		Pages:      pages,
		Fields:     fieldMap,
	})

	if err := s.Repo.ReplaceForDocument(ctx, documentID, findings); err != nil {
		return err
	}
	metrics.IncAuditRun()
	telemetry.Info("audit.completed", map[string]any{
		"document_id": documentID,
		"findings":    len(findings),
		"skipped":     len(skipped),
	})
	return nil
}
