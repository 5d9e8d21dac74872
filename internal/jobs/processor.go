package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/chunker"
	"contract-backend/internal/documents"
	"contract-backend/internal/embedding"
	"contract-backend/internal/extract"
	"contract-backend/internal/index"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/storage/object"
	"contract-backend/internal/shared/telemetry"
)

// DocumentProcessor runs one document-scoped stage to completion.
type DocumentProcessor interface {
	Process(ctx context.Context, documentID string) error
}

// QuestionProcessor answers one question to completion.
type QuestionProcessor interface {
	Process(ctx context.Context, questionID string) error
}

// Processor executes tasks pulled off the queue. Each task type maps to
// one pipeline stage; extract_text chains into build_index on success.
type Processor struct {
	Tasks     Repo
	Docs      documents.Repo
	Store     object.ObjectStore
	Indexes   *index.Source
	Embedder  embedding.Embedder
	ChunkCfg  chunker.Config
	Fields    DocumentProcessor
	Audit     DocumentProcessor
	Questions QuestionProcessor
	Scheduler *Scheduler
	Notifier  Notifier
}

// ProcessTask loads, runs, and finalizes one task. Redelivered messages
// for already-terminal tasks are acknowledged without rerunning.
func (p *Processor) ProcessTask(ctx context.Context, taskID string) error {
	task, err := p.Tasks.GetByID(ctx, taskID)
	if err != nil {
		return err
	}
	if task.Status == StatusCompleted || task.Status == StatusFailed {
		telemetry.Warn("task.already_terminal", map[string]any{"task_id": taskID, "status": task.Status})
		return nil
	}

	if err := p.Tasks.MarkRunning(ctx, taskID); err != nil {
		return err
	}
	ctx = telemetry.WithTaskID(ctx, task.ID)
	metrics.IncTaskStarted()
	startedAt := time.Now().UTC()
	telemetry.Info("task.started", map[string]any{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"document_id": task.DocumentID,
		"question_id": task.QuestionID,
	})

	if err := p.run(ctx, task); err != nil {
		p.finishFailed(ctx, task, startedAt, err)
		return err
	}
	return p.finishCompleted(ctx, task, startedAt)
}

func (p *Processor) run(ctx context.Context, task Task) error {
	switch task.Type {
	case TypeExtractText:
		return p.runExtractText(ctx, task)
	case TypeBuildIndex:
		return p.runBuildIndex(ctx, task)
	case TypeExtractFields:
		if err := p.requireIndexed(ctx, task.DocumentID); err != nil {
			return err
		}
		return p.Fields.Process(ctx, task.DocumentID)
	case TypeRunAudit:
		if err := p.requireIndexed(ctx, task.DocumentID); err != nil {
			return err
		}
		return p.Audit.Process(ctx, task.DocumentID)
	case TypeAnswerQuestion:
		return p.Questions.Process(ctx, task.QuestionID)
	}
	return fmt.Errorf("unknown task type %q", task.Type)
}

func (p *Processor) runExtractText(ctx context.Context, task Task) error {
	doc, err := p.Docs.GetByID(ctx, task.DocumentID)
	if err != nil {
		return err
	}
	if err := p.Docs.UpdateStatus(ctx, doc.ID, documents.StatusExtracting, ""); err != nil {
		return err
	}
	p.progress(ctx, task.ID, 10, "fetching document")

	pages, err := extract.Pages(ctx, p.Store, doc.StorageKey, doc.MimeType, doc.FileName)
	if err != nil {
		return err
	}
	p.progress(ctx, task.ID, 60, "saving pages")

	docPages := make([]documents.Page, 0, len(pages))
	for _, page := range pages {
		docPages = append(docPages, documents.Page{
			ID:         uuid.NewString(),
			DocumentID: doc.ID,
			PageNumber: page.PageNumber,
			Text:       page.Text,
		})
	}
	if err := p.Docs.CreatePages(ctx, docPages); err != nil {
		return err
	}
	if err := p.Docs.SetPageCount(ctx, doc.ID, len(docPages)); err != nil {
		return err
	}
	if err := p.Docs.UpdateStatus(ctx, doc.ID, documents.StatusExtracted, ""); err != nil {
		return err
	}
	p.progress(ctx, task.ID, 90, "extraction complete")
	return nil
}

func (p *Processor) runBuildIndex(ctx context.Context, task Task) error {
	doc, err := p.Docs.GetByID(ctx, task.DocumentID)
	if err != nil {
		return err
	}
	if err := p.Docs.UpdateStatus(ctx, doc.ID, documents.StatusAnalyzing, ""); err != nil {
		return err
	}
	p.progress(ctx, task.ID, 10, "chunking pages")

	pages, err := p.Docs.PagesByDocument(ctx, doc.ID)
	if err != nil {
		return err
	}

	var chunks []chunker.Chunk
	for _, page := range pages {
		chunks = append(chunks, chunker.Split(page.PageNumber, page.Text, p.ChunkCfg)...)
	}
	if len(chunks) == 0 {
		return extract.ErrNoText
	}
	p.progress(ctx, task.ID, 30, "embedding chunks")

	texts := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		texts = append(texts, chunk.Text)
	}
	vectors, err := p.Embedder.Embed(ctx, texts)
	if err != nil {
		return err
	}
	p.progress(ctx, task.ID, 80, "building index")

	snapshot, err := index.Build(doc.ID, p.Embedder.ModelID(), chunks, vectors)
	if err != nil {
		return err
	}
	// Entries persist before the swap so any process can hydrate them.
	if err := p.Indexes.Install(ctx, snapshot); err != nil {
		return err
	}

	if err := p.Docs.UpdateStatus(ctx, doc.ID, documents.StatusCompleted, ""); err != nil {
		return err
	}
	p.progress(ctx, task.ID, 95, "index ready")
	return nil
}

// requireIndexed gates read-only stages on a built index, so failed
// prerequisites surface as a blocked dependent rather than a confusing
// downstream error.
func (p *Processor) requireIndexed(ctx context.Context, documentID string) error {
	if p.Indexes != nil && p.Indexes.Ready(ctx, documentID) {
		return nil
	}
	doc, err := p.Docs.GetByID(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.Status != documents.StatusCompleted {
		return fmt.Errorf("document %s: %w", documentID, index.ErrNotIndexed)
	}
	return nil
}

func (p *Processor) finishCompleted(ctx context.Context, task Task, startedAt time.Time) error {
	if err := p.Tasks.MarkCompleted(ctx, task.ID); err != nil {
		return err
	}
	metrics.IncTaskCompleted()
	metrics.ObserveTaskDurationMs(float64(time.Since(startedAt).Milliseconds()))
	telemetry.Info("task.completed", map[string]any{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"document_id": task.DocumentID,
		"question_id": task.QuestionID,
		"duration_ms": time.Since(startedAt).Milliseconds(),
	})
	p.notify(ctx, task, StatusCompleted)

	// extract_text chains into build_index; later stages are scheduled
	// on demand once the index exists.
	if task.Type == TypeExtractText && p.Scheduler != nil {
		if _, err := p.Scheduler.EnqueueDocumentTask(ctx, TypeBuildIndex, task.DocumentID); err != nil {
			telemetry.Error("task.chain_enqueue", map[string]any{
				"task_id":     task.ID,
				"document_id": task.DocumentID,
				"error":       err.Error(),
			})
		}
	}
	return nil
}

func (p *Processor) finishFailed(ctx context.Context, task Task, startedAt time.Time, cause error) {
	ctx = context.WithoutCancel(ctx)
	code, retryable := classifyFailure(cause)
	detail := sanitizeError(cause)

	if err := p.Tasks.MarkFailed(ctx, task.ID, code, detail); err != nil {
		telemetry.Error("task.fail_record", map[string]any{"task_id": task.ID, "error": err.Error()})
	}
	metrics.IncTaskFailed()
	metrics.ObserveTaskDurationMs(float64(time.Since(startedAt).Milliseconds()))

	// Pipeline-stage failures surface on the document so dependent
	// tasks are never scheduled against a broken prerequisite.
	if task.DocumentID != "" && (task.Type == TypeExtractText || task.Type == TypeBuildIndex) {
		if err := p.Docs.UpdateStatus(ctx, task.DocumentID, documents.StatusFailed, code); err != nil {
			telemetry.Error("task.doc_status", map[string]any{"document_id": task.DocumentID, "error": err.Error()})
		}
	}

	telemetry.Error("task.failed", map[string]any{
		"task_id":     task.ID,
		"task_type":   task.Type,
		"document_id": task.DocumentID,
		"question_id": task.QuestionID,
		"error_code":  code,
		"retryable":   retryable,
		"error":       detail,
	})
	p.notify(ctx, task, StatusFailed)
}

func (p *Processor) notify(ctx context.Context, task Task, status string) {
	if p.Notifier == nil {
		return
	}
	p.Notifier.Notify(ctx, Event{
		EventType:  task.Type,
		DocumentID: task.DocumentID,
		QuestionID: task.QuestionID,
		Status:     status,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	})
}

func (p *Processor) progress(ctx context.Context, taskID string, progress int, step string) {
	if err := p.Tasks.UpdateProgress(ctx, taskID, progress, step); err != nil {
		telemetry.Warn("task.progress", map[string]any{"task_id": taskID, "error": err.Error()})
	}
}
