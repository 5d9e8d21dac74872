package jobs

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"contract-backend/internal/chunker"
	"contract-backend/internal/documents"
	"contract-backend/internal/extract"
	"contract-backend/internal/index"
	"contract-backend/internal/queue"
	"contract-backend/internal/shared/storage/object/local"
)

type stubEmbedder struct {
	err error
}

func (s *stubEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	vectors := make([][]float64, len(texts))
	for i := range texts {
		vectors[i] = []float64{1, 0, 0}
	}
	return vectors, nil
}

func (s *stubEmbedder) ModelID() string { return "embed-test" }

type recordingNotifier struct {
	events []Event
}

func (r *recordingNotifier) Notify(ctx context.Context, event Event) {
	r.events = append(r.events, event)
}

type noopStage struct {
	called []string
	err    error
}

func (n *noopStage) Process(ctx context.Context, id string) error {
	n.called = append(n.called, id)
	return n.err
}

type fixture struct {
	processor *Processor
	tasks     *MemoryRepo
	docs      *documents.MemoryRepo
	queue     *queue.LocalClient
	notifier  *recordingNotifier
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	tasks := NewMemoryRepo()
	docs := documents.NewMemoryRepo()
	q := queue.NewLocalClient(16)
	notifier := &recordingNotifier{}
	store := local.New(t.TempDir())

	scheduler := &Scheduler{Repo: tasks, Queue: q}
	processor := &Processor{
		Tasks:     tasks,
		Docs:      docs,
		Store:     store,
		Indexes:   &index.Source{Cache: index.NewStore(), Repo: index.NewMemoryRepo()},
		Embedder:  &stubEmbedder{},
		ChunkCfg:  chunker.Config{Size: 200, Overlap: 40, MinSize: 20},
		Fields:    &noopStage{},
		Audit:     &noopStage{},
		Questions: &noopStage{},
		Scheduler: scheduler,
		Notifier:  notifier,
	}
	return &fixture{processor: processor, tasks: tasks, docs: docs, queue: q, notifier: notifier}
}

func (f *fixture) uploadDocument(t *testing.T, text string) documents.Document {
	t.Helper()
	ctx := context.Background()
	doc := documents.Document{
		ID:         "doc-1",
		FileName:   "contract.txt",
		Status:     documents.StatusUploaded,
		UploadedAt: time.Now().UTC(),
	}
	key, size, mime, err := f.processor.Store.Save(ctx, doc.ID, doc.FileName, strings.NewReader(text))
	if err != nil {
		t.Fatalf("save object: %v", err)
	}
	doc.StorageKey = key
	doc.SizeBytes = size
	doc.MimeType = mime
	if err := f.docs.Create(ctx, doc); err != nil {
		t.Fatalf("create doc: %v", err)
	}
	return doc
}

func (f *fixture) enqueue(t *testing.T, taskType, documentID string) string {
	t.Helper()
	taskID, err := (&Scheduler{Repo: f.tasks, Queue: f.queue}).EnqueueDocumentTask(context.Background(), taskType, documentID)
	if err != nil {
		t.Fatalf("enqueue %s: %v", taskType, err)
	}
	return taskID
}

func TestExtractTextChainsIntoBuildIndex(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uploadDocument(t, "Payment shall be made within 30 days of invoice. The term is two years.")

	taskID := f.enqueue(t, TypeExtractText, "doc-1")
	// Consume the enqueue message before processing.
	if _, err := f.queue.Receive(ctx); err != nil {
		t.Fatalf("receive: %v", err)
	}

	if err := f.processor.ProcessTask(ctx, taskID); err != nil {
		t.Fatalf("process extract_text: %v", err)
	}

	doc, _ := f.docs.GetByID(ctx, "doc-1")
	if doc.Status != documents.StatusExtracted {
		t.Fatalf("expected extracted, got %s", doc.Status)
	}
	if doc.PageCount != 1 {
		t.Fatalf("expected 1 page, got %d", doc.PageCount)
	}

	// The chain enqueued build_index.
	msg, err := f.queue.Receive(ctx)
	if err != nil {
		t.Fatalf("receive chained message: %v", err)
	}
	chained, err := f.tasks.GetByID(ctx, msg.TaskID)
	if err != nil {
		t.Fatalf("chained task: %v", err)
	}
	if chained.Type != TypeBuildIndex {
		t.Fatalf("expected build_index, got %s", chained.Type)
	}

	if err := f.processor.ProcessTask(ctx, chained.ID); err != nil {
		t.Fatalf("process build_index: %v", err)
	}
	doc, _ = f.docs.GetByID(ctx, "doc-1")
	if doc.Status != documents.StatusCompleted {
		t.Fatalf("expected completed after indexing, got %s", doc.Status)
	}
	if !f.processor.Indexes.Ready(ctx, "doc-1") {
		t.Fatal("expected index snapshot")
	}

	// The entries survive outside the process cache; a fresh cache over
	// the same repo serves the same snapshot.
	rehydrated := &index.Source{Cache: index.NewStore(), Repo: f.processor.Indexes.Repo}
	if !rehydrated.Ready(ctx, "doc-1") {
		t.Fatal("expected snapshot to hydrate from persisted entries")
	}
}

func TestExtractionFailureBlocksDependents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uploadDocument(t, "")

	taskID := f.enqueue(t, TypeExtractText, "doc-1")
	err := f.processor.ProcessTask(ctx, taskID)
	if !errors.Is(err, extract.ErrNoText) {
		t.Fatalf("expected ErrNoText, got %v", err)
	}

	task, _ := f.tasks.GetByID(ctx, taskID)
	if task.Status != StatusFailed {
		t.Fatalf("expected failed, got %s", task.Status)
	}
	if task.ErrorCode != ErrorCodeExtraction {
		t.Fatalf("expected %s, got %s", ErrorCodeExtraction, task.ErrorCode)
	}

	doc, _ := f.docs.GetByID(ctx, "doc-1")
	if doc.Status != documents.StatusFailed {
		t.Fatalf("expected document failed, got %s", doc.Status)
	}

	// Dependent stages refuse to run against the unindexed document.
	auditTask := f.enqueue(t, TypeRunAudit, "doc-1")
	if err := f.processor.ProcessTask(ctx, auditTask); !errors.Is(err, index.ErrNotIndexed) {
		t.Fatalf("expected ErrNotIndexed, got %v", err)
	}
	stage := f.processor.Audit.(*noopStage)
	if len(stage.called) != 0 {
		t.Fatal("audit stage must not run without an index")
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	repo := NewMemoryRepo()
	ctx := context.Background()
	task := Task{ID: "task-1", Type: TypeExtractText, Status: StatusRunning, CreatedAt: time.Now().UTC()}
	if err := repo.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	steps := []int{10, 60, 30, 90, 90, 20}
	last := 0
	for _, p := range steps {
		if err := repo.UpdateProgress(ctx, "task-1", p, "step"); err != nil {
			t.Fatalf("update: %v", err)
		}
		got, _ := repo.GetByID(ctx, "task-1")
		if got.Progress < last {
			t.Fatalf("progress decreased: %d -> %d", last, got.Progress)
		}
		last = got.Progress
	}
	if last != 90 {
		t.Fatalf("expected final progress 90, got %d", last)
	}
}

func TestTerminalTaskRedeliveryIsIgnored(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	task := Task{ID: "task-1", Type: TypeRunAudit, DocumentID: "doc-1", Status: StatusCompleted, CreatedAt: time.Now().UTC()}
	if err := f.tasks.Create(ctx, task); err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := f.processor.ProcessTask(ctx, "task-1"); err != nil {
		t.Fatalf("redelivery should be acknowledged, got %v", err)
	}
	stage := f.processor.Audit.(*noopStage)
	if len(stage.called) != 0 {
		t.Fatal("terminal task must not rerun")
	}
}

func TestTerminalTransitionsEmitEvents(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.uploadDocument(t, "Some contract text long enough to chunk and index properly for this test case.")

	taskID := f.enqueue(t, TypeExtractText, "doc-1")
	if err := f.processor.ProcessTask(ctx, taskID); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(f.notifier.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(f.notifier.events))
	}
	event := f.notifier.events[0]
	if event.EventType != TypeExtractText || event.Status != StatusCompleted || event.DocumentID != "doc-1" {
		t.Fatalf("unexpected event: %+v", event)
	}
	if event.Timestamp == "" {
		t.Fatal("event timestamp missing")
	}
}

func TestClassifyFailure(t *testing.T) {
	cases := []struct {
		err  error
		code string
	}{
		{extract.ErrNoText, ErrorCodeExtraction},
		{index.ErrStaleIndex, ErrorCodeStaleIndex},
		{context.Canceled, ErrorCodeCancelled},
		{context.DeadlineExceeded, ErrorCodeInference},
		{errors.New("openai request timeout: llm"), ErrorCodeInference},
		{errors.New("some unexpected condition"), ErrorCodeInternal},
	}
	for _, tc := range cases {
		code, _ := classifyFailure(tc.err)
		if code != tc.code {
			t.Errorf("classifyFailure(%v) = %s, want %s", tc.err, code, tc.code)
		}
	}
}
