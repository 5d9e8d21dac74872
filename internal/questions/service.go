package questions

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"contract-backend/internal/documents"
	"contract-backend/internal/embedding"
	"contract-backend/internal/index"
	"contract-backend/internal/llm"
	"contract-backend/internal/retrieval"
	"contract-backend/internal/shared/metrics"
	"contract-backend/internal/shared/telemetry"
)

// Stream event types, emitted in order: token* then citations then end,
// or error in place of end on failure.
const (
	EventToken     = "token"
	EventCitations = "citations"
	EventEnd       = "end"
	EventError     = "error"
)

// Event is one element of a streamed answer sequence.
type Event struct {
	Type      string     `json:"type"`
	Token     string     `json:"token,omitempty"`
	Citations []Citation `json:"citations,omitempty"`
	Code      string     `json:"code,omitempty"`
	Message   string     `json:"message,omitempty"`
}

// ErrNotReady indicates a target document is not yet indexed for retrieval.
var ErrNotReady = errors.New("document not ready for questions")

// DocumentGetter looks up target documents when a question is asked.
type DocumentGetter interface {
	GetByID(ctx context.Context, documentID string) (documents.Document, error)
}

// Scheduler enqueues answer tasks. Implemented by the job orchestrator.
type Scheduler interface {
	EnqueueQuestionTask(ctx context.Context, questionID string) (taskID string, err error)
}

// Retriever returns scored chunks for a query over a document scope.
type Retriever interface {
	Retrieve(ctx context.Context, documentIDs []string, query string, k int, minScore float64) ([]retrieval.Result, error)
}

// Service contains business logic for asking and answering questions.
type Service struct {
	Repo      Repo
	Docs      DocumentGetter
	Scheduler Scheduler
	Retriever Retriever
	Synth     *Synthesizer
	TopK      int
	MinScore  float64
}

// Ask validates the query and target documents, persists a pending
// question, and enqueues an answer task. The question id is returned
// immediately; the answer arrives asynchronously.
func (s *Service) Ask(ctx context.Context, query string, documentIDs []string) (Question, error) {
	if strings.TrimSpace(query) == "" {
		return Question{}, errors.New("query is required")
	}
	if len(documentIDs) == 0 {
		return Question{}, errors.New("at least one document id is required")
	}

	for _, docID := range documentIDs {
		doc, err := s.Docs.GetByID(ctx, docID)
		if err != nil {
			return Question{}, err
		}
		// Indexing must have finished; completed is the only status
		// reached after the index snapshot is persisted, so answer
		// tasks never race the build_index chain.
		if doc.Status != documents.StatusCompleted {
			return Question{}, ErrNotReady
		}
	}

	q := Question{
		ID:          uuid.NewString(),
		Query:       query,
		DocumentIDs: documentIDs,
		Status:      StatusPending,
		Citations:   []Citation{},
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.Repo.Create(ctx, q); err != nil {
		return Question{}, err
	}

	taskID, err := s.Scheduler.EnqueueQuestionTask(ctx, q.ID)
	if err != nil {
		return Question{}, err
	}
	metrics.IncQuestionAsked()
	telemetry.Info("question.asked", map[string]any{
		"question_id":  q.ID,
		"document_ids": documentIDs,
		"task_id":      taskID,
	})
	return q, nil
}

// Get returns a question by ID.
func (s *Service) Get(ctx context.Context, questionID string) (Question, error) {
	if questionID == "" {
		return Question{}, errors.New("questionID is required")
	}
	return s.Repo.GetByID(ctx, questionID)
}

// Process answers a question in one blocking call. It is the worker-side
// entry point for answer tasks.
func (s *Service) Process(ctx context.Context, questionID string) error {
	if err := s.Repo.MarkProcessing(ctx, questionID); err != nil {
		if errors.Is(err, ErrTerminal) {
			telemetry.Warn("question.already_terminal", map[string]any{"question_id": questionID})
			return nil
		}
		return err
	}

	q, err := s.Repo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}

	results, err := s.Retriever.Retrieve(ctx, q.DocumentIDs, q.Query, s.topK(), s.minScore())
	if err != nil {
		return s.fail(ctx, questionID, "", err)
	}

	answer, citations, err := s.synth(ctx).Answer(ctx, q.Query, results)
	if err != nil {
		return s.fail(ctx, questionID, "", err)
	}

	if err := s.Repo.Complete(ctx, questionID, answer, citations); err != nil {
		return err
	}
	metrics.IncQuestionAnswered()
	telemetry.Info("question.answered", map[string]any{
		"question_id": questionID,
		"citations":   len(citations),
	})
	return nil
}

// Stream answers a question while emitting the event sequence to the
// caller. Emission is single-pass and forward-only. If ctx is cancelled
// mid-stream, the partial answer is persisted and the question is marked
// failed with a cancellation reason.
func (s *Service) Stream(ctx context.Context, questionID string, emit func(Event) error) error {
	if err := s.Repo.MarkProcessing(ctx, questionID); err != nil {
		if errors.Is(err, ErrTerminal) {
			return s.replayTerminal(ctx, questionID, emit)
		}
		return err
	}

	q, err := s.Repo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}

	results, err := s.Retriever.Retrieve(ctx, q.DocumentIDs, q.Query, s.topK(), s.minScore())
	if err != nil {
		reason := failureReason(err)
		if failErr := s.Repo.Fail(context.WithoutCancel(ctx), questionID, "", reason); failErr != nil {
			telemetry.Error("question.fail_record", map[string]any{"question_id": questionID, "error": failErr.Error()})
		}
		emit(Event{Type: EventError, Code: reason, Message: err.Error()})
		return err
	}

	answer, citations, err := s.synth(ctx).AnswerStream(ctx, q.Query, results, func(token string) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return emit(Event{Type: EventToken, Token: token})
	})
	if err != nil {
		reason := failureReason(err)
		if failErr := s.Repo.Fail(context.WithoutCancel(ctx), questionID, answer, reason); failErr != nil {
			telemetry.Error("question.fail_record", map[string]any{"question_id": questionID, "error": failErr.Error()})
		}
		emit(Event{Type: EventError, Code: reason, Message: err.Error()})
		telemetry.Warn("question.stream_failed", map[string]any{
			"question_id": questionID,
			"reason":      reason,
			"partial_len": len(answer),
		})
		return err
	}

	if err := s.Repo.Complete(ctx, questionID, answer, citations); err != nil {
		return err
	}
	metrics.IncQuestionAnswered()
	if err := emit(Event{Type: EventCitations, Citations: citations}); err != nil {
		return err
	}
	return emit(Event{Type: EventEnd})
}

// replayTerminal re-emits a finished question's result as an event
// sequence so reconnecting clients get a consistent stream.
func (s *Service) replayTerminal(ctx context.Context, questionID string, emit func(Event) error) error {
	q, err := s.Repo.GetByID(ctx, questionID)
	if err != nil {
		return err
	}
	if q.Status == StatusFailed {
		return emit(Event{Type: EventError, Code: q.FailureReason, Message: "question failed"})
	}
	if q.Answer != "" {
		if err := emit(Event{Type: EventToken, Token: q.Answer}); err != nil {
			return err
		}
	}
	if err := emit(Event{Type: EventCitations, Citations: q.Citations}); err != nil {
		return err
	}
	return emit(Event{Type: EventEnd})
}

func (s *Service) fail(ctx context.Context, questionID, partial string, cause error) error {
	reason := failureReason(cause)
	if err := s.Repo.Fail(context.WithoutCancel(ctx), questionID, partial, reason); err != nil {
		telemetry.Error("question.fail_record", map[string]any{"question_id": questionID, "error": err.Error()})
	}
	telemetry.Warn("question.failed", map[string]any{
		"question_id": questionID,
		"reason":      reason,
		"error":       cause.Error(),
	})
	return cause
}

// synth returns the synthesizer with its model client wrapped for one
// retried attempt, labelled with the ids carried by ctx.
func (s *Service) synth(ctx context.Context) *Synthesizer {
	return &Synthesizer{LLM: llm.WithRetry(s.Synth.LLM,
		telemetry.TaskIDFromContext(ctx), telemetry.RequestIDFromContext(ctx))}
}

func (s *Service) topK() int {
	if s.TopK > 0 {
		return s.TopK
	}
	return retrieval.DefaultTopK
}

func (s *Service) minScore() float64 {
	if s.MinScore > 0 {
		return s.MinScore
	}
	return retrieval.DefaultMinScore
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, context.Canceled):
		return ReasonCancelled
	case errors.Is(err, index.ErrStaleIndex):
		return ReasonStaleIndex
	case errors.Is(err, embedding.ErrUnavailable), errors.Is(err, llm.ErrUnavailable), errors.Is(err, context.DeadlineExceeded):
		return ReasonInferenceUnavailable
	default:
		return err.Error()
	}
}
