package questions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"
)

// PGRepo implements Repo using Postgres. Document scope and citations are
// stored as jsonb columns.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new question.
func (r *PGRepo) Create(ctx context.Context, q Question) error {
	const query = `
INSERT INTO questions (id, query, document_ids, status, answer, citations, failure_reason, created_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	docIDs, err := json.Marshal(q.DocumentIDs)
	if err != nil {
		return err
	}
	citations, err := marshalCitations(q.Citations)
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(
		ctx,
		query,
		q.ID,
		q.Query,
		docIDs,
		q.Status,
		q.Answer,
		citations,
		nullString(q.FailureReason),
		q.CreatedAt,
		nullTime(q.CompletedAt),
	)
	return err
}

// GetByID returns a question by ID.
func (r *PGRepo) GetByID(ctx context.Context, questionID string) (Question, error) {
	const query = `
SELECT id, query, document_ids, status, answer, citations, failure_reason, created_at, completed_at
FROM questions
WHERE id = $1`

	var q Question
	var docIDs, citations []byte
	var failureReason sql.NullString
	var completedAt sql.NullTime
	err := r.DB.QueryRowContext(ctx, query, questionID).Scan(
		&q.ID,
		&q.Query,
		&docIDs,
		&q.Status,
		&q.Answer,
		&citations,
		&failureReason,
		&q.CreatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Question{}, ErrNotFound
	}
	if err != nil {
		return Question{}, err
	}
	if err := json.Unmarshal(docIDs, &q.DocumentIDs); err != nil {
		return Question{}, err
	}
	if len(citations) > 0 {
		if err := json.Unmarshal(citations, &q.Citations); err != nil {
			return Question{}, err
		}
	}
	if q.Citations == nil {
		q.Citations = []Citation{}
	}
	q.FailureReason = failureReason.String
	if completedAt.Valid {
		t := completedAt.Time
		q.CompletedAt = &t
	}
	return q, nil
}

// MarkProcessing moves a pending question to processing.
func (r *PGRepo) MarkProcessing(ctx context.Context, questionID string) error {
	const query = `
UPDATE questions SET status = $2
WHERE id = $1 AND status NOT IN ($3, $4)`

	res, err := r.DB.ExecContext(ctx, query, questionID, StatusProcessing, StatusCompleted, StatusFailed)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		if _, getErr := r.GetByID(ctx, questionID); getErr != nil {
			return getErr
		}
		return ErrTerminal
	}
	return nil
}

// Complete records the final answer and citations.
func (r *PGRepo) Complete(ctx context.Context, questionID, answer string, citations []Citation) error {
	const query = `
UPDATE questions SET status = $2, answer = $3, citations = $4, failure_reason = NULL, completed_at = $5
WHERE id = $1`

	payload, err := marshalCitations(citations)
	if err != nil {
		return err
	}
	res, err := r.DB.ExecContext(ctx, query, questionID, StatusCompleted, answer, payload, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireQuestionRow(res)
}

// Fail records a failure reason, preserving partial answer text.
func (r *PGRepo) Fail(ctx context.Context, questionID, partialAnswer, reason string) error {
	const query = `
UPDATE questions SET status = $2, answer = $3, failure_reason = $4, completed_at = $5
WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, questionID, StatusFailed, partialAnswer, reason, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireQuestionRow(res)
}

// DeleteByDocument removes questions scoped solely to the given document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	const query = `DELETE FROM questions WHERE document_ids = $1`
	scope, err := json.Marshal([]string{documentID})
	if err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, query, scope)
	return err
}

func marshalCitations(citations []Citation) ([]byte, error) {
	if citations == nil {
		citations = []Citation{}
	}
	return json.Marshal(citations)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireQuestionRow(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

var _ Repo = (*PGRepo)(nil)
