package jobs

import (
	"context"
	"database/sql"
	"errors"
	"sort"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new task.
func (r *PGRepo) Create(ctx context.Context, task Task) error {
	const query = `
INSERT INTO tasks (id, type, document_id, question_id, status, progress, step, error_code, error_detail, created_at, started_at, completed_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		task.ID,
		task.Type,
		nullTaskString(task.DocumentID),
		nullTaskString(task.QuestionID),
		task.Status,
		task.Progress,
		nullTaskString(task.Step),
		nullTaskString(task.ErrorCode),
		nullTaskString(task.ErrorDetail),
		task.CreatedAt,
		nullTaskTime(task.StartedAt),
		nullTaskTime(task.CompletedAt),
	)
	return err
}

// GetByID returns a task by ID.
func (r *PGRepo) GetByID(ctx context.Context, taskID string) (Task, error) {
	const query = `
SELECT id, type, document_id, question_id, status, progress, step, error_code, error_detail, created_at, started_at, completed_at
FROM tasks
WHERE id = $1`

	task, err := scanTask(r.DB.QueryRowContext(ctx, query, taskID))
	if errors.Is(err, sql.ErrNoRows) {
		return Task{}, ErrNotFound
	}
	return task, err
}

// MarkRunning transitions a task to running.
func (r *PGRepo) MarkRunning(ctx context.Context, taskID string) error {
	const query = `UPDATE tasks SET status = $2, started_at = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, taskID, StatusRunning, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireTaskRow(res)
}

// UpdateProgress records progress and step. GREATEST keeps progress
// monotonic under concurrent writers.
func (r *PGRepo) UpdateProgress(ctx context.Context, taskID string, progress int, step string) error {
	const query = `
UPDATE tasks SET progress = GREATEST(progress, LEAST($2, 100)), step = COALESCE(NULLIF($3, ''), step)
WHERE id = $1`

	res, err := r.DB.ExecContext(ctx, query, taskID, progress, step)
	if err != nil {
		return err
	}
	return requireTaskRow(res)
}

// MarkCompleted transitions a task to completed at 100 percent.
func (r *PGRepo) MarkCompleted(ctx context.Context, taskID string) error {
	const query = `UPDATE tasks SET status = $2, progress = 100, completed_at = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, taskID, StatusCompleted, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireTaskRow(res)
}

// MarkFailed transitions a task to failed with the error recorded.
func (r *PGRepo) MarkFailed(ctx context.Context, taskID, errorCode, errorDetail string) error {
	const query = `UPDATE tasks SET status = $2, error_code = $3, error_detail = $4, completed_at = $5 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, taskID, StatusFailed, errorCode, errorDetail, time.Now().UTC())
	if err != nil {
		return err
	}
	return requireTaskRow(res)
}

// LatestByDocument returns the most recent task per type, newest first.
func (r *PGRepo) LatestByDocument(ctx context.Context, documentID string) ([]Task, error) {
	const query = `
SELECT DISTINCT ON (type) id, type, document_id, question_id, status, progress, step, error_code, error_detail, created_at, started_at, completed_at
FROM tasks
WHERE document_id = $1
ORDER BY type, created_at DESC`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := []Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	// DISTINCT ON ordering is by type; re-sort newest first.
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// DeleteByDocument removes all tasks for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM tasks WHERE document_id = $1`, documentID)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (Task, error) {
	var task Task
	var documentID, questionID, step, errorCode, errorDetail sql.NullString
	var startedAt, completedAt sql.NullTime
	err := row.Scan(
		&task.ID,
		&task.Type,
		&documentID,
		&questionID,
		&task.Status,
		&task.Progress,
		&step,
		&errorCode,
		&errorDetail,
		&task.CreatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return Task{}, err
	}
	task.DocumentID = documentID.String
	task.QuestionID = questionID.String
	task.Step = step.String
	task.ErrorCode = errorCode.String
	task.ErrorDetail = errorDetail.String
	if startedAt.Valid {
		t := startedAt.Time
		task.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		task.CompletedAt = &t
	}
	return task, nil
}

func nullTaskString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullTaskTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func requireTaskRow(res sql.Result) error {
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
