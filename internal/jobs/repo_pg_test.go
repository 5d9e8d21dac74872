package jobs

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGRepoCreateStoresOptionalColumnsAsNull(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}
	task := Task{
		ID:         "task-1",
		Type:       TypeExtractText,
		DocumentID: "doc-1",
		Status:     StatusQueued,
		CreatedAt:  time.Now().UTC(),
	}

	mock.ExpectExec("INSERT INTO tasks").
		WithArgs(
			task.ID,
			task.Type,
			nullTaskString(task.DocumentID),
			nullTaskString(""), // question_id
			task.Status,
			0,
			nullTaskString(""), // step
			nullTaskString(""), // error_code
			nullTaskString(""), // error_detail
			task.CreatedAt,
			nullTaskTime(nil),
			nullTaskTime(nil),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), task); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateProgressUsesMonotonicClamp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE tasks SET progress = GREATEST").
		WithArgs("task-1", 60, "embedding").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.UpdateProgress(context.Background(), "task-1", 60, "embedding"); err != nil {
		t.Fatalf("UpdateProgress: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpdateProgressUnknownTask(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	repo := &PGRepo{DB: db}

	mock.ExpectExec("UPDATE tasks SET progress = GREATEST").
		WithArgs("missing", 10, "").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateProgress(context.Background(), "missing", 10, ""); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
