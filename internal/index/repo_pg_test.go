package index

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPGRepoSaveReplacesEntriesInOneTx(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	snap := buildTestSnapshot(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM index_entries WHERE document_id`).
		WithArgs("doc-1").
		WillReturnResult(sqlmock.NewResult(0, 0))
	for i := 0; i < snap.Len(); i++ {
		mock.ExpectExec(`INSERT INTO index_entries`).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	repo := &PGRepo{DB: db}
	require.NoError(t, repo.Save(context.Background(), snap))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoLoadRebuildsQueryableSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	builtAt := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	columns := []string{"document_id", "chunk_id", "page_number", "span_start", "span_end", "chunk_text", "vector", "model_id", "built_at"}
	rows := sqlmock.NewRows(columns).
		AddRow("doc-1", "doc-1:p1:0-40", 1, 0, 40, "payment terms net thirty days", []byte(`[1,0,0]`), "embed-v1", builtAt).
		AddRow("doc-1", "doc-1:p2:0-40", 2, 0, 40, "governing law delaware", []byte(`[0,0,1]`), "embed-v1", builtAt)
	mock.ExpectQuery(`SELECT .+ FROM index_entries`).
		WithArgs("doc-1").
		WillReturnRows(rows)

	repo := &PGRepo{DB: db}
	snap, err := repo.Load(context.Background(), "doc-1")
	require.NoError(t, err)

	assert.Equal(t, "embed-v1", snap.ModelID)
	assert.Equal(t, builtAt, snap.BuiltAt)
	require.Equal(t, 2, snap.Len())

	matches, err := snap.Query([]float64{0, 0, 1}, 1, "embed-v1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-1:p2:0-40", matches[0].Entry.ChunkID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPGRepoLoadEmptyIsNotIndexed(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	defer db.Close()

	columns := []string{"document_id", "chunk_id", "page_number", "span_start", "span_end", "chunk_text", "vector", "model_id", "built_at"}
	mock.ExpectQuery(`SELECT .+ FROM index_entries`).
		WithArgs("doc-missing").
		WillReturnRows(sqlmock.NewRows(columns))

	repo := &PGRepo{DB: db}
	_, err = repo.Load(context.Background(), "doc-missing")
	assert.ErrorIs(t, err, ErrNotIndexed)
	require.NoError(t, mock.ExpectationsWereMet())
}
