package documents

import (
	"context"
	"database/sql"
	"errors"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (id, file_name, mime_type, size_bytes, storage_key, status, page_count, failure_reason, uploaded_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.FileName,
		doc.MimeType,
		doc.SizeBytes,
		doc.StorageKey,
		doc.Status,
		doc.PageCount,
		nullString(doc.FailureReason),
		doc.UploadedAt,
	)
	return err
}

// GetByID returns a document by ID.
func (r *PGRepo) GetByID(ctx context.Context, documentID string) (Document, error) {
	const query = `
SELECT id, file_name, mime_type, size_bytes, storage_key, status, page_count, failure_reason, uploaded_at
FROM documents
WHERE id = $1`

	var doc Document
	var failureReason sql.NullString
	err := r.DB.QueryRowContext(ctx, query, documentID).Scan(
		&doc.ID,
		&doc.FileName,
		&doc.MimeType,
		&doc.SizeBytes,
		&doc.StorageKey,
		&doc.Status,
		&doc.PageCount,
		&failureReason,
		&doc.UploadedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Document{}, ErrNotFound
	}
	if err != nil {
		return Document{}, err
	}
	doc.FailureReason = failureReason.String
	return doc, nil
}

// List returns documents newest-first, honoring limit/offset.
func (r *PGRepo) List(ctx context.Context, limit, offset int) ([]Document, error) {
	const query = `
SELECT id, file_name, mime_type, size_bytes, storage_key, status, page_count, failure_reason, uploaded_at
FROM documents
ORDER BY uploaded_at DESC, id
LIMIT $1 OFFSET $2`

	if limit <= 0 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.DB.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := []Document{}
	for rows.Next() {
		var doc Document
		var failureReason sql.NullString
		if err := rows.Scan(
			&doc.ID,
			&doc.FileName,
			&doc.MimeType,
			&doc.SizeBytes,
			&doc.StorageKey,
			&doc.Status,
			&doc.PageCount,
			&failureReason,
			&doc.UploadedAt,
		); err != nil {
			return nil, err
		}
		doc.FailureReason = failureReason.String
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// UpdateStatus sets the lifecycle status and optional failure reason.
func (r *PGRepo) UpdateStatus(ctx context.Context, documentID, status, failureReason string) error {
	const query = `UPDATE documents SET status = $2, failure_reason = $3 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID, status, nullString(failureReason))
	if err != nil {
		return err
	}
	return requireRow(res)
}

// SetPageCount records the number of extracted pages.
func (r *PGRepo) SetPageCount(ctx context.Context, documentID string, pageCount int) error {
	const query = `UPDATE documents SET page_count = $2 WHERE id = $1`
	res, err := r.DB.ExecContext(ctx, query, documentID, pageCount)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// Delete removes a document; pages cascade via foreign key.
func (r *PGRepo) Delete(ctx context.Context, documentID string) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM documents WHERE id = $1`, documentID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// CreatePages stores extracted pages.
func (r *PGRepo) CreatePages(ctx context.Context, pages []Page) error {
	const query = `
INSERT INTO document_pages (id, document_id, page_number, text)
VALUES ($1, $2, $3, $4)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, page := range pages {
		if _, err := tx.ExecContext(ctx, query, page.ID, page.DocumentID, page.PageNumber, page.Text); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PagesByDocument returns pages ordered by page number.
func (r *PGRepo) PagesByDocument(ctx context.Context, documentID string) ([]Page, error) {
	const query = `
SELECT id, document_id, page_number, text
FROM document_pages
WHERE document_id = $1
ORDER BY page_number`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	pages := []Page{}
	for rows.Next() {
		var page Page
		if err := rows.Scan(&page.ID, &page.DocumentID, &page.PageNumber, &page.Text); err != nil {
			return nil, err
		}
		pages = append(pages, page)
	}
	return pages, rows.Err()
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func requireRow(res sql.Result) error {
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
