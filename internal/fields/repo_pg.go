package fields

import (
	"context"
	"database/sql"
	"encoding/json"
)

// PGRepo implements Repo using Postgres. Values are stored as jsonb.
type PGRepo struct {
	DB *sql.DB
}

// ReplaceForDocument atomically swaps all extracted fields for a document.
func (r *PGRepo) ReplaceForDocument(ctx context.Context, documentID string, values []ExtractedField) error {
	const insert = `
INSERT INTO extracted_fields (id, document_id, name, type, value, confidence, malformed, schema_version, extracted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM extracted_fields WHERE document_id = $1`, documentID); err != nil {
		return err
	}
	for _, v := range values {
		payload, err := json.Marshal(v.Value)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert,
			v.ID, v.DocumentID, v.Name, v.Type, payload, v.Confidence, v.Malformed, v.SchemaVersion, v.ExtractedAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// ByDocument returns extracted fields for a document.
func (r *PGRepo) ByDocument(ctx context.Context, documentID string) ([]ExtractedField, error) {
	const query = `
SELECT id, document_id, name, type, value, confidence, malformed, schema_version, extracted_at
FROM extracted_fields
WHERE document_id = $1
ORDER BY name`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	values := []ExtractedField{}
	for rows.Next() {
		var v ExtractedField
		var payload []byte
		if err := rows.Scan(&v.ID, &v.DocumentID, &v.Name, &v.Type, &payload, &v.Confidence, &v.Malformed, &v.SchemaVersion, &v.ExtractedAt); err != nil {
			return nil, err
		}
		if len(payload) > 0 {
			if err := json.Unmarshal(payload, &v.Value); err != nil {
				return nil, err
			}
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotExtracted
	}
	return values, nil
}

// DeleteByDocument removes all extracted fields for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM extracted_fields WHERE document_id = $1`, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)
