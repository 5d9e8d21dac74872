package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"
)

// PGRepo implements Repo using Postgres. Vectors are stored as jsonb arrays,
// one row per indexed chunk.
type PGRepo struct {
	DB *sql.DB
}

// Save atomically swaps all index entries for the snapshot's document.
func (r *PGRepo) Save(ctx context.Context, snap *Snapshot) error {
	const insert = `
INSERT INTO index_entries (document_id, chunk_id, page_number, span_start, span_end, chunk_text, vector, model_id, built_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM index_entries WHERE document_id = $1`, snap.DocumentID); err != nil {
		return err
	}
	for _, entry := range snap.entries {
		vector, err := json.Marshal(entry.Vector)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, insert,
			entry.DocumentID, entry.ChunkID, entry.PageNumber, entry.Start, entry.End, entry.Text, vector, snap.ModelID, snap.BuiltAt,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Load rebuilds the snapshot for a document from stored entries.
func (r *PGRepo) Load(ctx context.Context, documentID string) (*Snapshot, error) {
	const query = `
SELECT document_id, chunk_id, page_number, span_start, span_end, chunk_text, vector, model_id, built_at
FROM index_entries
WHERE document_id = $1
ORDER BY page_number, span_start`

	rows, err := r.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var (
		entries []Entry
		modelID string
		builtAt time.Time
	)
	for rows.Next() {
		var entry Entry
		var vector []byte
		if err := rows.Scan(&entry.DocumentID, &entry.ChunkID, &entry.PageNumber, &entry.Start, &entry.End, &entry.Text, &vector, &modelID, &builtAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(vector, &entry.Vector); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotIndexed
	}
	return Restore(documentID, modelID, builtAt, entries), nil
}

// DeleteByDocument removes all index entries for a document.
func (r *PGRepo) DeleteByDocument(ctx context.Context, documentID string) error {
	_, err := r.DB.ExecContext(ctx, `DELETE FROM index_entries WHERE document_id = $1`, documentID)
	return err
}

var _ Repo = (*PGRepo)(nil)
