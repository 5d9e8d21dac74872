// Package retrieval answers "which chunks matter for this query" across one
// or more documents.
package retrieval

import (
	"context"
	"errors"
	"sort"

	"contract-backend/internal/embedding"
	"contract-backend/internal/index"
)

// DefaultTopK is the default number of results returned.
const DefaultTopK = 5

// DefaultMinScore is the default relevance floor. Results below it are
// dropped even when fewer than k remain.
const DefaultMinScore = 0.25

// Result is a scored citation back to exact source text.
type Result struct {
	DocumentID string  `json:"documentId"`
	ChunkID    string  `json:"chunkId"`
	PageNumber int     `json:"page"`
	Start      int     `json:"start"`
	End        int     `json:"end"`
	Text       string  `json:"-"`
	Score      float64 `json:"score"`
}

// SnapshotSource resolves the index snapshot for a document, wherever it
// was built.
type SnapshotSource interface {
	Snapshot(ctx context.Context, documentID string) (*index.Snapshot, error)
}

// Retriever runs similarity search over index snapshots.
type Retriever struct {
	Indexes  SnapshotSource
	Embedder embedding.Embedder
}

// Retrieve returns up to k chunks scoring at least minScore, ranked globally
// across the document scope. Per-document top-k results are merged and
// re-ranked by score; ties break by document id then chunk offset so results
// are reproducible.
func (r *Retriever) Retrieve(ctx context.Context, documentIDs []string, query string, k int, minScore float64) ([]Result, error) {
	if len(documentIDs) == 0 {
		return nil, errors.New("at least one document id is required")
	}
	if k <= 0 {
		k = DefaultTopK
	}

	vectors, err := r.Embedder.Embed(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(vectors) != 1 {
		return nil, errors.New("embedder returned no query vector")
	}
	queryVector := vectors[0]
	activeModel := r.Embedder.ModelID()

	merged := make([]Result, 0, k*len(documentIDs))
	for _, docID := range documentIDs {
		snap, err := r.Indexes.Snapshot(ctx, docID)
		if err != nil {
			return nil, err
		}
		matches, err := snap.Query(queryVector, k, activeModel)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			if m.Score < minScore {
				continue
			}
			merged = append(merged, Result{
				DocumentID: m.Entry.DocumentID,
				ChunkID:    m.Entry.ChunkID,
				PageNumber: m.Entry.PageNumber,
				Start:      m.Entry.Start,
				End:        m.Entry.End,
				Text:       m.Entry.Text,
				Score:      m.Score,
			})
		}
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].DocumentID != merged[j].DocumentID {
			return merged[i].DocumentID < merged[j].DocumentID
		}
		if merged[i].PageNumber != merged[j].PageNumber {
			return merged[i].PageNumber < merged[j].PageNumber
		}
		return merged[i].Start < merged[j].Start
	})

	if k < len(merged) {
		merged = merged[:k]
	}
	return merged, nil
}
