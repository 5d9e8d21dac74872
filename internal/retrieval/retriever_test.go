package retrieval

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-backend/internal/chunker"
	"contract-backend/internal/index"
)

// fakeEmbedder maps known texts to fixed vectors so scores are predictable.
type fakeEmbedder struct {
	model   string
	vectors map[string][]float64
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	out := make([][]float64, len(texts))
	for i, text := range texts {
		if v, ok := f.vectors[text]; ok {
			out[i] = v
		} else {
			out[i] = []float64{0, 0, 1}
		}
	}
	return out, nil
}

func (f *fakeEmbedder) ModelID() string { return f.model }

func setupRetriever(t *testing.T) *Retriever {
	t.Helper()
	store := index.NewStore()

	docA, err := index.Build("doc-a", "embed-v1",
		[]chunker.Chunk{
			{PageNumber: 1, Start: 0, End: 50, Text: "payment due in thirty days"},
			{PageNumber: 1, Start: 50, End: 100, Text: "warranty disclaimer"},
		},
		[][]float64{{1, 0, 0}, {0, 1, 0}})
	require.NoError(t, err)
	store.Put(docA)

	docB, err := index.Build("doc-b", "embed-v1",
		[]chunker.Chunk{
			{PageNumber: 1, Start: 0, End: 50, Text: "invoices payable net thirty"},
		},
		[][]float64{{0.9, 0.1, 0}})
	require.NoError(t, err)
	store.Put(docB)

	return &Retriever{
		Indexes: &index.Source{Cache: store},
		Embedder: &fakeEmbedder{
			model:   "embed-v1",
			vectors: map[string][]float64{"payment terms?": {1, 0, 0}},
		},
	}
}

func TestRetrieveFiltersBelowMinScore(t *testing.T) {
	r := setupRetriever(t)

	results, err := r.Retrieve(context.Background(), []string{"doc-a"}, "payment terms?", 5, 0.5)
	require.NoError(t, err)
	// The warranty chunk scores 0 and must not be returned to pad k.
	require.Len(t, results, 1)
	assert.Equal(t, "doc-a", results[0].DocumentID)
	assert.Equal(t, 0, results[0].Start)
	assert.Equal(t, 50, results[0].End)
}

func TestRetrieveMergesAcrossDocuments(t *testing.T) {
	r := setupRetriever(t)

	results, err := r.Retrieve(context.Background(), []string{"doc-b", "doc-a"}, "payment terms?", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	// doc-a's exact match outscores doc-b's near match.
	assert.Equal(t, "doc-a", results[0].DocumentID)
	assert.Equal(t, "doc-b", results[1].DocumentID)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestRetrieveTieBreakByDocumentID(t *testing.T) {
	store := index.NewStore()
	for _, docID := range []string{"doc-z", "doc-a"} {
		snap, err := index.Build(docID, "embed-v1",
			[]chunker.Chunk{{PageNumber: 1, Start: 0, End: 10, Text: "same"}},
			[][]float64{{1, 0, 0}})
		require.NoError(t, err)
		store.Put(snap)
	}
	r := &Retriever{
		Indexes: &index.Source{Cache: store},
		Embedder: &fakeEmbedder{
			model:   "embed-v1",
			vectors: map[string][]float64{"q": {1, 0, 0}},
		},
	}

	results, err := r.Retrieve(context.Background(), []string{"doc-z", "doc-a"}, "q", 5, 0.5)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc-a", results[0].DocumentID)
	assert.Equal(t, "doc-z", results[1].DocumentID)
}

func TestRetrieveStaleIndexSurfaces(t *testing.T) {
	r := setupRetriever(t)
	r.Embedder = &fakeEmbedder{model: "embed-v2", vectors: map[string][]float64{}}

	_, err := r.Retrieve(context.Background(), []string{"doc-a"}, "anything", 5, 0)
	assert.ErrorIs(t, err, index.ErrStaleIndex)
}

func TestRetrieveUnindexedDocument(t *testing.T) {
	r := setupRetriever(t)

	_, err := r.Retrieve(context.Background(), []string{"doc-missing"}, "payment terms?", 5, 0)
	assert.ErrorIs(t, err, index.ErrNotIndexed)
}
