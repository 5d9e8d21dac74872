package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contract-backend/internal/chunker"
)

func buildTestSnapshot(t *testing.T) *Snapshot {
	t.Helper()
	chunks := []chunker.Chunk{
		{PageNumber: 1, Start: 0, End: 40, Text: "payment terms net thirty days"},
		{PageNumber: 1, Start: 40, End: 80, Text: "termination for convenience"},
		{PageNumber: 2, Start: 0, End: 40, Text: "governing law delaware"},
	}
	vectors := [][]float64{
		{1, 0, 0},
		{0, 1, 0},
		{0, 0, 1},
	}
	snap, err := Build("doc-1", "embed-v1", chunks, vectors)
	require.NoError(t, err)
	return snap
}

func TestBuildValidatesInput(t *testing.T) {
	_, err := Build("doc-1", "embed-v1", []chunker.Chunk{{}}, nil)
	assert.Error(t, err)

	_, err = Build("doc-1", "", nil, nil)
	assert.Error(t, err)

	_, err = Build("doc-1", "embed-v1",
		[]chunker.Chunk{{Start: 0, End: 1}, {Start: 1, End: 2}},
		[][]float64{{1, 0}, {1, 0, 0}})
	assert.Error(t, err)
}

func TestBuildStripsOverlapFromEntryText(t *testing.T) {
	// Chunk text carries 12 chars of leading context from the previous
	// chunk; Start-End labels only the primary span.
	primary := "Payment is net thirty"
	chunk := chunker.Chunk{
		PageNumber: 2,
		Start:      100,
		End:        100 + len(primary),
		Text:       "prior terms " + primary,
	}

	snap, err := Build("doc-1", "embed-v1", []chunker.Chunk{chunk}, [][]float64{{1, 0}})
	require.NoError(t, err)

	matches, err := snap.Query([]float64{1, 0}, 1, "embed-v1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	entry := matches[0].Entry
	assert.Equal(t, primary, entry.Text)
	assert.Equal(t, entry.End-entry.Start, len(entry.Text))
}

func TestQueryRanksByCosineSimilarity(t *testing.T) {
	snap := buildTestSnapshot(t)

	matches, err := snap.Query([]float64{0.9, 0.1, 0}, 2, "embed-v1")
	require.NoError(t, err)
	require.Len(t, matches, 2)
	assert.Equal(t, "doc-1:p1:0-40", matches[0].Entry.ChunkID)
	assert.Greater(t, matches[0].Score, matches[1].Score)
}

func TestQueryDeterministicTieBreak(t *testing.T) {
	chunks := []chunker.Chunk{
		{PageNumber: 2, Start: 0, End: 10, Text: "b"},
		{PageNumber: 1, Start: 50, End: 60, Text: "c"},
		{PageNumber: 1, Start: 0, End: 10, Text: "a"},
	}
	// Identical vectors: every score ties.
	vectors := [][]float64{{1, 1}, {1, 1}, {1, 1}}
	snap, err := Build("doc-1", "embed-v1", chunks, vectors)
	require.NoError(t, err)

	matches, err := snap.Query([]float64{1, 1}, 3, "embed-v1")
	require.NoError(t, err)
	require.Len(t, matches, 3)
	assert.Equal(t, 1, matches[0].Entry.PageNumber)
	assert.Equal(t, 0, matches[0].Entry.Start)
	assert.Equal(t, 50, matches[1].Entry.Start)
	assert.Equal(t, 2, matches[2].Entry.PageNumber)
}

func TestQueryStaleIndex(t *testing.T) {
	snap := buildTestSnapshot(t)

	_, err := snap.Query([]float64{1, 0, 0}, 1, "embed-v2")
	assert.ErrorIs(t, err, ErrStaleIndex)
}

func TestQueryReproducible(t *testing.T) {
	snap := buildTestSnapshot(t)

	first, err := snap.Query([]float64{0.3, 0.3, 0.4}, 3, "embed-v1")
	require.NoError(t, err)
	second, err := snap.Query([]float64{0.3, 0.3, 0.4}, 3, "embed-v1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestStoreSwapAndRemove(t *testing.T) {
	store := NewStore()

	_, err := store.Get("doc-1")
	assert.ErrorIs(t, err, ErrNotIndexed)

	snap := buildTestSnapshot(t)
	store.Put(snap)
	got, err := store.Get("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "embed-v1", got.ModelID)

	rebuilt, err := Build("doc-1", "embed-v2",
		[]chunker.Chunk{{PageNumber: 1, Start: 0, End: 5, Text: "x"}},
		[][]float64{{1}})
	require.NoError(t, err)
	store.Put(rebuilt)

	got, err = store.Get("doc-1")
	require.NoError(t, err)
	assert.Equal(t, "embed-v2", got.ModelID)
	assert.Equal(t, 1, got.Len())

	store.Remove("doc-1")
	assert.False(t, store.Has("doc-1"))
}
