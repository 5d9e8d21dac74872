package index

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSourceHydratesFromRepoAcrossProcesses(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()

	// One process builds and installs the snapshot.
	builder := &Source{Cache: NewStore(), Repo: repo}
	require.NoError(t, builder.Install(ctx, buildTestSnapshot(t)))

	// Another process, with an empty cache, shares only the repository.
	// Without hydration its queries would fail with ErrNotIndexed.
	server := &Source{Cache: NewStore(), Repo: repo}
	snap, err := server.Snapshot(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, "embed-v1", snap.ModelID)

	matches, err := snap.Query([]float64{1, 0, 0}, 1, "embed-v1")
	require.NoError(t, err)
	require.Len(t, matches, 1)
	assert.Equal(t, "doc-1:p1:0-40", matches[0].Entry.ChunkID)

	// The miss populated the cache.
	assert.True(t, server.Cache.Has("doc-1"))
}

func TestSourceInstallPersistsBeforeSwap(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	source := &Source{Cache: NewStore(), Repo: repo}

	require.NoError(t, source.Install(ctx, buildTestSnapshot(t)))

	stored, err := repo.Load(ctx, "doc-1")
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Len())
}

func TestSourceMissWithoutRepo(t *testing.T) {
	source := &Source{Cache: NewStore()}

	_, err := source.Snapshot(context.Background(), "doc-1")
	assert.ErrorIs(t, err, ErrNotIndexed)
	assert.False(t, source.Ready(context.Background(), "doc-1"))
}

func TestSourceRemoveDropsCacheAndRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryRepo()
	source := &Source{Cache: NewStore(), Repo: repo}
	require.NoError(t, source.Install(ctx, buildTestSnapshot(t)))

	require.NoError(t, source.Remove(ctx, "doc-1"))

	assert.False(t, source.Cache.Has("doc-1"))
	_, err := repo.Load(ctx, "doc-1")
	assert.ErrorIs(t, err, ErrNotIndexed)
}

func TestRestoreResortsEntries(t *testing.T) {
	original := buildTestSnapshot(t)
	entries := make([]Entry, original.Len())
	copy(entries, original.entries)
	// Shuffle: persisted order is not guaranteed.
	entries[0], entries[2] = entries[2], entries[0]

	restored := Restore("doc-1", "embed-v1", original.BuiltAt, entries)
	require.Equal(t, 3, restored.Len())
	assert.Equal(t, original.entries, restored.entries)
}
