package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedStore(t *testing.T) *MemoryStore {
	t.Helper()
	store := NewMemoryStore()
	require.NoError(t, store.EnsureCollection(context.Background(), 3))
	require.NoError(t, store.Upsert(context.Background(), []Point{
		{ChunkID: 1, DocID: "DOC-A", Ordinal: 0, Content: "alpha", Vector: []float32{1, 0, 0}},
		{ChunkID: 2, DocID: "DOC-A", Ordinal: 1, Content: "beta", Vector: []float32{0, 1, 0}},
		{ChunkID: 3, DocID: "DOC-B", Ordinal: 0, Content: "gamma", Vector: []float32{1, 0, 0}},
		{ChunkID: 4, DocID: "DOC-B", Ordinal: 1, Content: "delta", Vector: []float32{0.9, 0.1, 0}},
	}))
	return store
}

func TestMemoryStoreSearchOrdering(t *testing.T) {
	store := seedStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 10, 0, nil)
	require.NoError(t, err)
	require.Len(t, hits, 4)

	// Equal top scores rank by insertion order.
	assert.Equal(t, uint(1), hits[0].ChunkID)
	assert.Equal(t, uint(3), hits[1].ChunkID)
	assert.Equal(t, uint(4), hits[2].ChunkID)
	assert.Equal(t, uint(2), hits[3].ChunkID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
}

func TestMemoryStoreSearchDeterministic(t *testing.T) {
	store := seedStore(t)

	first, err := store.Search(context.Background(), []float32{1, 0.2, 0}, 10, 0, nil)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		again, err := store.Search(context.Background(), []float32{1, 0.2, 0}, 10, 0, nil)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestMemoryStoreSearchMinScore(t *testing.T) {
	store := seedStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 10, 0.5, nil)
	require.NoError(t, err)
	for _, h := range hits {
		assert.GreaterOrEqual(t, h.Score, 0.5)
	}
	assert.Len(t, hits, 3)
}

func TestMemoryStoreSearchDocFilter(t *testing.T) {
	store := seedStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 10, 0, []string{"DOC-B"})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		assert.Equal(t, "DOC-B", h.DocID)
	}
}

func TestMemoryStoreSearchLimit(t *testing.T) {
	store := seedStore(t)

	hits, err := store.Search(context.Background(), []float32{1, 0, 0}, 2, 0, nil)
	require.NoError(t, err)
	assert.Len(t, hits, 2)

	hits, err = store.Search(context.Background(), []float32{1, 0, 0}, 0, 0, nil)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestMemoryStoreDeleteByDocID(t *testing.T) {
	store := seedStore(t)

	require.NoError(t, store.DeleteByDocID(context.Background(), "DOC-A"))

	count, err := store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	has, err := store.HasChunk(context.Background(), 1)
	require.NoError(t, err)
	assert.False(t, has)

	has, err = store.HasChunk(context.Background(), 3)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestMemoryStoreDimensionMismatch(t *testing.T) {
	store := NewMemoryStore()
	require.NoError(t, store.EnsureCollection(context.Background(), 3))

	err := store.Upsert(context.Background(), []Point{
		{ChunkID: 1, DocID: "DOC-A", Vector: []float32{1, 0}},
	})
	require.ErrorIs(t, err, ErrStore)

	err = store.EnsureCollection(context.Background(), 5)
	require.ErrorIs(t, err, ErrStore)
}

func TestCosineSimilarity(t *testing.T) {
	assert.InDelta(t, 1.0, cosineSimilarity([]float32{1, 2, 3}, []float32{1, 2, 3}), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity([]float32{1, 0}, []float32{0, 1}), 1e-9)
	assert.Equal(t, 0.0, cosineSimilarity(nil, []float32{1}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0}, []float32{0, 0}))
}
