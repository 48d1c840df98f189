package vectorstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankHitsBreaksScoreTies(t *testing.T) {
	hits := []Hit{
		{ChunkID: 7, DocID: "DOC-B", Ordinal: 3, Score: 0.8},
		{ChunkID: 2, DocID: "DOC-A", Ordinal: 1, Score: 0.8},
		{ChunkID: 5, DocID: "DOC-A", Ordinal: 4, Score: 0.9},
	}

	rankHits(hits)

	require.Len(t, hits, 3)
	assert.Equal(t, uint(5), hits[0].ChunkID)
	// Equal scores fall back to ascending ordinal.
	assert.Equal(t, uint(2), hits[1].ChunkID)
	assert.Equal(t, uint(7), hits[2].ChunkID)
}

func TestRankHitsChunkIDBreaksOrdinalTies(t *testing.T) {
	hits := []Hit{
		{ChunkID: 9, DocID: "DOC-B", Ordinal: 0, Score: 0.5},
		{ChunkID: 4, DocID: "DOC-A", Ordinal: 0, Score: 0.5},
	}

	rankHits(hits)

	assert.Equal(t, uint(4), hits[0].ChunkID)
	assert.Equal(t, uint(9), hits[1].ChunkID)
}
