package cache

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddingKeyNormalization(t *testing.T) {
	base := embeddingKey("Bolt Torque Value")

	assert.Equal(t, base, embeddingKey("bolt torque value"))
	assert.Equal(t, base, embeddingKey("  bolt   torque value  "))
	assert.NotEqual(t, base, embeddingKey("bolt torque"))
	assert.True(t, len(base) > len("query:embedding:"))
}

func TestNilCacheIsNoOp(t *testing.T) {
	var c *QueryCache

	vector, ok, err := c.GetEmbedding(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, vector)

	require.NoError(t, c.SetEmbedding(context.Background(), "anything", []float32{1, 2}))
}

func TestNewQueryCacheNilClient(t *testing.T) {
	assert.Nil(t, NewQueryCache(nil, 0))
}
