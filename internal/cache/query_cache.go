package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redisv9 "github.com/redis/go-redis/v9"
)

// QueryCache keeps query embeddings in Redis so repeated searches skip the
// embedding provider. A nil *QueryCache is a no-op, which keeps the search
// path free of redis-enabled checks.
type QueryCache struct {
	client *redisv9.Client
	ttl    time.Duration
}

func NewQueryCache(client *redisv9.Client, ttl time.Duration) *QueryCache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &QueryCache{client: client, ttl: ttl}
}

func (c *QueryCache) GetEmbedding(ctx context.Context, query string) ([]float32, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, embeddingKey(query)).Result()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get query embedding failed: %w", err)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(raw), &vector); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached embedding failed: %w", err)
	}
	return vector, true, nil
}

func (c *QueryCache) SetEmbedding(ctx context.Context, query string, vector []float32) error {
	if c == nil {
		return nil
	}
	payload, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("marshal embedding cache failed: %w", err)
	}
	if err := c.client.Set(ctx, embeddingKey(query), payload, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set query embedding failed: %w", err)
	}
	return nil
}

func embeddingKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	sum := sha256.Sum256([]byte(normalized))
	return "query:embedding:" + hex.EncodeToString(sum[:])
}
