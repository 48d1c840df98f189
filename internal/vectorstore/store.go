package vectorstore

import (
	"context"
	"errors"
	"fmt"

	"avidoc/internal/config"
)

// ErrStore marks vector store failures (unreachable backend, rejected write).
var ErrStore = errors.New("vector store failed")

// Point is one chunk vector with its citation payload.
type Point struct {
	ChunkID uint      `json:"chunk_id"`
	DocID   string    `json:"doc_id"`
	Chapter string    `json:"chapter"`
	Ordinal int       `json:"ordinal"`
	Content string    `json:"content"`
	Vector  []float32 `json:"-"`
}

// Hit is one similarity search result. Ordinal carries insertion order so
// equal scores rank deterministically.
type Hit struct {
	ChunkID uint    `json:"chunk_id"`
	DocID   string  `json:"doc_id"`
	Chapter string  `json:"chapter"`
	Content string  `json:"content"`
	Ordinal int     `json:"ordinal"`
	Score   float64 `json:"score"`
}

// Store persists chunk vectors and answers nearest-neighbor queries.
// Implementations must return hits sorted by descending score, ties broken
// by ascending insertion order.
type Store interface {
	EnsureCollection(ctx context.Context, dimension int) error
	Upsert(ctx context.Context, points []Point) error
	Search(ctx context.Context, vector []float32, limit int, minScore float64, docIDs []string) ([]Hit, error)
	DeleteByDocID(ctx context.Context, docID string) error
	HasChunk(ctx context.Context, chunkID uint) (bool, error)
	Count(ctx context.Context) (int, error)
}

// New builds the store selected by configuration.
func New(cfg config.VectorConfig) (Store, error) {
	switch cfg.Driver {
	case "qdrant":
		return NewQdrantStore(cfg), nil
	case "memory", "":
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown vector store driver %q", cfg.Driver)
	}
}
