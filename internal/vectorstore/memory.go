package vectorstore

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
)

// MemoryStore keeps vectors in process. Used for tests and single-node demo
// runs without a Qdrant instance.
type MemoryStore struct {
	mu        sync.RWMutex
	dimension int
	points    []storedPoint
	seq       int
}

type storedPoint struct {
	Point
	seq int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) EnsureCollection(_ context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrStore)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dimension != 0 && s.dimension != dimension {
		return fmt.Errorf("%w: collection dimension %d does not match requested %d", ErrStore, s.dimension, dimension)
	}
	s.dimension = dimension
	return nil
}

func (s *MemoryStore) Upsert(_ context.Context, points []Point) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range points {
		if s.dimension != 0 && len(p.Vector) != s.dimension {
			return fmt.Errorf("%w: vector dimension %d does not match collection %d", ErrStore, len(p.Vector), s.dimension)
		}
		s.points = append(s.points, storedPoint{Point: p, seq: s.seq})
		s.seq++
	}
	return nil
}

func (s *MemoryStore) Search(_ context.Context, vector []float32, limit int, minScore float64, docIDs []string) ([]Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return []Hit{}, nil
	}

	var filter map[string]bool
	if len(docIDs) > 0 {
		filter = make(map[string]bool, len(docIDs))
		for _, id := range docIDs {
			filter[id] = true
		}
	}

	type scored struct {
		hit Hit
		seq int
	}
	results := make([]scored, 0, len(s.points))
	for _, p := range s.points {
		if filter != nil && !filter[p.DocID] {
			continue
		}
		score := cosineSimilarity(vector, p.Vector)
		if score < minScore {
			continue
		}
		results = append(results, scored{
			hit: Hit{
				ChunkID: p.ChunkID,
				DocID:   p.DocID,
				Chapter: p.Chapter,
				Content: p.Content,
				Ordinal: p.Ordinal,
				Score:   score,
			},
			seq: p.seq,
		})
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].hit.Score != results[j].hit.Score {
			return results[i].hit.Score > results[j].hit.Score
		}
		return results[i].seq < results[j].seq
	})

	if limit > len(results) {
		limit = len(results)
	}
	hits := make([]Hit, limit)
	for i := 0; i < limit; i++ {
		hits[i] = results[i].hit
	}
	return hits, nil
}

func (s *MemoryStore) DeleteByDocID(_ context.Context, docID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.points[:0]
	for _, p := range s.points {
		if p.DocID != docID {
			kept = append(kept, p)
		}
	}
	s.points = kept
	return nil
}

func (s *MemoryStore) HasChunk(_ context.Context, chunkID uint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, p := range s.points {
		if p.ChunkID == chunkID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemoryStore) Count(_ context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.points), nil
}

func cosineSimilarity(a, b []float32) float64 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA <= 0 || normB <= 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
