package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"avidoc/internal/config"
)

// QdrantStore implements Store over Qdrant's REST API. Point IDs are stable
// UUIDs derived from the chunk ID, so re-upserting a chunk overwrites rather
// than duplicates.
type QdrantStore struct {
	baseURL    string
	apiKey     string
	collection string
	client     *http.Client

	ensureOnce sync.Once
	ensureErr  error
}

var qdrantNamespace = uuid.MustParse("7c3f9a52-1b6e-4d8a-9f0c-2e5b8d741a36")

func NewQdrantStore(cfg config.VectorConfig) *QdrantStore {
	timeout := time.Duration(cfg.TimeoutSec) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &QdrantStore{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		collection: cfg.Collection,
		client:     &http.Client{Timeout: timeout},
	}
}

func pointID(chunkID uint) string {
	return uuid.NewSHA1(qdrantNamespace, []byte(fmt.Sprintf("chunk-%d", chunkID))).String()
}

func (s *QdrantStore) EnsureCollection(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("%w: dimension must be positive", ErrStore)
	}
	s.ensureOnce.Do(func() {
		status, _, err := s.do(ctx, http.MethodGet, "/collections/"+s.collection, nil)
		if err != nil {
			s.ensureErr = err
			return
		}
		if status == http.StatusOK {
			return
		}
		body := map[string]any{
			"vectors": map[string]any{
				"size":     dimension,
				"distance": "Cosine",
			},
		}
		status, raw, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection, body)
		if err != nil {
			s.ensureErr = err
			return
		}
		if status >= 300 {
			s.ensureErr = fmt.Errorf("%w: create collection status %d: %s", ErrStore, status, raw)
		}
	})
	return s.ensureErr
}

func (s *QdrantStore) Upsert(ctx context.Context, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	qdrantPoints := make([]map[string]any, len(points))
	for i, p := range points {
		qdrantPoints[i] = map[string]any{
			"id":     pointID(p.ChunkID),
			"vector": p.Vector,
			"payload": map[string]any{
				"chunk_id": p.ChunkID,
				"doc_id":   p.DocID,
				"chapter":  p.Chapter,
				"ordinal":  p.Ordinal,
				"content":  p.Content,
			},
		}
	}
	body := map[string]any{"points": qdrantPoints}
	status, raw, err := s.do(ctx, http.MethodPut, "/collections/"+s.collection+"/points?wait=true", body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: upsert status %d: %s", ErrStore, status, raw)
	}
	return nil
}

func (s *QdrantStore) Search(ctx context.Context, vector []float32, limit int, minScore float64, docIDs []string) ([]Hit, error) {
	if limit <= 0 {
		return []Hit{}, nil
	}
	body := map[string]any{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if minScore > 0 {
		body["score_threshold"] = minScore
	}
	if len(docIDs) > 0 {
		body["filter"] = map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"any": docIDs}},
			},
		}
	}

	status, raw, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/search", body)
	if err != nil {
		return nil, err
	}
	if status >= 300 {
		return nil, fmt.Errorf("%w: search status %d: %s", ErrStore, status, raw)
	}

	var parsed struct {
		Result []struct {
			Score   float64 `json:"score"`
			Payload struct {
				ChunkID uint   `json:"chunk_id"`
				DocID   string `json:"doc_id"`
				Chapter string `json:"chapter"`
				Ordinal int    `json:"ordinal"`
				Content string `json:"content"`
			} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("%w: parse search response failed: %v", ErrStore, err)
	}

	hits := make([]Hit, 0, len(parsed.Result))
	for _, r := range parsed.Result {
		hits = append(hits, Hit{
			ChunkID: r.Payload.ChunkID,
			DocID:   r.Payload.DocID,
			Chapter: r.Payload.Chapter,
			Content: r.Payload.Content,
			Ordinal: r.Payload.Ordinal,
			Score:   r.Score,
		})
	}
	rankHits(hits)
	return hits, nil
}

// rankHits restores the Store ordering contract on server responses: score
// descending, then ordinal, then chunk ID for ties across documents.
func rankHits(hits []Hit) {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		if hits[i].Ordinal != hits[j].Ordinal {
			return hits[i].Ordinal < hits[j].Ordinal
		}
		return hits[i].ChunkID < hits[j].ChunkID
	})
}

func (s *QdrantStore) DeleteByDocID(ctx context.Context, docID string) error {
	body := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{"key": "doc_id", "match": map[string]any{"value": docID}},
			},
		},
	}
	status, raw, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/delete?wait=true", body)
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("%w: delete status %d: %s", ErrStore, status, raw)
	}
	return nil
}

func (s *QdrantStore) HasChunk(ctx context.Context, chunkID uint) (bool, error) {
	body := map[string]any{"ids": []string{pointID(chunkID)}}
	status, raw, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points", body)
	if err != nil {
		return false, err
	}
	if status >= 300 {
		return false, fmt.Errorf("%w: retrieve status %d: %s", ErrStore, status, raw)
	}
	var parsed struct {
		Result []json.RawMessage `json:"result"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return false, fmt.Errorf("%w: parse retrieve response failed: %v", ErrStore, err)
	}
	return len(parsed.Result) > 0, nil
}

func (s *QdrantStore) Count(ctx context.Context) (int, error) {
	body := map[string]any{"exact": true}
	status, raw, err := s.do(ctx, http.MethodPost, "/collections/"+s.collection+"/points/count", body)
	if err != nil {
		return 0, err
	}
	if status >= 300 {
		return 0, fmt.Errorf("%w: count status %d: %s", ErrStore, status, raw)
	}
	var parsed struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return 0, fmt.Errorf("%w: parse count response failed: %v", ErrStore, err)
	}
	return parsed.Result.Count, nil
}

func (s *QdrantStore) do(ctx context.Context, method, path string, body any) (int, []byte, error) {
	var reader io.Reader
	if body != nil {
		bodyBytes, err := json.Marshal(body)
		if err != nil {
			return 0, nil, fmt.Errorf("%w: marshal request failed: %v", ErrStore, err)
		}
		reader = bytes.NewReader(bodyBytes)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+path, reader)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: build request failed: %v", ErrStore, err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: request failed: %v", ErrStore, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read response failed: %v", ErrStore, err)
	}
	return resp.StatusCode, raw, nil
}
