package ai

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"strings"
)

// MockProvider is a deterministic offline provider: embeddings are built
// from token hashes (identical texts embed identically, texts sharing words
// score close), and Generate returns a canned summary of its input. Used for
// tests and demo runs without an API key.
type MockProvider struct {
	dimension int
}

func NewMockProvider(dimension int) *MockProvider {
	if dimension <= 0 {
		dimension = 64
	}
	return &MockProvider{dimension: dimension}
}

func (m *MockProvider) Dimension() int { return m.dimension }

func (m *MockProvider) Embed(_ context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: embedding input is empty", ErrEmbedding)
	}
	return m.vectorFor(text), nil
}

func (m *MockProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		vectors[i] = vec
	}
	return vectors, nil
}

func (m *MockProvider) Generate(_ context.Context, _, user string) (string, error) {
	question := user
	if idx := strings.Index(user, "Question:"); idx >= 0 {
		question = strings.TrimSpace(user[idx+len("Question:"):])
	}
	question = strings.TrimSuffix(question, "Answer:")
	return "Based on the provided documentation: " + strings.TrimSpace(question), nil
}

// vectorFor spreads each lowercase token over the vector by hash and
// normalizes the result so cosine scores land in [0,1] for overlapping
// vocabularies.
func (m *MockProvider) vectorFor(text string) []float32 {
	vec := make([]float32, m.dimension)
	for _, token := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		_, _ = h.Write([]byte(token))
		vec[int(h.Sum32())%m.dimension] += 1.0
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	if norm == 0 {
		vec[0] = 1
		return vec
	}
	norm = math.Sqrt(norm)
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}
