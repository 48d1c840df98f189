package app

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avidoc/internal/ai"
	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/model"
	"avidoc/internal/vectorstore"
)

// stubDocs backs the RAG service with a fixed document set.
type stubDocs map[string]*model.Document

func (s stubDocs) GetByDocID(docID string) (*model.Document, error) {
	return s[docID], nil
}

func (s stubDocs) ListByDocIDs(docIDs []string) ([]model.Document, error) {
	var docs []model.Document
	for _, id := range docIDs {
		if d, ok := s[id]; ok {
			docs = append(docs, *d)
		}
	}
	return docs, nil
}

// seededRAGService embeds two chunks into a memory store so retrieval
// returns real hits.
func seededRAGService(t *testing.T, maxContextTokens int) (*RAGService, vectorstore.Store) {
	t.Helper()
	ctx := context.Background()
	mock := ai.NewMockProvider(16)
	store := vectorstore.NewMemoryStore()

	contents := []string{
		"The bolt torque for the engine mount is 50 nm.",
		"Sheet thickness tolerance is 1.5 mm for the wing panel.",
	}
	points := make([]vectorstore.Point, len(contents))
	for i, content := range contents {
		vector, err := mock.Embed(ctx, content)
		require.NoError(t, err)
		points[i] = vectorstore.Point{
			ChunkID: uint(i + 1),
			DocID:   "DOC-4421",
			Ordinal: i,
			Content: content,
			Vector:  vector,
		}
	}
	require.NoError(t, store.Upsert(ctx, points))

	docs := stubDocs{
		"DOC-4421": {DocID: "DOC-4421", Title: "Engine Mount Specification", IssueDate: "2024-03-15"},
	}
	svc := NewRAGService(config.RetrievalConfig{
		TopK:             5,
		MinScore:         0,
		MaxContextTokens: maxContextTokens,
	}, docs, mock, mock, store, graph.NewKnowledgeGraph(), nil)
	return svc, store
}

func TestSearchCitationsResolveToStoredChunks(t *testing.T) {
	svc, store := seededRAGService(t, 1000)
	ctx := context.Background()

	results, err := svc.Search(ctx, SearchInput{Query: "bolt torque"})
	require.NoError(t, err)
	require.NotEmpty(t, results)

	for _, r := range results {
		exists, err := store.HasChunk(ctx, r.ChunkID)
		require.NoError(t, err)
		assert.True(t, exists, "chunk %d missing from the vector store", r.ChunkID)
		assert.Equal(t, "Engine Mount Specification", r.Title)
	}
}

func TestAskCitationsResolveToStoredChunks(t *testing.T) {
	svc, store := seededRAGService(t, 1000)
	ctx := context.Background()

	answer, err := svc.Ask(ctx, AskInput{Question: "what is the bolt torque?"})
	require.NoError(t, err)
	require.NotEmpty(t, answer.Citations)

	for _, c := range answer.Citations {
		exists, err := store.HasChunk(ctx, c.ChunkID)
		require.NoError(t, err)
		assert.True(t, exists, "chunk %d missing from the vector store", c.ChunkID)
	}
	assert.Equal(t, "2024-03-15", answer.LatestIssueDate)
}

func TestAskFallsBackWhenNoChunkFitsBudget(t *testing.T) {
	svc, _ := seededRAGService(t, 1)

	answer, err := svc.Ask(context.Background(), AskInput{Question: "what is the bolt torque?"})
	require.NoError(t, err)
	assert.Equal(t, noContextAnswer, answer.Answer)
	assert.Empty(t, answer.Citations)
}

func TestFitToBudgetKeepsChunksWhole(t *testing.T) {
	// Each chunk is 100 runes, so roughly 25 tokens.
	hits := []vectorstore.Hit{
		{ChunkID: 1, Content: strings.Repeat("a", 100), Score: 0.9},
		{ChunkID: 2, Content: strings.Repeat("b", 100), Score: 0.8},
		{ChunkID: 3, Content: strings.Repeat("c", 100), Score: 0.7},
	}

	used := fitToBudget(hits, 60)
	require.Len(t, used, 2)
	assert.Equal(t, uint(1), used[0].ChunkID)
	assert.Equal(t, uint(2), used[1].ChunkID)
	// The third chunk would split the budget, so it is dropped whole.
	assert.Equal(t, strings.Repeat("b", 100), used[1].Content)
}

func TestFitToBudgetDropsOversizedTopHit(t *testing.T) {
	hits := []vectorstore.Hit{
		{ChunkID: 1, Content: strings.Repeat("x", 4000), Score: 0.9},
	}

	used := fitToBudget(hits, 10)
	assert.Empty(t, used)
}

func TestFitToBudgetNeverExceedsBudget(t *testing.T) {
	hits := []vectorstore.Hit{
		{ChunkID: 1, Content: strings.Repeat("a", 120), Score: 0.9},
		{ChunkID: 2, Content: strings.Repeat("b", 120), Score: 0.8},
		{ChunkID: 3, Content: strings.Repeat("c", 120), Score: 0.7},
	}

	for budget := 0; budget <= 100; budget += 10 {
		used := fitToBudget(hits, budget)
		if budget <= 0 {
			continue
		}
		spent := 0
		for _, h := range used {
			spent += estimateTokens(h.Content)
		}
		assert.LessOrEqual(t, spent, budget, "budget %d", budget)
	}
}

func TestFitToBudgetUnlimited(t *testing.T) {
	hits := []vectorstore.Hit{
		{ChunkID: 1, Content: strings.Repeat("x", 4000)},
		{ChunkID: 2, Content: strings.Repeat("y", 4000)},
	}

	used := fitToBudget(hits, 0)
	assert.Len(t, used, 2)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, estimateTokens(""))
	assert.Equal(t, 1, estimateTokens("abc"))
	assert.Equal(t, 25, estimateTokens(strings.Repeat("a", 100)))
	// Multibyte runes count as runes, not bytes.
	assert.Equal(t, 1, estimateTokens("даль"))
}

func TestExcerptTruncation(t *testing.T) {
	assert.Equal(t, "short", excerpt("short", 240))

	long := strings.Repeat("э", 300)
	cut := excerpt(long, 240)
	assert.Equal(t, 241, len([]rune(cut)))
	assert.True(t, strings.HasSuffix(cut, "…"))
}
