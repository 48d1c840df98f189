package app

import (
	"context"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"avidoc/internal/ai"
	"avidoc/internal/cache"
	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/model"
	"avidoc/internal/vectorstore"
)

const answerSystemPrompt = `You are an assistant for aviation technical documentation. ` +
	`Answer strictly from the provided document excerpts. ` +
	`Cite documents by their identifier. ` +
	`If the excerpts do not contain the answer, say so explicitly.`

const noContextAnswer = "No relevant documentation was found for this question."

// documentReader is the read-only slice of the document repository used to
// resolve titles and issue dates for citations.
type documentReader interface {
	GetByDocID(docID string) (*model.Document, error)
	ListByDocIDs(docIDs []string) ([]model.Document, error)
}

// RAGService answers semantic search and question-answering requests over
// the ingested document set.
type RAGService struct {
	cfg        config.RetrievalConfig
	docRepo    documentReader
	embedder   ai.EmbeddingProvider
	generator  ai.AnswerGenerator
	store      vectorstore.Store
	kg         *graph.KnowledgeGraph
	queryCache *cache.QueryCache
}

type SearchInput struct {
	Query    string
	TopK     int
	MinScore float64
	DocIDs   []string
}

// AskInput narrows a question to specific documents and optionally overrides
// the configured context budget.
type AskInput struct {
	Question         string
	TopK             int
	DocIDs           []string
	MaxContextTokens int
}

type SearchResult struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	Chapter string  `json:"chapter,omitempty"`
	ChunkID uint    `json:"chunk_id"`
	Content string  `json:"content"`
	Score   float64 `json:"score"`
}

type Citation struct {
	DocID   string  `json:"doc_id"`
	Title   string  `json:"title"`
	Chapter string  `json:"chapter,omitempty"`
	ChunkID uint    `json:"chunk_id"`
	Excerpt string  `json:"excerpt"`
	Score   float64 `json:"score"`
}

// Answer is the question-answering response. Related carries graph edges of
// the top cited document; HasContradictions is set when any two cited
// documents are linked by a contradicts edge. LatestIssueDate is the newest
// issue date among the cited documents.
type Answer struct {
	Answer            string       `json:"answer"`
	Citations         []Citation   `json:"citations"`
	Related           []graph.Edge `json:"graph_links"`
	HasContradictions bool         `json:"contradictions"`
	LatestIssueDate   string       `json:"freshness"`
}

func NewRAGService(
	cfg config.RetrievalConfig,
	docRepo documentReader,
	embedder ai.EmbeddingProvider,
	generator ai.AnswerGenerator,
	store vectorstore.Store,
	kg *graph.KnowledgeGraph,
	queryCache *cache.QueryCache,
) *RAGService {
	return &RAGService{
		cfg:        cfg,
		docRepo:    docRepo,
		embedder:   embedder,
		generator:  generator,
		store:      store,
		kg:         kg,
		queryCache: queryCache,
	}
}

// Search embeds the query and returns the closest chunks. An empty result
// is a valid answer, not an error.
func (s *RAGService) Search(ctx context.Context, input SearchInput) ([]SearchResult, error) {
	query := strings.TrimSpace(input.Query)
	if query == "" {
		return nil, ErrInvalidInput
	}

	topK := input.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	minScore := input.MinScore
	if minScore <= 0 {
		minScore = s.cfg.MinScore
	}

	vector, err := s.embedQuery(ctx, query)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, vector, topK, minScore, input.DocIDs)
	if err != nil {
		return nil, err
	}

	titles, err := s.titlesFor(hits)
	if err != nil {
		return nil, err
	}

	results := make([]SearchResult, len(hits))
	for i, h := range hits {
		results[i] = SearchResult{
			DocID:   h.DocID,
			Title:   titles[h.DocID],
			Chapter: h.Chapter,
			ChunkID: h.ChunkID,
			Content: h.Content,
			Score:   h.Score,
		}
	}
	return results, nil
}

// Ask retrieves context for the question and generates a cited answer. When
// retrieval finds nothing the generator is not called.
func (s *RAGService) Ask(ctx context.Context, input AskInput) (*Answer, error) {
	question := strings.TrimSpace(input.Question)
	if question == "" {
		return nil, ErrInvalidInput
	}
	topK := input.TopK
	if topK <= 0 {
		topK = s.cfg.TopK
	}
	budget := input.MaxContextTokens
	if budget <= 0 {
		budget = s.cfg.MaxContextTokens
	}

	vector, err := s.embedQuery(ctx, question)
	if err != nil {
		return nil, err
	}

	hits, err := s.store.Search(ctx, vector, topK, s.cfg.MinScore, input.DocIDs)
	if err != nil {
		return nil, err
	}
	if len(hits) == 0 {
		return &Answer{Answer: noContextAnswer, Citations: []Citation{}, Related: []graph.Edge{}}, nil
	}

	titles, err := s.titlesFor(hits)
	if err != nil {
		return nil, err
	}

	used := fitToBudget(hits, budget)
	if len(used) == 0 {
		return &Answer{Answer: noContextAnswer, Citations: []Citation{}, Related: []graph.Edge{}}, nil
	}
	contextBlock := s.renderContext(used, titles)

	prompt := fmt.Sprintf("Document excerpts:\n\n%s\nQuestion: %s", contextBlock, question)
	text, err := s.generator.Generate(ctx, answerSystemPrompt, prompt)
	if err != nil {
		return nil, err
	}

	answer := &Answer{
		Answer:    text,
		Citations: make([]Citation, len(used)),
		Related:   []graph.Edge{},
	}
	for i, h := range used {
		answer.Citations[i] = Citation{
			DocID:   h.DocID,
			Title:   titles[h.DocID],
			Chapter: h.Chapter,
			ChunkID: h.ChunkID,
			Excerpt: excerpt(h.Content, 240),
			Score:   h.Score,
		}
	}

	s.attachGraphContext(answer, used)
	s.attachFreshness(answer, used)
	return answer, nil
}

func (s *RAGService) embedQuery(ctx context.Context, query string) ([]float32, error) {
	vector, ok, err := s.queryCache.GetEmbedding(ctx, query)
	if err != nil {
		log.Printf("query embedding cache read failed: %v", err)
	}
	if ok {
		return vector, nil
	}

	vector, err = s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, err
	}
	if err := s.queryCache.SetEmbedding(ctx, query, vector); err != nil {
		log.Printf("query embedding cache write failed: %v", err)
	}
	return vector, nil
}

// fitToBudget keeps the highest-ranked hits whose combined size stays within
// the context token budget. Chunks are taken whole or not at all; selection
// stops at the first chunk that would overflow, even if it is the top hit.
func fitToBudget(hits []vectorstore.Hit, budget int) []vectorstore.Hit {
	if budget <= 0 {
		return hits
	}

	var used []vectorstore.Hit
	spent := 0
	for _, h := range hits {
		cost := estimateTokens(h.Content)
		if spent+cost > budget {
			break
		}
		used = append(used, h)
		spent += cost
	}
	return used
}

func (s *RAGService) renderContext(hits []vectorstore.Hit, titles map[string]string) string {
	var b strings.Builder
	for _, h := range hits {
		b.WriteString(fmt.Sprintf("[%s] %s", h.DocID, titles[h.DocID]))
		if h.Chapter != "" {
			b.WriteString(" / " + h.Chapter)
		}
		b.WriteString("\n")
		b.WriteString(h.Content)
		b.WriteString("\n\n")
	}
	return b.String()
}

func (s *RAGService) attachGraphContext(answer *Answer, hits []vectorstore.Hit) {
	cited := make(map[string]bool, len(hits))
	for _, h := range hits {
		cited[h.DocID] = true
	}

	top := hits[0].DocID
	for _, e := range s.kg.Successors(top, "") {
		answer.Related = append(answer.Related, e)
	}
	for _, e := range s.kg.Predecessors(top, "") {
		answer.Related = append(answer.Related, e)
	}

	for docID := range cited {
		for _, e := range s.kg.Successors(docID, model.RelationContradicts) {
			if cited[e.Target] {
				answer.HasContradictions = true
				return
			}
		}
	}
}

func (s *RAGService) attachFreshness(answer *Answer, hits []vectorstore.Hit) {
	seen := make(map[string]bool, len(hits))
	latest := ""
	for _, h := range hits {
		if seen[h.DocID] {
			continue
		}
		seen[h.DocID] = true
		doc, err := s.docRepo.GetByDocID(h.DocID)
		if err != nil || doc == nil {
			continue
		}
		// Dates are ISO formatted, lexical comparison is chronological.
		if doc.IssueDate > latest {
			latest = doc.IssueDate
		}
	}
	answer.LatestIssueDate = latest
}

func (s *RAGService) titlesFor(hits []vectorstore.Hit) (map[string]string, error) {
	idSet := make(map[string]bool, len(hits))
	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		if !idSet[h.DocID] {
			idSet[h.DocID] = true
			ids = append(ids, h.DocID)
		}
	}
	if len(ids) == 0 {
		return map[string]string{}, nil
	}

	docs, err := s.docRepo.ListByDocIDs(ids)
	if err != nil {
		return nil, err
	}
	titles := make(map[string]string, len(docs))
	for _, d := range docs {
		titles[d.DocID] = d.Title
	}
	return titles, nil
}

// estimateTokens approximates the token count as one token per four runes,
// which tracks close enough for budgeting without a tokenizer dependency.
func estimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}

func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
