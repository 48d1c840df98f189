package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"avidoc/internal/ai"
	"avidoc/internal/app"
	"avidoc/internal/config"
	"avidoc/internal/graph"
	"avidoc/internal/transport/http/middleware"
	"avidoc/internal/transport/http/response"
	"avidoc/internal/vectorstore"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func emptyRAGService(t *testing.T) *app.RAGService {
	t.Helper()
	store := vectorstore.NewMemoryStore()
	mock := ai.NewMockProvider(16)
	return app.NewRAGService(config.RetrievalConfig{
		TopK:             5,
		MinScore:         0.3,
		MaxContextTokens: 1000,
	}, nil, mock, mock, store, graph.NewKnowledgeGraph(), nil)
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) response.APIResponse {
	t.Helper()
	var envelope response.APIResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	return envelope
}

func TestSearchEmptyCorpusIsNotAnError(t *testing.T) {
	router := gin.New()
	router.POST("/search", NewRAGHandler(emptyRAGService(t)).Search)

	w := doJSON(router, http.MethodPost, "/search", `{"query": "bolt torque", "limit": 5, "min_score": 0.9}`)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, response.CodeOK, envelope.Code)
	data := envelope.Data.(map[string]any)
	require.Contains(t, data, "total")
	require.Contains(t, data, "results")
	assert.Equal(t, float64(0), data["total"])
	assert.Empty(t, data["results"])
}

func TestSearchRejectsMissingQuery(t *testing.T) {
	router := gin.New()
	router.POST("/search", NewRAGHandler(emptyRAGService(t)).Search)

	w := doJSON(router, http.MethodPost, "/search", `{"limit": 3}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, response.CodeBadRequest, envelope.Code)
}

func TestSearchRejectsOversizedLimit(t *testing.T) {
	router := gin.New()
	router.POST("/search", NewRAGHandler(emptyRAGService(t)).Search)

	w := doJSON(router, http.MethodPost, "/search", `{"query": "bolt torque", "limit": 51}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAskEmptyCorpusReturnsFallbackAnswer(t *testing.T) {
	router := gin.New()
	router.POST("/ask", NewRAGHandler(emptyRAGService(t)).Ask)

	w := doJSON(router, http.MethodPost, "/ask", `{"question": "what is the bolt torque?"}`)
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	require.Equal(t, response.CodeOK, envelope.Code)
	data := envelope.Data.(map[string]any)
	assert.NotEmpty(t, data["answer"])
	assert.Empty(t, data["citations"])
	require.Contains(t, data, "graph_links")
	require.Contains(t, data, "contradictions")
	require.Contains(t, data, "freshness")
}

func graphFixture() *app.GraphService {
	kg := graph.NewKnowledgeGraph()
	kg.AddNode(graph.Node{DocID: "SPEC-1", Title: "spec one", Status: "active"})
	kg.AddNode(graph.Node{DocID: "STD-2", Title: "standard two", Status: "active"})
	kg.AddEdge(graph.Edge{Source: "SPEC-1", Target: "STD-2", Relation: "references", Weight: 1})
	return app.NewGraphService(config.GraphConfig{MaxDepth: 5, MaxNodes: 500}, nil, nil, kg)
}

func TestFullGraph(t *testing.T) {
	router := gin.New()
	router.GET("/graph", NewGraphHandler(graphFixture()).FullGraph)

	w := doJSON(router, http.MethodGet, "/graph", "")
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope.Data.(map[string]any)
	assert.Len(t, data["nodes"], 2)
	assert.Len(t, data["edges"], 1)
	assert.Equal(t, false, data["truncated"])
}

func TestDocumentGraphNotFound(t *testing.T) {
	router := gin.New()
	router.GET("/graph/:doc_id", NewGraphHandler(graphFixture()).DocumentGraph)

	w := doJSON(router, http.MethodGet, "/graph/MISSING", "")
	require.Equal(t, http.StatusNotFound, w.Code)

	envelope := decodeEnvelope(t, w)
	assert.Equal(t, response.CodeDocumentNotFound, envelope.Code)
}

func TestDocumentGraphDepthZero(t *testing.T) {
	router := gin.New()
	router.GET("/graph/:doc_id", NewGraphHandler(graphFixture()).DocumentGraph)

	w := doJSON(router, http.MethodGet, "/graph/SPEC-1?depth=0", "")
	require.Equal(t, http.StatusOK, w.Code)

	envelope := decodeEnvelope(t, w)
	data := envelope.Data.(map[string]any)
	assert.Len(t, data["nodes"], 1)
	assert.Empty(t, data["edges"])
}

func TestDocumentGraphInvalidDepth(t *testing.T) {
	router := gin.New()
	router.GET("/graph/:doc_id", NewGraphHandler(graphFixture()).DocumentGraph)

	w := doJSON(router, http.MethodGet, "/graph/SPEC-1?depth=banana", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAuthMiddlewareBlocksWhenRequired(t *testing.T) {
	router := gin.New()
	router.GET("/protected", middleware.AuthJWT("secret", true), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doJSON(router, http.MethodGet, "/protected", "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthMiddlewarePassThroughWhenOptional(t *testing.T) {
	router := gin.New()
	router.GET("/open", middleware.AuthJWT("secret", false), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := doJSON(router, http.MethodGet, "/open", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
