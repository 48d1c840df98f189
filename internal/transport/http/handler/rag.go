package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"avidoc/internal/ai"
	"avidoc/internal/app"
	"avidoc/internal/transport/http/response"
)

type RAGHandler struct {
	ragService *app.RAGService
}

type SearchRequest struct {
	Query    string   `json:"query" binding:"required,max=2048"`
	Limit    int      `json:"limit" binding:"max=50"`
	MinScore float64  `json:"min_score"`
	DocIDs   []string `json:"doc_ids"`
}

type AskRequest struct {
	Question         string   `json:"question" binding:"required,max=2048"`
	TopK             int      `json:"top_k" binding:"max=50"`
	Documents        []string `json:"documents"`
	MaxContextTokens int      `json:"max_context_tokens"`
}

func NewRAGHandler(ragService *app.RAGService) *RAGHandler {
	return &RAGHandler{ragService: ragService}
}

// Search returns the closest chunks for a free-text query. An empty result
// set is a normal response.
func (h *RAGHandler) Search(c *gin.Context) {
	var req SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	results, err := h.ragService.Search(c.Request.Context(), app.SearchInput{
		Query:    req.Query,
		TopK:     req.Limit,
		MinScore: req.MinScore,
		DocIDs:   req.DocIDs,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, ai.ErrEmbedding):
			response.Error(c, http.StatusBadGateway, response.CodeInternalServer, "embedding provider unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "search failed")
		}
		return
	}

	response.OK(c, gin.H{
		"results": results,
		"total":   len(results),
	})
}

func (h *RAGHandler) Ask(c *gin.Context) {
	var req AskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	answer, err := h.ragService.Ask(c.Request.Context(), app.AskInput{
		Question:         req.Question,
		TopK:             req.TopK,
		DocIDs:           req.Documents,
		MaxContextTokens: req.MaxContextTokens,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, ai.ErrEmbedding):
			response.Error(c, http.StatusBadGateway, response.CodeInternalServer, "embedding provider unavailable")
		case errors.Is(err, ai.ErrGeneration):
			response.Error(c, http.StatusBadGateway, response.CodeInternalServer, "answer generation unavailable")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "ask failed")
		}
		return
	}

	response.OK(c, answer)
}
