package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"avidoc/internal/app"
	"avidoc/internal/transport/http/response"
)

type GraphHandler struct {
	graphService *app.GraphService
}

type CreateLinkRequest struct {
	Source      string  `json:"source" binding:"required,max=128"`
	Target      string  `json:"target" binding:"required,max=128"`
	Relation    string  `json:"relation" binding:"required,max=32"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description" binding:"max=512"`
}

func NewGraphHandler(graphService *app.GraphService) *GraphHandler {
	return &GraphHandler{graphService: graphService}
}

func (h *GraphHandler) FullGraph(c *gin.Context) {
	response.OK(c, h.graphService.FullGraph())
}

// DocumentGraph returns the neighborhood of one document. The "depth" query
// parameter defaults to the configured maximum.
func (h *GraphHandler) DocumentGraph(c *gin.Context) {
	depth := -1
	if raw := c.Query("depth"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid depth")
			return
		}
		depth = parsed
	}

	view, err := h.graphService.DocumentGraph(c.Param("doc_id"), depth)
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch document graph failed")
		}
		return
	}
	response.OK(c, view)
}

func (h *GraphHandler) CreateLink(c *gin.Context) {
	var req CreateLinkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	link, err := h.graphService.AddLink(app.LinkInput{
		Source:      req.Source,
		Target:      req.Target,
		Relation:    req.Relation,
		Weight:      req.Weight,
		Description: req.Description,
	})
	if err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput), errors.Is(err, app.ErrInvalidRelation), errors.Is(err, app.ErrSelfLink):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, err.Error())
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		case errors.Is(err, app.ErrLinkExists):
			response.Error(c, http.StatusConflict, response.CodeLinkExists, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "create link failed")
		}
		return
	}
	response.OK(c, link)
}

func (h *GraphHandler) ListLinks(c *gin.Context) {
	links, err := h.graphService.ListLinks()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list links failed")
		return
	}
	response.OK(c, gin.H{
		"count": len(links),
		"links": links,
	})
}

// DeleteLink removes every relation between the source and target named by
// query parameters.
func (h *GraphHandler) DeleteLink(c *gin.Context) {
	source := c.Query("source")
	target := c.Query("target")
	if err := h.graphService.RemoveLink(source, target); err != nil {
		switch {
		case errors.Is(err, app.ErrInvalidInput):
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "source and target are required")
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete link failed")
		}
		return
	}
	response.OK(c, gin.H{"source": source, "target": target})
}
