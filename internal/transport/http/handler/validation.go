package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"avidoc/internal/app"
	"avidoc/internal/transport/http/response"
)

type ValidationHandler struct {
	validationService *app.ValidationService
}

type ValidateRequest struct {
	DocumentIDs []string `json:"document_ids"`
}

func NewValidationHandler(validationService *app.ValidationService) *ValidationHandler {
	return &ValidationHandler{validationService: validationService}
}

// Validate runs the consistency checks over the whole corpus, or over the
// documents listed in the optional request body.
func (h *ValidationHandler) Validate(c *gin.Context) {
	var req ValidateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
			return
		}
	}

	report, err := h.validationService.Validate(req.DocumentIDs)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "validation failed")
		return
	}
	response.OK(c, report)
}
