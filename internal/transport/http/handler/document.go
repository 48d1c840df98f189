package handler

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"avidoc/internal/app"
	"avidoc/internal/repository"
	"avidoc/internal/transport/http/response"
)

type DocumentHandler struct {
	ingestService *app.IngestService
	docRepo       *repository.DocumentRepository
	chunkRepo     *repository.ChunkRepository
}

// FileResult is the outcome for one file in a multi-file upload. A batch
// never fails wholesale: each file succeeds or fails on its own.
type FileResult struct {
	Filename string            `json:"filename"`
	OK       bool              `json:"ok"`
	Error    string            `json:"error,omitempty"`
	Result   *app.IngestResult `json:"result,omitempty"`
}

func NewDocumentHandler(ingestService *app.IngestService, docRepo *repository.DocumentRepository, chunkRepo *repository.ChunkRepository) *DocumentHandler {
	return &DocumentHandler{
		ingestService: ingestService,
		docRepo:       docRepo,
		chunkRepo:     chunkRepo,
	}
}

// Upload accepts a multipart form with one or more "files" entries and an
// optional "doc_id" override that applies only to single-file uploads.
func (h *DocumentHandler) Upload(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid multipart form")
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "no files provided")
		return
	}

	docIDOverride := strings.TrimSpace(c.PostForm("doc_id"))
	if docIDOverride != "" && len(files) > 1 {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "doc_id override is only valid for single-file uploads")
		return
	}

	results := make([]FileResult, 0, len(files))
	docIDs := make([]string, 0, len(files))
	succeeded := 0
	for _, fh := range files {
		fileResult := FileResult{Filename: fh.Filename}

		f, err := fh.Open()
		if err != nil {
			fileResult.Error = "open uploaded file failed"
			results = append(results, fileResult)
			continue
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			fileResult.Error = "read uploaded file failed"
			results = append(results, fileResult)
			continue
		}

		result, err := h.ingestService.IngestFile(c.Request.Context(), fh.Filename, docIDOverride, data)
		if err != nil {
			fileResult.Error = err.Error()
			fileResult.Result = result // may carry a partial ingestion
			results = append(results, fileResult)
			continue
		}

		fileResult.OK = true
		fileResult.Result = result
		succeeded++
		docIDs = append(docIDs, result.DocID)
		results = append(results, fileResult)
	}

	response.OK(c, gin.H{
		"success":             succeeded == len(files),
		"documents_processed": succeeded,
		"document_ids":        docIDs,
		"files":               results,
	})
}

func (h *DocumentHandler) List(c *gin.Context) {
	docs, err := h.docRepo.ListAll()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "list documents failed")
		return
	}
	response.OK(c, gin.H{
		"count":     len(docs),
		"documents": docs,
	})
}

func (h *DocumentHandler) Get(c *gin.Context) {
	docID := c.Param("doc_id")
	doc, err := h.docRepo.GetByDocID(docID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch document failed")
		return
	}
	if doc == nil {
		response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, "document not found")
		return
	}

	chunks, err := h.chunkRepo.ListByDocID(docID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "fetch chunks failed")
		return
	}

	response.OK(c, gin.H{
		"document":    doc,
		"metadata":    doc.MetadataMap(),
		"chunk_count": len(chunks),
	})
}

func (h *DocumentHandler) Delete(c *gin.Context) {
	docID := c.Param("doc_id")
	if err := h.ingestService.DeleteDocument(c.Request.Context(), docID); err != nil {
		switch {
		case errors.Is(err, app.ErrDocumentNotFound):
			response.Error(c, http.StatusNotFound, response.CodeDocumentNotFound, err.Error())
		default:
			response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "delete document failed")
		}
		return
	}
	response.OK(c, gin.H{"deleted_doc_id": docID})
}
