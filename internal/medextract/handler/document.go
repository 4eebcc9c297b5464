package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/medextract/internal/medextract/biz"
	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/response"
)

// DocumentHandler serves the first-party document API.
type DocumentHandler struct {
	svc    *biz.DocumentService
	limits UploadLimits
}

// NewDocumentHandler creates a new DocumentHandler.
func NewDocumentHandler(svc *biz.DocumentService, limits UploadLimits) *DocumentHandler {
	return &DocumentHandler{svc: svc, limits: limits}
}

// Parse handles POST /api/parse-document.
func (h *DocumentHandler) Parse(c *gin.Context) {
	files, err := readUploads(c, h.limits, "files", "file")
	if err != nil {
		response.Fail(c, err)
		return
	}

	result, err := h.svc.ParseImages(c.Request.Context(), c.PostForm("originalFileName"), files)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, result)
}

// Get handles GET /api/parse-document?id=.
func (h *DocumentHandler) Get(c *gin.Context) {
	doc, err := h.svc.Get(c.Request.Context(), c.Query("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, doc)
}

// Export handles GET /api/parse-document/export?id=.
func (h *DocumentHandler) Export(c *gin.Context) {
	exp, err := h.svc.Export(c.Request.Context(), c.Query("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", exp.FileName))
	c.Data(http.StatusOK, biz.XLSXContentType, exp.Data)
}

// Recent handles GET /api/documents?limit=. An unparsable limit falls back
// to the default.
func (h *DocumentHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	docs, err := h.svc.Recent(c.Request.Context(), limit)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"documents": docs})
}

// Search handles GET /api/search-documents?query=.
func (h *DocumentHandler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("query"))
	if query == "" {
		response.OK(c, gin.H{"documents": []*model.Document{}})
		return
	}

	docs, err := h.svc.Search(c.Request.Context(), query)
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, gin.H{"documents": docs})
}
