package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/medextract/internal/medextract/biz"
	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/response"
)

const (
	// HeaderAPIKey carries the tenant API key.
	HeaderAPIKey = "X-API-Key"

	tenantKey = "medextract.tenant"
)

// TenantHandler serves the tenant API.
type TenantHandler struct {
	jobs      *biz.JobService
	documents *biz.DocumentService
	limits    UploadLimits
}

// NewTenantHandler creates a new TenantHandler.
func NewTenantHandler(jobs *biz.JobService, documents *biz.DocumentService, limits UploadLimits) *TenantHandler {
	return &TenantHandler{jobs: jobs, documents: documents, limits: limits}
}

// Authenticate resolves the tenant from the X-API-Key header and aborts
// with 401/403 when it is missing, unknown or inactive.
func (h *TenantHandler) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tenant, err := h.jobs.Authenticate(c.Request.Context(), c.GetHeader(HeaderAPIKey))
		if err != nil {
			response.Fail(c, err)
			c.Abort()
			return
		}
		c.Set(tenantKey, tenant)
		c.Next()
	}
}

func tenantFrom(c *gin.Context) *model.Tenant {
	v, _ := c.Get(tenantKey)
	t, _ := v.(*model.Tenant)
	return t
}

// Submit handles POST /api/v1/parse.
func (h *TenantHandler) Submit(c *gin.Context) {
	files, err := readUploads(c, UploadLimits{MaxFileSize: h.limits.MaxFileSize, MaxFiles: 1}, "file")
	if err != nil {
		response.Fail(c, err)
		return
	}

	accepted, err := h.jobs.Submit(c.Request.Context(), tenantFrom(c), &biz.JobRequest{
		CallbackURL: c.PostForm("callback_url"),
		File:        files[0],
	})
	if err != nil {
		var qle *biz.QueueLimitError
		if errors.As(err, &qle) {
			response.FailWithData(c, qle.Errno(), qle.Details())
			return
		}
		response.Fail(c, err)
		return
	}
	response.Accepted(c, biz.JobAcceptedMessage, accepted)
}

// Status handles GET /api/v1/parse?job_id=.
func (h *TenantHandler) Status(c *gin.Context) {
	view, err := h.jobs.Status(c.Request.Context(), tenantFrom(c).ID, c.Query("job_id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, view)
}

// Document handles GET /api/v1/documents?id=.
func (h *TenantHandler) Document(c *gin.Context) {
	doc, err := h.documents.GetForTenant(c.Request.Context(), tenantFrom(c).ID, c.Query("id"))
	if err != nil {
		response.Fail(c, err)
		return
	}
	response.OK(c, doc)
}
