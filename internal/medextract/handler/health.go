package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kart-io/medextract/pkg/component/storage"
)

// HealthHandler reports the health of the registered storage clients.
type HealthHandler struct {
	storages *storage.Manager
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(storages *storage.Manager) *HealthHandler {
	return &HealthHandler{storages: storages}
}

// Healthz handles GET /healthz. Any unhealthy client yields 503.
func (h *HealthHandler) Healthz(c *gin.Context) {
	statuses := h.storages.HealthCheckAll(c.Request.Context())
	status, code := "ok", http.StatusOK
	for _, s := range statuses {
		if !s.Healthy {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	c.JSON(code, gin.H{"status": status, "components": statuses})
}
