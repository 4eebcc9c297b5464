// Package router provides medextract routing.
package router

import (
	"github.com/gin-gonic/gin"
	"github.com/kart-io/logger"

	"github.com/kart-io/medextract/internal/medextract/handler"
	"github.com/kart-io/medextract/pkg/infra/middleware"
)

// Handlers groups the HTTP handlers served by the engine.
type Handlers struct {
	Documents *handler.DocumentHandler
	Tenants   *handler.TenantHandler
	Health    *handler.HealthHandler
}

// StaticFiles serves locally stored blobs. Path is empty when blobs live in
// a remote bucket.
type StaticFiles struct {
	Path string
	Dir  string
}

// New creates a gin engine with the common middleware chain.
func New() *gin.Engine {
	engine := gin.New()
	engine.Use(middleware.RequestID(), middleware.Logger("/healthz"), middleware.Recovery())
	return engine
}

// Register registers the medextract routes on engine.
func Register(engine *gin.Engine, h *Handlers, static StaticFiles) {
	logger.Info("Registering medextract routes...")

	engine.GET("/healthz", h.Health.Healthz)
	if static.Path != "" {
		engine.Static(static.Path, static.Dir)
	}

	// 内部前端接口
	api := engine.Group("/api")
	{
		api.POST("/parse-document", h.Documents.Parse)
		api.GET("/parse-document", h.Documents.Get)
		api.GET("/parse-document/export", h.Documents.Export)
		api.GET("/documents", h.Documents.Recent)
		api.GET("/search-documents", h.Documents.Search)
	}

	// 租户接口，需 X-API-Key
	v1 := engine.Group("/api/v1")
	v1.Use(h.Tenants.Authenticate())
	{
		v1.POST("/parse", h.Tenants.Submit)
		v1.GET("/parse", h.Tenants.Status)
		v1.GET("/documents", h.Tenants.Document)
	}
}
