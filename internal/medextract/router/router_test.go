package router

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/internal/medextract/handler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRegister(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "page.png"), []byte("png"), 0o600))

	engine := New()
	Register(engine, &Handlers{
		Documents: &handler.DocumentHandler{},
		Tenants:   &handler.TenantHandler{},
		Health:    &handler.HealthHandler{},
	}, StaticFiles{Path: "/files", Dir: dir})

	routes := map[string]bool{}
	for _, r := range engine.Routes() {
		routes[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /api/parse-document",
		"GET /api/parse-document",
		"GET /api/parse-document/export",
		"GET /api/documents",
		"GET /api/search-documents",
		"POST /api/v1/parse",
		"GET /api/v1/parse",
		"GET /api/v1/documents",
	} {
		assert.True(t, routes[want], want)
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/page.png", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "png", w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRegisterWithoutStaticFiles(t *testing.T) {
	engine := New()
	Register(engine, &Handlers{
		Documents: &handler.DocumentHandler{},
		Tenants:   &handler.TenantHandler{},
		Health:    &handler.HealthHandler{},
	}, StaticFiles{})

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/files/page.png", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
