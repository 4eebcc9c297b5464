package medextract

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/internal/medextract/cache"
	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/llm"
)

const stubProviderName = "stub-vision"

type stubVision struct{}

func (stubVision) Name() string { return stubProviderName }

func (stubVision) GenerateContent(context.Context, *llm.GenerateRequest) (string, error) {
	return `{"diagnosis":"Flu"}`, nil
}

func init() {
	llm.RegisterProvider(stubProviderName, func(map[string]any) (llm.VisionProvider, error) {
		return stubVision{}, nil
	})
}

func serviceOptions(t *testing.T, mr *miniredis.Miniredis) *Options {
	t.Helper()
	opts := validOptions()
	opts.Server.HTTP.Mode = gin.TestMode
	opts.Database.SQLitePath = "file:" + strings.ReplaceAll(t.Name(), "/", "_") + "?mode=memory&cache=shared"
	opts.Gemini.Provider = stubProviderName
	opts.Blob.LocalDir = t.TempDir()

	if mr != nil {
		port, err := strconv.Atoi(mr.Port())
		require.NoError(t, err)
		opts.Redis.Enabled = true
		opts.Redis.Host = mr.Host()
		opts.Redis.Port = port
		opts.TenantCache.Enabled = true
	}
	return opts
}

func startService(t *testing.T, opts *Options) *service {
	t.Helper()
	svc, err := newService(context.Background(), opts)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = svc.workers.ReleaseTimeout(time.Second)
		_ = svc.blobs.Close()
		_ = svc.storages.CloseAll()
	})
	return svc
}

func TestNewServiceWiresTenantCache(t *testing.T) {
	mr := miniredis.RunT(t)
	svc := startService(t, serviceOptions(t, mr))

	assert.IsType(t, &cache.TenantCache{}, svc.tenants)
	assert.ElementsMatch(t, []string{"sqlite", "redis"}, svc.storages.List())

	tenant := &model.Tenant{Name: "clinic", APIKey: "key-1", IsActive: true, Tier: model.TierFree}
	require.NoError(t, svc.store.Tenants().Create(context.Background(), tenant))

	// 认证通过后才会查询任务
	req := httptest.NewRequest(http.MethodGet, "/api/v1/parse?job_id=missing", nil)
	req.Header.Set("X-API-Key", "key-1")
	w := httptest.NewRecorder()
	svc.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "Job not found")

	keys := mr.Keys()
	require.Len(t, keys, 1)
	assert.True(t, strings.HasPrefix(keys[0], cache.DefaultConfig().KeyPrefix))

	w = httptest.NewRecorder()
	svc.engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestNewServiceWithoutRedis(t *testing.T) {
	svc := startService(t, serviceOptions(t, nil))

	assert.NotContains(t, svc.storages.List(), "redis")
	_, cached := svc.tenants.(*cache.TenantCache)
	assert.False(t, cached)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/parse?job_id=x", nil)
	req.Header.Set("X-API-Key", "unknown")
	w := httptest.NewRecorder()
	svc.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestNewServiceErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(o *Options)
		want   string
	}{
		{"unknown provider", func(o *Options) { o.Gemini.Provider = "nope" }, "failed to create nope provider"},
		{"redis unreachable", func(o *Options) {
			o.Redis.Enabled = true
			o.Redis.Host = "127.0.0.1"
			o.Redis.Port = 1
			o.Redis.DialTimeout = 100 * time.Millisecond
			o.Redis.MaxRetries = -1
		}, "failed to connect redis"},
		{"unknown blob driver", func(o *Options) { o.Blob.Driver = "ftp" }, "failed to open blob store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := serviceOptions(t, nil)
			tt.mutate(opts)
			_, err := newService(context.Background(), opts)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
