package response

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/pkg/utils/errors"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestHTTPStatusFallback(t *testing.T) {
	tests := []struct {
		name string
		code int
		want int
	}{
		{"success", 0, http.StatusOK},
		{"registered", errors.ErrTenantInactive.Code, http.StatusForbidden},
		{"unregistered rate limit", errors.MakeCode(50, errors.CategoryRateLimit, 999), http.StatusTooManyRequests},
		{"unregistered internal", errors.MakeCode(50, errors.CategoryInternal, 999), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &Response{Code: tt.code}
			assert.Equal(t, tt.want, r.HTTPStatus())
		})
	}
}

func TestGinWriters(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Set(RequestIDKey, "req-1")

	Accepted(c, "queued", map[string]string{"job_id": "j1"})
	assert.Equal(t, http.StatusAccepted, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "queued", body.Message)
	assert.Equal(t, "req-1", body.RequestID)
	assert.NotZero(t, body.Timestamp)
}

func TestFailWrapsUnknownErrors(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	Fail(c, fmt.Errorf("boom"))
	assert.Equal(t, http.StatusInternalServerError, w.Code)

	var body Response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, errors.ErrInternal.Code, body.Code)
}

func TestFailWithData(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	FailWithData(c, errors.ErrQueueLimitReached, map[string]int{"queue_limit": 2})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), `"queue_limit":2`)
}
