package biz

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/internal/model"
	"github.com/kart-io/medextract/pkg/utils/json"
)

func TestWebhookNotifierDelivers(t *testing.T) {
	var gotHeader, gotType string
	var body map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotHeader = r.Header.Get(WebhookEventHeader)
		gotType = r.Header.Get("Content-Type")
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, &body)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	at := time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC)
	payload := newWebhookPayload("job-1", "doc-1", model.JobCompleted, at, map[string]any{"pages_processed": 2})
	require.NoError(t, NewWebhookNotifier(time.Second).Notify(context.Background(), srv.URL, payload))

	assert.Equal(t, WebhookEventCompleted, gotHeader)
	assert.Equal(t, "application/json", gotType)
	assert.Equal(t, "job-1", body["job_id"])
	assert.Equal(t, "doc-1", body["document_id"])
	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, "2024-05-01T10:30:00Z", body["timestamp"])
	assert.Equal(t, float64(2), body["data"].(map[string]any)["pages_processed"])
}

func TestWebhookNotifierNon2xxFailsWithoutRetry(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := NewWebhookNotifier(time.Second).Notify(context.Background(), srv.URL,
		newWebhookPayload("job-1", "", model.JobFailed, time.Now(), map[string]any{"error": "boom"}))
	assert.ErrorContains(t, err, "502")
	assert.Equal(t, 1, calls)
}
