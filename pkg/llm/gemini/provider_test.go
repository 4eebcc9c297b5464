package gemini

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/pkg/llm"
)

func newTestProvider(t *testing.T, handler http.HandlerFunc, retries int) *Provider {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	p, err := NewProviderWithConfig(context.Background(), &Config{
		BaseURL:    srv.URL,
		APIKey:     "test-key",
		Model:      "gemini-test",
		Timeout:    5 * time.Second,
		MaxRetries: retries,
	})
	require.NoError(t, err)
	p.backoff = time.Millisecond
	return p
}

func writeCandidate(w http.ResponseWriter, text string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, `{"candidates":[{"content":{"role":"model","parts":[{"text":`+text+`}]}}]}`)
}

func TestGenerateContent(t *testing.T) {
	var body string
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		body = string(b)
		assert.True(t, strings.HasSuffix(r.URL.Path, "models/gemini-test:generateContent"), r.URL.Path)
		writeCandidate(w, `"{\"a\":1}"`)
	}, 0)

	out, err := p.GenerateContent(context.Background(), &llm.GenerateRequest{
		Parts:           []llm.Part{llm.TextPart("extract"), llm.BlobPart("image/png", []byte{0x89, 0x50})},
		Temperature:     0.1,
		MaxOutputTokens: 8192,
	})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, out)
	assert.Contains(t, body, `"inlineData"`)
	assert.Contains(t, body, `"maxOutputTokens":8192`)
}

func TestGenerateContentStatusError(t *testing.T) {
	var calls int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":{"code":400,"message":"bad image","status":"INVALID_ARGUMENT"}}`)
	}, 2)

	_, err := p.GenerateContent(context.Background(), &llm.GenerateRequest{Parts: []llm.Part{llm.TextPart("x")}})
	var se *llm.StatusError
	require.True(t, errors.As(err, &se), "got %v", err)
	assert.Equal(t, http.StatusBadRequest, se.StatusCode)
	assert.EqualValues(t, 1, atomic.LoadInt32(&calls), "client errors are not retried")
}

func TestGenerateContentRetriesServerErrors(t *testing.T) {
	var calls int32
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = io.WriteString(w, `{"error":{"code":503,"message":"overloaded","status":"UNAVAILABLE"}}`)
			return
		}
		writeCandidate(w, `"ok"`)
	}, 1)

	out, err := p.GenerateContent(context.Background(), &llm.GenerateRequest{Parts: []llm.Part{llm.TextPart("x")}})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

func TestGenerateContentEmpty(t *testing.T) {
	p := newTestProvider(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}, 0)

	_, err := p.GenerateContent(context.Background(), &llm.GenerateRequest{Parts: []llm.Part{llm.TextPart("x")}})
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestNewProviderRequiresKey(t *testing.T) {
	_, err := NewProvider(map[string]any{"model": "m"})
	assert.Error(t, err)

	p, err := llm.NewProvider(ProviderName, map[string]any{"api_key": "k", "timeout": time.Second})
	require.NoError(t, err)
	assert.Equal(t, ProviderName, p.Name())
}
