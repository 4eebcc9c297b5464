package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockProvider 模拟供应商实现，用于测试。
type mockProvider struct {
	name string
}

func (m *mockProvider) Name() string {
	return m.name
}

func (m *mockProvider) GenerateContent(_ context.Context, req *GenerateRequest) (string, error) {
	return req.Parts[0].Text, nil
}

func TestRegisterAndNewProvider(t *testing.T) {
	RegisterProvider("test-provider", func(config map[string]any) (VisionProvider, error) {
		name := "test-provider"
		if n, ok := config["name"].(string); ok {
			name = n
		}
		return &mockProvider{name: name}, nil
	})

	p, err := NewProvider("test-provider", map[string]any{"name": "custom-name"})
	require.NoError(t, err)
	assert.Equal(t, "custom-name", p.Name())

	out, err := p.GenerateContent(context.Background(), &GenerateRequest{Parts: []Part{TextPart("echo")}})
	require.NoError(t, err)
	assert.Equal(t, "echo", out)
	assert.Contains(t, ListProviders(), "test-provider")
}

func TestNewProviderUnknown(t *testing.T) {
	_, err := NewProvider("unknown-provider", nil)
	assert.EqualError(t, err, "unknown provider: unknown-provider")
}

func TestStatusError(t *testing.T) {
	e := &StatusError{Provider: "gemini", StatusCode: 503, Message: "overloaded"}
	assert.Equal(t, "gemini: status 503: overloaded", e.Error())
	assert.True(t, e.Retryable())
	assert.True(t, (&StatusError{StatusCode: 429}).Retryable())
	assert.False(t, (&StatusError{StatusCode: 400}).Retryable())
}

func TestBlobPart(t *testing.T) {
	p := BlobPart("image/png", []byte{1, 2})
	assert.Equal(t, "image/png", p.MIMEType)
	assert.Empty(t, p.Text)
}
