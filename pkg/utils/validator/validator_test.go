package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errno "github.com/kart-io/medextract/pkg/utils/errors"
)

type submitRequest struct {
	CallbackURL string `form:"callback_url" validate:"omitempty,callbackurl"`
	APIKey      string `json:"api_key" validate:"required,nowhitespace"`
	Tier        string `json:"tier" validate:"omitempty,tier"`
}

func TestValidate(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     submitRequest
		wantErr string
	}{
		{"valid", submitRequest{CallbackURL: "https://example.com/hook", APIKey: "k1", Tier: "pro"}, ""},
		{"missing key", submitRequest{}, "api_key is a required field"},
		{"relative callback", submitRequest{APIKey: "k", CallbackURL: "/hook"}, "callback_url must be an absolute http or https URL"},
		{"ftp callback", submitRequest{APIKey: "k", CallbackURL: "ftp://example.com"}, "callback_url must be an absolute http or https URL"},
		{"bad tier", submitRequest{APIKey: "k", Tier: "gold"}, "tier must be one of free, basic, pro or enterprise"},
		{"key with space", submitRequest{APIKey: "a b"}, "api_key must not contain whitespace characters"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.req)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			e := errno.FromError(err)
			assert.Equal(t, errno.ErrInvalidParam.Code, e.Code)
			assert.Equal(t, tt.wantErr, e.MessageEN)
		})
	}
}

func TestTranslateZH(t *testing.T) {
	v := Global()
	err := v.Struct(submitRequest{APIKey: "k", Tier: "gold"})
	require.Error(t, err)

	msgs := v.Translate(err, LangZH)
	assert.Equal(t, "tier必须是 free、basic、pro 或 enterprise", msgs["tier"])
}

func TestIsCallbackURL(t *testing.T) {
	assert.True(t, IsCallbackURL("http://localhost:8080/cb"))
	assert.False(t, IsCallbackURL("localhost:8080"))
	assert.False(t, IsCallbackURL(""))
}
