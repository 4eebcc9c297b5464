package llm

import (
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiOptions(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	o := NewGeminiOptions()
	assert.NotEmpty(t, o.Validate(), "api key is required before Complete")

	require.NoError(t, o.Complete())
	assert.Equal(t, "env-key", o.APIKey)
	assert.Empty(t, o.Validate())

	m := o.ToConfigMap()
	assert.Equal(t, "env-key", m["api_key"])
	assert.Equal(t, "gemini-2.0-flash", m["model"])
	assert.Equal(t, 120*time.Second, m["timeout"])
}

func TestExplicitKeyWinsOverEnv(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")
	o := NewGeminiOptions()
	o.APIKey = "flag-key"
	require.NoError(t, o.Complete())
	assert.Equal(t, "flag-key", o.APIKey)
}

func TestValidateBreaker(t *testing.T) {
	o := NewGeminiOptions()
	o.APIKey = "k"
	o.BreakerCooldown = 0
	assert.Len(t, o.Validate(), 1)

	o.BreakerThreshold = 0
	assert.Empty(t, o.Validate())
}

func TestAddFlags(t *testing.T) {
	o := NewGeminiOptions()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	o.AddFlags(fs, "gemini")
	require.NoError(t, fs.Parse([]string{"--gemini.model=gemini-pro", "--gemini.breaker-threshold=3"}))
	assert.Equal(t, "gemini-pro", o.Model)
	assert.Equal(t, 3, o.BreakerThreshold)
}
