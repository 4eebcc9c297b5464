// Package gemini 提供基于 google.golang.org/genai 的 Gemini 视觉供应商实现。
package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"github.com/kart-io/medextract/pkg/llm"
)

const ProviderName = "gemini"

func init() {
	llm.RegisterProvider(ProviderName, NewProvider)
}

// Config Gemini 供应商配置。
type Config struct {
	// BaseURL API 基础地址，为空时使用 SDK 默认地址。
	BaseURL string `json:"base_url" mapstructure:"base_url"`

	// APIKey Google AI API 密钥。
	APIKey string `json:"api_key" mapstructure:"api_key"`

	// Model 用于视觉抽取的模型。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 限流或服务端错误时的最大重试次数。
	MaxRetries int `json:"max_retries" mapstructure:"max_retries"`
}

// DefaultConfig 返回默认配置。
func DefaultConfig() *Config {
	return &Config{
		Model:      "gemini-2.0-flash",
		Timeout:    120 * time.Second,
		MaxRetries: 2,
	}
}

// Provider Gemini 供应商实现。
type Provider struct {
	config  *Config
	client  *genai.Client
	backoff time.Duration
}

var _ llm.VisionProvider = (*Provider)(nil)

// NewProvider 从配置 map 创建 Gemini 供应商。
func NewProvider(configMap map[string]any) (llm.VisionProvider, error) {
	cfg := DefaultConfig()

	if v, ok := configMap["base_url"].(string); ok && v != "" {
		cfg.BaseURL = v
	}
	if v, ok := configMap["api_key"].(string); ok && v != "" {
		cfg.APIKey = v
	}
	if v, ok := configMap["model"].(string); ok && v != "" {
		cfg.Model = v
	}
	if v, ok := configMap["timeout"].(time.Duration); ok && v > 0 {
		cfg.Timeout = v
	}
	if v, ok := configMap["max_retries"].(int); ok && v >= 0 {
		cfg.MaxRetries = v
	}

	return NewProviderWithConfig(context.Background(), cfg)
}

// NewProviderWithConfig 使用结构化配置创建 Gemini 供应商。
func NewProviderWithConfig(ctx context.Context, cfg *Config) (*Provider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini: api_key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: cfg.Timeout},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: failed to create client: %w", err)
	}

	return &Provider{config: cfg, client: client, backoff: 500 * time.Millisecond}, nil
}

// Name 返回供应商名称。
func (p *Provider) Name() string {
	return ProviderName
}

// GenerateContent 发送多模态请求并返回首个候选的文本。
// 非成功状态以 *llm.StatusError 返回；429 与 5xx 会按配置重试。
func (p *Provider) GenerateContent(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	contents := []*genai.Content{{Role: genai.RoleUser, Parts: toParts(req.Parts)}}
	config := &genai.GenerateContentConfig{
		Temperature:     genai.Ptr(req.Temperature),
		MaxOutputTokens: req.MaxOutputTokens,
	}

	var lastErr error
	for i := 0; i <= p.config.MaxRetries; i++ {
		resp, err := p.client.Models.GenerateContent(ctx, p.config.Model, contents, config)
		if err == nil {
			text := strings.TrimSpace(resp.Text())
			if text == "" {
				return "", llm.ErrEmptyResponse
			}
			return text, nil
		}

		lastErr = toStatusError(err)
		var se *llm.StatusError
		if !errors.As(lastErr, &se) || !se.Retryable() {
			return "", lastErr
		}

		if i < p.config.MaxRetries {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(i+1) * p.backoff):
			}
		}
	}
	return "", lastErr
}

func toParts(parts []llm.Part) []*genai.Part {
	out := make([]*genai.Part, 0, len(parts))
	for _, part := range parts {
		if len(part.Data) > 0 {
			out = append(out, &genai.Part{InlineData: &genai.Blob{MIMEType: part.MIMEType, Data: part.Data}})
			continue
		}
		out = append(out, &genai.Part{Text: part.Text})
	}
	return out
}

// toStatusError 将 SDK 的 APIError 转换为 *llm.StatusError，其他错误原样返回。
func toStatusError(err error) error {
	var apiErr genai.APIError
	if errors.As(err, &apiErr) {
		return &llm.StatusError{Provider: ProviderName, StatusCode: apiErr.Code, Message: apiErr.Message}
	}
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) {
		return &llm.StatusError{Provider: ProviderName, StatusCode: apiErrPtr.Code, Message: apiErrPtr.Message}
	}
	return err
}
