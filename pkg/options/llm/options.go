// Package llm provides vision model provider configuration options.
package llm

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/medextract/pkg/options"
)

var _ options.IOptions = (*ProviderOptions)(nil)

// ProviderOptions 定义视觉模型供应商配置。
type ProviderOptions struct {
	// Provider 供应商名称，需已通过 llm.RegisterProvider 注册。
	Provider string `json:"provider" mapstructure:"provider"`

	// BaseURL API 基础地址，为空时使用 SDK 默认值。
	BaseURL string `json:"base-url" mapstructure:"base-url"`

	// APIKey API 密钥，为空时读取 APIKeyEnv 指定的环境变量。
	APIKey string `json:"-" mapstructure:"api-key"`

	// APIKeyEnv 存放密钥的环境变量名。
	APIKeyEnv string `json:"api-key-env" mapstructure:"api-key-env"`

	// Model 模型名称。
	Model string `json:"model" mapstructure:"model"`

	// Timeout 单次请求超时时间。
	Timeout time.Duration `json:"timeout" mapstructure:"timeout"`

	// MaxRetries 限流或服务端错误时的最大重试次数。
	MaxRetries int `json:"max-retries" mapstructure:"max-retries"`

	// BreakerThreshold 连续不可用多少次后熔断，0 表示禁用。
	BreakerThreshold int `json:"breaker-threshold" mapstructure:"breaker-threshold"`

	// BreakerCooldown 熔断后多久放行一次探测调用。
	BreakerCooldown time.Duration `json:"breaker-cooldown" mapstructure:"breaker-cooldown"`
}

// NewGeminiOptions 创建默认 Gemini 配置。
func NewGeminiOptions() *ProviderOptions {
	return &ProviderOptions{
		Provider:   "gemini",
		APIKeyEnv:  "GEMINI_API_KEY",
		Model:      "gemini-2.0-flash",
		Timeout:    120 * time.Second,
		MaxRetries: 2,

		BreakerThreshold: 5,
		BreakerCooldown:  30 * time.Second,
	}
}

// ToConfigMap 转换为配置 map，用于供应商工厂。
func (o *ProviderOptions) ToConfigMap() map[string]any {
	return map[string]any{
		"base_url":    o.BaseURL,
		"api_key":     o.APIKey,
		"model":       o.Model,
		"timeout":     o.Timeout,
		"max_retries": o.MaxRetries,
	}
}

// AddFlags adds flags for the provider options to the specified FlagSet.
func (o *ProviderOptions) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...)
	fs.StringVar(&o.Provider, p+"provider", o.Provider, "Vision provider name.")
	fs.StringVar(&o.BaseURL, p+"base-url", o.BaseURL, "Provider API base URL.")
	fs.StringVar(&o.APIKey, p+"api-key", o.APIKey, "Provider API key.")
	fs.StringVar(&o.APIKeyEnv, p+"api-key-env", o.APIKeyEnv, "Environment variable holding the API key.")
	fs.StringVar(&o.Model, p+"model", o.Model, "Model name.")
	fs.DurationVar(&o.Timeout, p+"timeout", o.Timeout, "Per-request timeout.")
	fs.IntVar(&o.MaxRetries, p+"max-retries", o.MaxRetries, "Retries on 429 and 5xx responses.")
	fs.IntVar(&o.BreakerThreshold, p+"breaker-threshold", o.BreakerThreshold, "Consecutive unavailable responses that open the circuit breaker (0 disables).")
	fs.DurationVar(&o.BreakerCooldown, p+"breaker-cooldown", o.BreakerCooldown, "Time an open circuit breaker waits before a probe call.")
}

// Complete 从环境变量补全 API 密钥。
func (o *ProviderOptions) Complete() error {
	if o.APIKey == "" && o.APIKeyEnv != "" {
		o.APIKey = os.Getenv(o.APIKeyEnv)
	}
	return nil
}

// Validate validates the provider options.
func (o *ProviderOptions) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.Provider == "" {
		errs = append(errs, fmt.Errorf("provider is required"))
	}
	if o.Model == "" {
		errs = append(errs, fmt.Errorf("model is required"))
	}
	if o.APIKey == "" {
		errs = append(errs, fmt.Errorf("api-key is required (set it or export %s)", o.APIKeyEnv))
	}
	if o.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive"))
	}
	if o.BreakerThreshold < 0 {
		errs = append(errs, fmt.Errorf("breaker-threshold must not be negative"))
	}
	if o.BreakerThreshold > 0 && o.BreakerCooldown <= 0 {
		errs = append(errs, fmt.Errorf("breaker-cooldown must be positive"))
	}
	if o.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max-retries must not be negative"))
	}
	return errs
}
