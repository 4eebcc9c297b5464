// Package llm 提供多模态（视觉）模型供应商的统一抽象层。
package llm

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrEmptyResponse 模型返回了空内容（无候选或被安全策略拦截）。
var ErrEmptyResponse = errors.New("llm: empty response")

// Part 表示请求中的一个片段：文本或内联二进制数据（图片、PDF）。
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart 构造文本片段。
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart 构造内联数据片段。
func BlobPart(mimeType string, data []byte) Part {
	return Part{MIMEType: mimeType, Data: data}
}

// GenerateRequest 单轮生成请求。
type GenerateRequest struct {
	Parts           []Part
	Temperature     float32
	MaxOutputTokens int32
}

// VisionProvider 定义多模态供应商接口。
type VisionProvider interface {
	// GenerateContent 根据请求片段生成文本。
	GenerateContent(ctx context.Context, req *GenerateRequest) (string, error)

	// Name 返回供应商名称。
	Name() string
}

// StatusError 供应商返回了非成功的 HTTP 状态。
type StatusError struct {
	Provider   string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: status %d: %s", e.Provider, e.StatusCode, e.Message)
}

// Retryable 报告该状态是否值得重试（限流或服务端错误）。
func (e *StatusError) Retryable() bool {
	return e.StatusCode == 429 || e.StatusCode >= 500
}

// ProviderFactory 供应商工厂函数类型。
type ProviderFactory func(config map[string]any) (VisionProvider, error)

var registry = &providerRegistry{
	providers: make(map[string]ProviderFactory),
}

type providerRegistry struct {
	mu        sync.RWMutex
	providers map[string]ProviderFactory
}

// RegisterProvider 注册供应商工厂。
func RegisterProvider(name string, factory ProviderFactory) {
	registry.mu.Lock()
	defer registry.mu.Unlock()
	registry.providers[name] = factory
}

// NewProvider 根据名称创建供应商实例。
func NewProvider(name string, config map[string]any) (VisionProvider, error) {
	registry.mu.RLock()
	factory, ok := registry.providers[name]
	registry.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("unknown provider: %s", name)
	}
	return factory(config)
}

// ListProviders 列出所有已注册的供应商名称（已排序）。
func ListProviders() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()

	names := make([]string, 0, len(registry.providers))
	for name := range registry.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
