package resilience

import (
	"context"
	"errors"
	"net"

	"github.com/kart-io/medextract/pkg/llm"
)

// VisionProvider 为视觉供应商加上熔断保护。
type VisionProvider struct {
	provider llm.VisionProvider
	breaker  *Breaker
}

var _ llm.VisionProvider = (*VisionProvider)(nil)

// NewVisionProvider 包装 provider。
func NewVisionProvider(provider llm.VisionProvider, config *BreakerConfig) *VisionProvider {
	return &VisionProvider{
		provider: provider,
		breaker:  NewBreaker(provider.Name(), config),
	}
}

// GenerateContent 经熔断器转发请求。
func (p *VisionProvider) GenerateContent(ctx context.Context, req *llm.GenerateRequest) (string, error) {
	var out string
	err := p.breaker.Execute(func() error {
		var err error
		out, err = p.provider.GenerateContent(ctx, req)
		return err
	}, IsUnavailable)
	return out, err
}

// Name 返回被包装供应商的名称。
func (p *VisionProvider) Name() string {
	return p.provider.Name()
}

// Breaker 返回熔断器实例。
func (p *VisionProvider) Breaker() *Breaker {
	return p.breaker
}

// IsUnavailable 判断错误是否说明供应商不可用：限流、5xx 或网络故障。
// 调用方取消、4xx 与空响应不计入。
func IsUnavailable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) || errors.Is(err, llm.ErrEmptyResponse) {
		return false
	}
	var se *llm.StatusError
	if errors.As(err, &se) {
		return se.Retryable()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr)
}
