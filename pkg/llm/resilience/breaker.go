// Package resilience 为视觉模型调用提供熔断保护。
package resilience

import (
	"errors"
	"sync"
	"time"

	"github.com/kart-io/logger"
)

// ErrCircuitOpen 熔断器打开时拒绝调用。
var ErrCircuitOpen = errors.New("circuit breaker is open")

// BreakerConfig 熔断器配置。
type BreakerConfig struct {
	// Threshold 连续失败多少次后打开熔断器，0 表示禁用。
	Threshold int
	// Cooldown 打开后多久允许一次探测调用。
	Cooldown time.Duration
}

// DefaultBreakerConfig 返回默认熔断器配置。
func DefaultBreakerConfig() *BreakerConfig {
	return &BreakerConfig{
		Threshold: 5,
		Cooldown:  30 * time.Second,
	}
}

// State 熔断器状态。
type State int

const (
	// StateClosed 正常放行。
	StateClosed State = iota
	// StateOpen 拒绝所有调用。
	StateOpen
	// StateHalfOpen 放行一次探测调用。
	StateHalfOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// Breaker 连续失败计数熔断器。
type Breaker struct {
	name   string
	config BreakerConfig
	now    func() time.Time

	mu       sync.Mutex
	state    State
	failures int
	openedAt time.Time
	probing  bool
}

// NewBreaker 创建熔断器。
func NewBreaker(name string, config *BreakerConfig) *Breaker {
	if config == nil {
		config = DefaultBreakerConfig()
	}
	return &Breaker{name: name, config: *config, now: time.Now}
}

// Execute 通过熔断器执行 fn。isFailure 判定哪些错误计入失败，
// 为 nil 时所有错误都计入。
func (b *Breaker) Execute(fn func() error, isFailure func(error) bool) error {
	if b.config.Threshold <= 0 {
		return fn()
	}
	if err := b.before(); err != nil {
		return err
	}

	err := fn()
	failed := err != nil && (isFailure == nil || isFailure(err))
	b.after(failed)
	return err
}

func (b *Breaker) before() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case StateOpen:
		if b.now().Sub(b.openedAt) < b.config.Cooldown {
			return ErrCircuitOpen
		}
		logger.Infow("circuit breaker half-open", "breaker", b.name)
		b.state = StateHalfOpen
		b.probing = true
		return nil
	case StateHalfOpen:
		if b.probing {
			return ErrCircuitOpen
		}
		b.probing = true
		return nil
	default:
		return nil
	}
}

func (b *Breaker) after(failed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == StateHalfOpen {
		b.probing = false
		if failed {
			logger.Warnw("circuit breaker re-opened after failed probe", "breaker", b.name)
			b.state = StateOpen
			b.openedAt = b.now()
			return
		}
		logger.Infow("circuit breaker closed", "breaker", b.name)
		b.state = StateClosed
		b.failures = 0
		return
	}

	if !failed {
		b.failures = 0
		return
	}
	b.failures++
	if b.state == StateClosed && b.failures >= b.config.Threshold {
		logger.Warnw("circuit breaker opened", "breaker", b.name, "failures", b.failures, "cooldown", b.config.Cooldown)
		b.state = StateOpen
		b.openedAt = b.now()
	}
}

// State 返回当前状态。
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}
