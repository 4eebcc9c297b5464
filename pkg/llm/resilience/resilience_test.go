package resilience

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/medextract/pkg/llm"
)

type clock struct{ t time.Time }

func (c *clock) now() time.Time          { return c.t }
func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestBreaker(threshold int) (*Breaker, *clock) {
	c := &clock{t: time.Unix(0, 0)}
	b := NewBreaker("test", &BreakerConfig{Threshold: threshold, Cooldown: time.Minute})
	b.now = c.now
	return b, c
}

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b, _ := newTestBreaker(3)
	boom := errors.New("boom")

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, b.Execute(func() error { return boom }, nil), boom)
	}
	assert.Equal(t, StateOpen, b.State())

	called := false
	err := b.Execute(func() error { called = true; return nil }, nil)
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.False(t, called)
}

func TestBreakerSuccessResetsFailures(t *testing.T) {
	b, _ := newTestBreaker(2)
	boom := errors.New("boom")

	_ = b.Execute(func() error { return boom }, nil)
	require.NoError(t, b.Execute(func() error { return nil }, nil))
	_ = b.Execute(func() error { return boom }, nil)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerIgnoresNonFailures(t *testing.T) {
	b, _ := newTestBreaker(1)
	bad := errors.New("bad request")

	err := b.Execute(func() error { return bad }, func(error) bool { return false })
	assert.ErrorIs(t, err, bad)
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	b, c := newTestBreaker(1)
	boom := errors.New("boom")

	_ = b.Execute(func() error { return boom }, nil)
	require.Equal(t, StateOpen, b.State())

	c.advance(time.Minute)
	_ = b.Execute(func() error { return boom }, nil)
	assert.Equal(t, StateOpen, b.State(), "failed probe re-opens")
	assert.ErrorIs(t, b.Execute(func() error { return nil }, nil), ErrCircuitOpen)

	c.advance(time.Minute)
	require.NoError(t, b.Execute(func() error { return nil }, nil))
	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerDisabled(t *testing.T) {
	b, _ := newTestBreaker(0)
	for i := 0; i < 10; i++ {
		_ = b.Execute(func() error { return errors.New("boom") }, nil)
	}
	assert.Equal(t, StateClosed, b.State())
}

func TestIsUnavailable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"canceled", context.Canceled, false},
		{"empty response", llm.ErrEmptyResponse, false},
		{"bad request", &llm.StatusError{StatusCode: 400}, false},
		{"rate limited", fmt.Errorf("call: %w", &llm.StatusError{StatusCode: 429}), true},
		{"server error", &llm.StatusError{StatusCode: 503}, true},
		{"deadline", context.DeadlineExceeded, true},
		{"dial", &net.OpError{Op: "dial", Err: errors.New("refused")}, true},
		{"other", errors.New("decode"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsUnavailable(tt.err))
		})
	}
}

type flakyProvider struct {
	calls int
	err   error
}

func (p *flakyProvider) GenerateContent(context.Context, *llm.GenerateRequest) (string, error) {
	p.calls++
	if p.err != nil {
		return "", p.err
	}
	return "ok", nil
}

func (p *flakyProvider) Name() string { return "flaky" }

func TestVisionProvider(t *testing.T) {
	inner := &flakyProvider{err: &llm.StatusError{Provider: "flaky", StatusCode: 500}}
	p := NewVisionProvider(inner, &BreakerConfig{Threshold: 2, Cooldown: time.Hour})
	assert.Equal(t, "flaky", p.Name())

	for i := 0; i < 2; i++ {
		_, err := p.GenerateContent(context.Background(), &llm.GenerateRequest{})
		require.Error(t, err)
	}
	_, err := p.GenerateContent(context.Background(), &llm.GenerateRequest{})
	assert.ErrorIs(t, err, ErrCircuitOpen)
	assert.Equal(t, 2, inner.calls)
	assert.Equal(t, StateOpen, p.Breaker().State())

	healthy := NewVisionProvider(&flakyProvider{}, nil)
	out, err := healthy.GenerateContent(context.Background(), &llm.GenerateRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", out)
}
