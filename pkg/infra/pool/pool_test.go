package pool

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("job-worker", nil)
	require.NoError(t, err)
	defer func() { _ = p.ReleaseTimeout(time.Second) }()

	assert.Equal(t, "job-worker", p.Name())
	assert.Equal(t, 16, p.Cap())
}

func TestNewPoolInvalidConfig(t *testing.T) {
	_, err := NewPool("bad", &Config{Capacity: 0})
	assert.ErrorIs(t, err, ErrInvalidPoolConfig)
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 4, ExpiryDuration: time.Second})
	require.NoError(t, err)
	defer func() { _ = p.ReleaseTimeout(time.Second) }()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		require.NoError(t, p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}))
	}
	wg.Wait()

	assert.EqualValues(t, 50, counter.Load())
	assert.EqualValues(t, 50, p.Stats().Submitted)
}

func TestPoolOverload(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 1, ExpiryDuration: time.Second, Nonblocking: true})
	require.NoError(t, err)
	defer func() { _ = p.ReleaseTimeout(time.Second) }()

	block := make(chan struct{})
	started := make(chan struct{})
	require.NoError(t, p.Submit(func() {
		close(started)
		<-block
	}))
	<-started

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolOverload)
	assert.EqualValues(t, 1, p.Stats().Rejected)
	close(block)
}

func TestPoolPanicHandler(t *testing.T) {
	recovered := make(chan any, 1)
	p, err := NewPool("test", &Config{
		Capacity:       1,
		ExpiryDuration: time.Second,
		PanicHandler:   func(r any) { recovered <- r },
	})
	require.NoError(t, err)
	defer func() { _ = p.ReleaseTimeout(time.Second) }()

	require.NoError(t, p.Submit(func() { panic("boom") }))

	select {
	case r := <-recovered:
		assert.Equal(t, "boom", r)
	case <-time.After(2 * time.Second):
		t.Fatal("panic handler not called")
	}
	assert.Eventually(t, func() bool { return p.Stats().Panics == 1 }, time.Second, 10*time.Millisecond)
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	p, err := NewPool("test", &Config{Capacity: 1, ExpiryDuration: time.Second})
	require.NoError(t, err)
	require.NoError(t, p.ReleaseTimeout(time.Second))

	assert.ErrorIs(t, p.Submit(func() {}), ErrPoolClosed)
	assert.NoError(t, p.ReleaseTimeout(time.Second))
}
