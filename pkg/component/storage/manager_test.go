package storage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClient struct {
	name     string
	pingErr  error
	closeErr error
	closed   bool
}

func (f *fakeClient) Name() string                   { return f.name }
func (f *fakeClient) Ping(ctx context.Context) error { return f.pingErr }
func (f *fakeClient) Close() error {
	f.closed = true
	return f.closeErr
}

func TestManagerRegister(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register("db", &fakeClient{name: "sqlite"}))

	assert.Error(t, m.Register("db", &fakeClient{}))
	assert.Error(t, m.Register("", &fakeClient{}))
	assert.Error(t, m.Register("cache", nil))
	assert.Equal(t, []string{"db"}, m.List())
}

func TestManagerHealthCheckAll(t *testing.T) {
	m := NewManager()
	require.NoError(t, m.Register("db", &fakeClient{name: "postgres"}))
	require.NoError(t, m.Register("cache", &fakeClient{name: "redis", pingErr: errors.New("connection refused")}))

	statuses := m.HealthCheckAll(context.Background())
	require.Len(t, statuses, 2)
	assert.True(t, statuses["db"].Healthy)
	assert.False(t, statuses["cache"].Healthy)
	assert.Equal(t, "connection refused", statuses["cache"].Error)
	assert.False(t, m.AllHealthy(context.Background()))
}

func TestManagerCloseAll(t *testing.T) {
	m := NewManager()
	db := &fakeClient{name: "mysql"}
	cache := &fakeClient{name: "redis", closeErr: errors.New("boom")}
	require.NoError(t, m.Register("db", db))
	require.NoError(t, m.Register("cache", cache))

	err := m.CloseAll()
	assert.ErrorContains(t, err, "close cache: boom")
	assert.True(t, db.closed)
	assert.True(t, cache.closed)
	assert.Empty(t, m.List())
}
