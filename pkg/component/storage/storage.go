// Package storage defines the lifecycle contract shared by database and cache
// clients, plus a registry that health-checks and closes them together.
package storage

import (
	"context"
	"time"
)

// Client is a connection to a backing store.
type Client interface {
	// Name returns the storage type name, e.g. "postgres" or "redis".
	Name() string

	// Ping verifies the connection is usable.
	Ping(ctx context.Context) error

	// Close releases the underlying connections.
	Close() error
}

// HealthStatus is the result of pinging one registered client.
type HealthStatus struct {
	Name    string        `json:"name"`
	Healthy bool          `json:"healthy"`
	Latency time.Duration `json:"latency"`
	Error   string        `json:"error,omitempty"`
}
