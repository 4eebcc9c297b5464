// Package database opens gorm connections with shared pool and logging setup.
// Driver packages (postgres, mysql, sqlite) build the dialector and call Open.
package database

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/medextract/pkg/component/storage"
)

// slowQueryThreshold is where Trace starts warning.
const slowQueryThreshold = 200 * time.Millisecond

// Pool holds connection pool limits. Zero values keep the driver default.
type Pool struct {
	MaxIdleConnections    int
	MaxOpenConnections    int
	MaxConnectionLifeTime time.Duration
}

// Client wraps gorm.DB and implements storage.Client.
type Client struct {
	name string
	db   *gorm.DB
}

var _ storage.Client = (*Client)(nil)

// Open connects through dialector, applies pool limits and pings the server.
// logLevel follows the option convention: 1 silent, 2 error, 3 warn, 4 info.
func Open(ctx context.Context, name string, dialector gorm.Dialector, pool Pool, logLevel int) (*Client, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(toGormLevel(logLevel), slowQueryThreshold, true),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", name, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if pool.MaxIdleConnections > 0 {
		sqlDB.SetMaxIdleConns(pool.MaxIdleConnections)
	}
	if pool.MaxOpenConnections > 0 {
		sqlDB.SetMaxOpenConns(pool.MaxOpenConnections)
	}
	if pool.MaxConnectionLifeTime > 0 {
		sqlDB.SetConnMaxLifetime(pool.MaxConnectionLifeTime)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", name, err)
	}

	return &Client{name: name, db: db}, nil
}

// Name returns the driver name.
func (c *Client) Name() string {
	return c.name
}

// DB returns the underlying gorm.DB instance.
func (c *Client) DB() *gorm.DB {
	return c.db
}

// Ping checks if the connection is alive.
func (c *Client) Ping(ctx context.Context) error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (c *Client) Close() error {
	sqlDB, err := c.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	return sqlDB.Close()
}

func toGormLevel(level int) gormlogger.LogLevel {
	switch level {
	case 2:
		return gormlogger.Error
	case 3:
		return gormlogger.Warn
	case 4:
		return gormlogger.Info
	default:
		return gormlogger.Silent
	}
}
