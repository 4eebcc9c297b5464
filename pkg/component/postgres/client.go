// Package postgres opens the PostgreSQL connection.
package postgres

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"

	"github.com/kart-io/medextract/pkg/component/database"
	pgopts "github.com/kart-io/medextract/pkg/options/postgres"
)

// Name identifies the driver.
const Name = "postgres"

// New connects to PostgreSQL using opts.
func New(ctx context.Context, opts *pgopts.Options) (*database.Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("postgres options cannot be nil")
	}
	return database.Open(ctx, Name, postgres.Open(opts.DSN()), database.Pool{
		MaxIdleConnections:    opts.MaxIdleConnections,
		MaxOpenConnections:    opts.MaxOpenConnections,
		MaxConnectionLifeTime: opts.MaxConnectionLifeTime,
	}, opts.LogLevel)
}
