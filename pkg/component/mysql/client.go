// Package mysql opens the MySQL connection.
package mysql

import (
	"context"
	"fmt"

	"gorm.io/driver/mysql"

	"github.com/kart-io/medextract/pkg/component/database"
	mysqlopts "github.com/kart-io/medextract/pkg/options/mysql"
)

// Name identifies the driver.
const Name = "mysql"

// New connects to MySQL using opts.
func New(ctx context.Context, opts *mysqlopts.Options) (*database.Client, error) {
	if opts == nil {
		return nil, fmt.Errorf("mysql options cannot be nil")
	}
	return database.Open(ctx, Name, mysql.Open(opts.DSN()), database.Pool{
		MaxIdleConnections:    opts.MaxIdleConnections,
		MaxOpenConnections:    opts.MaxOpenConnections,
		MaxConnectionLifeTime: opts.MaxConnectionLifeTime,
	}, opts.LogLevel)
}
