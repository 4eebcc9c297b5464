// Package sqlite opens an embedded SQLite database through the pure-Go driver.
package sqlite

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/glebarez/sqlite"

	"github.com/kart-io/medextract/pkg/component/database"
)

// Name identifies the driver.
const Name = "sqlite"

// New opens the database file at path, creating its directory. A path of
// ":memory:" or a "file:" URI is passed through unchanged.
func New(ctx context.Context, path string, logLevel int) (*database.Client, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if path != ":memory:" && !strings.HasPrefix(path, "file:") {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite dir: %w", err)
		}
	}
	// SQLite serializes writers; one connection avoids "database is locked".
	return database.Open(ctx, Name, sqlite.Open(path), database.Pool{MaxOpenConnections: 1}, logLevel)
}
