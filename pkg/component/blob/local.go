package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	blobopts "github.com/kart-io/medextract/pkg/options/blob"
)

// Local stores objects on the local filesystem. Intended for development and tests.
type Local struct {
	root    string
	prefix  string
	baseURL string
}

var _ Store = (*Local)(nil)

// NewLocal creates the root directory if needed and returns a filesystem store.
func NewLocal(opts *blobopts.Options) (*Local, error) {
	if err := os.MkdirAll(opts.LocalDir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob dir: %w", err)
	}
	return &Local{root: opts.LocalDir, prefix: opts.Prefix, baseURL: opts.PublicBaseURL}, nil
}

// Name returns the driver name.
func (l *Local) Name() string {
	return blobopts.DriverLocal
}

// Root returns the directory objects are written under.
func (l *Local) Root() string {
	return l.root
}

// Put writes data to root/key and returns its URL.
func (l *Local) Put(ctx context.Context, key, _ string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	name := objectKey(l.prefix, key)
	if strings.Contains(name, "..") {
		return "", fmt.Errorf("invalid object key %q", name)
	}

	dst := filepath.Join(l.root, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create object dir: %w", err)
	}
	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	return publicURL(l.baseURL, name), nil
}

// Close is a no-op.
func (l *Local) Close() error {
	return nil
}
