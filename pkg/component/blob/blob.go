// Package blob stores uploaded page images and PDFs and returns their public URLs.
package blob

import (
	"context"
	"fmt"
	"path"
	"strings"

	blobopts "github.com/kart-io/medextract/pkg/options/blob"
)

// Store writes objects and returns the URL they can be fetched from.
type Store interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
	Name() string
	Close() error
}

// New opens the store selected by opts.Driver.
func New(ctx context.Context, opts *blobopts.Options) (Store, error) {
	switch opts.Driver {
	case blobopts.DriverGCS:
		return NewGCS(ctx, opts)
	case blobopts.DriverLocal:
		return NewLocal(opts)
	default:
		return nil, fmt.Errorf("blob: unknown driver %q", opts.Driver)
	}
}

func objectKey(prefix, key string) string {
	if prefix == "" {
		return key
	}
	return path.Join(prefix, key)
}

func publicURL(base, key string) string {
	return strings.TrimSuffix(base, "/") + "/" + key
}
