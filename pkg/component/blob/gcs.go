package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	blobopts "github.com/kart-io/medextract/pkg/options/blob"
)

const gcsPublicHost = "https://storage.googleapis.com"

// GCS stores objects in a Google Cloud Storage bucket.
type GCS struct {
	client  *storage.Client
	bucket  *storage.BucketHandle
	prefix  string
	baseURL string
}

var _ Store = (*GCS)(nil)

// NewGCS creates a GCS-backed store.
func NewGCS(ctx context.Context, opts *blobopts.Options) (*GCS, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.Endpoint != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(opts.Endpoint), option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	baseURL := opts.PublicBaseURL
	if baseURL == "" || baseURL == blobopts.NewOptions().PublicBaseURL {
		baseURL = gcsPublicHost + "/" + opts.Bucket
	}

	return &GCS{
		client:  client,
		bucket:  client.Bucket(opts.Bucket),
		prefix:  opts.Prefix,
		baseURL: baseURL,
	}, nil
}

// Name returns the driver name.
func (g *GCS) Name() string {
	return blobopts.DriverGCS
}

// Put uploads data under key and returns its public URL.
func (g *GCS) Put(ctx context.Context, key, contentType string, data []byte) (string, error) {
	name := objectKey(g.prefix, key)
	w := g.bucket.Object(name).NewWriter(ctx)
	w.ContentType = contentType

	if _, err := io.Copy(w, bytes.NewReader(data)); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("write object %s: %w", name, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", name, err)
	}
	return publicURL(g.baseURL, name), nil
}

// Close releases the storage client.
func (g *GCS) Close() error {
	return g.client.Close()
}
