// Package blob holds object storage options for page uploads.
package blob

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/kart-io/medextract/pkg/options"
)

// Supported drivers.
const (
	DriverGCS   = "gcs"
	DriverLocal = "local"
)

var _ options.IOptions = (*Options)(nil)

// Options configures where uploaded pages are stored.
type Options struct {
	// Driver selects the backend: gcs or local.
	Driver string `json:"driver" mapstructure:"driver"`

	// Bucket is the GCS bucket name.
	Bucket string `json:"bucket" mapstructure:"bucket"`

	// Prefix is prepended to every object key.
	Prefix string `json:"prefix" mapstructure:"prefix"`

	// CredentialsFile is a service account JSON file. Empty uses Application Default Credentials.
	CredentialsFile string `json:"credentials-file" mapstructure:"credentials-file"`

	// Endpoint overrides the GCS endpoint, e.g. a fake-gcs-server.
	Endpoint string `json:"endpoint" mapstructure:"endpoint"`

	// LocalDir is the root directory for the local driver.
	LocalDir string `json:"local-dir" mapstructure:"local-dir"`

	// PublicBaseURL is joined with the object key to build the returned URL.
	PublicBaseURL string `json:"public-base-url" mapstructure:"public-base-url"`
}

// NewOptions creates a new Options object with default values.
func NewOptions() *Options {
	return &Options{
		Driver:        DriverLocal,
		LocalDir:      "./data/blobs",
		PublicBaseURL: "/files",
	}
}

// AddFlags adds flags for blob options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "blob."
	fs.StringVar(&o.Driver, p+"driver", o.Driver, "Blob storage driver (gcs|local)")
	fs.StringVar(&o.Bucket, p+"bucket", o.Bucket, "GCS bucket name")
	fs.StringVar(&o.Prefix, p+"prefix", o.Prefix, "Key prefix for stored objects")
	fs.StringVar(&o.CredentialsFile, p+"credentials-file", o.CredentialsFile, "GCS service account credentials file")
	fs.StringVar(&o.Endpoint, p+"endpoint", o.Endpoint, "GCS endpoint override")
	fs.StringVar(&o.LocalDir, p+"local-dir", o.LocalDir, "Root directory for the local driver")
	fs.StringVar(&o.PublicBaseURL, p+"public-base-url", o.PublicBaseURL, "Base URL for returned object links")
}

// Validate validates the blob options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	switch o.Driver {
	case DriverGCS:
		if o.Bucket == "" {
			errs = append(errs, fmt.Errorf("blob.bucket is required for the gcs driver"))
		}
	case DriverLocal:
		if o.LocalDir == "" {
			errs = append(errs, fmt.Errorf("blob.local-dir is required for the local driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver %q is not one of gcs, local", o.Driver))
	}
	if strings.HasPrefix(o.Prefix, "/") {
		errs = append(errs, fmt.Errorf("blob.prefix must not start with /"))
	}
	return errs
}
