// Package server groups the HTTP and gRPC listener options.
package server

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/medextract/pkg/options"
	grpcopts "github.com/kart-io/medextract/pkg/options/server/grpc"
	httpopts "github.com/kart-io/medextract/pkg/options/server/http"
)

var _ options.IOptions = (*Options)(nil)

// Options contains all configuration for the server manager.
type Options struct {
	// HTTP contains HTTP server options.
	HTTP *httpopts.Options `json:"http" mapstructure:"http"`

	// GRPC contains gRPC server options.
	GRPC *grpcopts.Options `json:"grpc" mapstructure:"grpc"`

	// ShutdownTimeout bounds graceful shutdown, in-flight jobs included.
	ShutdownTimeout time.Duration `json:"shutdown-timeout" mapstructure:"shutdown-timeout"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		HTTP:            httpopts.NewOptions(),
		GRPC:            grpcopts.NewOptions(),
		ShutdownTimeout: 30 * time.Second,
	}
}

// AddFlags adds flags for the server options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	o.HTTP.AddFlags(fs, prefixes...)
	o.GRPC.AddFlags(fs, prefixes...)
	fs.DurationVar(&o.ShutdownTimeout, options.Join(prefixes...)+"shutdown-timeout", o.ShutdownTimeout,
		"Timeout for graceful shutdown.")
}

// Validate validates the server options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	errs = append(errs, o.HTTP.Validate()...)
	errs = append(errs, o.GRPC.Validate()...)
	if o.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("shutdown-timeout must be positive"))
	}
	return errs
}
