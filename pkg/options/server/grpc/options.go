// Package grpc provides gRPC server configuration options.
package grpc

import (
	"fmt"

	"github.com/spf13/pflag"

	"github.com/kart-io/medextract/pkg/options"
)

var _ options.IOptions = (*Options)(nil)

// Options contains gRPC server configuration. The server only exposes the
// standard health service.
type Options struct {
	// Enabled starts the gRPC listener.
	Enabled bool `json:"enabled" mapstructure:"enabled"`
	// Addr is the address to listen on.
	Addr string `json:"addr" mapstructure:"addr"`
	// EnableReflection enables gRPC server reflection for tools like grpcurl.
	EnableReflection bool `json:"enable-reflection" mapstructure:"enable-reflection"`
}

// NewOptions creates a new Options with default values.
func NewOptions() *Options {
	return &Options{
		Enabled:          true,
		Addr:             ":9100",
		EnableReflection: true,
	}
}

// AddFlags adds flags for gRPC options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "grpc."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Start the gRPC health server.")
	fs.StringVar(&o.Addr, p+"addr", o.Addr, "gRPC server listen address.")
	fs.BoolVar(&o.EnableReflection, p+"enable-reflection", o.EnableReflection, "Enable gRPC server reflection.")
}

// Validate validates the gRPC options.
func (o *Options) Validate() []error {
	if o == nil || !o.Enabled {
		return nil
	}
	if o.Addr == "" {
		return []error{fmt.Errorf("grpc.addr cannot be empty")}
	}
	return nil
}
