package iio

import (
	"log/slog"
	"os"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
)

// RemoteEnv names the environment variable NewDefault consults. When set,
// the default context connects to "ip:<value>".
const RemoteEnv = "IIOD_REMOTE"

// Options configures how a context is opened.
type Options struct {
	// Logger is the optional logger for debug output.
	// If nil, logging is disabled.
	Logger *slog.Logger

	// EventLogger receives structured operation events.
	// If nil, no events are recorded.
	EventLogger log.Logger

	// Timeout is applied with SetTimeout right after opening. Zero keeps
	// the backend default.
	Timeout time.Duration

	// Registry resolves URI schemes. Defaults to backend.Default.
	Registry *backend.Registry
}

// Option modifies Options.
type Option func(*Options)

// DefaultOptions returns the options used when none are given.
func DefaultOptions() Options {
	return Options{Registry: backend.Default}
}

// WithLogger sets the debug logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) { o.Logger = l }
}

// WithEventLogger sets the operation event logger.
func WithEventLogger(l log.Logger) Option {
	return func(o *Options) { o.EventLogger = l }
}

// WithTimeout sets the transfer timeout applied after opening.
func WithTimeout(d time.Duration) Option {
	return func(o *Options) { o.Timeout = d }
}

// WithRegistry resolves URIs through r instead of backend.Default.
func WithRegistry(r *backend.Registry) Option {
	return func(o *Options) { o.Registry = r }
}

func buildOptions(opts []Option) Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	if o.Registry == nil {
		o.Registry = backend.Default
	}
	return o
}

// DefaultURI returns the URI NewDefault opens.
func DefaultURI() string {
	if host, ok := os.LookupEnv(RemoteEnv); ok {
		return backend.SchemeIP + ":" + host
	}
	return backend.SchemeLocal + ":"
}
