// Package cli holds the flag sets shared by the iio commands.
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/iio"
	"github.com/industrial-io/iio-go/pkg/log"
)

// ContextFlags selects the context a command opens.
type ContextFlags struct {
	URI     string
	Network string
	Timeout time.Duration
}

// Register adds -u, -n and -timeout to fs.
func (c *ContextFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&c.URI, "u", "", "Use the context with the provided URI")
	fs.StringVar(&c.Network, "n", "", "Use the network backend with the provided hostname")
	fs.DurationVar(&c.Timeout, "timeout", 0, "Backend timeout for blocking operations (0 keeps the backend default)")
}

// ContextURI returns the URI the flags select: -n wins over -u, and
// neither falls back to iio.DefaultURI.
func (c *ContextFlags) ContextURI() string {
	switch {
	case c.Network != "":
		return backend.SchemeIP + ":" + c.Network
	case c.URI != "":
		return c.URI
	default:
		return iio.DefaultURI()
	}
}

// Open opens the selected context.
func (c *ContextFlags) Open(ctx context.Context, opts ...iio.Option) (*iio.Context, error) {
	if c.Timeout > 0 {
		opts = append(opts, iio.WithTimeout(c.Timeout))
	}
	uri := c.ContextURI()
	ictx, err := iio.Open(ctx, uri, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", uri, err)
	}
	return ictx, nil
}

// LogFlags configure operational logging and the event log.
type LogFlags struct {
	Level    string
	EventLog string
}

// Register adds -log-level and -event-log to fs.
func (l *LogFlags) Register(fs *flag.FlagSet) {
	fs.StringVar(&l.Level, "log-level", "info", "Log level: debug, info, warn, error")
	fs.StringVar(&l.EventLog, "event-log", "", "Append operation events to this file (.ilog)")
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("invalid log level %q", s)
	}
}

// Logging is the configured logging stack of a command.
type Logging struct {
	Logger *slog.Logger

	// Events receives operation events. It is never nil.
	Events log.Logger

	file *log.FileLogger
}

// Setup builds the slog logger writing to w and, when -event-log is set,
// opens the event file. extra loggers also receive every event.
func (l *LogFlags) Setup(w io.Writer, extra ...log.Logger) (*Logging, error) {
	level, err := ParseLevel(l.Level)
	if err != nil {
		return nil, err
	}
	out := &Logging{
		Logger: slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})),
	}

	sinks := extra
	if l.EventLog != "" {
		fl, err := log.NewFileLogger(l.EventLog)
		if err != nil {
			return nil, fmt.Errorf("open event log: %w", err)
		}
		out.file = fl
		sinks = append(sinks, fl)
	}
	if level <= slog.LevelDebug {
		sinks = append(sinks, log.NewSlogAdapter(out.Logger))
	}

	switch len(sinks) {
	case 0:
		out.Events = log.NoopLogger{}
	case 1:
		out.Events = sinks[0]
	default:
		out.Events = log.NewMultiLogger(sinks...)
	}
	return out, nil
}

// Options returns the iio options carrying both loggers.
func (l *Logging) Options() []iio.Option {
	return []iio.Option{iio.WithLogger(l.Logger), iio.WithEventLogger(l.Events)}
}

// Close flushes the event file, if any.
func (l *Logging) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}

// Fatal prints the message to stderr and exits with code.
func Fatal(code int, format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(code)
}
