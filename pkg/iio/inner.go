package iio

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
)

// InnerContext owns one backend connection and the device graph scanned
// when it was opened. The graph never changes afterwards; to see new
// hardware, open a new InnerContext.
type InnerContext struct {
	uri  string
	id   string
	opts Options

	conn backend.Conn
	desc *backend.Description

	byID    map[string]int
	byName  map[string]int
	byLabel map[string]int
	chans   []map[backend.ChannelRef]int
	attrs   map[string]string

	logger *slog.Logger
	events log.Logger

	// wrapped is set while a Context owns the InnerContext.
	wrapped atomic.Bool

	closeOnce sync.Once
	closeErr  error
	closed    atomic.Bool
}

// OpenInner connects to uri and scans it.
func OpenInner(ctx context.Context, uri string, opts ...Option) (*InnerContext, error) {
	return openInner(ctx, uri, buildOptions(opts))
}

func openInner(ctx context.Context, uri string, o Options) (*InnerContext, error) {
	inner := &InnerContext{
		uri:    uri,
		id:     uuid.NewString(),
		opts:   o,
		logger: o.Logger,
		events: log.OrNoop(o.EventLogger),
	}

	conn, err := o.Registry.Open(ctx, uri)
	if err != nil {
		e := newError(ErrConnection, "context.open", err)
		inner.emitError(e)
		return nil, e
	}

	desc, err := conn.Describe()
	if err != nil {
		_ = conn.Close()
		e := newError(ErrScan, "context.open", err)
		inner.emitError(e)
		return nil, e
	}
	if err := checkFormats(desc); err != nil {
		_ = conn.Close()
		e := newError(ErrScan, "context.open", err)
		inner.emitError(e)
		return nil, e
	}
	if o.Timeout > 0 {
		if err := conn.SetTimeout(o.Timeout); err != nil {
			_ = conn.Close()
			e := newError(ErrConnection, "context.open", err)
			inner.emitError(e)
			return nil, e
		}
	}

	inner.conn = conn
	inner.index(desc)
	inner.debugLog("context opened", "uri", uri, "id", inner.id, "devices", len(desc.Devices))
	inner.emitState(log.StateEntityContext, "", "open", 0, "")
	return inner, nil
}

// checkFormats rejects descriptions whose scan elements carry a sample
// format the codecs cannot handle.
func checkFormats(desc *backend.Description) error {
	for _, d := range desc.Devices {
		for _, ch := range d.Channels {
			if !ch.ScanElement {
				continue
			}
			if err := ch.Format.Validate(); err != nil {
				return fmt.Errorf("%s/%s: %w", d.ID, ch.ID, err)
			}
		}
	}
	return nil
}

func (c *InnerContext) index(desc *backend.Description) {
	c.desc = desc
	c.byID = make(map[string]int, len(desc.Devices))
	c.byName = make(map[string]int, len(desc.Devices))
	c.byLabel = make(map[string]int)
	c.chans = make([]map[backend.ChannelRef]int, len(desc.Devices))
	c.attrs = make(map[string]string, len(desc.Attrs))

	for i, d := range desc.Devices {
		c.byID[d.ID] = i
		if _, dup := c.byName[d.Name]; d.Name != "" && !dup {
			c.byName[d.Name] = i
		}
		if _, dup := c.byLabel[d.Label]; d.Label != "" && !dup {
			c.byLabel[d.Label] = i
		}
		idx := make(map[backend.ChannelRef]int, len(d.Channels))
		for j, ch := range d.Channels {
			idx[ch.Ref(d.ID)] = j
		}
		c.chans[i] = idx
	}
	for _, a := range desc.Attrs {
		c.attrs[a.Name] = a.Value
	}
}

// URI returns the URI the context was opened with.
func (c *InnerContext) URI() string { return c.uri }

// ID returns the unique id of this connection, used in event logs.
func (c *InnerContext) ID() string { return c.id }

// Name returns the backend's context name.
func (c *InnerContext) Name() string { return c.desc.Name }

// Description returns the backend's context description.
func (c *InnerContext) Description() string { return c.desc.Description }

// NumDevices returns the number of scanned devices.
func (c *InnerContext) NumDevices() int { return len(c.desc.Devices) }

// FindDevice returns the index of the device whose id, name or label is
// exactly name, tried in that order.
func (c *InnerContext) FindDevice(name string) (int, bool) {
	if i, ok := c.byID[name]; ok {
		return i, true
	}
	if i, ok := c.byName[name]; ok {
		return i, true
	}
	i, ok := c.byLabel[name]
	return i, ok
}

// DeepClone opens a new, independent connection to the same URI and scans
// it again. The clone may see different hardware than c.
func (c *InnerContext) DeepClone(ctx context.Context) (*InnerContext, error) {
	return openInner(ctx, c.uri, c.opts)
}

// Version reports the backend and kernel versions.
func (c *InnerContext) Version() (backend.VersionInfo, error) {
	if c.closed.Load() {
		return backend.VersionInfo{}, closedError("context.version")
	}
	v, err := c.conn.Version()
	if err != nil {
		return backend.VersionInfo{}, backendError("context.version", ErrIO, err)
	}
	return v, nil
}

// SetTimeout bounds blocking buffer transfers. Zero waits forever.
func (c *InnerContext) SetTimeout(d time.Duration) error {
	if c.closed.Load() {
		return closedError("context.set_timeout")
	}
	if err := c.conn.SetTimeout(d); err != nil {
		return backendError("context.set_timeout", ErrIO, err)
	}
	return nil
}

// Close releases the backend connection. It fails while a Context wraps c;
// close the Context instead.
func (c *InnerContext) Close() error {
	if c.wrapped.Load() {
		return errorf(ErrStillShared, "context.close", "inner context is owned by a Context")
	}
	return c.close()
}

func (c *InnerContext) close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if err := c.conn.Close(); err != nil {
			c.closeErr = newError(ErrIO, "context.close", err)
		}
		c.debugLog("context closed", "uri", c.uri, "id", c.id)
		c.emitState(log.StateEntityContext, "open", "closed", 0, "")
	})
	return c.closeErr
}

func (c *InnerContext) device(i int) *backend.DeviceDesc {
	return &c.desc.Devices[i]
}

func (c *InnerContext) debugLog(msg string, args ...any) {
	if c.logger != nil {
		c.logger.Debug(msg, args...)
	}
}
