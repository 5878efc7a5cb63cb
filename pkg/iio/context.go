package iio

import (
	"context"
	"iter"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
)

// handle counts the shares of one InnerContext.
type handle struct {
	inner *InnerContext
	refs  atomic.Int64
}

// share is one counted reference. done flips once, under mu, when the
// share is closed or its InnerContext released.
type share struct {
	h    *handle
	mu   sync.Mutex
	done bool
}

func (s *share) release() error {
	s.mu.Lock()
	if s.done {
		s.mu.Unlock()
		return nil
	}
	s.done = true
	s.mu.Unlock()
	return s.h.drop()
}

func (h *handle) drop() error {
	n := h.refs.Add(-1)
	h.inner.emitState(log.StateEntityContext, "shared", "released", int(n), "")
	if n == 0 {
		return h.inner.close()
	}
	return nil
}

// discard adapts release to runtime.AddCleanup.
func (s *share) discard() {
	_ = s.release()
}

// Context is a counted share of an InnerContext. It is safe for
// concurrent use. The zero value is not usable; obtain one from Open,
// FromURI, NewDefault or FromInner.
type Context struct {
	s *share
}

func newContext(h *handle) *Context {
	c := &Context{s: &share{h: h}}
	runtime.AddCleanup(c, (*share).discard, c.s)
	return c
}

// Open connects to uri, scans it and returns the first share.
func Open(ctx context.Context, uri string, opts ...Option) (*Context, error) {
	inner, err := openInner(ctx, uri, buildOptions(opts))
	if err != nil {
		return nil, err
	}
	return wrap(inner), nil
}

// FromURI is Open without a context.
func FromURI(uri string, opts ...Option) (*Context, error) {
	return Open(context.Background(), uri, opts...)
}

// NewDefault opens DefaultURI. Set IIOD_REMOTE to select a remote host.
func NewDefault(opts ...Option) (*Context, error) {
	return FromURI(DefaultURI(), opts...)
}

// FromInner wraps an InnerContext obtained from OpenInner or
// TryReleaseInner. It fails if inner is already wrapped or closed.
func FromInner(inner *InnerContext) (*Context, error) {
	if inner.closed.Load() {
		return nil, closedError("context.from_inner")
	}
	if !inner.wrapped.CompareAndSwap(false, true) {
		return nil, errorf(ErrStillShared, "context.from_inner", "inner context is already wrapped")
	}
	return newShared(inner), nil
}

func wrap(inner *InnerContext) *Context {
	inner.wrapped.Store(true)
	return newShared(inner)
}

func newShared(inner *InnerContext) *Context {
	h := &handle{inner: inner}
	h.refs.Store(1)
	return newContext(h)
}

// Clone returns a new share of the same InnerContext. On a closed Context
// it returns another closed Context.
func (c *Context) Clone() *Context {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.done {
		return &Context{s: &share{h: c.s.h, done: true}}
	}
	n := c.s.h.refs.Add(1)
	c.s.h.inner.emitState(log.StateEntityContext, "shared", "cloned", int(n), "")
	return newContext(c.s.h)
}

// Close drops this share. The last Close releases the backend connection
// and returns its error. Close is idempotent.
func (c *Context) Close() error {
	return c.s.release()
}

// Refs returns the number of live shares of the InnerContext.
func (c *Context) Refs() int {
	return int(c.s.h.refs.Load())
}

// TryDeepClone opens an independent connection to the same URI.
func (c *Context) TryDeepClone(ctx context.Context) (*Context, error) {
	inner, err := c.live("context.deep_clone")
	if err != nil {
		return nil, err
	}
	clone, err := inner.DeepClone(ctx)
	if err != nil {
		return nil, err
	}
	return wrap(clone), nil
}

// TryReleaseInner hands over exclusive ownership of the InnerContext. It
// succeeds only when c is the last share; otherwise it fails with
// ErrStillShared and c stays usable. On success c is closed.
func (c *Context) TryReleaseInner() (*InnerContext, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.done {
		return nil, closedError("context.release_inner")
	}
	h := c.s.h
	if !h.refs.CompareAndSwap(1, 0) {
		return nil, errorf(ErrStillShared, "context.release_inner", "%d shares alive", h.refs.Load())
	}
	c.s.done = true
	h.inner.wrapped.Store(false)
	h.inner.emitState(log.StateEntityContext, "shared", "exclusive", 0, "released")
	return h.inner, nil
}

// SameAs reports whether c and other share one InnerContext.
func (c *Context) SameAs(other *Context) bool {
	return other != nil && c.s.h.inner == other.s.h.inner
}

func (c *Context) live(op string) (*InnerContext, error) {
	c.s.mu.Lock()
	defer c.s.mu.Unlock()
	if c.s.done {
		return nil, closedError(op)
	}
	return c.s.h.inner, nil
}

// inner serves the immutable snapshot taken at open. URI, ID, Name,
// Description and NumDevices read through it and stay valid after Close.
func (c *Context) inner() *InnerContext {
	return c.s.h.inner
}

// URI returns the URI the context was opened with.
func (c *Context) URI() string { return c.inner().URI() }

// ID returns the connection id of the InnerContext.
func (c *Context) ID() string { return c.inner().ID() }

// Name returns the backend's context name.
func (c *Context) Name() string { return c.inner().Name() }

// Description returns the backend's context description.
func (c *Context) Description() string { return c.inner().Description() }

// NumDevices returns the number of scanned devices.
func (c *Context) NumDevices() int { return c.inner().NumDevices() }

// Attrs yields the static context attributes in name order. A closed
// context yields nothing.
func (c *Context) Attrs() iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		inner, err := c.live("context.attrs")
		if err != nil {
			return
		}
		for _, a := range inner.desc.Attrs {
			if !yield(a.Name, a.Value) {
				return
			}
		}
	}
}

// Version reports the backend and kernel versions.
func (c *Context) Version() (backend.VersionInfo, error) {
	inner, err := c.live("context.version")
	if err != nil {
		return backend.VersionInfo{}, err
	}
	return inner.Version()
}

// SetTimeout bounds blocking buffer transfers. Zero waits forever.
func (c *Context) SetTimeout(d time.Duration) error {
	inner, err := c.live("context.set_timeout")
	if err != nil {
		return err
	}
	return inner.SetTimeout(d)
}

// Device returns the device at index i. The Device holds its own share.
func (c *Context) Device(i int) (*Device, error) {
	inner, err := c.live("context.device")
	if err != nil {
		return nil, err
	}
	if i < 0 || i >= inner.NumDevices() {
		return nil, errorf(ErrInvalidIndex, "context.device", "index %d of %d", i, inner.NumDevices())
	}
	return newDevice(c.Clone(), i), nil
}

// FindDevice returns the device whose id, name or label is exactly name.
func (c *Context) FindDevice(name string) (*Device, error) {
	inner, err := c.live("context.find_device")
	if err != nil {
		return nil, err
	}
	i, ok := inner.FindDevice(name)
	if !ok {
		return nil, errorf(ErrNotFound, "context.find_device", "device %q", name)
	}
	return newDevice(c.Clone(), i), nil
}

// Devices yields every device. The sequence can be ranged over again; each
// Device yielded holds its own share.
func (c *Context) Devices() iter.Seq[*Device] {
	return func(yield func(*Device) bool) {
		for i := range c.NumDevices() {
			d, err := c.Device(i)
			if err != nil {
				return
			}
			if !yield(d) {
				return
			}
		}
	}
}
