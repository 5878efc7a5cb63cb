package memory

import (
	"fmt"
	"sync"
	"syscall"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/version"
)

// Conn is a connection to a Model.
type Conn struct {
	model *Model

	mu      sync.Mutex
	enabled map[backend.ChannelRef]bool
	timeout time.Duration
	closed  bool
	buffers map[*bufferHandle]struct{}
}

// Open returns a new connection to m.
func (m *Model) Open() *Conn {
	return &Conn{
		model:   m,
		enabled: make(map[backend.ChannelRef]bool),
		buffers: make(map[*bufferHandle]struct{}),
	}
}

func (c *Conn) check() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection: %w: %w", backend.ErrClosed, syscall.EBADF)
	}
	return nil
}

// Model returns the simulated hardware behind the connection.
func (c *Conn) Model() *Model {
	return c.model
}

// Describe returns a fresh description snapshot.
func (c *Conn) Describe() (*backend.Description, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	return c.model.spec.Describe(), nil
}

// ReadAttr reads an attribute value.
func (c *Conn) ReadAttr(t backend.Target, name string) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	return c.model.readAttr(t, name)
}

// WriteAttr writes an attribute value.
func (c *Conn) WriteAttr(t backend.Target, name, value string) (int, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	return c.model.writeAttr(t, name, value)
}

func (c *Conn) scanElement(ref backend.ChannelRef) error {
	_, ch, err := c.model.channel(ref)
	if err != nil {
		return err
	}
	if !ch.ScanElement {
		return fmt.Errorf("channel %q is not a scan element: %w: %w", ref.Channel, backend.ErrUnsupported, syscall.EINVAL)
	}
	return nil
}

// SetChannelEnabled enables or disables a scan element for this connection.
func (c *Conn) SetChannelEnabled(ref backend.ChannelRef, on bool) error {
	if err := c.check(); err != nil {
		return err
	}
	if err := c.scanElement(ref); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if on {
		c.enabled[ref] = true
	} else {
		delete(c.enabled, ref)
	}
	return nil
}

// ChannelEnabled reports whether a scan element is enabled.
func (c *Conn) ChannelEnabled(ref backend.ChannelRef) (bool, error) {
	if err := c.check(); err != nil {
		return false, err
	}
	if _, _, err := c.model.channel(ref); err != nil {
		return false, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.enabled[ref], nil
}

// SetTrigger assigns a trigger to dev.
func (c *Conn) SetTrigger(dev, trigger string) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.model.setTrigger(dev, trigger)
}

// Trigger returns the trigger assigned to dev.
func (c *Conn) Trigger(dev string) (string, error) {
	if err := c.check(); err != nil {
		return "", err
	}
	return c.model.trigger(dev)
}

// SetKernelBuffersCount sets the number of blocks in dev's kernel ring.
func (c *Conn) SetKernelBuffersCount(dev string, n uint) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.model.setKernelBuffers(dev, n)
}

// SetTimeout bounds Refill and Push. Zero waits forever.
func (c *Conn) SetTimeout(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("negative timeout: %w", syscall.EINVAL)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("connection: %w: %w", backend.ErrClosed, syscall.EBADF)
	}
	c.timeout = d
	return nil
}

func (c *Conn) getTimeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// RegRead reads a debug register.
func (c *Conn) RegRead(dev string, addr uint32) (uint32, error) {
	if err := c.check(); err != nil {
		return 0, err
	}
	return c.model.regRead(dev, addr)
}

// RegWrite writes a debug register.
func (c *Conn) RegWrite(dev string, addr, value uint32) error {
	if err := c.check(); err != nil {
		return err
	}
	return c.model.regWrite(dev, addr, value)
}

// OpenBuffer allocates a buffer over the channels this connection enabled.
func (c *Conn) OpenBuffer(dev string, samples int, cyclic bool) (backend.BufferHandle, error) {
	if err := c.check(); err != nil {
		return nil, err
	}
	if samples <= 0 {
		return nil, fmt.Errorf("sample count %d: %w", samples, syscall.EINVAL)
	}

	c.mu.Lock()
	enabled := make(map[backend.ChannelRef]bool, len(c.enabled))
	for k, v := range c.enabled {
		enabled[k] = v
	}
	c.mu.Unlock()

	r, err := c.model.openRing(dev, func(ref backend.ChannelRef) bool { return enabled[ref] }, samples, cyclic)
	if err != nil {
		return nil, err
	}
	h := &bufferHandle{
		conn:     c,
		dev:      dev,
		ring:     r,
		data:     make([]byte, r.block),
		blocking: true,
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		c.model.closeRing(dev, r)
		return nil, fmt.Errorf("connection: %w: %w", backend.ErrClosed, syscall.EBADF)
	}
	c.buffers[h] = struct{}{}
	return h, nil
}

// Version reports the library version. The simulated kernel has none.
func (c *Conn) Version() (backend.VersionInfo, error) {
	if err := c.check(); err != nil {
		return backend.VersionInfo{}, err
	}
	return backend.VersionInfo{Library: version.Library()}, nil
}

// Close releases every buffer still open on the connection. It is
// idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	open := make([]*bufferHandle, 0, len(c.buffers))
	for h := range c.buffers {
		open = append(open, h)
	}
	c.mu.Unlock()

	for _, h := range open {
		_ = h.Close()
	}
	return nil
}

func (c *Conn) forget(h *bufferHandle) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.buffers, h)
}

// Compile-time interface satisfaction check.
var _ backend.Conn = (*Conn)(nil)
