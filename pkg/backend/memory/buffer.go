package memory

import (
	"fmt"
	"syscall"

	"github.com/industrial-io/iio-go/pkg/backend"
)

// bufferHandle is the user-space side of a device ring. Its state flags
// are guarded by the model mutex so waiters see them under the same lock
// as the ring.
type bufferHandle struct {
	conn *Conn
	dev  string
	ring *deviceRing
	data []byte

	blocking  bool
	cancelled bool
	closed    bool
}

func (h *bufferHandle) Data() []byte { return h.data }

func (h *bufferHandle) Step() int { return h.ring.step }

// Refill waits for one block of scans and copies it into Data.
func (h *bufferHandle) Refill() (int, error) {
	if h.ring.output {
		return 0, fmt.Errorf("refill on output buffer: %w: %w", backend.ErrUnsupported, syscall.EPERM)
	}
	timeout := h.conn.getTimeout()
	m := h.conn.model

	m.mu.Lock()
	defer m.mu.Unlock()

	m.produce(h.ring)
	err := m.wait(h, timeout, func() bool {
		return h.ring.rb.Length() >= h.ring.block
	})
	if err != nil {
		return 0, err
	}
	n, err := h.ring.rb.Read(h.data)
	if err != nil {
		return 0, fmt.Errorf("refill: %w", err)
	}
	m.cond.Broadcast()
	return n, nil
}

// Push queues the first n scans of Data for the device.
func (h *bufferHandle) Push(n int) (int, error) {
	if !h.ring.output {
		return 0, fmt.Errorf("push on input buffer: %w: %w", backend.ErrUnsupported, syscall.EPERM)
	}
	size := n * h.ring.step
	if n <= 0 || size > len(h.data) {
		return 0, fmt.Errorf("push of %d samples: %w", n, syscall.EINVAL)
	}
	timeout := h.conn.getTimeout()
	m := h.conn.model

	m.mu.Lock()
	defer m.mu.Unlock()

	if h.ring.cyclic && h.ring.pushed {
		return 0, fmt.Errorf("cyclic buffer already pushed: %w", syscall.EBUSY)
	}
	err := m.wait(h, timeout, func() bool {
		return h.ring.rb.Free() >= size
	})
	if err != nil {
		return 0, err
	}
	written, err := h.ring.rb.Write(h.data[:size])
	if err != nil {
		return written, fmt.Errorf("push: %w", err)
	}
	h.ring.pushed = true
	m.cond.Broadcast()
	return written, nil
}

// Cancel aborts a blocked transfer and fails every later one.
func (h *bufferHandle) Cancel() {
	m := h.conn.model
	m.mu.Lock()
	defer m.mu.Unlock()
	h.cancelled = true
	m.cond.Broadcast()
}

func (h *bufferHandle) SetBlocking(blocking bool) error {
	m := h.conn.model
	m.mu.Lock()
	defer m.mu.Unlock()
	if h.closed {
		return fmt.Errorf("buffer: %w: %w", backend.ErrClosed, syscall.EBADF)
	}
	h.blocking = blocking
	return nil
}

// Close releases the device ring. It is idempotent.
func (h *bufferHandle) Close() error {
	m := h.conn.model
	m.mu.Lock()
	if h.closed {
		m.mu.Unlock()
		return nil
	}
	h.closed = true
	m.mu.Unlock()

	m.closeRing(h.dev, h.ring)
	h.conn.forget(h)
	return nil
}

var _ backend.BufferHandle = (*bufferHandle)(nil)
