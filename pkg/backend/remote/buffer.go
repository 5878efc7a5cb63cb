package remote

import (
	"fmt"
	"syscall"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/wire"
)

// bufferHandle mirrors a buffer held by the bridge. Data is a local copy of
// the bridge block: refill copies the received block in, push sends it out.
type bufferHandle struct {
	c    *Client
	id   uint32
	step int
	data []byte
}

func (b *bufferHandle) Data() []byte { return b.data }

func (b *bufferHandle) Step() int { return b.step }

func (b *bufferHandle) Refill() (int, error) {
	var res wire.TransferResult
	if err := b.c.call(wire.OpRefill, wire.BufferArgs{Buffer: b.id}, &res); err != nil {
		return 0, err
	}
	n := copy(b.data, res.Data)
	if n != res.N {
		return n, fmt.Errorf("refill: bridge sent %d of %d bytes: %w", len(res.Data), res.N, syscall.EIO)
	}
	return n, nil
}

func (b *bufferHandle) Push(n int) (int, error) {
	size := n * b.step
	if n <= 0 || size > len(b.data) {
		return 0, fmt.Errorf("push of %d samples: %w", n, syscall.EINVAL)
	}
	var res wire.TransferResult
	err := b.c.call(wire.OpPush, wire.BufferArgs{Buffer: b.id, N: n, Data: b.data[:size]}, &res)
	if err != nil {
		return 0, err
	}
	return res.N, nil
}

// Cancel is sent as its own request, so it overtakes a refill or push
// blocked on the bridge.
func (b *bufferHandle) Cancel() {
	if err := b.c.call(wire.OpCancel, wire.BufferArgs{Buffer: b.id}, nil); err != nil {
		b.c.logger.Debug("cancel failed", "buffer", b.id, "error", err)
	}
}

func (b *bufferHandle) SetBlocking(blocking bool) error {
	return b.c.call(wire.OpBlocking, wire.BufferArgs{Buffer: b.id, Blocking: blocking}, nil)
}

func (b *bufferHandle) Close() error {
	return b.c.call(wire.OpCloseBuffer, wire.BufferArgs{Buffer: b.id}, nil)
}

var _ backend.BufferHandle = (*bufferHandle)(nil)
