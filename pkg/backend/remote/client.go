package remote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/transport"
	"github.com/industrial-io/iio-go/pkg/wire"
)

// Client is a backend.Conn served by a remote bridge. Requests are
// pipelined: any number may be in flight, and responses are matched back
// by id on a single reader goroutine.
type Client struct {
	conn   *transport.ClientConn
	logger *slog.Logger
	nextID atomic.Uint32

	mu      sync.Mutex
	pending map[uint32]chan *wire.Response
	err     error
	done    chan struct{}

	readDone  chan struct{}
	closeOnce sync.Once
}

// Dial connects to the bridge at address.
func Dial(ctx context.Context, address string, cfg transport.ClientConfig) (*Client, error) {
	conn, err := transport.Dial(ctx, address, cfg)
	if err != nil {
		return nil, err
	}
	return NewClient(conn, nil), nil
}

// NewClient runs the bridge protocol over an established connection and
// takes ownership of it. A nil logger discards diagnostics.
func NewClient(conn *transport.ClientConn, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	c := &Client{
		conn:     conn,
		logger:   logger.With("bridge", conn.RemoteAddr().String()),
		pending:  make(map[uint32]chan *wire.Response),
		done:     make(chan struct{}),
		readDone: make(chan struct{}),
	}
	go c.readLoop()
	return c
}

func (c *Client) readLoop() {
	defer close(c.readDone)
	for {
		data, err := c.conn.Receive(0)
		if err != nil {
			c.shutdown(err)
			return
		}
		resp, err := wire.DecodeResponse(data)
		if err != nil {
			c.logger.Warn("dropping undecodable response", "error", err)
			continue
		}

		c.mu.Lock()
		ch, ok := c.pending[resp.ID]
		delete(c.pending, resp.ID)
		c.mu.Unlock()

		if !ok {
			c.logger.Debug("response for unknown request", "id", resp.ID)
			continue
		}
		ch <- resp
	}
}

// shutdown fails every pending and future call with cause.
func (c *Client) shutdown(cause error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return
	}
	if errors.Is(cause, transport.ErrConnectionClosed) {
		c.err = fmt.Errorf("bridge connection: %w: %w", backend.ErrClosed, syscall.EBADF)
	} else {
		c.err = fmt.Errorf("bridge connection: %w: %w", backend.ErrClosed, cause)
	}
	close(c.done)
}

func (c *Client) closedErr() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// call sends one request and waits for its response. result may be nil.
func (c *Client) call(op wire.Op, args, result any) error {
	id := c.nextID.Add(1)
	if id == 0 {
		id = c.nextID.Add(1)
	}
	req, err := wire.NewRequest(id, op, args)
	if err != nil {
		return err
	}
	data, err := wire.EncodeRequest(req)
	if err != nil {
		return err
	}

	ch := make(chan *wire.Response, 1)
	c.mu.Lock()
	if c.err != nil {
		err := c.err
		c.mu.Unlock()
		return fmt.Errorf("%s: %w", op, err)
	}
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.conn.Send(data); err != nil {
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return fmt.Errorf("%s: %w: %w", op, backend.ErrClosed, err)
	}

	select {
	case resp := <-ch:
		if err := resp.Err(); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if result != nil {
			return resp.DecodeResult(result)
		}
		return nil
	case <-c.done:
		return fmt.Errorf("%s: %w", op, c.closedErr())
	}
}

// Describe implements backend.Conn.
func (c *Client) Describe() (*backend.Description, error) {
	var desc backend.Description
	if err := c.call(wire.OpDescribe, nil, &desc); err != nil {
		return nil, err
	}
	return &desc, nil
}

func (c *Client) ReadAttr(t backend.Target, name string) (string, error) {
	var res wire.AttrResult
	if err := c.call(wire.OpReadAttr, wire.AttrArgs{Target: t, Name: name}, &res); err != nil {
		return "", err
	}
	return res.Value, nil
}

func (c *Client) WriteAttr(t backend.Target, name, value string) (int, error) {
	var res wire.AttrResult
	if err := c.call(wire.OpWriteAttr, wire.AttrArgs{Target: t, Name: name, Value: value}, &res); err != nil {
		return 0, err
	}
	return res.N, nil
}

func (c *Client) SetChannelEnabled(ch backend.ChannelRef, on bool) error {
	return c.call(wire.OpEnable, wire.ChannelArgs{Channel: ch, On: on}, nil)
}

func (c *Client) ChannelEnabled(ch backend.ChannelRef) (bool, error) {
	var res wire.BoolResult
	if err := c.call(wire.OpEnabled, wire.ChannelArgs{Channel: ch}, &res); err != nil {
		return false, err
	}
	return res.Value, nil
}

func (c *Client) SetTrigger(dev, trigger string) error {
	return c.call(wire.OpSetTrigger, wire.DeviceArgs{Device: dev, Trigger: trigger}, nil)
}

func (c *Client) Trigger(dev string) (string, error) {
	var res wire.StringResult
	if err := c.call(wire.OpGetTrigger, wire.DeviceArgs{Device: dev}, &res); err != nil {
		return "", err
	}
	return res.Value, nil
}

func (c *Client) SetKernelBuffersCount(dev string, n uint) error {
	return c.call(wire.OpKbufCount, wire.DeviceArgs{Device: dev, Count: n}, nil)
}

// SetTimeout bounds blocking operations on the bridge side. The client
// itself waits for as long as the bridge takes to answer.
func (c *Client) SetTimeout(d time.Duration) error {
	return c.call(wire.OpTimeout, wire.TimeoutArgs{Nanos: int64(d)}, nil)
}

func (c *Client) RegRead(dev string, addr uint32) (uint32, error) {
	var res wire.RegResult
	if err := c.call(wire.OpRegRead, wire.RegArgs{Device: dev, Addr: addr}, &res); err != nil {
		return 0, err
	}
	return res.Value, nil
}

func (c *Client) RegWrite(dev string, addr, value uint32) error {
	return c.call(wire.OpRegWrite, wire.RegArgs{Device: dev, Addr: addr, Value: value}, nil)
}

// OpenBuffer implements backend.Conn.
func (c *Client) OpenBuffer(dev string, samples int, cyclic bool) (backend.BufferHandle, error) {
	var res wire.OpenBufferResult
	err := c.call(wire.OpOpenBuffer, wire.OpenBufferArgs{Device: dev, Samples: samples, Cyclic: cyclic}, &res)
	if err != nil {
		return nil, err
	}
	return &bufferHandle{
		c:    c,
		id:   res.Buffer,
		step: res.Step,
		data: make([]byte, res.Length),
	}, nil
}

func (c *Client) Version() (backend.VersionInfo, error) {
	var v backend.VersionInfo
	err := c.call(wire.OpVersion, nil, &v)
	return v, err
}

// Close tells the bridge to release the session, then drops the
// connection. Calls still waiting fail with backend.ErrClosed.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		if c.closedErr() == nil {
			if err := c.call(wire.OpClose, nil, nil); err != nil {
				c.logger.Debug("close request failed", "error", err)
			}
		}
		c.conn.Close()
		<-c.readDone
	})
	return nil
}

var _ backend.Conn = (*Client)(nil)
