package remote

import (
	"context"
	"encoding/binary"
	"net"
	"strconv"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/backend/memory"
	"github.com/industrial-io/iio-go/pkg/connection"
	"github.com/industrial-io/iio-go/pkg/discovery"
	"github.com/industrial-io/iio-go/pkg/log"
	"github.com/industrial-io/iio-go/pkg/transport"
	"github.com/industrial-io/iio-go/pkg/wire"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const feedYAML = `
devices:
  - id: iio:device0
    name: feeder
    channels:
      - id: voltage0
        scan_element: true
        format: "le:u16/16>>0"
`

var (
	adcVoltage0 = backend.ChannelRef{Device: "iio:device0", Channel: "voltage0"}
	dacVoltage0 = backend.ChannelRef{Device: "iio:device1", Channel: "voltage0", Output: true}
)

// bridge is a loopback bridge over a private memory provider.
type bridge struct {
	srv   *Server
	dummy *memory.Model
	feed  *memory.Model
}

func startBridge(t *testing.T, uri string, events log.Logger) *bridge {
	t.Helper()
	feed, err := memory.NewModelFromYAML("feed", []byte(feedYAML))
	require.NoError(t, err)
	b := &bridge{dummy: memory.NewDummy("dummy"), feed: feed}

	p := memory.NewProvider()
	p.Add(b.dummy)
	p.Add(b.feed)
	reg := backend.NewRegistry()
	reg.Register(backend.SchemeMemory, p)

	b.srv, err = NewServer(ServerConfig{
		Address:     "127.0.0.1:0",
		URI:         uri,
		Registry:    reg,
		EventLogger: events,
	})
	require.NoError(t, err)
	require.NoError(t, b.srv.Start(context.Background()))
	t.Cleanup(func() { b.srv.Stop() })
	return b
}

func (b *bridge) dial(t *testing.T) *Client {
	t.Helper()
	c, err := Dial(context.Background(), b.srv.Addr().String(), transport.ClientConfig{})
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestNewServerValidation(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
	_, err = NewServer(ServerConfig{URI: "no-scheme"})
	assert.ErrorIs(t, err, backend.ErrInvalidURI)
}

func TestDescribeOverBridge(t *testing.T) {
	c := startBridge(t, "mem:dummy", nil).dial(t)

	desc, err := c.Describe()
	require.NoError(t, err)
	assert.Equal(t, "dummy", desc.Name)
	require.Len(t, desc.Devices, 3)
	assert.Equal(t, "dummy0", desc.Devices[0].Name)
	assert.Equal(t, "voltage0", desc.Devices[0].Channels[0].ID)
	assert.Equal(t, uint(16), desc.Devices[0].Channels[0].Format.Bits)

	v, err := c.Version()
	require.NoError(t, err)
	assert.False(t, v.Library.IsZero())
}

func TestAttributesOverBridge(t *testing.T) {
	c := startBridge(t, "mem:dummy", nil).dial(t)
	dev := backend.DeviceTarget("iio:device0")

	v, err := c.ReadAttr(dev, "sampling_frequency")
	require.NoError(t, err)
	assert.Equal(t, "100", v)

	n, err := c.WriteAttr(dev, "sampling_frequency", "250")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	v, err = c.ReadAttr(dev, "sampling_frequency")
	require.NoError(t, err)
	assert.Equal(t, "250", v)

	_, err = c.ReadAttr(dev, "no_such_attr")
	assert.ErrorIs(t, err, backend.ErrNotFound)

	_, err = c.WriteAttr(backend.ContextTarget(), "local,kernel", "x")
	assert.ErrorIs(t, err, backend.ErrUnsupported)
	assert.ErrorIs(t, err, syscall.EACCES)
}

func TestDeviceControlOverBridge(t *testing.T) {
	c := startBridge(t, "mem:dummy", nil).dial(t)

	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))
	on, err := c.ChannelEnabled(adcVoltage0)
	require.NoError(t, err)
	assert.True(t, on)

	require.NoError(t, c.SetTrigger("iio:device0", "iio:trigger0"))
	trig, err := c.Trigger("iio:device0")
	require.NoError(t, err)
	assert.Equal(t, "iio:trigger0", trig)
	require.NoError(t, c.SetTrigger("iio:device0", ""))
	trig, err = c.Trigger("iio:device0")
	require.NoError(t, err)
	assert.Empty(t, trig)

	require.NoError(t, c.RegWrite("iio:device0", 0x10, 0xab))
	reg, err := c.RegRead("iio:device0", 0x10)
	require.NoError(t, err)
	assert.Equal(t, uint32(0xab), reg)

	require.NoError(t, c.SetKernelBuffersCount("iio:device0", 8))
	err = c.SetKernelBuffersCount("iio:device0", 0)
	assert.ErrorIs(t, err, syscall.EINVAL)

	assert.Error(t, c.SetTimeout(-time.Second))
	require.NoError(t, c.SetTimeout(time.Second))
}

func TestEnableMaskIsPerClient(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	c1, c2 := b.dial(t), b.dial(t)

	require.NoError(t, c1.SetChannelEnabled(adcVoltage0, true))
	on, err := c2.ChannelEnabled(adcVoltage0)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestRefillOverBridge(t *testing.T) {
	c := startBridge(t, "mem:dummy", nil).dial(t)
	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))

	h, err := c.OpenBuffer("iio:device0", 4, false)
	require.NoError(t, err)
	defer h.Close()
	assert.Equal(t, 2, h.Step())
	assert.Len(t, h.Data(), 8)

	n, err := h.Refill()
	require.NoError(t, err)
	assert.Equal(t, 8, n)
	for i, want := range []int16{1, 2, 3, 4} {
		assert.Equal(t, want, int16(binary.LittleEndian.Uint16(h.Data()[i*2:])))
	}

	_, err = h.Push(1)
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

func TestCancelOverBridge(t *testing.T) {
	b := startBridge(t, "mem:feed", nil)
	c := b.dial(t)
	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))

	h, err := c.OpenBuffer("iio:device0", 1, false)
	require.NoError(t, err)
	defer h.Close()

	done := make(chan error, 1)
	go func() {
		_, err := h.Refill()
		done <- err
	}()

	time.Sleep(20 * time.Millisecond)
	h.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, backend.ErrCancelled)
		assert.ErrorIs(t, err, syscall.ECANCELED)
	case <-time.After(2 * time.Second):
		t.Fatal("refill did not return after cancel")
	}
}

func TestRefillAfterFeedOverBridge(t *testing.T) {
	b := startBridge(t, "mem:feed", nil)
	c := b.dial(t)
	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))

	h, err := c.OpenBuffer("iio:device0", 1, false)
	require.NoError(t, err)
	defer h.Close()

	require.NoError(t, h.SetBlocking(false))
	_, err = h.Refill()
	assert.ErrorIs(t, err, syscall.EAGAIN)

	_, err = b.feed.Feed("iio:device0", []byte{0x34, 0x12})
	require.NoError(t, err)
	n, err := h.Refill()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []byte{0x34, 0x12}, h.Data())
}

func TestPushOverBridge(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	c := b.dial(t)
	require.NoError(t, c.SetChannelEnabled(dacVoltage0, true))

	h, err := c.OpenBuffer("iio:device1", 2, false)
	require.NoError(t, err)
	defer h.Close()

	copy(h.Data(), []byte{0x01, 0x00, 0xff, 0x0f})
	n, err := h.Push(2)
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	got, err := b.dummy.Drain("iio:device1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0xff, 0x0f}, got)

	_, err = h.Push(3)
	assert.ErrorIs(t, err, syscall.EINVAL)
	_, err = h.Refill()
	assert.ErrorIs(t, err, backend.ErrUnsupported)
}

func TestOpenBufferErrorsOverBridge(t *testing.T) {
	c := startBridge(t, "mem:dummy", nil).dial(t)

	_, err := c.OpenBuffer("iio:device0", 4, false)
	assert.ErrorIs(t, err, syscall.EINVAL, "no channel enabled")

	_, err = c.OpenBuffer("iio:device9", 4, false)
	assert.ErrorIs(t, err, backend.ErrNotFound)
}

func TestClosedBufferOverBridge(t *testing.T) {
	c := startBridge(t, "mem:dummy", nil).dial(t)
	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))

	h, err := c.OpenBuffer("iio:device0", 2, false)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = h.Refill()
	assert.ErrorIs(t, err, backend.ErrNotFound)
	assert.ErrorIs(t, err, syscall.EBADF)

	// The device ring was released with the buffer.
	h2, err := c.OpenBuffer("iio:device0", 2, false)
	require.NoError(t, err)
	require.NoError(t, h2.Close())
}

func TestClientCloseEndsSession(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	c := b.dial(t)
	_, err := c.Describe()
	require.NoError(t, err)
	assert.Equal(t, 1, b.srv.SessionCount())

	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return b.srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	_, err = c.Describe()
	assert.ErrorIs(t, err, backend.ErrClosed)
	assert.NoError(t, c.Close(), "second Close is a no-op")
}

func TestSessionCloseReleasesBuffers(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	c := b.dial(t)
	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))
	_, err := c.OpenBuffer("iio:device0", 2, false)
	require.NoError(t, err)
	require.NoError(t, c.Close())
	assert.Eventually(t, func() bool { return b.srv.SessionCount() == 0 }, 2*time.Second, 10*time.Millisecond)

	// A new client can open the device ring the old session held.
	c2 := b.dial(t)
	require.NoError(t, c2.SetChannelEnabled(adcVoltage0, true))
	h, err := c2.OpenBuffer("iio:device0", 2, false)
	require.NoError(t, err)
	require.NoError(t, h.Close())
}

func TestServerStopFailsPendingCalls(t *testing.T) {
	b := startBridge(t, "mem:feed", nil)
	c := b.dial(t)
	require.NoError(t, c.SetChannelEnabled(adcVoltage0, true))
	h, err := c.OpenBuffer("iio:device0", 1, false)
	require.NoError(t, err)

	done := make(chan error, 1)
	go func() {
		_, err := h.Refill()
		done <- err
	}()
	time.Sleep(20 * time.Millisecond)

	require.NoError(t, b.srv.Stop())
	select {
	case err := <-done:
		assert.ErrorIs(t, err, backend.ErrClosed)
	case <-time.After(2 * time.Second):
		t.Fatal("refill did not fail after server stop")
	}
}

func TestUnknownContextClosesConnection(t *testing.T) {
	c := startBridge(t, "mem:missing", nil).dial(t)
	_, err := c.Describe()
	assert.ErrorIs(t, err, backend.ErrClosed)
}

func TestBadRequestGetsInvalidStatus(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	conn, err := transport.Dial(context.Background(), b.srv.Addr().String(), transport.ClientConfig{})
	require.NoError(t, err)
	defer conn.Close()

	// read-attr without args
	req := &wire.Request{ID: 9, Op: wire.OpReadAttr}
	data, err := wire.EncodeRequest(req)
	require.NoError(t, err)
	require.NoError(t, conn.Send(data))

	raw, err := conn.Receive(2 * time.Second)
	require.NoError(t, err)
	resp, err := wire.DecodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(9), resp.ID)
	assert.Equal(t, wire.StatusInvalidRequest, resp.Status)

	// unknown op: undecodable as a request, answered by id
	data, err = wire.Marshal(&wire.Request{ID: 10, Op: wire.Op(200)})
	require.NoError(t, err)
	require.NoError(t, conn.Send(data))
	raw, err = conn.Receive(2 * time.Second)
	require.NoError(t, err)
	resp, err = wire.DecodeResponse(raw)
	require.NoError(t, err)
	assert.Equal(t, uint32(10), resp.ID)
	assert.ErrorIs(t, resp.Err(), wire.ErrInvalidRequest)
}

// eventRecorder collects events from the bridge.
type eventRecorder struct {
	events chan log.Event
}

func (r *eventRecorder) Log(e log.Event) {
	select {
	case r.events <- e:
	default:
	}
}

func TestRequestEvents(t *testing.T) {
	rec := &eventRecorder{events: make(chan log.Event, 64)}
	c := startBridge(t, "mem:dummy", rec).dial(t)
	_, err := c.ReadAttr(backend.DeviceTarget("iio:device0"), "nope")
	require.Error(t, err)

	deadline := time.After(2 * time.Second)
	for {
		select {
		case e := <-rec.events:
			if e.Message == nil {
				continue
			}
			assert.Equal(t, log.LayerWire, e.Layer)
			assert.Equal(t, "read-attr", e.Message.Op)
			assert.Equal(t, "NOT_FOUND", e.Message.Status)
			assert.Equal(t, "mem:dummy", e.URI)
			require.NotNil(t, e.Message.ProcessingTime)
			return
		case <-deadline:
			t.Fatal("no request event")
		}
	}
}

// staticBrowser answers every browse with the same bridges.
type staticBrowser []*discovery.BridgeService

func (b staticBrowser) Browse(ctx context.Context) (<-chan *discovery.BridgeService, error) {
	out := make(chan *discovery.BridgeService)
	go func() {
		defer close(out)
		for _, s := range b {
			select {
			case out <- s:
			case <-ctx.Done():
				return
			}
		}
		<-ctx.Done()
	}()
	return out, nil
}

func serviceFor(t *testing.T, b *bridge) *discovery.BridgeService {
	t.Helper()
	_, portStr, err := net.SplitHostPort(b.srv.Addr().String())
	require.NoError(t, err)
	port, err := strconv.Atoi(portStr)
	require.NoError(t, err)
	return &discovery.BridgeService{
		InstanceName: "dummy",
		Host:         "localhost",
		Port:         uint16(port),
		Addresses:    []string{"127.0.0.1"},
		Context:      "dummy",
		Description:  "Simulated IIO context",
		Backend:      "mem",
	}
}

func TestProviderOpen(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	p := &Provider{Browser: staticBrowser{}, BrowseTimeout: 50 * time.Millisecond}

	conn, err := p.Open(context.Background(), "ip:"+b.srv.Addr().String())
	require.NoError(t, err)
	defer conn.Close()
	desc, err := conn.Describe()
	require.NoError(t, err)
	assert.Equal(t, "dummy", desc.Name)

	_, err = p.Open(context.Background(), "ip:")
	assert.ErrorIs(t, err, discovery.ErrNotFound)

	_, err = p.Open(context.Background(), "ip:localhost:99999")
	assert.ErrorIs(t, err, backend.ErrInvalidURI)
}

func TestProviderDiscoversBridge(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	svc := serviceFor(t, b)
	p := &Provider{Browser: staticBrowser{svc}, BrowseTimeout: time.Second}

	conn, err := p.Open(context.Background(), "ip:")
	require.NoError(t, err)
	defer conn.Close()
	_, err = conn.Describe()
	require.NoError(t, err)
}

func TestProviderScan(t *testing.T) {
	b := startBridge(t, "mem:dummy", nil)
	svc := serviceFor(t, b)
	p := &Provider{Browser: staticBrowser{svc}, BrowseTimeout: 50 * time.Millisecond}

	infos, err := p.Scan(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "ip:127.0.0.1:"+strconv.Itoa(int(svc.Port)), infos[0].URI)
	assert.Equal(t, "Simulated IIO context (dummy)", infos[0].Description)
}

func TestDefaultRegistration(t *testing.T) {
	p, ok := backend.Default.Lookup(backend.SchemeIP)
	require.True(t, ok)
	assert.IsType(t, &Provider{}, p)
}

func TestProviderRetriesRefusedDial(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	var retries int
	p := &Provider{
		Browser: staticBrowser{},
		Retry: connection.RetryConfig{
			Attempts: 3,
			Backoff:  connection.BackoffConfig{Initial: time.Millisecond, Jitter: -1},
			OnRetry:  func(int, time.Duration, error) { retries++ },
		},
	}
	_, err = p.Open(context.Background(), "ip:"+addr)
	require.Error(t, err)
	assert.ErrorIs(t, err, syscall.ECONNREFUSED)
	assert.Equal(t, 2, retries)
}
