package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"syscall"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
	"github.com/industrial-io/iio-go/pkg/transport"
	"github.com/industrial-io/iio-go/pkg/wire"
)

// ServerConfig configures a bridge server.
type ServerConfig struct {
	// Address to listen on. Defaults to ":30431".
	Address string

	// URI is the context every session opens, e.g. "mem:dummy".
	URI string

	// Registry resolves URI. Defaults to backend.Default.
	Registry *backend.Registry

	// MaxMessageSize bounds frames in both directions.
	MaxMessageSize uint32

	// Logger receives diagnostics. Nil discards them.
	Logger *slog.Logger

	// EventLogger receives frame, connection and request events (optional).
	EventLogger log.Logger
}

// Server exposes one context URI to bridge clients.
type Server struct {
	config    ServerConfig
	logger    *slog.Logger
	transport *transport.Server

	mu       sync.Mutex
	ctx      context.Context
	sessions map[*transport.ServerConn]*session
}

// NewServer creates a bridge server. Nothing is opened until a client
// connects.
func NewServer(config ServerConfig) (*Server, error) {
	if config.URI == "" {
		return nil, fmt.Errorf("URI is required")
	}
	if _, err := backend.ParseURI(config.URI); err != nil {
		return nil, err
	}
	if config.Registry == nil {
		config.Registry = backend.Default
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	s := &Server{
		config:   config,
		logger:   logger.With("uri", config.URI),
		ctx:      context.Background(),
		sessions: make(map[*transport.ServerConn]*session),
	}
	ts, err := transport.NewServer(transport.ServerConfig{
		Address:        config.Address,
		MaxMessageSize: config.MaxMessageSize,
		Logger:         config.EventLogger,
		OnConnect:      s.onConnect,
		OnMessage:      s.onMessage,
		OnDisconnect:   s.onDisconnect,
		OnError: func(conn *transport.ServerConn, err error) {
			if conn != nil {
				s.logger.Warn("bridge connection error", "conn", conn.ConnID(), "error", err)
				return
			}
			s.logger.Warn("bridge error", "error", err)
		},
	})
	if err != nil {
		return nil, err
	}
	s.transport = ts
	return s, nil
}

// Start listens on the configured address.
func (s *Server) Start(ctx context.Context) error {
	s.setContext(ctx)
	return s.transport.Start(ctx)
}

// Serve accepts bridge connections on listener.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	s.setContext(ctx)
	return s.transport.Serve(ctx, listener)
}

func (s *Server) setContext(ctx context.Context) {
	s.mu.Lock()
	s.ctx = ctx
	s.mu.Unlock()
}

// Stop closes every session and the listener.
func (s *Server) Stop() error {
	return s.transport.Stop()
}

// Addr returns the listen address.
func (s *Server) Addr() net.Addr {
	return s.transport.Addr()
}

// SessionCount returns the number of open sessions.
func (s *Server) SessionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

func (s *Server) onConnect(sc *transport.ServerConn) {
	s.mu.Lock()
	ctx := s.ctx
	s.mu.Unlock()

	conn, err := s.config.Registry.Open(ctx, s.config.URI)
	if err != nil {
		s.logger.Error("open context for bridge client", "remote", sc.RemoteAddr().String(), "error", err)
		sc.Close()
		return
	}

	sess := &session{
		srv:     s,
		sc:      sc,
		conn:    conn,
		buffers: make(map[uint32]backend.BufferHandle),
		logger:  s.logger.With("conn", sc.ConnID()),
	}
	s.mu.Lock()
	s.sessions[sc] = sess
	s.mu.Unlock()
	sess.logger.Info("bridge client connected", "remote", sc.RemoteAddr().String())
}

func (s *Server) onMessage(sc *transport.ServerConn, data []byte) {
	s.mu.Lock()
	sess := s.sessions[sc]
	s.mu.Unlock()
	if sess == nil {
		return
	}

	req, err := wire.DecodeRequest(data)
	if err != nil {
		var hdr wire.Request
		if wire.Unmarshal(data, &hdr) == nil && hdr.ID != 0 {
			sess.send(wire.ErrorResponse(hdr.ID, fmt.Errorf("%w: %v", wire.ErrInvalidRequest, err)))
		}
		sess.logger.Warn("bad request", "error", err)
		return
	}

	// Requests run concurrently so a cancel can reach a blocked refill.
	sess.wg.Add(1)
	go func() {
		defer sess.wg.Done()
		sess.serve(req)
	}()
}

func (s *Server) onDisconnect(sc *transport.ServerConn) {
	s.mu.Lock()
	sess := s.sessions[sc]
	delete(s.sessions, sc)
	s.mu.Unlock()
	if sess != nil {
		sess.close()
	}
}

// session is one client's view of the backend.
type session struct {
	srv    *Server
	sc     *transport.ServerConn
	conn   backend.Conn
	logger *slog.Logger
	wg     sync.WaitGroup

	mu      sync.Mutex
	buffers map[uint32]backend.BufferHandle
	nextBuf uint32
}

func (s *session) serve(req *wire.Request) {
	start := time.Now()
	result, err := s.dispatch(req)

	var resp *wire.Response
	if err != nil {
		resp = wire.ErrorResponse(req.ID, err)
	} else if resp, err = wire.NewResponse(req.ID, result); err != nil {
		resp = wire.ErrorResponse(req.ID, err)
	}
	s.send(resp)
	s.logRequest(req, resp, time.Since(start))

	if req.Op == wire.OpClose {
		s.sc.Close()
	}
}

func (s *session) send(resp *wire.Response) {
	data, err := wire.EncodeResponse(resp)
	if err != nil {
		s.logger.Error("encode response", "id", resp.ID, "error", err)
		return
	}
	if err := s.sc.Send(data); err != nil {
		s.logger.Debug("send response", "id", resp.ID, "error", err)
	}
}

func (s *session) logRequest(req *wire.Request, resp *wire.Response, took time.Duration) {
	if s.srv.config.EventLogger == nil {
		return
	}
	s.srv.config.EventLogger.Log(log.Event{
		Timestamp:    time.Now(),
		ConnectionID: s.sc.ConnID(),
		Direction:    log.DirectionOut,
		Layer:        log.LayerWire,
		Category:     log.CategoryMessage,
		URI:          s.srv.config.URI,
		RemoteAddr:   s.sc.RemoteAddr().String(),
		Message: &log.MessageEvent{
			Type:           log.MessageTypeResponse,
			MessageID:      req.ID,
			Op:             req.Op.String(),
			Status:         resp.Status.String(),
			ProcessingTime: &took,
		},
	})
}

// decode unpacks request arguments, tagging failures as invalid requests.
func decode[T any](req *wire.Request) (T, error) {
	var args T
	if err := req.DecodeArgs(&args); err != nil {
		return args, fmt.Errorf("%w: %w", wire.ErrInvalidRequest, err)
	}
	return args, nil
}

func (s *session) buffer(id uint32) (backend.BufferHandle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.buffers[id]
	if !ok {
		return nil, fmt.Errorf("buffer %d: %w: %w", id, backend.ErrNotFound, syscall.EBADF)
	}
	return h, nil
}

func (s *session) dispatch(req *wire.Request) (any, error) {
	if req.Op.IsBufferOp() {
		return s.dispatchBuffer(req)
	}

	switch req.Op {
	case wire.OpDescribe:
		return s.conn.Describe()

	case wire.OpReadAttr:
		a, err := decode[wire.AttrArgs](req)
		if err != nil {
			return nil, err
		}
		v, err := s.conn.ReadAttr(a.Target, a.Name)
		return wire.AttrResult{Value: v}, err

	case wire.OpWriteAttr:
		a, err := decode[wire.AttrArgs](req)
		if err != nil {
			return nil, err
		}
		n, err := s.conn.WriteAttr(a.Target, a.Name, a.Value)
		return wire.AttrResult{N: n}, err

	case wire.OpEnable:
		a, err := decode[wire.ChannelArgs](req)
		if err != nil {
			return nil, err
		}
		return nil, s.conn.SetChannelEnabled(a.Channel, a.On)

	case wire.OpEnabled:
		a, err := decode[wire.ChannelArgs](req)
		if err != nil {
			return nil, err
		}
		on, err := s.conn.ChannelEnabled(a.Channel)
		return wire.BoolResult{Value: on}, err

	case wire.OpSetTrigger:
		a, err := decode[wire.DeviceArgs](req)
		if err != nil {
			return nil, err
		}
		return nil, s.conn.SetTrigger(a.Device, a.Trigger)

	case wire.OpGetTrigger:
		a, err := decode[wire.DeviceArgs](req)
		if err != nil {
			return nil, err
		}
		trig, err := s.conn.Trigger(a.Device)
		return wire.StringResult{Value: trig}, err

	case wire.OpKbufCount:
		a, err := decode[wire.DeviceArgs](req)
		if err != nil {
			return nil, err
		}
		return nil, s.conn.SetKernelBuffersCount(a.Device, a.Count)

	case wire.OpTimeout:
		a, err := decode[wire.TimeoutArgs](req)
		if err != nil {
			return nil, err
		}
		return nil, s.conn.SetTimeout(time.Duration(a.Nanos))

	case wire.OpRegRead:
		a, err := decode[wire.RegArgs](req)
		if err != nil {
			return nil, err
		}
		v, err := s.conn.RegRead(a.Device, a.Addr)
		return wire.RegResult{Value: v}, err

	case wire.OpRegWrite:
		a, err := decode[wire.RegArgs](req)
		if err != nil {
			return nil, err
		}
		return nil, s.conn.RegWrite(a.Device, a.Addr, a.Value)

	case wire.OpOpenBuffer:
		a, err := decode[wire.OpenBufferArgs](req)
		if err != nil {
			return nil, err
		}
		h, err := s.conn.OpenBuffer(a.Device, a.Samples, a.Cyclic)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.nextBuf++
		id := s.nextBuf
		s.buffers[id] = h
		s.mu.Unlock()
		return wire.OpenBufferResult{Buffer: id, Step: h.Step(), Length: len(h.Data())}, nil

	case wire.OpVersion:
		return s.conn.Version()

	case wire.OpClose:
		return nil, nil
	}
	return nil, fmt.Errorf("%w: op %s", backend.ErrUnsupported, req.Op)
}

func (s *session) dispatchBuffer(req *wire.Request) (any, error) {
	a, err := decode[wire.BufferArgs](req)
	if err != nil {
		return nil, err
	}
	h, err := s.buffer(a.Buffer)
	if err != nil {
		return nil, err
	}

	switch req.Op {
	case wire.OpRefill:
		n, err := h.Refill()
		if err != nil {
			return nil, err
		}
		return wire.TransferResult{N: n, Data: h.Data()[:n]}, nil

	case wire.OpPush:
		if len(a.Data) > len(h.Data()) {
			return nil, fmt.Errorf("push of %d bytes into %d: %w", len(a.Data), len(h.Data()), syscall.EINVAL)
		}
		copy(h.Data(), a.Data)
		n, err := h.Push(a.N)
		return wire.TransferResult{N: n}, err

	case wire.OpCancel:
		h.Cancel()
		return nil, nil

	case wire.OpBlocking:
		return nil, h.SetBlocking(a.Blocking)

	case wire.OpCloseBuffer:
		s.mu.Lock()
		delete(s.buffers, a.Buffer)
		s.mu.Unlock()
		return nil, h.Close()
	}
	return nil, fmt.Errorf("%w: op %s", backend.ErrUnsupported, req.Op)
}

// close cancels the session's buffers so blocked requests return, waits
// for every request to finish and releases the backend connection.
func (s *session) close() {
	s.mu.Lock()
	buffers := make([]backend.BufferHandle, 0, len(s.buffers))
	for id, h := range s.buffers {
		buffers = append(buffers, h)
		delete(s.buffers, id)
	}
	s.mu.Unlock()

	for _, h := range buffers {
		h.Cancel()
	}
	s.wg.Wait()
	for _, h := range buffers {
		h.Close()
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Warn("close backend connection", "error", err)
	}
	s.logger.Info("bridge client disconnected")
}
