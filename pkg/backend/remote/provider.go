package remote

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/connection"
	"github.com/industrial-io/iio-go/pkg/discovery"
	"github.com/industrial-io/iio-go/pkg/transport"
)

// DialAttempts is the default number of dials before Open gives up.
const DialAttempts = 3

// Provider opens "ip:" URIs.
type Provider struct {
	// Browser finds bridges for "ip:" with no host and for Scan.
	Browser discovery.Browser

	// BrowseTimeout bounds how long Open and Scan wait for mDNS answers.
	BrowseTimeout time.Duration

	// Transport configures bridge connections.
	Transport transport.ClientConfig

	// Retry bounds how often a refused dial is attempted again.
	Retry connection.RetryConfig

	// Logger receives client diagnostics. Nil discards them.
	Logger *slog.Logger
}

// NewProvider returns a provider browsing mDNS on all interfaces.
func NewProvider() *Provider {
	return &Provider{
		Browser:       discovery.NewMDNSBrowser(discovery.BrowserConfig{}),
		BrowseTimeout: discovery.BrowseTimeout,
		Retry:         connection.RetryConfig{Attempts: DialAttempts},
	}
}

// Open implements backend.Provider.
func (p *Provider) Open(ctx context.Context, uri string) (backend.Conn, error) {
	u, err := backend.ParseURI(uri)
	if err != nil {
		return nil, err
	}
	host, port, err := u.HostPort(transport.DefaultPort)
	if err != nil {
		return nil, err
	}

	var address string
	if host == "" {
		svc, err := discovery.First(ctx, p.Browser, p.BrowseTimeout)
		if err != nil {
			return nil, fmt.Errorf("find bridge: %w", err)
		}
		address = svc.Address()
	} else {
		address = net.JoinHostPort(host, strconv.Itoa(port))
	}

	retry := p.Retry
	if retry.OnRetry == nil {
		retry.OnRetry = func(attempt int, delay time.Duration, err error) {
			p.logger().Debug("dial failed, retrying", "address", address, "attempt", attempt, "delay", delay, "error", err)
		}
	}
	var conn *transport.ClientConn
	err = connection.Retry(ctx, retry, func(ctx context.Context) error {
		c, err := transport.Dial(ctx, address, p.Transport)
		conn = c
		return err
	})
	if err != nil {
		return nil, err
	}
	return NewClient(conn, p.Logger), nil
}

func (p *Provider) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.Logger
}

// Scan implements backend.Provider by browsing for bridges.
func (p *Provider) Scan(ctx context.Context) ([]backend.ContextInfo, error) {
	found, err := discovery.Collect(ctx, p.Browser, p.BrowseTimeout)
	if err != nil {
		return nil, err
	}
	infos := make([]backend.ContextInfo, 0, len(found))
	for _, svc := range found {
		desc := svc.Context
		if svc.Description != "" {
			desc = fmt.Sprintf("%s (%s)", svc.Description, svc.Context)
		}
		infos = append(infos, backend.ContextInfo{URI: svc.URI(), Description: desc})
	}
	return infos, nil
}

func init() {
	backend.Register(backend.SchemeIP, NewProvider())
}
