package discovery

import (
	"context"
	"errors"
	"net"
	"strconv"
	"time"
)

const (
	// ServiceType is the DNS-SD service type of iio bridges.
	ServiceType = "_iio._tcp"

	// Domain is the mDNS domain.
	Domain = "local"

	// DefaultPort is the default bridge port.
	DefaultPort = 30431

	// BrowseTimeout is the default time Collect listens for answers.
	BrowseTimeout = 3 * time.Second

	// MaxInstanceNameLen is the DNS label limit.
	MaxInstanceNameLen = 63
)

// TXT record keys.
const (
	TXTKeyContext     = "ctx"
	TXTKeyDescription = "desc"
	TXTKeyBackend     = "backend"
	TXTKeyVersion     = "ver"
)

// Errors.
var (
	ErrInvalidTXTRecord    = errors.New("invalid TXT record format")
	ErrMissingRequired     = errors.New("missing required field")
	ErrInstanceNameTooLong = errors.New("instance name exceeds 63 characters")
	ErrNotFound            = errors.New("service not found")
)

// BridgeInfo is what a bridge advertises.
type BridgeInfo struct {
	// InstanceName defaults to Context.
	InstanceName string

	Port        uint16
	Context     string
	Description string
	Backend     string
	Version     string
}

// BridgeService is a bridge found by browsing.
type BridgeService struct {
	InstanceName string
	Host         string
	Port         uint16
	Addresses    []string

	Context     string
	Description string
	Backend     string
	Version     string
}

// Address returns "host:port" for the first known address, falling back
// to the advertised host name.
func (s *BridgeService) Address() string {
	host := s.Host
	if len(s.Addresses) > 0 {
		host = s.Addresses[0]
	}
	return net.JoinHostPort(host, strconv.Itoa(int(s.Port)))
}

// URI returns the "ip:" context URI of the bridge.
func (s *BridgeService) URI() string {
	return "ip:" + s.Address()
}

// AdvertiserConfig configures advertising.
type AdvertiserConfig struct {
	// Interface limits advertising to one network interface. Empty means all.
	Interface string

	// TTL overrides the record TTL.
	TTL time.Duration
}

// BrowserConfig configures browsing.
type BrowserConfig struct {
	// Interface limits browsing to one network interface. Empty means all.
	Interface string
}

// Advertiser announces bridges.
type Advertiser interface {
	// Advertise starts (or replaces) the announcement for info.InstanceName.
	Advertise(ctx context.Context, info *BridgeInfo) error

	// StopAll withdraws every announcement.
	StopAll()
}

// Browser finds bridges.
type Browser interface {
	// Browse streams bridges until ctx ends. Each instance is sent once;
	// addresses on later interfaces are merged into it.
	Browse(ctx context.Context) (<-chan *BridgeService, error)
}
