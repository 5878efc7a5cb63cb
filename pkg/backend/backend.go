// Package backend defines the contract between the iio core and the
// hardware-access layer that scans devices and moves samples.
//
// The core never talks to hardware directly. It resolves a context URI
// through a Registry to a Provider, opens a Conn, takes one Description
// snapshot of the device graph, and from then on addresses devices,
// channels and attributes by id through the Conn.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/industrial-io/iio-go/pkg/sample"
	"github.com/industrial-io/iio-go/pkg/version"
)

// Backend errors. Implementations wrap these, optionally together with a
// syscall.Errno carrying the hardware error code.
var (
	// ErrNoProvider indicates no provider is registered for a URI scheme.
	ErrNoProvider = errors.New("no provider for scheme")

	// ErrInvalidURI indicates a malformed context URI.
	ErrInvalidURI = errors.New("invalid context URI")

	// ErrNotFound indicates an unknown device, channel, attribute or buffer.
	ErrNotFound = errors.New("not found")

	// ErrUnsupported indicates an operation the backend cannot perform.
	ErrUnsupported = errors.New("operation not supported")

	// ErrClosed indicates use of a closed connection or buffer.
	ErrClosed = errors.New("closed")

	// ErrCancelled indicates a buffer transfer aborted by Cancel.
	ErrCancelled = errors.New("transfer cancelled")
)

// Provider opens connections for one or more URI schemes.
type Provider interface {
	// Open connects to the context named by uri.
	Open(ctx context.Context, uri string) (Conn, error)

	// Scan lists the contexts this provider can currently reach.
	Scan(ctx context.Context) ([]ContextInfo, error)
}

// Conn is an open connection to one hardware context.
//
// Implementations must be safe for concurrent use. Describe is called once
// per InnerContext; everything else may be called from any goroutine.
type Conn interface {
	// Describe returns a snapshot of the device graph.
	Describe() (*Description, error)

	// ReadAttr reads an attribute value.
	ReadAttr(t Target, name string) (string, error)

	// WriteAttr writes an attribute value and returns the number of bytes
	// the hardware acknowledged.
	WriteAttr(t Target, name, value string) (int, error)

	// SetChannelEnabled enables or disables a scan element.
	SetChannelEnabled(ch ChannelRef, on bool) error

	// ChannelEnabled reports whether a scan element is enabled.
	ChannelEnabled(ch ChannelRef) (bool, error)

	// SetTrigger assigns a trigger device to dev. An empty trigger removes it.
	SetTrigger(dev, trigger string) error

	// Trigger returns the id of the trigger assigned to dev, or "".
	Trigger(dev string) (string, error)

	// SetKernelBuffersCount sets the number of kernel blocks for dev.
	SetKernelBuffersCount(dev string, n uint) error

	// SetTimeout bounds blocking operations. Zero waits forever.
	SetTimeout(d time.Duration) error

	// RegRead reads a debug register of dev.
	RegRead(dev string, addr uint32) (uint32, error)

	// RegWrite writes a debug register of dev.
	RegWrite(dev string, addr, value uint32) error

	// OpenBuffer allocates a sample buffer of samples scans over the
	// channels currently enabled on dev.
	OpenBuffer(dev string, samples int, cyclic bool) (BufferHandle, error)

	// Version reports the backend library version and the kernel
	// subsystem version, when known.
	Version() (VersionInfo, error)

	// Close releases the connection.
	Close() error
}

// BufferHandle is a backend-side sample buffer.
//
// Data returns the user-space block: samples scans of Step bytes each.
// Refill overwrites it with captured samples; Push sends it to the device.
// A handle is driven by one goroutine at a time, except Cancel which may be
// called from anywhere.
type BufferHandle interface {
	// Refill blocks until a full block has been captured and returns the
	// number of bytes now valid in Data.
	Refill() (int, error)

	// Push sends the first n samples of Data and returns the bytes sent.
	Push(n int) (int, error)

	// Data returns the block.
	Data() []byte

	// Step returns the size of one scan in bytes.
	Step() int

	// Cancel aborts pending and future transfers.
	Cancel()

	// SetBlocking selects blocking or non-blocking transfers.
	SetBlocking(blocking bool) error

	// Close releases the buffer.
	Close() error
}

// AttrKind is the kind of entity owning an attribute.
type AttrKind uint8

const (
	AttrContext AttrKind = iota
	AttrDevice
	AttrDebug
	AttrBuffer
	AttrChannel
)

// String returns the kind name.
func (k AttrKind) String() string {
	switch k {
	case AttrContext:
		return "context"
	case AttrDevice:
		return "device"
	case AttrDebug:
		return "debug"
	case AttrBuffer:
		return "buffer"
	case AttrChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// ChannelRef addresses one channel. Input and output channels may share an
// id, so the direction is part of the key.
type ChannelRef struct {
	Device  string `cbor:"1,keyasint"`
	Channel string `cbor:"2,keyasint"`
	Output  bool   `cbor:"3,keyasint,omitempty"`
}

// Target addresses the entity an attribute belongs to.
type Target struct {
	Kind    AttrKind `cbor:"1,keyasint"`
	Device  string   `cbor:"2,keyasint,omitempty"`
	Channel string   `cbor:"3,keyasint,omitempty"`
	Output  bool     `cbor:"4,keyasint,omitempty"`
}

// ContextTarget addresses the context's own attributes.
func ContextTarget() Target { return Target{Kind: AttrContext} }

// DeviceTarget addresses a device's attributes.
func DeviceTarget(dev string) Target { return Target{Kind: AttrDevice, Device: dev} }

// DebugTarget addresses a device's debug attributes.
func DebugTarget(dev string) Target { return Target{Kind: AttrDebug, Device: dev} }

// BufferTarget addresses a device's buffer attributes.
func BufferTarget(dev string) Target { return Target{Kind: AttrBuffer, Device: dev} }

// ChannelTarget addresses a channel's attributes.
func ChannelTarget(ch ChannelRef) Target {
	return Target{Kind: AttrChannel, Device: ch.Device, Channel: ch.Channel, Output: ch.Output}
}

// Ref returns the channel a channel target points at.
func (t Target) Ref() ChannelRef {
	return ChannelRef{Device: t.Device, Channel: t.Channel, Output: t.Output}
}

// Description is the enumeration snapshot of a context.
type Description struct {
	Name        string        `cbor:"1,keyasint"`
	Description string        `cbor:"2,keyasint,omitempty"`
	Attrs       []ContextAttr `cbor:"3,keyasint,omitempty"`
	Devices     []DeviceDesc  `cbor:"4,keyasint,omitempty"`
}

// ContextAttr is a static context attribute.
type ContextAttr struct {
	Name  string `cbor:"1,keyasint"`
	Value string `cbor:"2,keyasint"`
}

// DeviceDesc describes one device.
type DeviceDesc struct {
	ID          string        `cbor:"1,keyasint"`
	Name        string        `cbor:"2,keyasint,omitempty"`
	Label       string        `cbor:"3,keyasint,omitempty"`
	IsTrigger   bool          `cbor:"4,keyasint,omitempty"`
	Attrs       []string      `cbor:"5,keyasint,omitempty"`
	DebugAttrs  []string      `cbor:"6,keyasint,omitempty"`
	BufferAttrs []string      `cbor:"7,keyasint,omitempty"`
	Channels    []ChannelDesc `cbor:"8,keyasint,omitempty"`
}

// ChannelDesc describes one channel.
type ChannelDesc struct {
	ID          string        `cbor:"1,keyasint"`
	Name        string        `cbor:"2,keyasint,omitempty"`
	Output      bool          `cbor:"3,keyasint,omitempty"`
	ScanElement bool          `cbor:"4,keyasint,omitempty"`
	Index       int           `cbor:"5,keyasint"`
	Format      sample.Format `cbor:"6,keyasint"`
	Attrs       []string      `cbor:"7,keyasint,omitempty"`
}

// Ref returns the reference of channel c on device dev.
func (c ChannelDesc) Ref(dev string) ChannelRef {
	return ChannelRef{Device: dev, Channel: c.ID, Output: c.Output}
}

// ContextInfo is one entry of a scan: a URI that can be opened and a
// human-readable description.
type ContextInfo struct {
	URI         string `cbor:"1,keyasint"`
	Description string `cbor:"2,keyasint,omitempty"`
}

// VersionInfo is the version of a backend.
type VersionInfo struct {
	Library version.Version `cbor:"1,keyasint"`
	Kernel  string          `cbor:"2,keyasint,omitempty"`
}
