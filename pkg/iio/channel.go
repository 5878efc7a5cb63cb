package iio

import (
	"reflect"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/sample"
)

// Channel is one data lane of a Device. It holds its own Device reference.
type Channel struct {
	dev *Device
	idx int
}

func newChannel(dev *Device, idx int) *Channel {
	return &Channel{dev: dev, idx: idx}
}

// Close drops the channel's share of its Context.
func (c *Channel) Close() error {
	return c.dev.Close()
}

// Device returns another reference to the channel's device.
func (c *Channel) Device() *Device {
	return c.dev.Clone()
}

// SameAs reports whether c and other are the same channel.
func (c *Channel) SameAs(other *Channel) bool {
	return other != nil && c.idx == other.idx && c.dev.SameAs(other.dev)
}

func (c *Channel) desc() *backend.ChannelDesc {
	return &c.dev.desc().Channels[c.idx]
}

func (c *Channel) ref() backend.ChannelRef {
	return c.desc().Ref(c.dev.ID())
}

// ID returns the channel id, e.g. "voltage0".
func (c *Channel) ID() string { return c.desc().ID }

// Name returns the channel name, which may be empty.
func (c *Channel) Name() string { return c.desc().Name }

// Type returns the physical quantity derived from the id.
func (c *Channel) Type() ChannelType { return ParseChannelType(c.desc().ID) }

// Direction returns Input or Output.
func (c *Channel) Direction() Direction {
	if c.desc().Output {
		return Output
	}
	return Input
}

// IsOutput reports whether the channel is an output.
func (c *Channel) IsOutput() bool { return c.desc().Output }

// IsScanElement reports whether the channel can be buffered.
func (c *Channel) IsScanElement() bool { return c.desc().ScanElement }

// Index returns the scan index, or -1 for channels that are not scan
// elements.
func (c *Channel) Index() int { return c.desc().Index }

// Format returns the storage layout of the channel's samples.
func (c *Channel) Format() sample.Format { return c.desc().Format }

// SampleType returns the Go type matching the storage format, or nil for
// channels that are not scan elements.
func (c *Channel) SampleType() reflect.Type {
	if !c.IsScanElement() {
		return nil
	}
	return c.desc().Format.NativeType()
}

// Enable selects the channel for the next buffer.
func (c *Channel) Enable() error {
	return c.setEnabled("channel.enable", true)
}

// Disable deselects the channel.
func (c *Channel) Disable() error {
	return c.setEnabled("channel.disable", false)
}

func (c *Channel) setEnabled(op string, on bool) error {
	inner, err := c.dev.live(op)
	if err != nil {
		return err
	}
	if !c.IsScanElement() {
		return inner.fail(errorf(ErrUnsupported, op, "%s is not a scan element", c.ID()))
	}
	if err := inner.conn.SetChannelEnabled(c.ref(), on); err != nil {
		return inner.fail(backendError(op, ErrIO, err))
	}
	return nil
}

// IsEnabled reports whether the channel is selected for buffering.
func (c *Channel) IsEnabled() (bool, error) {
	inner, err := c.dev.live("channel.is_enabled")
	if err != nil {
		return false, err
	}
	if !c.IsScanElement() {
		return false, nil
	}
	on, err := inner.conn.ChannelEnabled(c.ref())
	if err != nil {
		return false, inner.fail(backendError("channel.is_enabled", ErrIO, err))
	}
	return on, nil
}
