package iio

import (
	"iter"

	"github.com/industrial-io/iio-go/pkg/backend"
)

// Device is one hardware unit of a Context. It holds its own share of the
// Context, so it stays valid after the Context it came from is closed.
type Device struct {
	ctx *Context
	idx int
}

func newDevice(ctx *Context, idx int) *Device {
	return &Device{ctx: ctx, idx: idx}
}

// Close drops the device's share of its Context.
func (d *Device) Close() error {
	return d.ctx.Close()
}

// Context returns a new share of the device's Context.
func (d *Device) Context() *Context {
	return d.ctx.Clone()
}

// Clone returns another reference to the same device.
func (d *Device) Clone() *Device {
	return newDevice(d.ctx.Clone(), d.idx)
}

// SameAs reports whether d and other are the same device of the same
// InnerContext.
func (d *Device) SameAs(other *Device) bool {
	return other != nil && d.idx == other.idx && d.ctx.SameAs(other.ctx)
}

func (d *Device) desc() *backend.DeviceDesc {
	return d.ctx.inner().device(d.idx)
}

func (d *Device) live(op string) (*InnerContext, error) {
	return d.ctx.live(op)
}

// Index returns the position of the device in its Context.
func (d *Device) Index() int { return d.idx }

// ID returns the device id, e.g. "iio:device0".
func (d *Device) ID() string { return d.desc().ID }

// Name returns the device name, which may be empty.
func (d *Device) Name() string { return d.desc().Name }

// Label returns the device label, which may be empty.
func (d *Device) Label() string { return d.desc().Label }

// IsTrigger reports whether the device is a trigger.
func (d *Device) IsTrigger() bool { return d.desc().IsTrigger }

// NumChannels returns the number of channels.
func (d *Device) NumChannels() int { return len(d.desc().Channels) }

// IsBufferCapable reports whether any channel is a scan element.
func (d *Device) IsBufferCapable() bool {
	for _, c := range d.desc().Channels {
		if c.ScanElement {
			return true
		}
	}
	return false
}

// Channel returns the channel at index i.
func (d *Device) Channel(i int) (*Channel, error) {
	if _, err := d.live("device.channel"); err != nil {
		return nil, err
	}
	if i < 0 || i >= d.NumChannels() {
		return nil, errorf(ErrInvalidIndex, "device.channel", "index %d of %d", i, d.NumChannels())
	}
	return newChannel(d.Clone(), i), nil
}

// FindChannel returns the channel whose id or name is exactly name, in the
// given direction.
func (d *Device) FindChannel(name string, output bool) (*Channel, error) {
	if _, err := d.live("device.find_channel"); err != nil {
		return nil, err
	}
	chans := d.desc().Channels
	for i, c := range chans {
		if c.Output == output && c.ID == name {
			return newChannel(d.Clone(), i), nil
		}
	}
	for i, c := range chans {
		if c.Output == output && c.Name != "" && c.Name == name {
			return newChannel(d.Clone(), i), nil
		}
	}
	dir := Input
	if output {
		dir = Output
	}
	return nil, errorf(ErrNotFound, "device.find_channel", "%s channel %q on %s", dir, name, d.ID())
}

// Channels yields every channel. The sequence can be ranged over again.
func (d *Device) Channels() iter.Seq[*Channel] {
	return func(yield func(*Channel) bool) {
		for i := range d.NumChannels() {
			ch, err := d.Channel(i)
			if err != nil {
				return
			}
			if !yield(ch) {
				return
			}
		}
	}
}

// SetTrigger assigns trig as the device's trigger.
func (d *Device) SetTrigger(trig *Device) error {
	inner, err := d.live("device.set_trigger")
	if err != nil {
		return err
	}
	if !trig.IsTrigger() {
		return inner.fail(errorf(ErrUnsupported, "device.set_trigger", "%s is not a trigger", trig.ID()))
	}
	if !trig.ctx.SameAs(d.ctx) {
		return inner.fail(errorf(ErrUnsupported, "device.set_trigger", "trigger %s belongs to another context", trig.ID()))
	}
	if err := inner.conn.SetTrigger(d.ID(), trig.ID()); err != nil {
		return inner.fail(backendError("device.set_trigger", ErrIO, err))
	}
	return nil
}

// RemoveTrigger clears the device's trigger.
func (d *Device) RemoveTrigger() error {
	inner, err := d.live("device.remove_trigger")
	if err != nil {
		return err
	}
	if err := inner.conn.SetTrigger(d.ID(), ""); err != nil {
		return inner.fail(backendError("device.remove_trigger", ErrIO, err))
	}
	return nil
}

// Trigger returns the device's trigger. It fails with ErrNotFound when
// none is set.
func (d *Device) Trigger() (*Device, error) {
	inner, err := d.live("device.trigger")
	if err != nil {
		return nil, err
	}
	id, err := inner.conn.Trigger(d.ID())
	if err != nil {
		return nil, inner.fail(backendError("device.trigger", ErrIO, err))
	}
	if id == "" {
		return nil, errorf(ErrNotFound, "device.trigger", "%s has no trigger", d.ID())
	}
	i, ok := inner.byID[id]
	if !ok {
		return nil, errorf(ErrNotFound, "device.trigger", "trigger %q not in scan", id)
	}
	return newDevice(d.ctx.Clone(), i), nil
}

// SetKernelBuffersCount sets the number of blocks in the kernel ring used
// by the next buffer.
func (d *Device) SetKernelBuffersCount(n uint) error {
	inner, err := d.live("device.set_kernel_buffers_count")
	if err != nil {
		return err
	}
	if err := inner.conn.SetKernelBuffersCount(d.ID(), n); err != nil {
		return inner.fail(backendError("device.set_kernel_buffers_count", ErrIO, err))
	}
	return nil
}

// SampleSize returns the size in bytes of one scan over the currently
// enabled channels.
func (d *Device) SampleSize() (int, error) {
	inner, err := d.live("device.sample_size")
	if err != nil {
		return 0, err
	}
	enabled, err := d.enabledSet(inner)
	if err != nil {
		return 0, err
	}
	_, _, step := backend.ScanLayout(*d.desc(), func(i int, _ backend.ChannelDesc) bool { return enabled[i] })
	return step, nil
}

func (d *Device) enabledSet(inner *InnerContext) (map[int]bool, error) {
	set := make(map[int]bool)
	for i, c := range d.desc().Channels {
		if !c.ScanElement {
			continue
		}
		on, err := inner.conn.ChannelEnabled(c.Ref(d.ID()))
		if err != nil {
			return nil, inner.fail(backendError("device.enabled_channels", ErrIO, err))
		}
		if on {
			set[i] = true
		}
	}
	return set, nil
}

// RegRead reads a debug register.
func (d *Device) RegRead(addr uint32) (uint32, error) {
	inner, err := d.live("device.reg_read")
	if err != nil {
		return 0, err
	}
	v, err := inner.conn.RegRead(d.ID(), addr)
	if err != nil {
		return 0, inner.fail(backendError("device.reg_read", ErrIO, err))
	}
	return v, nil
}

// RegWrite writes a debug register.
func (d *Device) RegWrite(addr, value uint32) error {
	inner, err := d.live("device.reg_write")
	if err != nil {
		return err
	}
	if err := inner.conn.RegWrite(d.ID(), addr, value); err != nil {
		return inner.fail(backendError("device.reg_write", ErrIO, err))
	}
	return nil
}

// Debug returns the device's debug attributes.
func (d *Device) Debug() DebugAttrs {
	return DebugAttrs{dev: d}
}

// BufferAttrs returns the device's buffer attributes.
func (d *Device) BufferAttrs() BufferAttrs {
	return BufferAttrs{dev: d}
}
