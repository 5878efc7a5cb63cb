package inspect

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/industrial-io/iio-go/pkg/iio"
)

// ErrNoAttribute is returned by Read and Write on a partial path.
var ErrNoAttribute = errors.New("path names no attribute")

// Inspector resolves paths against one context.
type Inspector struct {
	ctx *iio.Context
}

// NewInspector creates an Inspector holding its own share of ctx.
func NewInspector(ctx *iio.Context) *Inspector {
	return &Inspector{ctx: ctx.Clone()}
}

// Close releases the Inspector's share of the context.
func (i *Inspector) Close() error {
	return i.ctx.Close()
}

// Context returns the inspected context.
func (i *Inspector) Context() *iio.Context {
	return i.ctx
}

// Target is a resolved path. Close releases the entities it holds.
type Target struct {
	Path  *Path
	Attrs iio.Attributed

	Device  *iio.Device
	Channel *iio.Channel
}

// Close releases the device and channel shares held by t.
func (t *Target) Close() {
	if t.Channel != nil {
		t.Channel.Close()
	}
	if t.Device != nil {
		t.Device.Close()
	}
}

// Resolve looks up the entity p names.
func (i *Inspector) Resolve(p *Path) (*Target, error) {
	t := &Target{Path: p}
	if p.Scope == ScopeContext {
		t.Attrs = i.ctx
		return t, nil
	}

	dev, err := i.ctx.FindDevice(p.Device)
	if err != nil {
		return nil, err
	}
	t.Device = dev

	switch p.Scope {
	case ScopeDevice:
		t.Attrs = dev
	case ScopeDebug:
		t.Attrs = dev.Debug()
	case ScopeBuffer:
		t.Attrs = dev.BufferAttrs()
	case ScopeChannel:
		ch, err := findChannel(dev, p)
		if err != nil {
			dev.Close()
			return nil, err
		}
		t.Channel = ch
		t.Attrs = ch
	}
	return t, nil
}

func findChannel(dev *iio.Device, p *Path) (*iio.Channel, error) {
	switch p.Direction {
	case InputOnly:
		return dev.FindChannel(p.Channel, false)
	case OutputOnly:
		return dev.FindChannel(p.Channel, true)
	}
	ch, err := dev.FindChannel(p.Channel, false)
	if errors.Is(err, iio.ErrNotFound) {
		return dev.FindChannel(p.Channel, true)
	}
	return ch, err
}

func (i *Inspector) resolve(path string) (*Target, error) {
	p, err := ParsePath(path)
	if err != nil {
		return nil, err
	}
	return i.Resolve(p)
}

// Read returns the raw value of the attribute path names.
func (i *Inspector) Read(path string) (string, error) {
	t, err := i.resolve(path)
	if err != nil {
		return "", err
	}
	defer t.Close()
	if t.Path.IsPartial() {
		return "", fmt.Errorf("%w: %s", ErrNoAttribute, path)
	}
	return iio.AttrReadString(t.Attrs, t.Path.Attr)
}

// Write stores value in the attribute path names.
func (i *Inspector) Write(path, value string) error {
	t, err := i.resolve(path)
	if err != nil {
		return err
	}
	defer t.Close()
	if t.Path.IsPartial() {
		return fmt.Errorf("%w: %s", ErrNoAttribute, path)
	}
	return iio.AttrWriteString(t.Attrs, t.Path.Attr, value)
}

// List reads every attribute of the set path names. For a full path it
// returns just that attribute.
func (i *Inspector) List(path string) (map[string]string, error) {
	t, err := i.resolve(path)
	if err != nil {
		return nil, err
	}
	defer t.Close()
	if !t.Path.IsPartial() {
		v, err := iio.AttrReadString(t.Attrs, t.Path.Attr)
		if err != nil {
			return nil, err
		}
		return map[string]string{t.Path.Attr: v}, nil
	}
	return iio.AttrReadAll(t.Attrs)
}

// ContextTree is the complete structure of a context for display.
type ContextTree struct {
	URI         string
	Name        string
	Description string
	Attrs       map[string]string
	Devices     []DeviceInfo
}

// DeviceInfo describes one device.
type DeviceInfo struct {
	ID            string
	Name          string
	Label         string
	IsTrigger     bool
	BufferCapable bool
	Trigger       string
	Attrs         map[string]string
	DebugAttrs    []string
	BufferAttrs   []string
	Channels      []ChannelInfo
}

// ChannelInfo describes one channel.
type ChannelInfo struct {
	ID          string
	Name        string
	Type        iio.ChannelType
	Output      bool
	ScanElement bool
	Index       int
	Format      string
	Attrs       map[string]string
}

// Inspect returns the tree of the whole context. Attribute values that
// fail to read are left out.
func (i *Inspector) Inspect() *ContextTree {
	tree := &ContextTree{
		URI:         i.ctx.URI(),
		Name:        i.ctx.Name(),
		Description: i.ctx.Description(),
		Attrs:       maps.Collect(i.ctx.Attrs()),
	}
	for dev := range i.ctx.Devices() {
		tree.Devices = append(tree.Devices, inspectDevice(dev))
		dev.Close()
	}
	return tree
}

// InspectDevice returns the tree of the device called name.
func (i *Inspector) InspectDevice(name string) (*DeviceInfo, error) {
	dev, err := i.ctx.FindDevice(name)
	if err != nil {
		return nil, err
	}
	defer dev.Close()
	info := inspectDevice(dev)
	return &info, nil
}

func inspectDevice(dev *iio.Device) DeviceInfo {
	info := DeviceInfo{
		ID:            dev.ID(),
		Name:          dev.Name(),
		Label:         dev.Label(),
		IsTrigger:     dev.IsTrigger(),
		BufferCapable: dev.IsBufferCapable(),
		Attrs:         readAll(dev),
		DebugAttrs:    iio.AttrNames(dev.Debug()),
		BufferAttrs:   iio.AttrNames(dev.BufferAttrs()),
	}
	if trig, err := dev.Trigger(); err == nil && trig != nil {
		info.Trigger = trig.ID()
		trig.Close()
	}
	for ch := range dev.Channels() {
		info.Channels = append(info.Channels, ChannelInfo{
			ID:          ch.ID(),
			Name:        ch.Name(),
			Type:        ch.Type(),
			Output:      ch.IsOutput(),
			ScanElement: ch.IsScanElement(),
			Index:       ch.Index(),
			Format:      formatOf(ch),
			Attrs:       readAll(ch),
		})
		ch.Close()
	}
	return info
}

func formatOf(ch *iio.Channel) string {
	if !ch.IsScanElement() {
		return ""
	}
	return ch.Format().String()
}

// readAll reads each attribute on its own so one failure does not hide
// the rest.
func readAll(e iio.Attributed) map[string]string {
	names := iio.AttrNames(e)
	out := make(map[string]string, len(names))
	for _, name := range names {
		if v, err := iio.AttrReadString(e, name); err == nil {
			out[name] = v
		}
	}
	return out
}

// sortedKeys returns the keys of m in order.
func sortedKeys(m map[string]string) []string {
	return slices.Sorted(maps.Keys(m))
}
