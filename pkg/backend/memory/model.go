package memory

import (
	"fmt"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/sample"
	"github.com/smallnest/ringbuffer"
)

// DefaultKernelBuffers is the number of kernel blocks allocated per buffer
// when SetKernelBuffersCount was never called.
const DefaultKernelBuffers = 4

// Model is simulated hardware. Every connection opened on the same Model
// sees the same attribute values, triggers, registers and sample streams;
// channel enable masks are per connection, as they are in libiio.
type Model struct {
	name string
	spec *Spec
	desc *backend.Description

	devIndex  map[string]int
	chanIndex map[backend.ChannelRef]int

	mu       sync.Mutex
	cond     *sync.Cond
	attrs    map[attrKey]string
	triggers map[string]string
	kbufs    map[string]uint
	regs     map[string]map[uint32]uint32
	rings    map[string]*deviceRing
	cursor   map[backend.ChannelRef]int
}

type attrKey struct {
	target backend.Target
	name   string
}

// NewModel builds simulated hardware from a validated spec.
func NewModel(name string, spec *Spec) (*Model, error) {
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	m := &Model{
		name:      name,
		spec:      spec,
		desc:      spec.Describe(),
		devIndex:  make(map[string]int),
		chanIndex: make(map[backend.ChannelRef]int),
		attrs:     make(map[attrKey]string),
		triggers:  make(map[string]string),
		kbufs:     make(map[string]uint),
		regs:      make(map[string]map[uint32]uint32),
		rings:     make(map[string]*deviceRing),
		cursor:    make(map[backend.ChannelRef]int),
	}
	m.cond = sync.NewCond(&m.mu)

	for k, v := range spec.Context.Attrs {
		m.attrs[attrKey{backend.ContextTarget(), k}] = v
	}
	for di, d := range spec.Devices {
		m.devIndex[d.ID] = di
		seed(m.attrs, backend.DeviceTarget(d.ID), d.Attrs)
		seed(m.attrs, backend.DebugTarget(d.ID), d.DebugAttrs)
		seed(m.attrs, backend.BufferTarget(d.ID), d.BufferAttrs)
		regs := make(map[uint32]uint32, len(d.Registers))
		for a, v := range d.Registers {
			regs[a] = v
		}
		m.regs[d.ID] = regs
		for ci, c := range d.Channels {
			ref := backend.ChannelRef{Device: d.ID, Channel: c.ID, Output: c.Output}
			m.chanIndex[ref] = ci
			seed(m.attrs, backend.ChannelTarget(ref), c.Attrs)
		}
	}
	return m, nil
}

// NewModelFromYAML parses a YAML description and builds a Model.
func NewModelFromYAML(name string, data []byte) (*Model, error) {
	spec, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return NewModel(name, spec)
}

func seed(dst map[attrKey]string, t backend.Target, attrs map[string]string) {
	for k, v := range attrs {
		dst[attrKey{t, k}] = v
	}
}

// Name returns the name the model was built with.
func (m *Model) Name() string {
	return m.name
}

// Description returns the human-readable context description.
func (m *Model) Description() string {
	return m.desc.Description
}

func (m *Model) device(id string) (*DeviceSpec, error) {
	i, ok := m.devIndex[id]
	if !ok {
		return nil, fmt.Errorf("device %q: %w: %w", id, backend.ErrNotFound, syscall.ENODEV)
	}
	return &m.spec.Devices[i], nil
}

func (m *Model) channel(ref backend.ChannelRef) (*DeviceSpec, *ChannelSpec, error) {
	d, err := m.device(ref.Device)
	if err != nil {
		return nil, nil, err
	}
	i, ok := m.chanIndex[ref]
	if !ok {
		return nil, nil, fmt.Errorf("channel %q on %q: %w: %w", ref.Channel, ref.Device, backend.ErrNotFound, syscall.ENOENT)
	}
	return d, &d.Channels[i], nil
}

func (m *Model) checkTarget(t backend.Target) error {
	switch t.Kind {
	case backend.AttrContext:
		return nil
	case backend.AttrDevice, backend.AttrDebug, backend.AttrBuffer:
		_, err := m.device(t.Device)
		return err
	case backend.AttrChannel:
		_, _, err := m.channel(t.Ref())
		return err
	default:
		return fmt.Errorf("attribute kind %d: %w: %w", t.Kind, backend.ErrUnsupported, syscall.EINVAL)
	}
}

func (m *Model) readAttr(t backend.Target, name string) (string, error) {
	if err := m.checkTarget(t); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.attrs[attrKey{t, name}]
	if !ok {
		return "", fmt.Errorf("%s attribute %q: %w: %w", t.Kind, name, backend.ErrNotFound, syscall.ENOENT)
	}
	return v, nil
}

func (m *Model) writeAttr(t backend.Target, name, value string) (int, error) {
	if err := m.checkTarget(t); err != nil {
		return 0, err
	}
	if t.Kind == backend.AttrContext {
		return 0, fmt.Errorf("context attribute %q is read-only: %w: %w", name, backend.ErrUnsupported, syscall.EACCES)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := attrKey{t, name}
	if _, ok := m.attrs[key]; !ok {
		return 0, fmt.Errorf("%s attribute %q: %w: %w", t.Kind, name, backend.ErrNotFound, syscall.ENOENT)
	}
	m.attrs[key] = strings.TrimRight(value, "\n")
	return len(value), nil
}

func (m *Model) setTrigger(dev, trigger string) error {
	if _, err := m.device(dev); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if trigger == "" {
		delete(m.triggers, dev)
		return nil
	}
	for _, d := range m.spec.Devices {
		if d.Trigger && (d.ID == trigger || d.Name == trigger) {
			m.triggers[dev] = d.ID
			return nil
		}
	}
	return fmt.Errorf("trigger %q: %w: %w", trigger, backend.ErrNotFound, syscall.EINVAL)
}

func (m *Model) trigger(dev string) (string, error) {
	if _, err := m.device(dev); err != nil {
		return "", err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.triggers[dev], nil
}

func (m *Model) setKernelBuffers(dev string, n uint) error {
	if _, err := m.device(dev); err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("kernel buffer count must be positive: %w", syscall.EINVAL)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.kbufs[dev] = n
	return nil
}

func (m *Model) regRead(dev string, addr uint32) (uint32, error) {
	if _, err := m.device(dev); err != nil {
		return 0, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regs[dev][addr], nil
}

func (m *Model) regWrite(dev string, addr, value uint32) error {
	if _, err := m.device(dev); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.regs[dev][addr] = value
	return nil
}

// deviceRing is the kernel side of a device's active buffer.
type deviceRing struct {
	dev     *DeviceSpec
	output  bool
	cyclic  bool
	order   []int
	offsets []int
	step    int
	block   int
	rb      *ringbuffer.RingBuffer
	pushed  bool
}

func (m *Model) openRing(dev string, enabled func(backend.ChannelRef) bool, samples int, cyclic bool) (*deviceRing, error) {
	d, err := m.device(dev)
	if err != nil {
		return nil, err
	}
	desc := m.desc.Devices[m.devIndex[dev]]
	order, offsets, step := backend.ScanLayout(desc, func(_ int, c backend.ChannelDesc) bool {
		return enabled(c.Ref(dev))
	})
	if len(order) == 0 {
		return nil, fmt.Errorf("no channels enabled on %q: %w", dev, syscall.EINVAL)
	}
	output := desc.Channels[order[0]].Output
	for _, i := range order[1:] {
		if desc.Channels[i].Output != output {
			return nil, fmt.Errorf("mixed input and output channels on %q: %w", dev, syscall.EINVAL)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if d.RequiresTrigger && m.triggers[dev] == "" {
		return nil, fmt.Errorf("device %q has no trigger: %w", dev, syscall.EINVAL)
	}
	if _, busy := m.rings[dev]; busy {
		return nil, fmt.Errorf("device %q already has a buffer: %w", dev, syscall.EBUSY)
	}

	kbufs := m.kbufs[dev]
	if kbufs == 0 {
		kbufs = DefaultKernelBuffers
	}
	r := &deviceRing{
		dev:     d,
		output:  output,
		cyclic:  cyclic,
		order:   order,
		offsets: offsets,
		step:    step,
		block:   samples * step,
		rb:      ringbuffer.New(int(kbufs) * samples * step),
	}
	m.rings[dev] = r
	return r, nil
}

func (m *Model) closeRing(dev string, r *deviceRing) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.rings[dev] == r {
		delete(m.rings, dev)
	}
	m.cond.Broadcast()
}

// produce simulates triggers firing until at least one block is queued.
// It only runs for devices whose enabled channels declare samples or carry
// a timestamp. m.mu must be held.
func (m *Model) produce(r *deviceRing) {
	if !m.generates(r) {
		return
	}
	scan := make([]byte, r.step)
	for r.rb.Length() < r.block && r.rb.Free() >= r.step {
		clear(scan)
		for k, ci := range r.order {
			c := &r.dev.Channels[ci]
			f := m.desc.Devices[m.devIndex[r.dev.ID]].Channels[ci].Format
			v := m.nextValue(r.dev.ID, c)
			off := r.offsets[k]
			// Spec.Validate checked every sample and timestamp format.
			for e := 0; e < f.Repeats(); e++ {
				_ = sample.EncodeSigned(scan[off+e*f.WordSize():], v, f)
			}
		}
		_, _ = r.rb.Write(scan)
	}
}

func (m *Model) generates(r *deviceRing) bool {
	for _, ci := range r.order {
		c := &r.dev.Channels[ci]
		if len(c.Samples) > 0 || isTimestamp(c.ID) {
			return true
		}
	}
	return false
}

func (m *Model) nextValue(dev string, c *ChannelSpec) int64 {
	if len(c.Samples) == 0 {
		if isTimestamp(c.ID) {
			return time.Now().UnixNano()
		}
		return 0
	}
	ref := backend.ChannelRef{Device: dev, Channel: c.ID, Output: c.Output}
	i := m.cursor[ref]
	m.cursor[ref] = (i + 1) % len(c.Samples)
	return c.Samples[i]
}

func isTimestamp(id string) bool {
	return strings.HasPrefix(id, "timestamp")
}

// Feed queues raw scans on the input buffer of dev, as if the hardware had
// captured them. It returns the number of bytes accepted, which is less
// than len(data) when the kernel ring is full.
func (m *Model) Feed(dev string, data []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rings[dev]
	if !ok || r.output {
		return 0, fmt.Errorf("device %q has no input buffer: %w", dev, syscall.ENODEV)
	}
	n := min(len(data), r.rb.Free())
	if n == 0 {
		return 0, nil
	}
	written, err := r.rb.Write(data[:n])
	m.cond.Broadcast()
	return written, err
}

// Drain takes everything pushed to the output buffer of dev, as if the
// hardware had consumed it.
func (m *Model) Drain(dev string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.rings[dev]
	if !ok || !r.output {
		return nil, fmt.Errorf("device %q has no output buffer: %w", dev, syscall.ENODEV)
	}
	n := r.rb.Length()
	if n == 0 {
		return nil, nil
	}
	out := make([]byte, n)
	read, err := r.rb.Read(out)
	if r.cyclic {
		// A cyclic buffer repeats forever; the ring keeps its content.
		_, _ = r.rb.Write(out[:read])
	}
	m.cond.Broadcast()
	return out[:read], err
}

// wait blocks on the model condition until ready reports true. It fails
// once the handle is cancelled or closed, when the timeout expires, and at
// once in non-blocking mode. m.mu must be held.
func (m *Model) wait(h *bufferHandle, timeout time.Duration, ready func() bool) error {
	expired := false
	if timeout > 0 {
		t := time.AfterFunc(timeout, func() {
			m.mu.Lock()
			expired = true
			m.cond.Broadcast()
			m.mu.Unlock()
		})
		defer t.Stop()
	}
	for {
		switch {
		case h.cancelled:
			return fmt.Errorf("%w: %w", backend.ErrCancelled, syscall.ECANCELED)
		case h.closed:
			return fmt.Errorf("buffer: %w: %w", backend.ErrClosed, syscall.EBADF)
		case ready():
			return nil
		case !h.blocking:
			return syscall.EAGAIN
		case expired:
			return syscall.ETIMEDOUT
		}
		m.cond.Wait()
	}
}
