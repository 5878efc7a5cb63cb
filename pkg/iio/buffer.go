package iio

import (
	"iter"
	"sync/atomic"
	"time"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
	"github.com/industrial-io/iio-go/pkg/sample"
)

// Buffer moves blocks of samples between a device and memory. Its channel
// set is fixed when it is built.
//
// A Buffer is driven by one goroutine at a time. Refill and Push fail with
// ErrConcurrentUse while another transfer is in flight; Cancel may be
// called from anywhere.
type Buffer struct {
	dev    *Device
	inner  *InnerContext
	handle backend.BufferHandle

	chans   []int       // channel indexes in scan order
	offsets []int       // byte offset of each channel within a scan
	pos     map[int]int // channel index -> position in chans
	step    int
	samples int
	cyclic  bool
	output  bool

	valid  atomic.Int64 // samples valid in the block
	busy   atomic.Bool
	gen    atomic.Uint64
	closed atomic.Bool
}

// CreateBuffer builds a buffer over the channels currently enabled on d.
func (d *Device) CreateBuffer(sampleCount int, cyclic bool) (*Buffer, error) {
	inner, err := d.live("device.create_buffer")
	if err != nil {
		return nil, err
	}
	enabled, err := d.enabledSet(inner)
	if err != nil {
		return nil, newError(ErrBuild, "device.create_buffer", err)
	}
	return d.openBuffer(inner, "device.create_buffer", enabled, sampleCount, cyclic)
}

// BuildBuffer enables exactly chans on d, disabling every other scan
// element, and builds a buffer over them.
func (d *Device) BuildBuffer(chans []*Channel, sampleCount int, cyclic bool) (*Buffer, error) {
	const op = "device.build_buffer"
	inner, err := d.live(op)
	if err != nil {
		return nil, err
	}
	want := make(map[int]bool, len(chans))
	for _, ch := range chans {
		if !ch.dev.SameAs(d) {
			return nil, inner.fail(errorf(ErrBuild, op, "channel %s belongs to %s, not %s", ch.ID(), ch.dev.ID(), d.ID()))
		}
		if !ch.IsScanElement() {
			return nil, inner.fail(errorf(ErrBuild, op, "channel %s is not a scan element", ch.ID()))
		}
		want[ch.idx] = true
	}
	prev, err := d.enabledSet(inner)
	if err != nil {
		return nil, newError(ErrBuild, op, err)
	}
	if err := d.applyEnabled(inner, want); err != nil {
		d.restoreEnabled(inner, prev)
		return nil, inner.fail(backendError(op, ErrBuild, err))
	}
	b, err := d.openBuffer(inner, op, want, sampleCount, cyclic)
	if err != nil {
		d.restoreEnabled(inner, prev)
		return nil, err
	}
	return b, nil
}

// applyEnabled sets the enable state of every scan element of d to set.
func (d *Device) applyEnabled(inner *InnerContext, set map[int]bool) error {
	for i, c := range d.desc().Channels {
		if !c.ScanElement {
			continue
		}
		if err := inner.conn.SetChannelEnabled(c.Ref(d.ID()), set[i]); err != nil {
			return err
		}
	}
	return nil
}

// restoreEnabled puts back the enable state a failed build found. A
// failure here is logged; the build error is what the caller sees.
func (d *Device) restoreEnabled(inner *InnerContext, prev map[int]bool) {
	if err := d.applyEnabled(inner, prev); err != nil {
		inner.debugLog("restore enabled channels", "device", d.ID(), "error", err)
	}
}

func (d *Device) openBuffer(inner *InnerContext, op string, enabled map[int]bool, sampleCount int, cyclic bool) (*Buffer, error) {
	if !d.IsBufferCapable() {
		return nil, inner.fail(errorf(ErrBuild, op, "%s is not buffer capable", d.ID()))
	}
	if sampleCount <= 0 {
		return nil, inner.fail(errorf(ErrBuild, op, "sample count %d", sampleCount))
	}
	desc := d.desc()
	order, offsets, step := backend.ScanLayout(*desc, func(i int, _ backend.ChannelDesc) bool { return enabled[i] })
	if len(order) == 0 {
		return nil, inner.fail(errorf(ErrBuild, op, "no channel enabled on %s", d.ID()))
	}
	output := desc.Channels[order[0]].Output
	for _, i := range order[1:] {
		if desc.Channels[i].Output != output {
			return nil, inner.fail(errorf(ErrBuild, op, "input and output channels mixed on %s", d.ID()))
		}
	}

	h, err := inner.conn.OpenBuffer(d.ID(), sampleCount, cyclic)
	if err != nil {
		e := newError(ErrBuild, op, err)
		return nil, inner.fail(e)
	}
	if h.Step() != step || len(h.Data()) != sampleCount*step {
		_ = h.Close()
		return nil, inner.fail(errorf(ErrBuild, op, "backend block of %d bytes with step %d, expected %d x %d",
			len(h.Data()), h.Step(), sampleCount, step))
	}

	b := &Buffer{
		dev:     d.Clone(),
		inner:   inner,
		handle:  h,
		chans:   order,
		offsets: offsets,
		pos:     make(map[int]int, len(order)),
		step:    step,
		samples: sampleCount,
		cyclic:  cyclic,
		output:  output,
	}
	for k, i := range order {
		b.pos[i] = k
	}
	if output {
		b.valid.Store(int64(sampleCount))
	}
	inner.debugLog("buffer created", "device", d.ID(), "samples", sampleCount, "step", step, "cyclic", cyclic)
	inner.emitTransfer(d.ID(), b.direction(), log.TransferEvent{
		Op:      log.TransferCreate,
		Samples: sampleCount,
		Bytes:   sampleCount * step,
		Cyclic:  cyclic,
	})
	return b, nil
}

func (b *Buffer) direction() log.Direction {
	if b.output {
		return log.DirectionOut
	}
	return log.DirectionIn
}

// Device returns another reference to the buffer's device.
func (b *Buffer) Device() *Device { return b.dev.Clone() }

// Capacity returns the number of samples per block.
func (b *Buffer) Capacity() int { return b.samples }

// Step returns the size of one scan in bytes.
func (b *Buffer) Step() int { return b.step }

// IsCyclic reports whether the buffer repeats its first push forever.
func (b *Buffer) IsCyclic() bool { return b.cyclic }

// IsOutput reports whether the buffer pushes to the device.
func (b *Buffer) IsOutput() bool { return b.output }

// Valid returns the number of samples in the block from the last transfer.
func (b *Buffer) Valid() int { return int(b.valid.Load()) }

// Channels yields the buffer's channels in scan order.
func (b *Buffer) Channels() iter.Seq[*Channel] {
	return func(yield func(*Channel) bool) {
		for _, i := range b.chans {
			if !yield(newChannel(b.dev.Clone(), i)) {
				return
			}
		}
	}
}

// Has reports whether ch is in the buffer's channel set.
func (b *Buffer) Has(ch *Channel) bool {
	_, ok := b.pos[ch.idx]
	return ok && ch.dev.SameAs(b.dev)
}

func (b *Buffer) begin(op string) error {
	if b.closed.Load() {
		return closedError(op)
	}
	if !b.busy.CompareAndSwap(false, true) {
		return errorf(ErrConcurrentUse, op, "another transfer is in flight")
	}
	b.gen.Add(1)
	return nil
}

// Refill blocks until the device has captured a full block and returns the
// number of samples now in the buffer.
func (b *Buffer) Refill() (int, error) {
	const op = "buffer.refill"
	if b.output {
		return 0, errorf(ErrUnsupported, op, "refill on an output buffer")
	}
	if err := b.begin(op); err != nil {
		return 0, err
	}
	defer b.busy.Store(false)

	start := time.Now()
	n, err := b.handle.Refill()
	if err != nil {
		b.valid.Store(0)
		return 0, b.inner.fail(backendError(op, ErrTransfer, err))
	}
	samples := n / b.step
	b.valid.Store(int64(samples))
	b.inner.emitTransfer(b.dev.ID(), log.DirectionIn, log.TransferEvent{
		Op:       log.TransferRefill,
		Samples:  samples,
		Bytes:    n,
		Duration: time.Since(start),
	})
	return samples, nil
}

// Push sends the whole block to the device.
func (b *Buffer) Push() (int, error) {
	return b.PushPartial(b.samples)
}

// PushPartial sends the first n samples of the block and returns the
// number of samples sent.
func (b *Buffer) PushPartial(n int) (int, error) {
	const op = "buffer.push"
	if !b.output {
		return 0, errorf(ErrUnsupported, op, "push on an input buffer")
	}
	if n <= 0 || n > b.samples {
		return 0, errorf(ErrInvalidIndex, op, "%d samples, capacity %d", n, b.samples)
	}
	if err := b.begin(op); err != nil {
		return 0, err
	}
	defer b.busy.Store(false)

	start := time.Now()
	written, err := b.handle.Push(n)
	if err != nil {
		return 0, b.inner.fail(backendError(op, ErrTransfer, err))
	}
	b.inner.emitTransfer(b.dev.ID(), log.DirectionOut, log.TransferEvent{
		Op:       log.TransferPush,
		Samples:  written / b.step,
		Bytes:    written,
		Cyclic:   b.cyclic,
		Duration: time.Since(start),
	})
	return written / b.step, nil
}

// Cancel aborts a blocked Refill or Push. Every later transfer fails.
func (b *Buffer) Cancel() {
	b.handle.Cancel()
	b.inner.emitTransfer(b.dev.ID(), b.direction(), log.TransferEvent{Op: log.TransferCancel})
}

// SetBlocking selects whether transfers wait for the device.
func (b *Buffer) SetBlocking(blocking bool) error {
	if b.closed.Load() {
		return closedError("buffer.set_blocking")
	}
	if err := b.handle.SetBlocking(blocking); err != nil {
		return b.inner.fail(backendError("buffer.set_blocking", ErrIO, err))
	}
	return nil
}

// Close releases the backend buffer and the buffer's device reference. It
// is idempotent.
func (b *Buffer) Close() error {
	if !b.closed.CompareAndSwap(false, true) {
		return nil
	}
	b.gen.Add(1)
	err := b.handle.Close()
	b.inner.emitTransfer(b.dev.ID(), b.direction(), log.TransferEvent{Op: log.TransferClose})
	if cerr := b.dev.Close(); err == nil && cerr != nil {
		return cerr
	}
	if err != nil {
		return newError(ErrIO, "buffer.close", err)
	}
	return nil
}

func (b *Buffer) attrScope(op string) (attrScope, error) {
	if b.closed.Load() {
		return attrScope{}, closedError(op)
	}
	return b.dev.BufferAttrs().attrScope(op)
}

// element locates ch in the block.
func (b *Buffer) element(op string, ch *Channel) (offset int, f sample.Format, err error) {
	if b.closed.Load() {
		return 0, f, closedError(op)
	}
	if !b.Has(ch) {
		return 0, f, errorf(ErrNotEnabled, op, "channel %s", ch.ID())
	}
	return b.offsets[b.pos[ch.idx]], ch.Format(), nil
}

// rawWords yields every storage word of one channel in the block, one per
// repeat element. It stops as soon as another transfer starts.
func (b *Buffer) rawWords(offset int, f sample.Format) iter.Seq2[int, []byte] {
	return func(yield func(int, []byte) bool) {
		g := b.gen.Load()
		data := b.handle.Data()
		word, reps := f.WordSize(), f.Repeats()
		n := 0
		for s := range int(b.valid.Load()) {
			base := s*b.step + offset
			for e := range reps {
				if b.gen.Load() != g {
					return
				}
				off := base + e*word
				if !yield(n, data[off:off+word:off+word]) {
					return
				}
				n++
			}
		}
	}
}

// RawSamples yields the raw storage words of ch. The slices alias the
// block, so writing to them changes what the next Push sends.
func (b *Buffer) RawSamples(ch *Channel) (iter.Seq2[int, []byte], error) {
	offset, f, err := b.element("buffer.raw_samples", ch)
	if err != nil {
		return nil, err
	}
	return b.rawWords(offset, f), nil
}

// Values yields the decoded samples of ch in b.
func Values[T sample.Number](b *Buffer, ch *Channel) (iter.Seq[T], error) {
	offset, f, err := b.element("buffer.values", ch)
	if err != nil {
		return nil, err
	}
	words := b.rawWords(offset, f)
	return func(yield func(T) bool) {
		for _, raw := range words {
			if !yield(sample.DecodeAs[T](raw, f)) {
				return
			}
		}
	}, nil
}

// Slot is a write-through reference to one sample in a buffer block.
type Slot[T sample.Number] struct {
	raw    []byte
	format sample.Format
}

// Get decodes the sample.
func (s Slot[T]) Get() T {
	return sample.DecodeAs[T](s.raw, s.format)
}

// Set encodes v into the block. It fails with ErrRange when v does not fit.
func (s Slot[T]) Set(v T) error {
	return sample.EncodeAs(s.raw, v, s.format)
}

// Slots yields write-through references to the samples of ch in b.
func Slots[T sample.Number](b *Buffer, ch *Channel) (iter.Seq2[int, Slot[T]], error) {
	offset, f, err := b.element("buffer.slots", ch)
	if err != nil {
		return nil, err
	}
	words := b.rawWords(offset, f)
	return func(yield func(int, Slot[T]) bool) {
		for i, raw := range words {
			if !yield(i, Slot[T]{raw: raw, format: f}) {
				return
			}
		}
	}, nil
}

// Read returns the decoded samples of ch in b.
func Read[T sample.Number](b *Buffer, ch *Channel) ([]T, error) {
	values, err := Values[T](b, ch)
	if err != nil {
		return nil, err
	}
	out := make([]T, 0, b.Valid()*ch.Format().Repeats())
	for v := range values {
		out = append(out, v)
	}
	return out, nil
}

// Write encodes values into the slots of ch in b, in order, and returns the
// number written. It stops at the end of the block or at the first value
// that does not fit.
func Write[T sample.Number](b *Buffer, ch *Channel, values []T) (int, error) {
	slots, err := Slots[T](b, ch)
	if err != nil {
		return 0, err
	}
	n := 0
	for i, slot := range slots {
		if i >= len(values) {
			break
		}
		if err := slot.Set(values[i]); err != nil {
			return n, newError(ErrRange, "buffer.write", err)
		}
		n++
	}
	return n, nil
}
