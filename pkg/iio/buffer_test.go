package iio

import (
	"context"
	"encoding/binary"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/backend/mocks"
	"github.com/industrial-io/iio-go/pkg/log"
	"github.com/industrial-io/iio-go/pkg/sample"
)

func TestRefillDummyVoltage0(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	ch := f.channel(t, "dummy0", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)
	defer buf.Close()
	assert.Equal(t, 4, buf.Capacity())
	assert.Equal(t, 2, buf.Step())

	n, err := buf.Refill()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	raw, err := buf.RawSamples(ch)
	require.NoError(t, err)
	var rawWant []int16
	for _, word := range raw {
		rawWant = append(rawWant, int16(binary.LittleEndian.Uint16(word)))
	}

	values, err := Read[int16](buf, ch)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3, 4}, values)
	assert.Equal(t, rawWant, values)

	// Restartable: a second pass sees the same block.
	again, err := Values[int64](buf, ch)
	require.NoError(t, err)
	var sum int64
	for v := range again {
		sum += v
	}
	assert.Equal(t, int64(10), sum)
}

func TestBufferChannelSetAndOrder(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	v0 := f.channel(t, "dummy0", "voltage0", false)
	v1 := f.channel(t, "dummy0", "voltage1", false)
	accel := f.channel(t, "dummy0", "accel_x", false)

	// Previously enabled channels outside the requested set are dropped.
	require.NoError(t, accel.Enable())

	buf, err := d.BuildBuffer([]*Channel{v1, v0}, 8, false)
	require.NoError(t, err)
	defer buf.Close()

	var ids []string
	for ch := range buf.Channels() {
		ids = append(ids, ch.ID())
		require.NoError(t, ch.Close())
	}
	assert.Equal(t, []string{"voltage0", "voltage1"}, ids)
	assert.True(t, buf.Has(v0))
	assert.False(t, buf.Has(accel))

	n, err := buf.Refill()
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	got1, err := Read[int16](buf, v1)
	require.NoError(t, err)
	assert.Equal(t, []int16{-1, -2, 2047, -2048, -1, -2, 2047, -2048}, got1)

	_, err = Values[int32](buf, accel)
	assert.ErrorIs(t, err, ErrNotEnabled)
	_, err = buf.RawSamples(accel)
	assert.ErrorIs(t, err, ErrNotEnabled)
}

func TestCreateBufferUsesEnabledChannels(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	accel := f.channel(t, "dummy0", "accel_x", false)

	_, err := d.CreateBuffer(4, false)
	assert.ErrorIs(t, err, ErrBuild)

	require.NoError(t, accel.Enable())
	buf, err := d.CreateBuffer(2, false)
	require.NoError(t, err)
	defer buf.Close()

	_, err = buf.Refill()
	require.NoError(t, err)
	got, err := Read[int32](buf, accel)
	require.NoError(t, err)
	assert.Equal(t, []int32{100, -100}, got)

	// The set is fixed at build time.
	require.NoError(t, accel.Disable())
	assert.True(t, buf.Has(accel))
}

func TestBuildBufferErrors(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	v0 := f.channel(t, "dummy0", "voltage0", false)
	temp := f.channel(t, "dummy0", "temp", false)
	dacOut := f.channel(t, "dummy_dac", "voltage0", true)
	trig := f.device(t, "trigger0")

	tests := []struct {
		name  string
		build func() (*Buffer, error)
	}{
		{"zero samples", func() (*Buffer, error) { return d.BuildBuffer([]*Channel{v0}, 0, false) }},
		{"no channels", func() (*Buffer, error) { return d.BuildBuffer(nil, 4, false) }},
		{"foreign channel", func() (*Buffer, error) { return d.BuildBuffer([]*Channel{dacOut}, 4, false) }},
		{"not a scan element", func() (*Buffer, error) { return d.BuildBuffer([]*Channel{temp}, 4, false) }},
		{"not buffer capable", func() (*Buffer, error) { return trig.CreateBuffer(4, false) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.build()
			assert.ErrorIs(t, err, ErrBuild)
		})
	}
}

func TestBuildBufferDeviceBusy(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	v0 := f.channel(t, "dummy0", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{v0}, 4, false)
	require.NoError(t, err)

	_, err = d.BuildBuffer([]*Channel{v0}, 4, false)
	assert.ErrorIs(t, err, ErrBuild)
	assert.ErrorIs(t, err, syscall.EBUSY)

	require.NoError(t, buf.Close())
	require.NoError(t, buf.Close())
	buf, err = d.BuildBuffer([]*Channel{v0}, 4, false)
	require.NoError(t, err)
	require.NoError(t, buf.Close())
}

func TestBuildBufferFailureRestoresEnabledChannels(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	v0 := f.channel(t, "dummy0", "voltage0", false)
	v1 := f.channel(t, "dummy0", "voltage1", false)

	buf, err := d.BuildBuffer([]*Channel{v0}, 4, false)
	require.NoError(t, err)
	defer buf.Close()
	before, err := d.SampleSize()
	require.NoError(t, err)

	_, err = d.BuildBuffer([]*Channel{v1}, 4, false)
	require.ErrorIs(t, err, ErrBuild)
	assert.ErrorIs(t, err, syscall.EBUSY)

	on, err := v0.IsEnabled()
	require.NoError(t, err)
	assert.True(t, on, "voltage0 stays enabled")
	on, err = v1.IsEnabled()
	require.NoError(t, err)
	assert.False(t, on, "voltage1 stays disabled")

	after, err := d.SampleSize()
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestBuildBufferZeroSamplesRestoresEnabledChannels(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	v0 := f.channel(t, "dummy0", "voltage0", false)
	v1 := f.channel(t, "dummy0", "voltage1", false)
	require.NoError(t, v1.Enable())

	_, err := d.BuildBuffer([]*Channel{v0}, 0, false)
	require.ErrorIs(t, err, ErrBuild)

	on, err := v0.IsEnabled()
	require.NoError(t, err)
	assert.False(t, on)
	on, err = v1.IsEnabled()
	require.NoError(t, err)
	assert.True(t, on)
}

func TestBufferOutlivesContextAndDevice(t *testing.T) {
	f := dummyFixture(t)
	d, err := f.ctx.FindDevice("dummy0")
	require.NoError(t, err)
	ch, err := d.FindChannel("voltage0", false)
	require.NoError(t, err)

	buf, err := d.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)

	require.NoError(t, d.Close())
	require.NoError(t, f.ctx.Close())

	_, err = buf.Refill()
	require.NoError(t, err)
	values, err := Read[int16](buf, ch)
	require.NoError(t, err)
	assert.Len(t, values, 4)

	require.NoError(t, buf.Close())
	assert.Equal(t, 1, ch.dev.ctx.Refs())
	require.NoError(t, ch.Close())
}

func TestIteratorStopsAtNextRefill(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	ch := f.channel(t, "dummy0", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)
	defer buf.Close()
	_, err = buf.Refill()
	require.NoError(t, err)

	values, err := Values[int16](buf, ch)
	require.NoError(t, err)
	seen := 0
	for range values {
		seen++
		_, err := buf.Refill()
		require.NoError(t, err)
	}
	assert.Equal(t, 1, seen)
}

func TestIterBeforeRefillIsEmpty(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	ch := f.channel(t, "dummy0", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)
	defer buf.Close()

	values, err := Read[int16](buf, ch)
	require.NoError(t, err)
	assert.Empty(t, values)
}

func TestPushToDAC(t *testing.T) {
	f := dummyFixture(t)
	dac := f.device(t, "dummy_dac")
	out := f.channel(t, "dummy_dac", "voltage0", true)

	buf, err := dac.BuildBuffer([]*Channel{out}, 4, false)
	require.NoError(t, err)
	defer buf.Close()
	assert.True(t, buf.IsOutput())

	_, err = buf.Refill()
	assert.ErrorIs(t, err, ErrUnsupported)

	n, err := Write(buf, out, []uint16{10, 20, 30, 40, 50})
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	pushed, err := buf.Push()
	require.NoError(t, err)
	assert.Equal(t, 4, pushed)

	data, err := f.model.Drain("iio:device1")
	require.NoError(t, err)
	assert.Equal(t, []byte{10, 0, 20, 0, 30, 0, 40, 0}, data)

	slots, err := Slots[int](buf, out)
	require.NoError(t, err)
	for i, s := range slots {
		assert.Equal(t, (i+1)*10, s.Get())
		require.NoError(t, s.Set(i))
	}
	pushed, err = buf.PushPartial(2)
	require.NoError(t, err)
	assert.Equal(t, 2, pushed)
	data, err = f.model.Drain("iio:device1")
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 0, 1, 0}, data)

	_, err = buf.PushPartial(5)
	assert.ErrorIs(t, err, ErrInvalidIndex)

	_, err = Write(buf, out, []int{-1})
	assert.ErrorIs(t, err, ErrRange)
}

func TestCancelUnblocksRefill(t *testing.T) {
	f := feedFixture(t)
	d := f.device(t, "feeder")
	ch := f.channel(t, "feeder", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 2, false)
	require.NoError(t, err)
	defer buf.Close()

	done := make(chan error, 1)
	go func() {
		_, err := buf.Refill()
		done <- err
	}()
	time.Sleep(10 * time.Millisecond)
	buf.Cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrTransfer)
		assert.ErrorIs(t, err, syscall.ECANCELED)
	case <-time.After(2 * time.Second):
		t.Fatal("refill not cancelled")
	}
}

func TestRefillTimeout(t *testing.T) {
	f := feedFixture(t, WithTimeout(15*time.Millisecond))
	d := f.device(t, "feeder")
	ch := f.channel(t, "feeder", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 1, false)
	require.NoError(t, err)
	defer buf.Close()

	_, err = buf.Refill()
	assert.ErrorIs(t, err, ErrTransfer)
	assert.ErrorIs(t, err, syscall.ETIMEDOUT)

	// Failures leave the buffer usable.
	_, err = f.model.Feed("iio:device0", []byte{0x34, 0x12})
	require.NoError(t, err)
	n, err := buf.Refill()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	got, err := Read[uint16](buf, ch)
	require.NoError(t, err)
	assert.Equal(t, []uint16{0x1234}, got)
}

func TestNonBlockingRefill(t *testing.T) {
	f := feedFixture(t)
	d := f.device(t, "feeder")
	ch := f.channel(t, "feeder", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 1, false)
	require.NoError(t, err)
	defer buf.Close()
	require.NoError(t, buf.SetBlocking(false))

	_, err = buf.Refill()
	assert.ErrorIs(t, err, syscall.EAGAIN)
	assert.Equal(t, 0, buf.Valid())
}

func TestConcurrentRefillFailsFast(t *testing.T) {
	desc := &backend.Description{
		Devices: []backend.DeviceDesc{{
			ID: "iio:device0",
			Channels: []backend.ChannelDesc{{
				ID: "voltage0", ScanElement: true, Index: 0,
				Format: sample.MustParse("le:u8/8>>0"),
			}},
		}},
	}
	ref := backend.ChannelRef{Device: "iio:device0", Channel: "voltage0"}
	release := make(chan struct{})
	entered := make(chan struct{})

	h := mocks.NewMockBufferHandle(t)
	h.On("Step").Return(1)
	h.On("Data").Return(make([]byte, 4))
	h.On("Refill").Run(func(mock.Arguments) {
		close(entered)
		<-release
	}).Return(4, nil).Once()
	h.On("Close").Return(nil)

	conn := mocks.NewMockConn(t)
	conn.On("Describe").Return(desc, nil)
	conn.On("SetChannelEnabled", ref, true).Return(nil)
	conn.On("OpenBuffer", "iio:device0", 4, false).Return(h, nil)
	conn.On("Close").Return(nil)

	ctx, err := Open(context.Background(), "mock:ctx", WithRegistry(mockRegistry(t, conn)))
	require.NoError(t, err)
	defer ctx.Close()
	d, err := ctx.Device(0)
	require.NoError(t, err)
	defer d.Close()
	ch, err := d.Channel(0)
	require.NoError(t, err)
	defer ch.Close()

	buf, err := d.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)
	defer buf.Close()

	done := make(chan error, 1)
	go func() {
		_, err := buf.Refill()
		done <- err
	}()
	<-entered

	_, err = buf.Refill()
	assert.ErrorIs(t, err, ErrConcurrentUse)

	close(release)
	require.NoError(t, <-done)
}

func TestBufferAttrsAndEvents(t *testing.T) {
	rec := &recorder{}
	f := dummyFixture(t, WithEventLogger(rec))
	d := f.device(t, "dummy0")
	ch := f.channel(t, "dummy0", "voltage0", false)

	buf, err := d.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)

	n, err := AttrReadInt(buf, "watermark")
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = buf.Refill()
	require.NoError(t, err)
	require.NoError(t, buf.Close())

	_, err = AttrReadInt(buf, "watermark")
	assert.ErrorIs(t, err, ErrClosed)
	_, err = buf.Refill()
	assert.ErrorIs(t, err, ErrClosed)

	var ops []log.TransferOp
	for _, e := range rec.byCategory(log.CategoryTransfer) {
		ops = append(ops, e.Transfer.Op)
	}
	assert.Equal(t, []log.TransferOp{log.TransferCreate, log.TransferRefill, log.TransferClose}, ops)
}
