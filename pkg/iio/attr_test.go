package iio

import (
	"context"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/backend/mocks"
)

func TestAttrRoundTrip(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")
	ch := f.channel(t, "dummy0", "voltage0", false)

	t.Run("int", func(t *testing.T) {
		require.NoError(t, WriteAttr[int64](d, "sampling_frequency", 2500))
		v, err := ReadAttr[int64](d, "sampling_frequency")
		require.NoError(t, err)
		assert.Equal(t, int64(2500), v)
	})

	t.Run("float", func(t *testing.T) {
		require.NoError(t, AttrWriteFloat(ch, "scale", 0.000152587890625))
		v, err := AttrReadFloat(ch, "scale")
		require.NoError(t, err)
		assert.Equal(t, 0.000152587890625, v)
	})

	t.Run("bool", func(t *testing.T) {
		require.NoError(t, AttrWriteBool(ch, "offset", true))
		raw, err := AttrReadString(ch, "offset")
		require.NoError(t, err)
		assert.Equal(t, "1", raw)
		v, err := AttrReadBool(ch, "offset")
		require.NoError(t, err)
		assert.True(t, v)
	})

	t.Run("string", func(t *testing.T) {
		require.NoError(t, AttrWriteString(ch, "raw", "-17"))
		v, err := AttrReadInt(ch, "raw")
		require.NoError(t, err)
		assert.Equal(t, int64(-17), v)
	})
}

func TestAttrErrors(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")

	_, err := AttrReadString(d, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, WriteAttr(d, "missing", "1"), ErrNotFound)

	require.NoError(t, AttrWriteString(d, "sampling_frequency", "fast"))
	_, err = AttrReadInt(d, "sampling_frequency")
	assert.ErrorIs(t, err, ErrWrongDataType)
	_, err = AttrReadFloat(d, "sampling_frequency")
	assert.ErrorIs(t, err, ErrWrongDataType)
	_, err = AttrReadBool(d, "sampling_frequency")
	assert.ErrorIs(t, err, ErrWrongDataType)
}

func TestContextAttrsAreStatic(t *testing.T) {
	f := dummyFixture(t)

	v, err := AttrReadString(f.ctx, "local,kernel")
	require.NoError(t, err)
	assert.Equal(t, "6.1.0-iio", v)

	assert.ErrorIs(t, AttrWriteString(f.ctx, "local,kernel", "7"), ErrUnsupported)
	assert.True(t, HasAttr(f.ctx, "uri"))
	assert.False(t, HasAttr(f.ctx, "nope"))
}

func TestDebugAndBufferAttrs(t *testing.T) {
	f := dummyFixture(t)
	d := f.device(t, "dummy0")

	v, err := AttrReadInt(d.Debug(), "direct_reg_access")
	require.NoError(t, err)
	assert.Equal(t, int64(0), v)

	n, err := AttrReadInt(d.BufferAttrs(), "length")
	require.NoError(t, err)
	assert.Equal(t, int64(128), n)

	assert.Equal(t, []string{"length", "watermark"}, AttrNames(d.BufferAttrs()))
	assert.False(t, HasAttr(d, "length"))
}

func TestAttrReadAll(t *testing.T) {
	f := dummyFixture(t)
	ch := f.channel(t, "dummy0", "accel_x", false)

	all, err := AttrReadAll(ch)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"raw": "34", "calibbias": "0"}, all)

	ctxAttrs, err := AttrReadAll(f.ctx)
	require.NoError(t, err)
	assert.Len(t, ctxAttrs, 2)
}

func TestAttrBadReturnSize(t *testing.T) {
	desc := &backend.Description{
		Devices: []backend.DeviceDesc{{ID: "iio:device0", Attrs: []string{"sampling_frequency"}}},
	}
	conn := mocks.NewMockConn(t)
	conn.On("Describe").Return(desc, nil)
	conn.On("Close").Return(nil)
	target := backend.DeviceTarget("iio:device0")
	conn.On("WriteAttr", target, "sampling_frequency", "250").Return(2, nil)
	conn.On("WriteAttr", target, "sampling_frequency", "9").Return(0, syscall.EINVAL)

	ctx, err := Open(context.Background(), "mock:ctx", WithRegistry(mockRegistry(t, conn)))
	require.NoError(t, err)
	defer ctx.Close()
	d, err := ctx.Device(0)
	require.NoError(t, err)
	defer d.Close()

	err = AttrWriteInt(d, "sampling_frequency", 250)
	assert.ErrorIs(t, err, ErrBadReturnSize)

	err = AttrWriteInt(d, "sampling_frequency", 9)
	assert.ErrorIs(t, err, ErrIO)
	e, ok := err.(*Error)
	require.True(t, ok)
	assert.Equal(t, syscall.EINVAL, e.Code)
}

func TestParseBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
		ok   bool
	}{
		{"1", true, true},
		{"0", false, true},
		{"Y", true, true},
		{"n", false, true},
		{"true", true, true},
		{" 1\n", true, true},
		{"2", true, true},
		{"0x0", false, true},
		{"maybe", false, false},
		{"", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, ok := parseBool(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatAttr(t *testing.T) {
	assert.Equal(t, "1", formatAttr(true))
	assert.Equal(t, "0", formatAttr(false))
	assert.Equal(t, "-42", formatAttr(int64(-42)))
	assert.Equal(t, "0.1", formatAttr(0.1))
	assert.Equal(t, "1e+21", formatAttr(1e21))
	assert.Equal(t, "x", formatAttr("x"))
}
