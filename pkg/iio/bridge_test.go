package iio

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/backend/memory"
	"github.com/industrial-io/iio-go/pkg/backend/remote"
)

// TestContextOverBridge drives the full API through an ip: context served
// by a loopback bridge over the dummy model.
func TestContextOverBridge(t *testing.T) {
	p := memory.NewProvider()
	p.Add(memory.NewDummy("dummy"))
	reg := backend.NewRegistry()
	reg.Register(backend.SchemeMemory, p)
	reg.Register(backend.SchemeIP, &remote.Provider{})

	srv, err := remote.NewServer(remote.ServerConfig{
		Address:  "127.0.0.1:0",
		URI:      "mem:dummy",
		Registry: reg,
	})
	require.NoError(t, err)
	require.NoError(t, srv.Start(context.Background()))
	defer srv.Stop()

	uri := "ip:" + srv.Addr().String()
	ctx, err := Open(context.Background(), uri, WithRegistry(reg))
	require.NoError(t, err)
	defer ctx.Close()

	assert.Equal(t, uri, ctx.URI())
	assert.Equal(t, "dummy", ctx.Name())

	dev, err := ctx.FindDevice("dummy0")
	require.NoError(t, err)
	defer dev.Close()

	freq, err := AttrReadInt(dev, "sampling_frequency")
	require.NoError(t, err)
	assert.Equal(t, int64(100), freq)

	ch, err := dev.FindChannel("voltage0", false)
	require.NoError(t, err)
	defer ch.Close()

	buf, err := dev.BuildBuffer([]*Channel{ch}, 4, false)
	require.NoError(t, err)
	defer buf.Close()

	n, err := buf.Refill()
	require.NoError(t, err)
	assert.Equal(t, 4, n)

	values, err := Read[int16](buf, ch)
	require.NoError(t, err)
	assert.Equal(t, []int16{1, 2, 3, 4}, values)
}
