package iio

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/backend/memory"
	"github.com/industrial-io/iio-go/pkg/log"
)

// feedYAML describes a device that only produces what a test feeds it.
const feedYAML = `
context:
  name: feed
devices:
  - id: iio:device0
    name: feeder
    channels:
      - id: voltage0
        scan_element: true
        format: "le:u16/16>>0"
`

type fixture struct {
	reg   *backend.Registry
	model *memory.Model
	ctx   *Context
}

func newFixture(t *testing.T, model *memory.Model, opts ...Option) *fixture {
	t.Helper()
	p := memory.NewProvider()
	p.Add(model)
	reg := backend.NewRegistry()
	reg.Register(backend.SchemeMemory, p)

	opts = append([]Option{WithRegistry(reg)}, opts...)
	ctx, err := Open(context.Background(), "mem:"+model.Name(), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ctx.Close() })
	return &fixture{reg: reg, model: model, ctx: ctx}
}

func dummyFixture(t *testing.T, opts ...Option) *fixture {
	return newFixture(t, memory.NewDummy("dummy"), opts...)
}

func feedFixture(t *testing.T, opts ...Option) *fixture {
	m, err := memory.NewModelFromYAML("feed", []byte(feedYAML))
	require.NoError(t, err)
	return newFixture(t, m, opts...)
}

func (f *fixture) device(t *testing.T, name string) *Device {
	t.Helper()
	d, err := f.ctx.FindDevice(name)
	require.NoError(t, err)
	t.Cleanup(func() { _ = d.Close() })
	return d
}

func (f *fixture) channel(t *testing.T, dev, name string, output bool) *Channel {
	t.Helper()
	ch, err := f.device(t, dev).FindChannel(name, output)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ch.Close() })
	return ch
}

// recorder collects events for assertions.
type recorder struct {
	mu     sync.Mutex
	events []log.Event
}

func (r *recorder) Log(e log.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) byCategory(c log.Category) []log.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []log.Event
	for _, e := range r.events {
		if e.Category == c {
			out = append(out, e)
		}
	}
	return out
}
