package main

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	c, err := parseFlags(nil)
	require.NoError(t, err)
	assert.Equal(t, "dummy0", c.Device)
	assert.Equal(t, "voltage0", c.Channel)
	assert.Equal(t, 100, c.Samples)

	_, err = parseFlags([]string{"-b", "0"})
	assert.Error(t, err)
}

func TestParseFlagsRemoteTrigger(t *testing.T) {
	c, err := parseFlags(strings.Fields("-n 10.0.0.5 -d ads1015 -c voltage3 -t trigger0 -r 100"))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.5", c.ctx.Network)
	assert.Equal(t, "ads1015", c.Device)
	assert.Equal(t, "voltage3", c.Channel)
	assert.Equal(t, "trigger0", c.Trigger)
	assert.Equal(t, int64(100), c.Rate)
}

func TestRunAveragesBlocks(t *testing.T) {
	c, err := parseFlags([]string{"-u", "mem:dummy", "-b", "4", "-count", "3", "-raw", "-t", "trigger0", "-r", "200"})
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, run(context.Background(), c, &out))

	s := out.String()
	assert.Contains(t, s, "Using device: dummy0")
	assert.Contains(t, s, "Offset: 0.000, Scale: 0.500")
	// voltage0 produces 1,2,3,4: (2.5 + 0) * 0.5 / 1000.
	assert.Equal(t, 3, strings.Count(s, "<0.00125> - [1 2 3 4]"))
}

func TestRunStopsOnCancel(t *testing.T) {
	c, err := parseFlags([]string{"-u", "mem:dummy", "-b", "4"})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	assert.NoError(t, run(ctx, c, &bytes.Buffer{}))
}

func TestRunErrors(t *testing.T) {
	for _, args := range [][]string{
		{"-u", "mem:dummy", "-d", "nope"},
		{"-u", "mem:dummy", "-c", "nope"},
		{"-u", "mem:dummy", "-t", "nope"},
		{"-u", "mem:dummy", "-c", "temp"},
	} {
		c, err := parseFlags(append(args, "-count", "1"))
		require.NoError(t, err)
		assert.Error(t, run(context.Background(), c, &bytes.Buffer{}), args)
	}
}

func TestAveragerSkipsEmptyBlocks(t *testing.T) {
	var out bytes.Buffer
	a := &averager{scale: 1000, w: &out}
	in := make(chan block, 2)
	in <- block{at: time.Unix(0, 0)}
	in <- block{at: time.Unix(0, 0), values: []float64{2, 4}}
	close(in)

	require.NoError(t, a.run(in))
	assert.Equal(t, "00:00:00.000000: <3.00000>\n", out.String())
}
