package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeDummy(t *testing.T) {
	spec, err := Parse([]byte(DummyYAML))
	require.NoError(t, err)

	desc := spec.Describe()
	assert.Equal(t, "dummy", desc.Name)
	require.Len(t, desc.Devices, 3)

	adc := desc.Devices[0]
	assert.Equal(t, "iio:device0", adc.ID)
	assert.Equal(t, "dummy0", adc.Name)
	assert.Equal(t, "dummy-adc", adc.Label)
	assert.Equal(t, []string{"name", "sampling_frequency"}, adc.Attrs)
	assert.Equal(t, []string{"length", "watermark"}, adc.BufferAttrs)
	require.Len(t, adc.Channels, 5)

	v0 := adc.Channels[0]
	assert.True(t, v0.ScanElement)
	assert.Equal(t, 0, v0.Index)
	assert.Equal(t, uint(16), v0.Format.Bits)
	assert.True(t, v0.Format.WithScale)
	assert.Equal(t, 0.5, v0.Format.Scale)

	v1 := adc.Channels[1]
	assert.Equal(t, uint(12), v1.Format.Bits)
	assert.Equal(t, uint(4), v1.Format.Shift)

	temp := adc.Channels[4]
	assert.False(t, temp.ScanElement)
	assert.Equal(t, -1, temp.Index)
	assert.Equal(t, "die_temp", temp.Name)

	assert.True(t, desc.Devices[2].IsTrigger)
	assert.True(t, desc.Devices[1].Channels[0].Output)
}

func TestDescribeDefaultIndexes(t *testing.T) {
	spec, err := Parse([]byte(`
devices:
  - id: iio:device0
    channels:
      - id: a
        scan_element: true
        format: "le:u8/8>>0"
      - id: b
        scan_element: true
        index: 5
        format: "le:u8/8>>0"
      - id: c
        scan_element: true
        format: "le:u8/8>>0"
`))
	require.NoError(t, err)
	chans := spec.Describe().Devices[0].Channels
	assert.Equal(t, 0, chans[0].Index)
	assert.Equal(t, 5, chans[1].Index)
	assert.Equal(t, 6, chans[2].Index)
}

func TestParseInvalid(t *testing.T) {
	tests := map[string]string{
		"unknown field": `
devices:
  - id: d
    colour: blue
`,
		"duplicate device": `
devices:
  - id: d
  - id: d
`,
		"missing id": `
devices:
  - name: nameless
`,
		"duplicate channel": `
devices:
  - id: d
    channels:
      - id: c
      - id: c
`,
		"bad format": `
devices:
  - id: d
    channels:
      - id: c
        scan_element: true
        format: "le:q8"
`,
		"sample out of range": `
devices:
  - id: d
    channels:
      - id: c
        scan_element: true
        format: "le:u8/8>>0"
        samples: [256]
`,
		"narrow timestamp": `
devices:
  - id: d
    channels:
      - id: timestamp
        scan_element: true
        format: "le:s32/32>>0"
`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Parse([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidSpec)
		})
	}
}

func TestNarrowTimestampWithSamples(t *testing.T) {
	spec, err := Parse([]byte(`
devices:
  - id: d
    channels:
      - id: timestamp
        scan_element: true
        format: "le:u16/16>>0"
        samples: [1, 2, 3]
`))
	require.NoError(t, err, "recorded timestamps are replayed as samples")
	assert.Len(t, spec.Devices[0].Channels, 1)
}

func TestInputAndOutputChannelsMayShareID(t *testing.T) {
	_, err := Parse([]byte(`
devices:
  - id: d
    channels:
      - id: voltage0
      - id: voltage0
        output: true
`))
	assert.NoError(t, err)
}
