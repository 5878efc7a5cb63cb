package memory

// DummyYAML describes a context with one ADC, one DAC and a software
// trigger, modelled on the IIO dummy kernel module.
const DummyYAML = `
context:
  name: dummy
  description: Simulated IIO context
  attrs:
    local,kernel: "6.1.0-iio"
    uri: "mem:dummy"
devices:
  - id: iio:device0
    name: dummy0
    label: dummy-adc
    attrs:
      sampling_frequency: "100"
      name: dummy0
    debug_attrs:
      direct_reg_access: "0x0"
    buffer_attrs:
      length: "128"
      watermark: "1"
    registers:
      0x00: 0x12
      0x10: 0x0
    channels:
      - id: voltage0
        scan_element: true
        index: 0
        format: "le:s16/16>>0"
        samples: [1, 2, 3, 4]
        attrs:
          raw: "73"
          scale: "0.5"
          offset: "0"
      - id: voltage1
        scan_element: true
        index: 1
        format: "le:s12/16>>4"
        samples: [-1, -2, 2047, -2048]
        attrs:
          raw: "-5"
          scale: "1"
      - id: accel_x
        scan_element: true
        index: 2
        format: "le:s32/32>>0"
        samples: [100, -100]
        attrs:
          raw: "34"
          calibbias: "0"
      - id: timestamp
        scan_element: true
        index: 3
        format: "le:s64/64>>0"
      - id: temp
        name: die_temp
        attrs:
          input: "26500"
  - id: iio:device1
    name: dummy_dac
    channels:
      - id: voltage0
        output: true
        scan_element: true
        index: 0
        format: "le:u16/16>>0"
        attrs:
          raw: "0"
          powerdown: "1"
  - id: iio:trigger0
    name: trigger0
    trigger: true
    attrs:
      sampling_frequency: "1000"
`

// NewDummy builds a fresh model from DummyYAML under name.
func NewDummy(name string) *Model {
	m, err := NewModelFromYAML(name, []byte(DummyYAML))
	if err != nil {
		panic(err)
	}
	return m
}
