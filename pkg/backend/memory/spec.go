package memory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/sample"
	"gopkg.in/yaml.v3"
)

// ErrInvalidSpec indicates a YAML description that cannot be simulated.
var ErrInvalidSpec = errors.New("invalid context description")

// Spec is the YAML description of a simulated context.
type Spec struct {
	Context ContextSpec  `yaml:"context"`
	Devices []DeviceSpec `yaml:"devices"`
}

// ContextSpec holds the context-level fields.
type ContextSpec struct {
	Name        string            `yaml:"name"`
	Description string            `yaml:"description"`
	Attrs       map[string]string `yaml:"attrs"`
}

// DeviceSpec describes one simulated device.
type DeviceSpec struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Label string `yaml:"label"`

	// Trigger marks the device as a trigger other devices can use.
	Trigger bool `yaml:"trigger"`

	// RequiresTrigger makes buffer creation fail until a trigger is set.
	RequiresTrigger bool `yaml:"requires_trigger"`

	Attrs       map[string]string `yaml:"attrs"`
	DebugAttrs  map[string]string `yaml:"debug_attrs"`
	BufferAttrs map[string]string `yaml:"buffer_attrs"`

	// Registers seeds the debug register file.
	Registers map[uint32]uint32 `yaml:"registers"`

	Channels []ChannelSpec `yaml:"channels"`
}

// ChannelSpec describes one simulated channel.
type ChannelSpec struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Output      bool   `yaml:"output"`
	ScanElement bool   `yaml:"scan_element"`

	// Index is the scan index. Scan elements without one are numbered in
	// declaration order.
	Index *int `yaml:"index"`

	// Format is the kernel type string, e.g. "le:s12/16>>4".
	Format string `yaml:"format"`

	Attrs map[string]string `yaml:"attrs"`

	// Samples are the values the simulated ADC produces, cycled. A
	// timestamp channel without samples produces the wall clock in ns.
	Samples []int64 `yaml:"samples"`
}

// Parse decodes a YAML description.
func Parse(data []byte) (*Spec, error) {
	return Load(bytes.NewReader(data))
}

// Load decodes a YAML description from r.
func Load(r io.Reader) (*Spec, error) {
	var spec Spec
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&spec); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSpec, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// LoadFile decodes the YAML description at path.
func LoadFile(path string) (*Spec, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Validate checks ids are unique, formats parse and sample values fit.
func (s *Spec) Validate() error {
	devs := make(map[string]bool)
	for _, d := range s.Devices {
		if d.ID == "" {
			return fmt.Errorf("%w: device without id", ErrInvalidSpec)
		}
		if devs[d.ID] {
			return fmt.Errorf("%w: duplicate device %q", ErrInvalidSpec, d.ID)
		}
		devs[d.ID] = true

		chans := make(map[backend.ChannelRef]bool)
		for _, c := range d.Channels {
			ref := backend.ChannelRef{Device: d.ID, Channel: c.ID, Output: c.Output}
			if c.ID == "" {
				return fmt.Errorf("%w: channel without id on %q", ErrInvalidSpec, d.ID)
			}
			if chans[ref] {
				return fmt.Errorf("%w: duplicate channel %q on %q", ErrInvalidSpec, c.ID, d.ID)
			}
			chans[ref] = true

			if !c.ScanElement {
				continue
			}
			f, err := sample.Parse(c.Format)
			if err != nil {
				return fmt.Errorf("%w: %s/%s: %v", ErrInvalidSpec, d.ID, c.ID, err)
			}
			for _, v := range c.Samples {
				if _, err := sample.Encode(v, f); err != nil {
					return fmt.Errorf("%w: %s/%s: sample %d: %v", ErrInvalidSpec, d.ID, c.ID, v, err)
				}
			}
			if isTimestamp(c.ID) && len(c.Samples) == 0 && f.Bits != 64 {
				return fmt.Errorf("%w: %s/%s: generated timestamps need 64 significant bits, have %s",
					ErrInvalidSpec, d.ID, c.ID, f)
			}
		}
	}
	return nil
}

// Describe converts the spec into a backend description snapshot.
func (s *Spec) Describe() *backend.Description {
	desc := &backend.Description{
		Name:        s.Context.Name,
		Description: s.Context.Description,
	}
	for _, name := range sortedKeys(s.Context.Attrs) {
		desc.Attrs = append(desc.Attrs, backend.ContextAttr{Name: name, Value: s.Context.Attrs[name]})
	}

	for _, d := range s.Devices {
		dd := backend.DeviceDesc{
			ID:          d.ID,
			Name:        d.Name,
			Label:       d.Label,
			IsTrigger:   d.Trigger,
			Attrs:       sortedKeys(d.Attrs),
			DebugAttrs:  sortedKeys(d.DebugAttrs),
			BufferAttrs: sortedKeys(d.BufferAttrs),
		}
		next := 0
		for _, c := range d.Channels {
			cd := backend.ChannelDesc{
				ID:          c.ID,
				Name:        c.Name,
				Output:      c.Output,
				ScanElement: c.ScanElement,
				Index:       -1,
				Attrs:       sortedKeys(c.Attrs),
			}
			if c.ScanElement {
				cd.Format, _ = sample.Parse(c.Format)
				applyScale(&cd.Format, c.Attrs)
				if c.Index != nil {
					cd.Index = *c.Index
				} else {
					cd.Index = next
				}
				next = cd.Index + 1
			}
			dd.Channels = append(dd.Channels, cd)
		}
		desc.Devices = append(desc.Devices, dd)
	}
	return desc
}

func applyScale(f *sample.Format, attrs map[string]string) {
	if v, ok := attrs["scale"]; ok {
		if scale, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			f.WithScale, f.Scale = true, scale
		}
	}
	if v, ok := attrs["offset"]; ok {
		if offset, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			f.WithOffset, f.Offset = true, offset
		}
	}
}

func sortedKeys(m map[string]string) []string {
	if len(m) == 0 {
		return nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
