package iio

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/log"
)

// Attributed is an entity with named attributes: *Context, *Device,
// *Channel, *Buffer, DebugAttrs and BufferAttrs.
type Attributed interface {
	attrScope(op string) (attrScope, error)
}

// AttrValue is a type an attribute can be read or written as.
type AttrValue interface {
	bool | int64 | float64 | string
}

type attrScope struct {
	inner  *InnerContext
	target backend.Target
	names  []string

	// static holds values known from the scan. Static attributes are
	// read-only.
	static map[string]string
}

// DebugAttrs is the debug attribute set of a Device.
type DebugAttrs struct {
	dev *Device
}

// BufferAttrs is the buffer attribute set of a Device.
type BufferAttrs struct {
	dev *Device
}

func (c *Context) attrScope(op string) (attrScope, error) {
	inner, err := c.live(op)
	if err != nil {
		return attrScope{}, err
	}
	names := make([]string, 0, len(inner.desc.Attrs))
	for _, a := range inner.desc.Attrs {
		names = append(names, a.Name)
	}
	return attrScope{inner: inner, target: backend.ContextTarget(), names: names, static: inner.attrs}, nil
}

func (d *Device) attrScope(op string) (attrScope, error) {
	inner, err := d.live(op)
	if err != nil {
		return attrScope{}, err
	}
	return attrScope{inner: inner, target: backend.DeviceTarget(d.ID()), names: d.desc().Attrs}, nil
}

func (a DebugAttrs) attrScope(op string) (attrScope, error) {
	inner, err := a.dev.live(op)
	if err != nil {
		return attrScope{}, err
	}
	return attrScope{inner: inner, target: backend.DebugTarget(a.dev.ID()), names: a.dev.desc().DebugAttrs}, nil
}

func (a BufferAttrs) attrScope(op string) (attrScope, error) {
	inner, err := a.dev.live(op)
	if err != nil {
		return attrScope{}, err
	}
	return attrScope{inner: inner, target: backend.BufferTarget(a.dev.ID()), names: a.dev.desc().BufferAttrs}, nil
}

func (c *Channel) attrScope(op string) (attrScope, error) {
	inner, err := c.dev.live(op)
	if err != nil {
		return attrScope{}, err
	}
	return attrScope{inner: inner, target: backend.ChannelTarget(c.ref()), names: c.desc().Attrs}, nil
}

func (s attrScope) has(name string) bool {
	return slices.Contains(s.names, name)
}

func (s attrScope) read(op, name string) (string, error) {
	if !s.has(name) {
		return "", errorf(ErrNotFound, op, "%s attribute %q", s.target.Kind, name)
	}
	if s.static != nil {
		return s.static[name], nil
	}
	v, err := s.inner.conn.ReadAttr(s.target, name)
	if err != nil {
		return "", s.inner.fail(backendError(op, ErrIO, err))
	}
	s.inner.emitAttr(s.target, name, v, log.DirectionIn)
	return v, nil
}

func (s attrScope) write(op, name, value string) error {
	if !s.has(name) {
		return errorf(ErrNotFound, op, "%s attribute %q", s.target.Kind, name)
	}
	if s.static != nil {
		return errorf(ErrUnsupported, op, "%s attribute %q is read-only", s.target.Kind, name)
	}
	n, err := s.inner.conn.WriteAttr(s.target, name, value)
	if err != nil {
		return s.inner.fail(backendError(op, ErrIO, err))
	}
	if n != len(value) {
		return s.inner.fail(errorf(ErrBadReturnSize, op, "%q: wrote %d of %d bytes", name, n, len(value)))
	}
	s.inner.emitAttr(s.target, name, value, log.DirectionOut)
	return nil
}

// ReadAttr reads attribute name of e and parses it as T.
func ReadAttr[T AttrValue](e Attributed, name string) (T, error) {
	var zero T
	s, err := e.attrScope("attr.read")
	if err != nil {
		return zero, err
	}
	raw, err := s.read("attr.read", name)
	if err != nil {
		return zero, err
	}
	return parseAttr[T](name, raw)
}

// WriteAttr formats v and writes it to attribute name of e.
func WriteAttr[T AttrValue](e Attributed, name string, v T) error {
	s, err := e.attrScope("attr.write")
	if err != nil {
		return err
	}
	return s.write("attr.write", name, formatAttr(v))
}

// AttrReadAll reads every attribute of e.
func AttrReadAll(e Attributed) (map[string]string, error) {
	s, err := e.attrScope("attr.read_all")
	if err != nil {
		return nil, err
	}
	if s.static != nil {
		return maps.Clone(s.static), nil
	}
	out := make(map[string]string, len(s.names))
	for _, name := range s.names {
		v, err := s.read("attr.read_all", name)
		if err != nil {
			return nil, err
		}
		out[name] = v
	}
	return out, nil
}

// AttrNames returns the attribute names of e in scan order.
func AttrNames(e Attributed) []string {
	s, err := e.attrScope("attr.names")
	if err != nil {
		return nil
	}
	return slices.Clone(s.names)
}

// HasAttr reports whether e has an attribute called name.
func HasAttr(e Attributed, name string) bool {
	s, err := e.attrScope("attr.has")
	return err == nil && s.has(name)
}

// AttrReadBool reads a boolean attribute.
func AttrReadBool(e Attributed, name string) (bool, error) { return ReadAttr[bool](e, name) }

// AttrReadInt reads an integer attribute.
func AttrReadInt(e Attributed, name string) (int64, error) { return ReadAttr[int64](e, name) }

// AttrReadFloat reads a floating point attribute.
func AttrReadFloat(e Attributed, name string) (float64, error) { return ReadAttr[float64](e, name) }

// AttrReadString reads an attribute verbatim.
func AttrReadString(e Attributed, name string) (string, error) { return ReadAttr[string](e, name) }

// AttrWriteBool writes a boolean attribute as "1" or "0".
func AttrWriteBool(e Attributed, name string, v bool) error { return WriteAttr(e, name, v) }

// AttrWriteInt writes an integer attribute.
func AttrWriteInt(e Attributed, name string, v int64) error { return WriteAttr(e, name, v) }

// AttrWriteFloat writes a floating point attribute.
func AttrWriteFloat(e Attributed, name string, v float64) error { return WriteAttr(e, name, v) }

// AttrWriteString writes an attribute verbatim.
func AttrWriteString(e Attributed, name string, v string) error { return WriteAttr(e, name, v) }

func parseAttr[T AttrValue](name, raw string) (T, error) {
	var out T
	switch p := any(&out).(type) {
	case *string:
		*p = raw
		return out, nil
	case *bool:
		b, ok := parseBool(raw)
		if !ok {
			return out, errorf(ErrWrongDataType, "attr.read", "%q: %q is not a bool", name, raw)
		}
		*p = b
	case *int64:
		n, err := strconv.ParseInt(strings.TrimSpace(raw), 0, 64)
		if err != nil {
			return out, newError(ErrWrongDataType, "attr.read", err)
		}
		*p = n
	case *float64:
		f, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
		if err != nil {
			return out, newError(ErrWrongDataType, "attr.read", err)
		}
		*p = f
	}
	return out, nil
}

// parseBool accepts what sysfs emits for boolean attributes: "0"/"1",
// "Y"/"N" and any integer, where nonzero is true.
func parseBool(raw string) (bool, bool) {
	s := strings.TrimSpace(raw)
	switch s {
	case "Y", "y":
		return true, true
	case "N", "n":
		return false, true
	}
	if b, err := strconv.ParseBool(s); err == nil {
		return b, true
	}
	if n, err := strconv.ParseInt(s, 0, 64); err == nil {
		return n != 0, true
	}
	return false, false
}

func formatAttr[T AttrValue](v T) string {
	switch x := any(v).(type) {
	case bool:
		if x {
			return "1"
		}
		return "0"
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64)
	case string:
		return x
	}
	return ""
}
