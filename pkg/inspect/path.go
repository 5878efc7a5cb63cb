// Package inspect resolves attribute paths against an iio context and
// formats what it finds.
//
// A path names one attribute set, optionally followed by an attribute:
//
//	@hw_carrier                 context attribute
//	dummy0                      device attributes of dummy0
//	dummy0@sampling_frequency   one device attribute
//	dummy0/debug@direct_reg_access
//	dummy0/buffer@length
//	dummy0/voltage0@raw         input channel, output if no input matches
//	dummy_dac/out/voltage0@raw  explicit direction
//
// Devices and channels match by id or name.
package inspect

import (
	"errors"
	"fmt"
	"strings"
)

// Path errors.
var (
	ErrEmptyPath   = errors.New("empty path")
	ErrInvalidPath = errors.New("invalid path format")
)

// Scope is the attribute set a path selects.
type Scope uint8

const (
	ScopeContext Scope = iota
	ScopeDevice
	ScopeDebug
	ScopeBuffer
	ScopeChannel
)

// String returns the scope name.
func (s Scope) String() string {
	switch s {
	case ScopeContext:
		return "context"
	case ScopeDevice:
		return "device"
	case ScopeDebug:
		return "debug"
	case ScopeBuffer:
		return "buffer"
	case ScopeChannel:
		return "channel"
	default:
		return "unknown"
	}
}

// Direction constrains channel lookup.
type Direction uint8

const (
	// AnyDirection tries input first, then output.
	AnyDirection Direction = iota
	InputOnly
	OutputOnly
)

// Path represents a parsed attribute path.
type Path struct {
	Scope     Scope
	Device    string
	Channel   string
	Direction Direction

	// Attr is the attribute name; empty selects the whole set.
	Attr string

	// Raw stores the original input string.
	Raw string
}

// IsPartial reports whether the path names a set rather than one attribute.
func (p *Path) IsPartial() bool {
	return p.Attr == ""
}

// ParsePath parses a path string into a Path.
func ParsePath(input string) (*Path, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, ErrEmptyPath
	}

	p := &Path{Raw: input}

	entity, attr, hasAttr := strings.Cut(input, "@")
	if hasAttr {
		if attr == "" || strings.ContainsAny(attr, "@/") {
			return nil, fmt.Errorf("%w: bad attribute in %q", ErrInvalidPath, input)
		}
		p.Attr = attr
	}

	if entity == "" {
		if !hasAttr {
			return nil, ErrEmptyPath
		}
		p.Scope = ScopeContext
		return p, nil
	}

	if strings.HasPrefix(entity, "/") || strings.HasSuffix(entity, "/") || strings.Contains(entity, "//") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, input)
	}

	parts := strings.Split(entity, "/")
	p.Device = parts[0]
	p.Scope = ScopeDevice

	switch rest := parts[1:]; {
	case len(rest) == 0:
	case len(rest) == 1 && rest[0] == "debug":
		p.Scope = ScopeDebug
	case len(rest) == 1 && rest[0] == "buffer":
		p.Scope = ScopeBuffer
	case len(rest) == 1:
		p.Scope = ScopeChannel
		p.Channel = rest[0]
	case len(rest) == 2 && (rest[0] == "in" || rest[0] == "out"):
		p.Scope = ScopeChannel
		p.Channel = rest[1]
		p.Direction = InputOnly
		if rest[0] == "out" {
			p.Direction = OutputOnly
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, input)
	}

	return p, nil
}

// String returns the path in canonical form.
func (p *Path) String() string {
	var sb strings.Builder
	switch p.Scope {
	case ScopeDevice:
		sb.WriteString(p.Device)
	case ScopeDebug, ScopeBuffer:
		sb.WriteString(p.Device)
		sb.WriteByte('/')
		sb.WriteString(p.Scope.String())
	case ScopeChannel:
		sb.WriteString(p.Device)
		sb.WriteByte('/')
		switch p.Direction {
		case InputOnly:
			sb.WriteString("in/")
		case OutputOnly:
			sb.WriteString("out/")
		}
		sb.WriteString(p.Channel)
	}
	if p.Attr != "" {
		sb.WriteByte('@')
		sb.WriteString(p.Attr)
	}
	return sb.String()
}
