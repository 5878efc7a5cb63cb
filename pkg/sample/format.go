// Package sample converts between raw hardware sample words and native Go
// numbers.
//
// A raw word is the storage representation a device uses for one sample of
// one channel: a little- or big-endian integer of Length bits of which Bits
// are significant, starting Shift bits above the least significant bit. The
// codec is pure; it never touches a buffer or a backend.
package sample

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Codec errors.
var (
	// ErrRange indicates a value that does not fit the target format.
	ErrRange = errors.New("value out of range")

	// ErrInvalidFormat indicates a malformed or unsupported format.
	ErrInvalidFormat = errors.New("invalid sample format")

	// ErrShortBuffer indicates a raw slice smaller than the storage word.
	ErrShortBuffer = errors.New("buffer shorter than storage word")
)

// MaxLength is the widest storage word supported, in bits.
const MaxLength = 64

// Format describes the storage layout of one channel's samples.
type Format struct {
	// Length is the storage size of one element in bits (a multiple of 8).
	Length uint `yaml:"length" cbor:"1,keyasint"`

	// Bits is the number of significant bits.
	Bits uint `yaml:"bits" cbor:"2,keyasint"`

	// Shift is the number of bits to shift right after reading the word.
	Shift uint `yaml:"shift" cbor:"3,keyasint,omitempty"`

	// Signed selects two's complement sign extension from Bits.
	Signed bool `yaml:"signed" cbor:"4,keyasint,omitempty"`

	// BigEndian selects big-endian word order.
	BigEndian bool `yaml:"big_endian" cbor:"5,keyasint,omitempty"`

	// Repeat is the number of elements per sample. Zero means one.
	Repeat uint `yaml:"repeat" cbor:"6,keyasint,omitempty"`

	// FullyDefined reports that all Length bits are significant.
	FullyDefined bool `yaml:"fully_defined" cbor:"7,keyasint,omitempty"`

	// WithScale reports that Scale applies.
	WithScale bool    `yaml:"with_scale" cbor:"8,keyasint,omitempty"`
	Scale     float64 `yaml:"scale" cbor:"9,keyasint,omitempty"`

	// WithOffset reports that Offset applies.
	WithOffset bool    `yaml:"with_offset" cbor:"10,keyasint,omitempty"`
	Offset     float64 `yaml:"offset" cbor:"11,keyasint,omitempty"`
}

// Validate checks that the format describes a word this package can decode.
func (f Format) Validate() error {
	if f.Length == 0 || f.Length%8 != 0 || f.Length > MaxLength {
		return fmt.Errorf("%w: storage length %d", ErrInvalidFormat, f.Length)
	}
	if f.Bits == 0 || f.Bits > f.Length {
		return fmt.Errorf("%w: %d significant bits in %d-bit word", ErrInvalidFormat, f.Bits, f.Length)
	}
	if f.Bits+f.Shift > f.Length {
		return fmt.Errorf("%w: shift %d overflows %d-bit word", ErrInvalidFormat, f.Shift, f.Length)
	}
	return nil
}

// WordSize returns the storage size of one element in bytes.
func (f Format) WordSize() int {
	return int(f.Length / 8)
}

// Repeats returns the number of elements per sample (at least one).
func (f Format) Repeats() int {
	if f.Repeat == 0 {
		return 1
	}
	return int(f.Repeat)
}

// Size returns the storage size of one sample in bytes.
func (f Format) Size() int {
	return f.WordSize() * f.Repeats()
}

// Min returns the smallest value representable in the significant bits.
func (f Format) Min() int64 {
	if !f.Signed {
		return 0
	}
	if f.Bits >= 64 {
		return -1 << 63
	}
	return -(int64(1) << (f.Bits - 1))
}

// Max returns the largest value representable in the significant bits.
func (f Format) Max() uint64 {
	if f.Signed {
		return uint64(1)<<(f.Bits-1) - 1
	}
	if f.Bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<f.Bits - 1
}

// Convert applies the channel scale and offset to a raw value:
// (raw + offset) * scale. Missing scale or offset leave the value unchanged.
func (f Format) Convert(raw float64) float64 {
	if f.WithOffset {
		raw += f.Offset
	}
	if f.WithScale {
		raw *= f.Scale
	}
	return raw
}

// NativeType returns the Go integer type that holds one element without
// loss. A 24-bit word maps to the 32-bit type.
func (f Format) NativeType() reflect.Type {
	switch {
	case f.Length <= 8:
		if f.Signed {
			return reflect.TypeFor[int8]()
		}
		return reflect.TypeFor[uint8]()
	case f.Length <= 16:
		if f.Signed {
			return reflect.TypeFor[int16]()
		}
		return reflect.TypeFor[uint16]()
	case f.Length <= 32:
		if f.Signed {
			return reflect.TypeFor[int32]()
		}
		return reflect.TypeFor[uint32]()
	default:
		if f.Signed {
			return reflect.TypeFor[int64]()
		}
		return reflect.TypeFor[uint64]()
	}
}

// String formats f the way the kernel reports scan element types,
// e.g. "le:s12/16>>4" or "be:u16/16X2>>0".
func (f Format) String() string {
	var b strings.Builder
	if f.BigEndian {
		b.WriteString("be:")
	} else {
		b.WriteString("le:")
	}
	if f.Signed {
		b.WriteByte('s')
	} else {
		b.WriteByte('u')
	}
	b.WriteString(strconv.FormatUint(uint64(f.Bits), 10))
	b.WriteByte('/')
	b.WriteString(strconv.FormatUint(uint64(f.Length), 10))
	if f.Repeat > 1 {
		b.WriteByte('X')
		b.WriteString(strconv.FormatUint(uint64(f.Repeat), 10))
	}
	b.WriteString(">>")
	b.WriteString(strconv.FormatUint(uint64(f.Shift), 10))
	return b.String()
}

// Parse reads a scan element type string such as "le:s12/16>>4".
func Parse(s string) (Format, error) {
	var f Format

	endian, rest, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok {
		return Format{}, fmt.Errorf("%w: %q: missing endianness", ErrInvalidFormat, s)
	}
	switch endian {
	case "le":
	case "be":
		f.BigEndian = true
	default:
		return Format{}, fmt.Errorf("%w: %q: endianness %q", ErrInvalidFormat, s, endian)
	}

	if rest == "" {
		return Format{}, fmt.Errorf("%w: %q: missing sign", ErrInvalidFormat, s)
	}
	switch rest[0] {
	case 's', 'S':
		f.Signed = true
	case 'u', 'U':
	default:
		return Format{}, fmt.Errorf("%w: %q: sign %q", ErrInvalidFormat, s, rest[0])
	}
	rest = rest[1:]

	shift := "0"
	if body, sh, found := strings.Cut(rest, ">>"); found {
		rest, shift = body, sh
	}

	bits, storage, ok := strings.Cut(rest, "/")
	if !ok {
		return Format{}, fmt.Errorf("%w: %q: missing storage bits", ErrInvalidFormat, s)
	}
	repeat := ""
	if st, rp, found := strings.Cut(strings.ToUpper(storage), "X"); found {
		storage, repeat = st, rp
	}

	var err error
	if f.Bits, err = parseUint(bits); err != nil {
		return Format{}, fmt.Errorf("%w: %q: bits: %v", ErrInvalidFormat, s, err)
	}
	if f.Length, err = parseUint(storage); err != nil {
		return Format{}, fmt.Errorf("%w: %q: storage bits: %v", ErrInvalidFormat, s, err)
	}
	if f.Shift, err = parseUint(shift); err != nil {
		return Format{}, fmt.Errorf("%w: %q: shift: %v", ErrInvalidFormat, s, err)
	}
	if repeat != "" {
		if f.Repeat, err = parseUint(repeat); err != nil {
			return Format{}, fmt.Errorf("%w: %q: repeat: %v", ErrInvalidFormat, s, err)
		}
	}
	f.FullyDefined = f.Bits == f.Length

	if err := f.Validate(); err != nil {
		return Format{}, err
	}
	return f, nil
}

func parseUint(s string) (uint, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint(n), nil
}

// MustParse is like Parse but panics on error. It is intended for
// fixtures and package-level variables.
func MustParse(s string) Format {
	f, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return f
}
