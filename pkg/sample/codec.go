package sample

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Number is the set of native types a sample can be decoded into or
// encoded from.
type Number interface {
	int8 | int16 | int32 | int64 | int |
		uint8 | uint16 | uint32 | uint64 | uint |
		float32 | float64
}

type numberKind uint8

const (
	kindUnsigned numberKind = iota
	kindSigned
	kindFloat
)

func kindOf[T Number]() numberKind {
	var zero T
	half := 0.5
	if T(half) != zero {
		return kindFloat
	}
	if zero-1 < zero {
		return kindSigned
	}
	return kindUnsigned
}

func readWord(raw []byte, n int, bigEndian bool) uint64 {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	switch n {
	case 1:
		return uint64(raw[0])
	case 2:
		return uint64(order.Uint16(raw))
	case 4:
		return uint64(order.Uint32(raw))
	case 8:
		return order.Uint64(raw)
	}
	var w uint64
	if bigEndian {
		for i := 0; i < n; i++ {
			w = w<<8 | uint64(raw[i])
		}
	} else {
		for i := n - 1; i >= 0; i-- {
			w = w<<8 | uint64(raw[i])
		}
	}
	return w
}

func writeWord(dst []byte, n int, bigEndian bool, w uint64) {
	var order binary.ByteOrder = binary.LittleEndian
	if bigEndian {
		order = binary.BigEndian
	}
	switch n {
	case 1:
		dst[0] = byte(w)
		return
	case 2:
		order.PutUint16(dst, uint16(w))
		return
	case 4:
		order.PutUint32(dst, uint32(w))
		return
	case 8:
		order.PutUint64(dst, w)
		return
	}
	for i := 0; i < n; i++ {
		shift := 8 * uint(i)
		if bigEndian {
			shift = 8 * uint(n-1-i)
		}
		dst[i] = byte(w >> shift)
	}
}

func mask(bits uint) uint64 {
	if bits >= 64 {
		return ^uint64(0)
	}
	return uint64(1)<<bits - 1
}

// Decode converts one raw storage word to its native value. The word is
// shifted, masked to the significant bits and, for signed formats,
// sign-extended. The result is the two's complement bit pattern; convert it
// with int64() when f.Signed is set.
//
// Decode panics if raw is shorter than the storage word. Use DecodeChecked
// when the length is not known to be valid.
func Decode(raw []byte, f Format) uint64 {
	n := f.WordSize()
	_ = raw[n-1]
	v := readWord(raw, n, f.BigEndian) >> f.Shift
	v &= mask(f.Bits)
	if f.Signed && f.Bits < 64 {
		m := uint64(1) << (f.Bits - 1)
		v = (v ^ m) - m
	}
	return v
}

// DecodeChecked is Decode with a length check instead of a panic.
func DecodeChecked(raw []byte, f Format) (uint64, error) {
	if len(raw) < f.WordSize() || f.WordSize() == 0 {
		return 0, fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(raw), f.WordSize())
	}
	return Decode(raw, f), nil
}

// DecodeAs decodes one raw word into the native type T. Signed formats are
// converted through int64 so sign extension survives widening.
func DecodeAs[T Number](raw []byte, f Format) T {
	v := Decode(raw, f)
	if f.Signed {
		return T(int64(v))
	}
	return T(v)
}

// EncodeUnsigned writes v into dst as one storage word. Bits of the word
// outside the significant field are cleared.
func EncodeUnsigned(dst []byte, v uint64, f Format) error {
	if len(dst) < f.WordSize() || f.WordSize() == 0 {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(dst), f.WordSize())
	}
	if v > f.Max() {
		return fmt.Errorf("%w: %d exceeds %s", ErrRange, v, f)
	}
	writeWord(dst, f.WordSize(), f.BigEndian, (v&mask(f.Bits))<<f.Shift)
	return nil
}

// EncodeSigned writes v into dst as one storage word. Negative values are
// rejected for unsigned formats.
func EncodeSigned(dst []byte, v int64, f Format) error {
	if !f.Signed {
		if v < 0 {
			return fmt.Errorf("%w: %d is negative for %s", ErrRange, v, f)
		}
		return EncodeUnsigned(dst, uint64(v), f)
	}
	if len(dst) < f.WordSize() || f.WordSize() == 0 {
		return fmt.Errorf("%w: have %d bytes, need %d", ErrShortBuffer, len(dst), f.WordSize())
	}
	if v < f.Min() || (v > 0 && uint64(v) > f.Max()) {
		return fmt.Errorf("%w: %d outside %s", ErrRange, v, f)
	}
	writeWord(dst, f.WordSize(), f.BigEndian, (uint64(v)&mask(f.Bits))<<f.Shift)
	return nil
}

// EncodeAs writes the native value v into dst as one storage word.
// Floating point values are rounded to the nearest integer first.
func EncodeAs[T Number](dst []byte, v T, f Format) error {
	switch kindOf[T]() {
	case kindFloat:
		return encodeFloat(dst, float64(v), f)
	case kindSigned:
		return EncodeSigned(dst, int64(v), f)
	default:
		return EncodeUnsigned(dst, uint64(v), f)
	}
}

// Encode returns v as a freshly allocated storage word.
func Encode[T Number](v T, f Format) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	dst := make([]byte, f.WordSize())
	if err := EncodeAs(dst, v, f); err != nil {
		return nil, err
	}
	return dst, nil
}

func encodeFloat(dst []byte, v float64, f Format) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %v", ErrRange, v)
	}
	v = math.Round(v)
	if f.Signed {
		if v < -(1<<63) || v >= 1<<63 {
			return fmt.Errorf("%w: %v outside %s", ErrRange, v, f)
		}
		return EncodeSigned(dst, int64(v), f)
	}
	if v < 0 || v >= 1<<64 {
		return fmt.Errorf("%w: %v outside %s", ErrRange, v, f)
	}
	return EncodeUnsigned(dst, uint64(v), f)
}
