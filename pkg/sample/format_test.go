package sample

import (
	"errors"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		want  Format
	}{
		{"le:s12/16>>4", Format{Length: 16, Bits: 12, Shift: 4, Signed: true}},
		{"le:u16/16>>0", Format{Length: 16, Bits: 16, FullyDefined: true}},
		{"be:s24/32>>8", Format{Length: 32, Bits: 24, Shift: 8, Signed: true, BigEndian: true}},
		{"le:s64/64>>0", Format{Length: 64, Bits: 64, Signed: true, FullyDefined: true}},
		{"be:u16/16X3>>0", Format{Length: 16, Bits: 16, Repeat: 3, BigEndian: true, FullyDefined: true}},
		{"le:u10/16", Format{Length: 16, Bits: 10}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"s12/16>>4",
		"xe:s12/16>>4",
		"le:x12/16>>4",
		"le:s12>>4",
		"le:s20/16>>0",
		"le:s12/16>>8",
		"le:s12/12>>0",
		"le:s0/16>>0",
		"le:s12/abc>>0",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if !errors.Is(err, ErrInvalidFormat) {
				t.Errorf("Parse(%q): got %v, want ErrInvalidFormat", input, err)
			}
		})
	}
}

func TestFormatStringRoundTrip(t *testing.T) {
	for _, s := range []string{"le:s12/16>>4", "be:u32/32>>0", "le:u16/16X2>>0"} {
		f, err := Parse(s)
		if err != nil {
			t.Fatalf("Parse(%q) returned error: %v", s, err)
		}
		if got := f.String(); got != s {
			t.Errorf("String: got %q, want %q", got, s)
		}
	}
}

func TestFormatSizes(t *testing.T) {
	f := MustParse("le:u16/16X3>>0")
	if f.WordSize() != 2 {
		t.Errorf("WordSize: got %d, want 2", f.WordSize())
	}
	if f.Size() != 6 {
		t.Errorf("Size: got %d, want 6", f.Size())
	}

	g := MustParse("le:s12/16>>4")
	if g.Repeats() != 1 {
		t.Errorf("Repeats: got %d, want 1", g.Repeats())
	}
	if g.Min() != -2048 || g.Max() != 2047 {
		t.Errorf("range: got [%d, %d], want [-2048, 2047]", g.Min(), g.Max())
	}
}

func TestLayout(t *testing.T) {
	tests := []struct {
		name    string
		formats []string
		offsets []int
		step    int
	}{
		{"single u16", []string{"le:u16/16>>0"}, []int{0}, 2},
		{"two s16", []string{"le:s16/16>>0", "le:s16/16>>0"}, []int{0, 2}, 4},
		{"u8 then u32", []string{"le:u8/8>>0", "le:u32/32>>0"}, []int{0, 4}, 8},
		{"s16 then timestamp", []string{"le:s16/16>>0", "le:s64/64>>0"}, []int{0, 8}, 16},
		{"s16 u16 u8 pads tail", []string{"le:s16/16>>0", "le:u16/16>>0", "le:u8/8>>0"}, []int{0, 2, 4}, 6},
		{"repeat", []string{"le:u16/16X3>>0", "le:u32/32>>0"}, []int{0, 8}, 12},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			formats := make([]Format, len(tt.formats))
			for i, s := range tt.formats {
				formats[i] = MustParse(s)
			}
			offsets, step := Layout(formats)
			if step != tt.step {
				t.Errorf("step: got %d, want %d", step, tt.step)
			}
			for i := range offsets {
				if offsets[i] != tt.offsets[i] {
					t.Errorf("offset[%d]: got %d, want %d", i, offsets[i], tt.offsets[i])
				}
			}
		})
	}
}
