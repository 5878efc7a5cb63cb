package version

import (
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		input string
		major uint16
		minor uint16
		tag   string
	}{
		{"0.6", 0, 6, ""},
		{"0.25", 0, 25, ""},
		{"1.0-b6028fdd", 1, 0, "b6028fdd"},
		{"10.23-dev", 10, 23, "dev"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			v, err := Parse(tt.input)
			if err != nil {
				t.Fatalf("Parse(%q) returned error: %v", tt.input, err)
			}
			if v.Major != tt.major {
				t.Errorf("Major = %d, want %d", v.Major, tt.major)
			}
			if v.Minor != tt.minor {
				t.Errorf("Minor = %d, want %d", v.Minor, tt.minor)
			}
			if v.Tag != tt.tag {
				t.Errorf("Tag = %q, want %q", v.Tag, tt.tag)
			}
			if got := v.String(); got != tt.input {
				t.Errorf("String() = %q, want %q", got, tt.input)
			}
		})
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []string{
		"",
		"1",
		"abc",
		"1.0.0",
		"1.x",
		"-1.0",
		"1.0-",
	}

	for _, input := range tests {
		t.Run(input, func(t *testing.T) {
			_, err := Parse(input)
			if err == nil {
				t.Errorf("Parse(%q) should return error", input)
			}
		})
	}
}

func TestCompatibleAndLess(t *testing.T) {
	a := Version{Major: 0, Minor: 24}
	b := Version{Major: 0, Minor: 25, Tag: "x"}
	c := Version{Major: 1, Minor: 0}

	if !a.Compatible(b) {
		t.Error("0.24 should be compatible with 0.25")
	}
	if a.Compatible(c) {
		t.Error("0.24 should not be compatible with 1.0")
	}
	if !a.Less(b) || b.Less(a) {
		t.Error("0.24 should order before 0.25")
	}
	if !b.Less(c) {
		t.Error("0.25 should order before 1.0")
	}
}

func TestLibrary(t *testing.T) {
	v := Library()
	if v.String() != Current+"-"+GitTag {
		t.Errorf("Library() = %q, want %q", v.String(), Current+"-"+GitTag)
	}
	if v.IsZero() {
		t.Error("Library() should not be zero")
	}
}
