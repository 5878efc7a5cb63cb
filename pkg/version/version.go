// Package version provides library and backend version parsing and
// comparison.
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Current is the version of this library.
const Current = "0.6"

// GitTag is the source revision, set at link time with
// -ldflags "-X github.com/industrial-io/iio-go/pkg/version.GitTag=<rev>".
var GitTag = "dev"

// Version is a "major.minor" version with an optional build tag.
type Version struct {
	Major uint16 `cbor:"1,keyasint"`
	Minor uint16 `cbor:"2,keyasint"`
	Tag   string `cbor:"3,keyasint,omitempty"`
}

// Library returns the version of this library.
func Library() Version {
	v, _ := Parse(Current)
	v.Tag = GitTag
	return v
}

// Parse parses "major.minor" or "major.minor-tag".
func Parse(s string) (Version, error) {
	core, tag, _ := strings.Cut(s, "-")
	parts := strings.Split(core, ".")
	if len(parts) != 2 {
		return Version{}, fmt.Errorf("invalid version %q: expected major.minor", s)
	}

	major, err := strconv.ParseUint(parts[0], 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: bad major component", s)
	}

	minor, err := strconv.ParseUint(parts[1], 10, 16)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: bad minor component", s)
	}

	if strings.Contains(s, "-") && tag == "" {
		return Version{}, fmt.Errorf("invalid version %q: empty tag", s)
	}

	return Version{Major: uint16(major), Minor: uint16(minor), Tag: tag}, nil
}

// String returns the version as "major.minor" or "major.minor-tag".
func (v Version) String() string {
	if v.Tag == "" {
		return fmt.Sprintf("%d.%d", v.Major, v.Minor)
	}
	return fmt.Sprintf("%d.%d-%s", v.Major, v.Minor, v.Tag)
}

// Compatible returns true if the other version has the same major version.
func (v Version) Compatible(other Version) bool {
	return v.Major == other.Major
}

// Less reports whether v orders before other, ignoring tags.
func (v Version) Less(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	return v.Minor < other.Minor
}

// IsZero reports whether v is the zero Version.
func (v Version) IsZero() bool {
	return v == Version{}
}
