package backend

import (
	"fmt"
	"net"
	"strconv"
	"strings"
)

// Well-known URI schemes.
const (
	SchemeLocal  = "local"
	SchemeIP     = "ip"
	SchemeUSB    = "usb"
	SchemeSerial = "serial"
	SchemeMemory = "mem"
	SchemeYAML   = "yaml"
)

// URI is a parsed context URI: "scheme:rest".
type URI struct {
	Scheme string
	Rest   string
}

// ParseURI splits a context URI into scheme and remainder.
func ParseURI(s string) (URI, error) {
	scheme, rest, ok := strings.Cut(s, ":")
	if !ok || scheme == "" {
		return URI{}, fmt.Errorf("%w %q: expected scheme:address", ErrInvalidURI, s)
	}
	for _, r := range scheme {
		if !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9') {
			return URI{}, fmt.Errorf("%w %q: bad scheme %q", ErrInvalidURI, s, scheme)
		}
	}
	return URI{Scheme: scheme, Rest: rest}, nil
}

// String joins the URI back together.
func (u URI) String() string {
	return u.Scheme + ":" + u.Rest
}

// HostPort splits the remainder of an ip: URI into host and port, using
// defaultPort when none is given. An empty remainder yields an empty host.
func (u URI) HostPort(defaultPort int) (string, int, error) {
	if u.Rest == "" {
		return "", defaultPort, nil
	}
	host, portStr, err := net.SplitHostPort(u.Rest)
	if err != nil {
		// No port: bare host name or address, possibly a bracketed IPv6.
		return strings.Trim(u.Rest, "[]"), defaultPort, nil
	}
	port, err := strconv.Atoi(portStr)
	if err != nil || port <= 0 || port > 65535 {
		return "", 0, fmt.Errorf("%w %q: bad port %q", ErrInvalidURI, u.String(), portStr)
	}
	return host, port, nil
}
