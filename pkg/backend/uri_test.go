package backend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	tests := []struct {
		in     string
		scheme string
		rest   string
	}{
		{"local:", "local", ""},
		{"ip:192.168.2.1", "ip", "192.168.2.1"},
		{"ip:host:30431", "ip", "host:30431"},
		{"usb:3.32.5", "usb", "3.32.5"},
		{"serial:/dev/ttyUSB0,115200,8n1", "serial", "/dev/ttyUSB0,115200,8n1"},
		{"yaml:/etc/iio/dummy.yaml", "yaml", "/etc/iio/dummy.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			u, err := ParseURI(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.scheme, u.Scheme)
			assert.Equal(t, tt.rest, u.Rest)
			assert.Equal(t, tt.in, u.String())
		})
	}
}

func TestParseURI_Invalid(t *testing.T) {
	for _, in := range []string{"", "localhost", ":foo", "IP:host", "i p:host"} {
		_, err := ParseURI(in)
		assert.ErrorIs(t, err, ErrInvalidURI, in)
	}
}

func TestHostPort(t *testing.T) {
	tests := []struct {
		rest string
		host string
		port int
	}{
		{"", "", 30431},
		{"192.168.2.1", "192.168.2.1", 30431},
		{"bridge.local:4000", "bridge.local", 4000},
		{"[fe80::1]:5000", "fe80::1", 5000},
		{"[fe80::1]", "fe80::1", 30431},
	}
	for _, tt := range tests {
		host, port, err := URI{Scheme: SchemeIP, Rest: tt.rest}.HostPort(30431)
		require.NoError(t, err, tt.rest)
		assert.Equal(t, tt.host, host, tt.rest)
		assert.Equal(t, tt.port, port, tt.rest)
	}

	_, _, err := URI{Scheme: SchemeIP, Rest: "host:0"}.HostPort(30431)
	assert.ErrorIs(t, err, ErrInvalidURI)
}
