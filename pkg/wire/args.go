package wire

import (
	"github.com/industrial-io/iio-go/pkg/backend"
)

// AttrArgs addresses one attribute. Value is set for write-attr.
type AttrArgs struct {
	Target backend.Target `cbor:"1,keyasint"`
	Name   string         `cbor:"2,keyasint"`
	Value  string         `cbor:"3,keyasint,omitempty"`
}

// AttrResult is the result of read-attr and write-attr.
type AttrResult struct {
	Value string `cbor:"1,keyasint,omitempty"`
	N     int    `cbor:"2,keyasint,omitempty"`
}

// ChannelArgs addresses one channel for enable and enabled.
type ChannelArgs struct {
	Channel backend.ChannelRef `cbor:"1,keyasint"`
	On      bool               `cbor:"2,keyasint,omitempty"`
}

// BoolResult carries a single flag.
type BoolResult struct {
	Value bool `cbor:"1,keyasint"`
}

// DeviceArgs addresses one device. Trigger is set for set-trigger, Count
// for kbuf-count.
type DeviceArgs struct {
	Device  string `cbor:"1,keyasint"`
	Trigger string `cbor:"2,keyasint,omitempty"`
	Count   uint   `cbor:"3,keyasint,omitempty"`
}

// StringResult carries a single string.
type StringResult struct {
	Value string `cbor:"1,keyasint,omitempty"`
}

// TimeoutArgs carries a timeout in nanoseconds. Zero waits forever.
type TimeoutArgs struct {
	Nanos int64 `cbor:"1,keyasint"`
}

// RegArgs addresses a debug register. Value is set for reg-write.
type RegArgs struct {
	Device string `cbor:"1,keyasint"`
	Addr   uint32 `cbor:"2,keyasint"`
	Value  uint32 `cbor:"3,keyasint,omitempty"`
}

// RegResult is the result of reg-read.
type RegResult struct {
	Value uint32 `cbor:"1,keyasint"`
}

// OpenBufferArgs opens a buffer over the channels enabled on Device.
type OpenBufferArgs struct {
	Device  string `cbor:"1,keyasint"`
	Samples int    `cbor:"2,keyasint"`
	Cyclic  bool   `cbor:"3,keyasint,omitempty"`
}

// OpenBufferResult identifies the opened buffer on this connection.
type OpenBufferResult struct {
	Buffer uint32 `cbor:"1,keyasint"`
	Step   int    `cbor:"2,keyasint"`
	Length int    `cbor:"3,keyasint"`
}

// BufferArgs addresses an open buffer. N and Data are set for push,
// Blocking for blocking.
type BufferArgs struct {
	Buffer   uint32 `cbor:"1,keyasint"`
	N        int    `cbor:"2,keyasint,omitempty"`
	Data     []byte `cbor:"3,keyasint,omitempty"`
	Blocking bool   `cbor:"4,keyasint,omitempty"`
}

// TransferResult is the result of refill and push. Data is set for refill.
type TransferResult struct {
	N    int    `cbor:"1,keyasint"`
	Data []byte `cbor:"2,keyasint,omitempty"`
}
