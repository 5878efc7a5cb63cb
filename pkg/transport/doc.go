// Package transport carries bridge messages over TCP.
//
// Every message travels in one frame: a 4-byte big-endian length followed
// by the payload. Payloads are opaque to this package; package wire gives
// them meaning.
//
// # Protocol Stack
//
//	┌────────────────────────────────┐
//	│   CBOR Request / Response      │
//	├────────────────────────────────┤
//	│   Length-Prefix Framing (4B)   │
//	├────────────────────────────────┤
//	│           TCP                  │
//	└────────────────────────────────┘
//
// The bridge runs on a trusted instrument network. There is no TLS layer
// and no authentication.
package transport
