// Package wire defines the CBOR message types of the iio bridge protocol.
//
// The bridge exposes one backend.Conn over a network connection. Messages
// are CBOR (RFC 8949) maps with integer keys, carried in length-prefixed
// frames by package transport.
//
// # Message Types
//
//   - Request: client to bridge. Carries an Op and op-specific Args.
//   - Response: bridge to client. Echoes the request ID and carries a
//     Status, an optional errno Code and op-specific Result.
//
// Requests are independent: a client may have several in flight and the
// bridge may answer them out of order. A blocking refill therefore does not
// hold up a cancel sent after it.
package wire
