// Package remote implements the "ip:" backend: a backend.Conn carried over
// the bridge protocol to an iio-bridge server.
//
// The client side is Client, registered for the "ip" scheme from init.
// "ip:host[:port]" dials the bridge directly; a bare "ip:" browses mDNS
// and opens the first bridge that answers.
//
// The server side is Server. It opens its configured context URI once per
// bridge connection, so every client gets its own backend.Conn and its own
// channel enable mask.
package remote
