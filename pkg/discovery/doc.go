// Package discovery advertises and finds iio bridges over mDNS/DNS-SD.
//
// A bridge registers one _iio._tcp instance per exposed context. The
// instance name is the context name, made unique by the bridge host. TXT
// records carry:
//
//	ctx      context name
//	desc     context description
//	backend  URI scheme of the exposed backend (mem, yaml, local, ...)
//	ver      library version of the bridge
//
// Browse results turn into "ip:" URIs that the remote backend can open.
package discovery
