// Package iio gives safe, shareable access to industrial I/O hardware:
// contexts, the devices and channels they scanned, sample buffers, and
// typed attribute access.
//
// # Ownership
//
// An InnerContext owns one backend connection and the immutable device
// graph scanned when it was opened. A Context is a counted share of an
// InnerContext: Clone adds a share, Close drops one, and the last Close
// releases the backend connection exactly once.
//
// Devices and Channels are references into the scanned graph. Each holds
// its own share of the Context it came from, so the graph stays alive as
// long as any of them does. Close them when done; a share that becomes
// unreachable without Close is released by the garbage collector.
//
//	ctx, err := iio.Open(context.Background(), "mem:dummy")
//	if err != nil {
//		return err
//	}
//	defer ctx.Close()
//
//	dev, err := ctx.FindDevice("dummy0")
//	...
//	ch, err := dev.FindChannel("voltage0", false)
//	...
//	buf, err := dev.BuildBuffer([]*iio.Channel{ch}, 4, false)
//	...
//	n, err := buf.Refill()
//	values, err := iio.Values[int16](buf, ch)
//	for v := range values {
//		fmt.Println(v)
//	}
//
// # Concurrency
//
// A Context and its Devices may be used from any goroutine. A Buffer is
// driven by one goroutine at a time: a Refill or Push entered while another
// is in flight fails with ErrConcurrentUse, and sample iterators stop once
// the next transfer starts.
//
// TryReleaseInner hands the InnerContext to a single new owner, failing
// with ErrStillShared while any other share (including those held by
// Devices, Channels and Buffers) is alive. FromInner wraps it again.
package iio
