package backend

import (
	"cmp"
	"slices"

	"github.com/industrial-io/iio-go/pkg/sample"
)

// ScanLayout orders the selected channels of dev by scan index and
// computes each one's byte offset within a scan. order holds indexes into
// dev.Channels. Both ends of a buffer use this so they agree on the layout.
func ScanLayout(dev DeviceDesc, selected func(i int, c ChannelDesc) bool) (order, offsets []int, step int) {
	for i, c := range dev.Channels {
		if c.ScanElement && selected(i, c) {
			order = append(order, i)
		}
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(dev.Channels[a].Index, dev.Channels[b].Index)
	})

	formats := make([]sample.Format, len(order))
	for k, i := range order {
		formats[k] = dev.Channels[i].Format
	}
	offsets, step = sample.Layout(formats)
	return order, offsets, step
}
