package sample

// Layout computes where each channel's sample lives inside one scan.
//
// Channels are laid out in the order given, which must be ascending scan
// index. Each element is aligned to its own word size and the scan is padded
// to the largest word size so consecutive scans stay aligned.
func Layout(formats []Format) (offsets []int, step int) {
	offsets = make([]int, len(formats))
	largest := 1
	for i, f := range formats {
		w := f.WordSize()
		if w == 0 {
			offsets[i] = step
			continue
		}
		if r := step % w; r != 0 {
			step += w - r
		}
		offsets[i] = step
		step += f.Size()
		if w > largest {
			largest = w
		}
	}
	if r := step % largest; r != 0 {
		step += largest - r
	}
	return offsets, step
}
