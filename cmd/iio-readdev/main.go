// Command iio-readdev captures buffered samples from one channel and
// prints a scaled average per block.
//
// A capture goroutine refills the buffer and decodes the channel, a worker
// goroutine applies offset and scale and prints the result. A timestamp
// channel, when the device has one, dates each block.
//
// Usage:
//
//	iio-readdev [flags]
//
// Examples:
//
//	# Ten blocks of voltage0 from the simulated ADC
//	iio-readdev -u mem:dummy -count 10
//
//	# Remote ADC on a 100 Hz trigger
//	iio-readdev -n 10.0.0.5 -d ads1015 -c voltage3 -t trigger0 -r 100
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/industrial-io/iio-go/internal/cli"
	"github.com/industrial-io/iio-go/pkg/iio"
)

type config struct {
	ctx     cli.ContextFlags
	log     cli.LogFlags
	Device  string
	Channel string
	Trigger string
	Rate    int64
	Samples int
	Count   int
	Raw     bool
}

func parseFlags(args []string) (*config, error) {
	var c config
	fs := flag.NewFlagSet("iio-readdev", flag.ContinueOnError)
	c.ctx.Register(fs)
	c.log.Register(fs)
	fs.StringVar(&c.Device, "d", "dummy0", "Name of the IIO device to read")
	fs.StringVar(&c.Channel, "c", "voltage0", "Name of the channel to read")
	fs.StringVar(&c.Trigger, "t", "", "Trigger device to attach (default: keep the current one)")
	fs.Int64Var(&c.Rate, "r", 0, "Trigger sampling frequency in Hz (0 leaves it unchanged)")
	fs.IntVar(&c.Samples, "b", 100, "Samples per buffer block")
	fs.IntVar(&c.Count, "count", 0, "Stop after this many blocks (0 runs until interrupted)")
	fs.BoolVar(&c.Raw, "raw", false, "Print the first samples of each block as well")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.Samples <= 0 {
		return nil, fmt.Errorf("-b must be positive, got %d", c.Samples)
	}
	return &c, nil
}

func main() {
	c, err := parseFlags(os.Args[1:])
	if err != nil {
		cli.Fatal(2, "Invalid configuration: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, os.Stdout); err != nil {
		cli.Fatal(1, "Error: %v", err)
	}
}

// block is one refill's worth of decoded samples.
type block struct {
	at     time.Time
	values []float64
}

// averager turns raw blocks into physical units.
type averager struct {
	offset float64
	scale  float64
	raw    bool
	w      io.Writer
}

func (a *averager) run(in <-chan block) error {
	for b := range in {
		if len(b.values) == 0 {
			continue
		}
		var sum float64
		for _, v := range b.values {
			sum += v
		}
		avg := sum / float64(len(b.values))
		val := (avg + a.offset) * a.scale / 1000

		fmt.Fprintf(a.w, "%s: <%.5f>", b.at.UTC().Format("15:04:05.000000"), val)
		if a.raw {
			fmt.Fprintf(a.w, " - %v", b.values[:min(4, len(b.values))])
		}
		fmt.Fprintln(a.w)
	}
	return nil
}

// capture refills buf until ctx ends or count blocks were read, and sends
// each block to out. It closes out before returning.
func capture(ctx context.Context, buf *iio.Buffer, ch, ts *iio.Channel, count int, out chan<- block) error {
	defer close(out)
	stop := context.AfterFunc(ctx, buf.Cancel)
	defer stop()

	for n := 0; count == 0 || n < count; n++ {
		if _, err := buf.Refill(); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("refill: %w", err)
		}
		values, err := iio.Read[float64](buf, ch)
		if err != nil {
			return err
		}
		b := block{at: time.Now(), values: values}
		if ts != nil {
			if stamps, err := iio.Read[int64](buf, ts); err == nil && len(stamps) > 0 && stamps[0] > 0 {
				b.at = time.Unix(0, stamps[0])
			}
		}
		select {
		case out <- b:
		case <-ctx.Done():
			return nil
		}
	}
	return nil
}

func run(ctx context.Context, c *config, w io.Writer) error {
	logging, err := c.log.Setup(os.Stderr)
	if err != nil {
		return err
	}
	defer logging.Close()

	ictx, err := c.ctx.Open(ctx, logging.Options()...)
	if err != nil {
		return err
	}
	defer ictx.Close()

	dev, err := ictx.FindDevice(c.Device)
	if err != nil {
		return err
	}
	defer dev.Close()
	fmt.Fprintf(w, "Using device: %s\n", c.Device)

	ch, err := dev.FindChannel(c.Channel, false)
	if err != nil {
		return err
	}
	defer ch.Close()
	fmt.Fprintf(w, "Using channel: %s\n", c.Channel)

	chans := []*iio.Channel{ch}
	ts, err := dev.FindChannel("timestamp", false)
	switch {
	case err == nil:
		defer ts.Close()
		chans = append(chans, ts)
	case errors.Is(err, iio.ErrNotFound):
		ts = nil
	default:
		return err
	}

	avg := &averager{offset: 0, scale: 1, raw: c.Raw, w: w}
	if v, err := iio.AttrReadFloat(ch, "offset"); err == nil {
		avg.offset = v
	}
	if v, err := iio.AttrReadFloat(ch, "scale"); err == nil {
		avg.scale = v
	}
	fmt.Fprintf(w, "  Offset: %.3f, Scale: %.3f\n", avg.offset, avg.scale)

	if c.Trigger != "" {
		if err := attachTrigger(ictx, dev, c.Trigger, c.Rate); err != nil {
			return err
		}
	}

	buf, err := dev.BuildBuffer(chans, c.Samples, false)
	if err != nil {
		return err
	}
	defer buf.Close()

	fmt.Fprintln(w, "Started capturing data...")

	blocks := make(chan block, 4)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return capture(gctx, buf, ch, ts, c.Count, blocks) })
	g.Go(func() error { return avg.run(blocks) })
	return g.Wait()
}

func attachTrigger(ictx *iio.Context, dev *iio.Device, name string, rate int64) error {
	trig, err := ictx.FindDevice(name)
	if err != nil {
		return err
	}
	defer trig.Close()
	if rate > 0 {
		if err := iio.AttrWriteInt(trig, "sampling_frequency", rate); err != nil {
			return fmt.Errorf("set sampling rate: %w", err)
		}
	}
	return dev.SetTrigger(trig)
}
