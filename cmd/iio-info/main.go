// Command iio-info prints the devices, channels and attributes of an IIO
// context.
//
// Usage:
//
//	iio-info [flags]
//
// Flags:
//
//	-u string       Use the context with the provided URI
//	-n string       Use the network backend with the provided hostname
//	-s              Scan for available contexts instead
//	-d string       Print only the device with this id or name
//	-typed          Print attribute values parsed as numbers or booleans
//
// Examples:
//
//	# Local context, or the host in IIOD_REMOTE
//	iio-info
//
//	# The built-in simulated context
//	iio-info -u mem:dummy
//
//	# Bridges advertised on the local network
//	iio-info -s
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/industrial-io/iio-go/internal/cli"
	"github.com/industrial-io/iio-go/pkg/iio"
	"github.com/industrial-io/iio-go/pkg/inspect"
	"github.com/industrial-io/iio-go/pkg/version"
)

type config struct {
	ctx    cli.ContextFlags
	log    cli.LogFlags
	scan   bool
	device string
	typed  bool
	wait   time.Duration
}

func parseFlags(args []string) (*config, error) {
	var c config
	fs := flag.NewFlagSet("iio-info", flag.ContinueOnError)
	c.ctx.Register(fs)
	c.log.Register(fs)
	fs.BoolVar(&c.scan, "s", false, "Scan for available contexts")
	fs.StringVar(&c.device, "d", "", "Print only the device with this id or name")
	fs.BoolVar(&c.typed, "typed", false, "Print attribute values parsed as numbers or booleans")
	fs.DurationVar(&c.wait, "scan-timeout", 5*time.Second, "Upper bound on a scan")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return &c, nil
}

func main() {
	c, err := parseFlags(os.Args[1:])
	if err != nil {
		os.Exit(2)
	}
	if err := run(context.Background(), c, os.Stdout); err != nil {
		cli.Fatal(1, "Error: %v", err)
	}
}

func run(ctx context.Context, c *config, w io.Writer) error {
	fmt.Fprintf(w, "Library version: %s\n", version.Library())

	logging, err := c.log.Setup(os.Stderr)
	if err != nil {
		return err
	}
	defer logging.Close()

	if c.scan {
		return scan(ctx, c.wait, w)
	}

	ictx, err := c.ctx.Open(ctx, logging.Options()...)
	if err != nil {
		return err
	}
	defer ictx.Close()

	if v, err := ictx.Version(); err == nil {
		fmt.Fprintf(w, "Backend version: %s", v.Library)
		if v.Kernel != "" {
			fmt.Fprintf(w, " (kernel %s)", v.Kernel)
		}
		fmt.Fprintln(w)
	}

	insp := inspect.NewInspector(ictx)
	defer insp.Close()

	f := inspect.NewFormatter()
	f.TypedValues = c.typed

	if c.device != "" {
		dev, err := insp.InspectDevice(c.device)
		if err != nil {
			return err
		}
		fmt.Fprint(w, f.FormatDevice(dev, 0))
		return nil
	}

	fmt.Fprint(w, f.FormatTree(insp.Inspect()))
	return nil
}

func scan(ctx context.Context, timeout time.Duration, w io.Writer) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	infos, err := iio.Scan(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%d context(s) found:\n", len(infos))
	for i, info := range infos {
		fmt.Fprintf(w, "\t%d: %s [%s]\n", i, info.Description, info.URI)
	}
	return nil
}
