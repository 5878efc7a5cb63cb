// Command iio-shell is an interactive console for an IIO context.
//
// Usage:
//
//	iio-shell [flags]
//
// Flags:
//
//	-u string       Use the context with the provided URI
//	-n string       Use the network backend with the provided hostname
//	-c string       Run one command and exit
//	-log-level      debug, info, warn or error
//	-event-log      Record operation events to this file
//
// Examples:
//
//	# Explore the built-in simulated context
//	iio-shell -u mem:dummy
//
//	# Read one attribute from a bridge
//	iio-shell -n 192.168.1.20 -c "read adc0@sampling_frequency"
package main

import (
	"context"
	"flag"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/industrial-io/iio-go/cmd/iio-shell/interactive"
	"github.com/industrial-io/iio-go/internal/cli"
)

type config struct {
	ctx     cli.ContextFlags
	log     cli.LogFlags
	command string
}

func parseFlags(args []string) (*config, error) {
	var c config
	fs := flag.NewFlagSet("iio-shell", flag.ContinueOnError)
	c.ctx.Register(fs)
	c.log.Register(fs)
	fs.StringVar(&c.command, "c", "", "Run one command and exit")
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, c, os.Stdout); err != nil {
		cli.Fatal(1, "Error: %v", err)
	}
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

	sh := interactive.New(ictx, w)
	defer sh.Close()

	if c.command != "" {
		sh.Exec(c.command)
		return nil
	}
	return sh.Run(ctx)
}
