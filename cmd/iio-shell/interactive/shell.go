// Package interactive provides the command loop of iio-shell.
package interactive

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/chzyer/readline"

	"github.com/industrial-io/iio-go/pkg/iio"
	"github.com/industrial-io/iio-go/pkg/inspect"
)

// Shell runs commands against one context.
type Shell struct {
	inspector *inspect.Inspector
	formatter *inspect.Formatter
	out       io.Writer
}

// New creates a shell writing to out. It holds its own share of ctx.
func New(ctx *iio.Context, out io.Writer) *Shell {
	return &Shell{
		inspector: inspect.NewInspector(ctx),
		formatter: inspect.NewFormatter(),
		out:       out,
	}
}

// Close releases the shell's share of the context.
func (s *Shell) Close() error {
	return s.inspector.Close()
}

// Run reads commands from a readline prompt until quit, EOF or ctx ends.
func (s *Shell) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "iio> ",
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		AutoComplete:    s.completer(),
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	s.out = rl.Stdout()
	stop := context.AfterFunc(ctx, func() { rl.Close() })
	defer stop()

	s.printHelp()
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			fmt.Fprintln(s.out, "Exiting...")
			return nil
		}
		if s.Exec(line) {
			return nil
		}
	}
}

func (s *Shell) completer() *readline.PrefixCompleter {
	var devs []readline.PrefixCompleterInterface
	for dev := range s.inspector.Context().Devices() {
		name := dev.Name()
		if name == "" {
			name = dev.ID()
		}
		devs = append(devs, readline.PcItem(name))
		dev.Close()
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("help"),
		readline.PcItem("ls", devs...),
		readline.PcItem("read", devs...),
		readline.PcItem("write", devs...),
		readline.PcItem("trigger", devs...),
		readline.PcItem("reg", devs...),
		readline.PcItem("capture", devs...),
		readline.PcItem("stop"),
		readline.PcItem("timeout"),
		readline.PcItem("version"),
		readline.PcItem("quit"),
	)
}

// Exec runs one command line and reports whether the shell should exit.
func (s *Shell) Exec(line string) bool {
	parts := strings.Fields(strings.TrimSpace(line))
	if len(parts) == 0 {
		return false
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	switch cmd {
	case "help", "?":
		s.printHelp()
	case "ls", "inspect", "i":
		s.cmdList(args)
	case "read", "r":
		s.cmdRead(args)
	case "write", "w":
		s.cmdWrite(args)
	case "trigger":
		s.cmdTrigger(args)
	case "reg":
		s.cmdReg(args)
	case "capture", "cap":
		s.cmdCapture(args)
	case "stop":
		s.cmdStop()
	case "timeout":
		s.cmdTimeout(args)
	case "version":
		s.cmdVersion()
	case "quit", "exit", "q":
		fmt.Fprintln(s.out, "Exiting...")
		return true
	default:
		fmt.Fprintf(s.out, "Unknown command: %s (type 'help' for commands)\n", cmd)
	}
	return false
}

func (s *Shell) printHelp() {
	fmt.Fprintln(s.out, `
IIO Shell Commands:
  Inspection:
    ls [path]                   - Show the context tree, a device, or an attribute set
    read <path>                 - Read an attribute value
    write <path> <value>        - Write an attribute value

  Devices:
    trigger <dev> [trig|none]   - Show, set or remove the trigger of a device
    reg <dev> <addr> [value]    - Read or write a debug register
    capture <dev> <chan> [n]    - Refill one block of n samples and print them
    stop                        - Disable every scan element of every device
    timeout <duration>          - Set the backend timeout, e.g. 500ms

  General:
    version                     - Show the backend version
    help                        - Show this help
    quit                        - Exit

  Path Format:
    @attr, dev, dev@attr, dev/debug@attr, dev/buffer@attr,
    dev/chan@attr, dev/out/chan@attr`)
}

func (s *Shell) errorf(err error) {
	fmt.Fprintf(s.out, "Error: %v\n", err)
}

func (s *Shell) cmdList(args []string) {
	if len(args) == 0 {
		fmt.Fprint(s.out, s.formatter.FormatTree(s.inspector.Inspect()))
		return
	}

	p, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return
	}
	if p.Scope == inspect.ScopeDevice && p.IsPartial() {
		dev, err := s.inspector.InspectDevice(p.Device)
		if err != nil {
			s.errorf(err)
			return
		}
		fmt.Fprint(s.out, s.formatter.FormatDevice(dev, 0))
		return
	}

	attrs, err := s.inspector.List(args[0])
	if err != nil {
		s.errorf(err)
		return
	}
	if len(attrs) == 0 {
		fmt.Fprintln(s.out, "(no attributes)")
		return
	}
	fmt.Fprint(s.out, s.formatter.FormatAttrs(attrs, 1))
}

func (s *Shell) cmdRead(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: read <path>")
		fmt.Fprintln(s.out, "  Example: read dummy0@sampling_frequency")
		return
	}
	p, err := inspect.ParsePath(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid path: %v\n", err)
		return
	}
	if p.IsPartial() {
		s.cmdList(args)
		return
	}
	v, err := s.inspector.Read(args[0])
	if err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprintf(s.out, "%s = %s\n", p.Attr, s.formatter.FormatValue(v))
}

func (s *Shell) cmdWrite(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: write <path> <value>")
		fmt.Fprintln(s.out, "  Example: write dummy0@sampling_frequency 250")
		return
	}
	value := strings.Trim(strings.Join(args[1:], " "), "\"'")
	if err := s.inspector.Write(args[0], value); err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprintf(s.out, "OK: %s = %s\n", args[0], value)
}

func (s *Shell) device(name string) (*iio.Device, bool) {
	dev, err := s.inspector.Context().FindDevice(name)
	if err != nil {
		s.errorf(err)
		return nil, false
	}
	return dev, true
}

func (s *Shell) cmdTrigger(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: trigger <dev> [trig|none]")
		return
	}
	dev, ok := s.device(args[0])
	if !ok {
		return
	}
	defer dev.Close()

	switch {
	case len(args) == 1:
		trig, err := dev.Trigger()
		if errors.Is(err, iio.ErrNotFound) {
			fmt.Fprintf(s.out, "%s has no trigger\n", dev.ID())
			return
		}
		if err != nil {
			s.errorf(err)
			return
		}
		defer trig.Close()
		fmt.Fprintf(s.out, "%s trigger: %s\n", dev.ID(), trig.ID())
	case args[1] == "none":
		if err := dev.RemoveTrigger(); err != nil {
			s.errorf(err)
			return
		}
		fmt.Fprintf(s.out, "OK: %s trigger removed\n", dev.ID())
	default:
		trig, ok := s.device(args[1])
		if !ok {
			return
		}
		defer trig.Close()
		if err := dev.SetTrigger(trig); err != nil {
			s.errorf(err)
			return
		}
		fmt.Fprintf(s.out, "OK: %s trigger: %s\n", dev.ID(), trig.ID())
	}
}

func parseUint32(s string) (uint32, error) {
	v, err := strconv.ParseUint(s, 0, 32)
	return uint32(v), err
}

func (s *Shell) cmdReg(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: reg <dev> <addr> [value]")
		return
	}
	addr, err := parseUint32(args[1])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid address: %s\n", args[1])
		return
	}
	dev, ok := s.device(args[0])
	if !ok {
		return
	}
	defer dev.Close()

	if len(args) == 2 {
		v, err := dev.RegRead(addr)
		if err != nil {
			s.errorf(err)
			return
		}
		fmt.Fprintf(s.out, "0x%02x = 0x%x\n", addr, v)
		return
	}

	value, err := parseUint32(args[2])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid value: %s\n", args[2])
		return
	}
	if err := dev.RegWrite(addr, value); err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprintf(s.out, "OK: 0x%02x = 0x%x\n", addr, value)
}

func (s *Shell) cmdCapture(args []string) {
	if len(args) < 2 {
		fmt.Fprintln(s.out, "Usage: capture <dev> <chan> [samples]")
		return
	}
	n := 8
	if len(args) > 2 {
		v, err := strconv.Atoi(args[2])
		if err != nil || v <= 0 {
			fmt.Fprintf(s.out, "Invalid sample count: %s\n", args[2])
			return
		}
		n = v
	}
	dev, ok := s.device(args[0])
	if !ok {
		return
	}
	defer dev.Close()

	ch, err := dev.FindChannel(args[1], false)
	if err != nil {
		s.errorf(err)
		return
	}
	defer ch.Close()

	buf, err := dev.BuildBuffer([]*iio.Channel{ch}, n, false)
	if err != nil {
		s.errorf(err)
		return
	}
	defer buf.Close()

	if _, err := buf.Refill(); err != nil {
		s.errorf(err)
		return
	}
	values, err := iio.Read[int64](buf, ch)
	if err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprintf(s.out, "%s/%s (%s): %v\n", dev.ID(), ch.ID(), ch.Format(), values)
}

// cmdStop leaves every buffer-capable device with no enabled channel, so
// that a crashed capture does not keep a device acquiring.
func (s *Shell) cmdStop() {
	stopped := 0
	for dev := range s.inspector.Context().Devices() {
		if dev.IsBufferCapable() {
			for ch := range dev.Channels() {
				if ch.IsScanElement() {
					if err := ch.Disable(); err != nil {
						fmt.Fprintf(s.out, "Error: %s/%s: %v\n", dev.ID(), ch.ID(), err)
					}
				}
				ch.Close()
			}
			stopped++
		}
		dev.Close()
	}
	fmt.Fprintf(s.out, "OK: stopped %d device(s)\n", stopped)
}

func (s *Shell) cmdTimeout(args []string) {
	if len(args) < 1 {
		fmt.Fprintln(s.out, "Usage: timeout <duration>")
		return
	}
	d, err := time.ParseDuration(args[0])
	if err != nil {
		fmt.Fprintf(s.out, "Invalid duration: %s\n", args[0])
		return
	}
	if err := s.inspector.Context().SetTimeout(d); err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprintf(s.out, "OK: timeout %s\n", d)
}

func (s *Shell) cmdVersion() {
	v, err := s.inspector.Context().Version()
	if err != nil {
		s.errorf(err)
		return
	}
	fmt.Fprintf(s.out, "Backend: %s", v.Library)
	if v.Kernel != "" {
		fmt.Fprintf(s.out, " (kernel %s)", v.Kernel)
	}
	fmt.Fprintln(s.out)
}
