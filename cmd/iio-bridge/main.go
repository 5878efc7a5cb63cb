// Command iio-bridge serves an IIO context to remote clients over TCP.
//
// Clients open the served context as "ip:<host>[:port]"; a bare "ip:" finds
// the bridge through mDNS.
//
// Usage:
//
//	iio-bridge [flags]
//
// Flags:
//
//	-uri string       Context to serve (default "mem:dummy")
//	-yaml string      Serve a simulated context loaded from this YAML file
//	-listen string    Listen address (default ":30431")
//	-name string      mDNS instance name (default: the context name)
//	-no-mdns          Do not advertise on the local network
//	-metrics string   Serve Prometheus metrics on this address
//	-log-level string Log level: debug, info, warn, error (default "info")
//	-event-log string Append operation events to this file
//
// Examples:
//
//	# Serve the built-in simulated context
//	iio-bridge
//
//	# Serve a custom simulated board with metrics
//	iio-bridge -yaml board.yaml -metrics :9431
package main

import (
	"cmp"
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/industrial-io/iio-go/internal/cli"
	"github.com/industrial-io/iio-go/pkg/backend"
	"github.com/industrial-io/iio-go/pkg/backend/remote"
	"github.com/industrial-io/iio-go/pkg/discovery"
	"github.com/industrial-io/iio-go/pkg/iio"
	"github.com/industrial-io/iio-go/pkg/metrics"
	"github.com/industrial-io/iio-go/pkg/transport"
	"github.com/industrial-io/iio-go/pkg/version"
)

type config struct {
	URI         string
	YAML        string
	Listen      string
	Name        string
	Description string
	NoMDNS      bool
	Interface   string
	Metrics     string
	log         cli.LogFlags
}

func parseFlags(args []string) (*config, error) {
	var c config
	fs := flag.NewFlagSet("iio-bridge", flag.ContinueOnError)
	fs.StringVar(&c.URI, "uri", "mem:dummy", "Context to serve")
	fs.StringVar(&c.YAML, "yaml", "", "Serve a simulated context loaded from this YAML file")
	fs.StringVar(&c.Listen, "listen", fmt.Sprintf(":%d", transport.DefaultPort), "Listen address")
	fs.StringVar(&c.Name, "name", "", "mDNS instance name (default: the context name)")
	fs.StringVar(&c.Description, "description", "", "Description to advertise (default: the context description)")
	fs.BoolVar(&c.NoMDNS, "no-mdns", false, "Do not advertise on the local network")
	fs.StringVar(&c.Interface, "iface", "", "Network interface to advertise on (default: all)")
	fs.StringVar(&c.Metrics, "metrics", "", "Serve Prometheus metrics on this address, e.g. :9431")
	c.log.Register(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	if c.YAML != "" {
		c.URI = backend.SchemeYAML + ":" + c.YAML
	}
	if _, err := backend.ParseURI(c.URI); err != nil {
		return nil, err
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

	if err := run(ctx, c, nil); err != nil {
		cli.Fatal(1, "Error: %v", err)
	}
}

// run serves until ctx ends. started, if not nil, receives the bridge
// address once it listens.
func run(ctx context.Context, c *config, started chan<- net.Addr) error {
	reg := prometheus.NewRegistry()
	collector, err := metrics.NewCollector(reg)
	if err != nil {
		return err
	}

	logging, err := c.log.Setup(os.Stderr, collector)
	if err != nil {
		return err
	}
	defer logging.Close()
	logger := logging.Logger

	// Open the context once up front so a bad URI fails here rather than
	// on the first client, and to learn what to advertise.
	probe, err := iio.Open(ctx, c.URI, logging.Options()...)
	if err != nil {
		return fmt.Errorf("open %s: %w", c.URI, err)
	}
	info := &discovery.BridgeInfo{
		InstanceName: c.Name,
		Context:      cmp.Or(probe.Name(), "iio"),
		Description:  cmp.Or(c.Description, probe.Description()),
		Backend:      backendScheme(c.URI),
		Version:      version.Library().String(),
	}
	if err := probe.Close(); err != nil {
		logger.Warn("closing probe context", "error", err)
	}

	server, err := remote.NewServer(remote.ServerConfig{
		Address:     c.Listen,
		URI:         c.URI,
		Logger:      logger,
		EventLogger: logging.Events,
	})
	if err != nil {
		return err
	}
	if err := server.Start(ctx); err != nil {
		return err
	}
	addr := server.Addr()
	logger.Info("bridge listening", "addr", addr.String(), "uri", c.URI, "context", info.Context)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down", "sessions", server.SessionCount())
		return server.Stop()
	})

	if !c.NoMDNS {
		info.Port = uint16(addr.(*net.TCPAddr).Port)
		adv := discovery.NewMDNSAdvertiser(discovery.AdvertiserConfig{Interface: c.Interface})
		if err := adv.Advertise(gctx, info); err != nil {
			// The bridge is still reachable by address.
			logger.Warn("mDNS advertisement failed", "error", err)
		} else {
			logger.Info("advertising", "service", discovery.ServiceType, "instance", cmp.Or(info.InstanceName, info.Context))
			g.Go(func() error {
				<-gctx.Done()
				adv.StopAll()
				return nil
			})
		}
	}

	if c.Metrics != "" {
		srv := &http.Server{
			Addr:              c.Metrics,
			Handler:           metricsMux(reg),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("metrics listening", "addr", c.Metrics)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	if started != nil {
		started <- addr
	}
	return g.Wait()
}

func metricsMux(reg *prometheus.Registry) *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{
		ErrorLog:      slog.NewLogLogger(slog.Default().Handler(), slog.LevelError),
		ErrorHandling: promhttp.HTTPErrorOnError,
	}))
	return mux
}

func backendScheme(uri string) string {
	u, err := backend.ParseURI(uri)
	if err != nil {
		return ""
	}
	return u.Scheme
}
