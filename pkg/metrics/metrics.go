// Package metrics exports iio operation events as Prometheus metrics.
//
// Collector implements log.Logger, so it plugs in wherever an event logger
// goes:
//
//	reg := prometheus.NewRegistry()
//	m, _ := metrics.NewCollector(reg)
//	ctx, _ := iio.Open(c, uri, iio.WithEventLogger(m))
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/industrial-io/iio-go/pkg/log"
)

// Collector contains all Prometheus metrics derived from events.
type Collector struct {
	ContextsOpen      prometheus.Gauge
	AttrOps           *prometheus.CounterVec
	Transfers         *prometheus.CounterVec
	TransferBytes     *prometheus.CounterVec
	TransferDuration  *prometheus.HistogramVec
	Errors            *prometheus.CounterVec
	BridgeConnections prometheus.Gauge
	BridgeRequests    *prometheus.CounterVec
	BridgeLatency     *prometheus.HistogramVec
	Frames            *prometheus.CounterVec
	FrameBytes        *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them with registry.
func NewCollector(registry prometheus.Registerer) (*Collector, error) {
	m := &Collector{}
	m.initMetrics()
	if err := registry.Register(m); err != nil {
		return nil, fmt.Errorf("failed to register iio metrics: %w", err)
	}
	return m, nil
}

func (m *Collector) initMetrics() {
	m.ContextsOpen = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iio_contexts_open",
		Help: "Number of open inner contexts.",
	})
	m.AttrOps = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_attr_ops_total",
		Help: "Attribute reads and writes partitioned by entity kind and direction.",
	}, []string{"kind", "direction"})
	m.Transfers = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_buffer_ops_total",
		Help: "Buffer operations partitioned by operation.",
	}, []string{"op"})
	m.TransferBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_buffer_bytes_total",
		Help: "Sample bytes moved by refill and push.",
	}, []string{"direction"})
	m.TransferDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iio_buffer_op_duration_seconds",
		Help:    "Time spent in refill and push.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10), // 0.1ms to ~26s
	}, []string{"op"})
	m.Errors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_errors_total",
		Help: "Failures partitioned by layer.",
	}, []string{"layer"})
	m.BridgeConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "iio_bridge_connections",
		Help: "Number of connected bridge clients.",
	})
	m.BridgeRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_bridge_requests_total",
		Help: "Bridge requests served partitioned by op and status.",
	}, []string{"op", "status"})
	m.BridgeLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "iio_bridge_request_duration_seconds",
		Help:    "Time the bridge spent on a request.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"op"})
	m.Frames = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_bridge_frames_total",
		Help: "Bridge frames partitioned by direction.",
	}, []string{"direction"})
	m.FrameBytes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "iio_bridge_frame_bytes_total",
		Help: "Bridge frame bytes including the length prefix.",
	}, []string{"direction"})
}

func (m *Collector) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.ContextsOpen, m.AttrOps, m.Transfers, m.TransferBytes, m.TransferDuration,
		m.Errors, m.BridgeConnections, m.BridgeRequests, m.BridgeLatency,
		m.Frames, m.FrameBytes,
	}
}

// Describe implements prometheus.Collector.
func (m *Collector) Describe(ch chan<- *prometheus.Desc) {
	for _, c := range m.collectors() {
		c.Describe(ch)
	}
}

// Collect implements prometheus.Collector.
func (m *Collector) Collect(ch chan<- prometheus.Metric) {
	for _, c := range m.collectors() {
		c.Collect(ch)
	}
}

// Log implements log.Logger.
func (m *Collector) Log(e log.Event) {
	switch {
	case e.StateChange != nil:
		m.recordState(e.StateChange)
	case e.Attr != nil:
		m.AttrOps.WithLabelValues(e.Attr.Kind.String(), e.Direction.String()).Inc()
	case e.Transfer != nil:
		m.recordTransfer(e.Direction, e.Transfer)
	case e.Error != nil:
		m.Errors.WithLabelValues(e.Error.Layer.String()).Inc()
	case e.Message != nil:
		if e.Message.Type == log.MessageTypeResponse {
			m.BridgeRequests.WithLabelValues(e.Message.Op, e.Message.Status).Inc()
			if e.Message.ProcessingTime != nil {
				m.BridgeLatency.WithLabelValues(e.Message.Op).Observe(e.Message.ProcessingTime.Seconds())
			}
		}
	case e.Frame != nil:
		dir := e.Direction.String()
		m.Frames.WithLabelValues(dir).Inc()
		m.FrameBytes.WithLabelValues(dir).Add(float64(e.Frame.Size))
	}
}

func (m *Collector) recordState(s *log.StateChangeEvent) {
	switch s.Entity {
	case log.StateEntityContext:
		switch s.NewState {
		case "open":
			m.ContextsOpen.Inc()
		case "closed":
			m.ContextsOpen.Dec()
		}
	case log.StateEntityConnection:
		switch s.NewState {
		case "CONNECTED":
			m.BridgeConnections.Inc()
		case "DISCONNECTED":
			m.BridgeConnections.Dec()
		}
	}
}

func (m *Collector) recordTransfer(dir log.Direction, t *log.TransferEvent) {
	op := t.Op.String()
	m.Transfers.WithLabelValues(op).Inc()
	switch t.Op {
	case log.TransferRefill, log.TransferPush:
		m.TransferBytes.WithLabelValues(dir.String()).Add(float64(t.Bytes))
		m.TransferDuration.WithLabelValues(op).Observe(t.Duration.Seconds())
	}
}

var (
	_ log.Logger           = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)
