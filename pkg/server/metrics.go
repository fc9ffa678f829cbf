package server

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "runewire").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for dispatch duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "runewire",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the server's Prometheus collectors. A nil *Metrics records
// nothing, which keeps sessions built outside a Server (tests, tools) cheap.
type Metrics struct {
	framesDecoded    *prometheus.CounterVec
	protocolErrors   *prometheus.CounterVec
	handlerFailures  *prometheus.CounterVec
	dispatchDuration prometheus.Histogram
	activeSessions   prometheus.Gauge
	connections      *prometheus.CounterVec
	bytesReceived    prometheus.Counter
	bytesSent        prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		framesDecoded: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_decoded_total",
			Help:        "Frames decoded and dispatched, by opcode",
			ConstLabels: config.ConstLabels,
		}, []string{"opcode"}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "protocol_errors_total",
			Help:        "Frames rejected as protocol errors, by kind",
			ConstLabels: config.ConstLabels,
		}, []string{"kind"}),

		handlerFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "handler_failures_total",
			Help:        "Handler errors and panics caught at the dispatcher",
			ConstLabels: config.ConstLabels,
		}, []string{"opcode", "reason"}),

		dispatchDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_duration_seconds",
			Help:        "Time spent in frame handlers",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Sessions past the handshake and not yet disconnected",
			ConstLabels: config.ConstLabels,
		}),

		connections: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "connections_total",
			Help:        "Accepted connections by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"result"}),

		bytesReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "received_bytes_total",
			Help:        "Bytes read from game transports",
			ConstLabels: config.ConstLabels,
		}),

		bytesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "sent_bytes_total",
			Help:        "Frame bytes written to game transports",
			ConstLabels: config.ConstLabels,
		}),
	}
}

func (m *Metrics) frameDispatched(opcode uint8, d time.Duration) {
	if m == nil {
		return
	}
	m.framesDecoded.WithLabelValues(strconv.Itoa(int(opcode))).Inc()
	m.dispatchDuration.Observe(d.Seconds())
}

func (m *Metrics) protocolError(err error) {
	if m == nil {
		return
	}
	m.protocolErrors.WithLabelValues(protocolErrorKind(err)).Inc()
}

func (m *Metrics) handlerFailure(opcode uint8, panicked bool) {
	if m == nil {
		return
	}
	reason := "error"
	if panicked {
		reason = "panic"
	}
	m.handlerFailures.WithLabelValues(strconv.Itoa(int(opcode)), reason).Inc()
}

func (m *Metrics) sessionOpened() {
	if m == nil {
		return
	}
	m.activeSessions.Inc()
	m.connections.WithLabelValues("accepted").Inc()
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.activeSessions.Dec()
}

func (m *Metrics) connectionRejected(result string) {
	if m == nil {
		return
	}
	m.connections.WithLabelValues(result).Inc()
}

func (m *Metrics) received(n int) {
	if m == nil {
		return
	}
	m.bytesReceived.Add(float64(n))
}

func (m *Metrics) sent(n int) {
	if m == nil {
		return
	}
	m.bytesSent.Add(float64(n))
}

func protocolErrorKind(err error) string {
	switch {
	case errors.Is(err, ErrUnknownOpcode):
		return "unknown_opcode"
	case errors.Is(err, ErrUnhandledFrame):
		return "unhandled_frame"
	case errors.Is(err, ErrUnrecognizedInterface):
		return "unrecognized_interface"
	default:
		return "other"
	}
}
