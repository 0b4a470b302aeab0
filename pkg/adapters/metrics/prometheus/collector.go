package prometheus

import (
	"time"

	"github.com/aescanero/u64feed/pkg/ports"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector implements ports.MetricsCollector using Prometheus
type Collector struct {
	connections       *prometheus.CounterVec
	framesReceived    *prometheus.CounterVec
	frameBytes        prometheus.Counter
	framesSent        *prometheus.CounterVec
	pingsSent         prometheus.Counter
	transportErrors   prometheus.Counter
	sessionsClosed    *prometheus.CounterVec
	sessionState      *prometheus.GaugeVec
	handshakeDuration prometheus.Histogram
}

// NewCollector creates a collector registered with the default registry
func NewCollector() *Collector {
	return NewCollectorWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCollectorWithRegisterer creates a collector registered with reg
func NewCollectorWithRegisterer(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		connections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "u64feed_connections_total",
				Help: "Total number of connection attempts by result",
			},
			[]string{"result"},
		),
		framesReceived: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "u64feed_frames_received_total",
				Help: "Total number of data frames received",
			},
			[]string{"type"},
		),
		frameBytes: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "u64feed_frame_bytes_received_total",
				Help: "Total payload bytes received in data frames",
			},
		),
		framesSent: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "u64feed_frames_sent_total",
				Help: "Total number of data frames sent",
			},
			[]string{"type"},
		),
		pingsSent: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "u64feed_pings_sent_total",
				Help: "Total number of keepalive pings sent",
			},
		),
		transportErrors: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "u64feed_transport_errors_total",
				Help: "Total number of transport errors",
			},
		),
		sessionsClosed: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "u64feed_sessions_closed_total",
				Help: "Total number of sessions closed by reason",
			},
			[]string{"reason"},
		),
		sessionState: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "u64feed_session_state",
				Help: "1 for the current session state, 0 otherwise",
			},
			[]string{"state"},
		),
		handshakeDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "u64feed_handshake_duration_seconds",
				Help:    "Duration of connection attempts in seconds",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 15, 45},
			},
		),
	}
}

// RecordConnection records a connection attempt and its duration
func (c *Collector) RecordConnection(result string, handshake time.Duration) {
	c.connections.WithLabelValues(result).Inc()
	c.handshakeDuration.Observe(handshake.Seconds())
}

// RecordFrameReceived records an inbound data frame
func (c *Collector) RecordFrameReceived(messageType string, size int) {
	c.framesReceived.WithLabelValues(messageType).Inc()
	c.frameBytes.Add(float64(size))
}

// RecordFrameSent records an outbound data frame
func (c *Collector) RecordFrameSent(messageType string) {
	c.framesSent.WithLabelValues(messageType).Inc()
}

// RecordPing records a keepalive ping
func (c *Collector) RecordPing() {
	c.pingsSent.Inc()
}

// RecordTransportError records a transport error
func (c *Collector) RecordTransportError() {
	c.transportErrors.Inc()
}

// RecordSessionClosed records the end of a session
func (c *Collector) RecordSessionClosed(reason string) {
	c.sessionsClosed.WithLabelValues(reason).Inc()
}

// SetSessionState sets the state gauge so exactly one state reads 1
func (c *Collector) SetSessionState(state ports.SessionState) {
	for _, s := range []ports.SessionState{
		ports.SessionStateConnecting,
		ports.SessionStateOpen,
		ports.SessionStateClosed,
	} {
		v := 0.0
		if s == state {
			v = 1
		}
		c.sessionState.WithLabelValues(string(s)).Set(v)
	}
}
