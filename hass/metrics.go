package hass

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamalex/home-assistant-customizations/metric"
)

// Metrics holds Prometheus metrics for the session core
type Metrics struct {
	framesReceived   *prometheus.CounterVec
	requestsSent     *prometheus.CounterVec
	malformedFrames  prometheus.Counter
	reconnects       prometheus.Counter
	probeTimeouts    prometheus.Counter
	pendingCallbacks prometheus.Gauge
	sessionStatus    prometheus.Gauge
}

// newMetrics creates and registers session metrics
func newMetrics(registry *metric.Registry) (*Metrics, error) {
	m := &Metrics{
		framesReceived: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "frames_received_total",
			Help:      "Total inbound frames by type",
		}, []string{"type"}),

		requestsSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "requests_sent_total",
			Help:      "Total outbound requests by type",
		}, []string{"type"}),

		malformedFrames: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "malformed_frames_total",
			Help:      "Total inbound payloads dropped as unparseable",
		}),

		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "reconnects_total",
			Help:      "Total reconnection attempts",
		}),

		probeTimeouts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "probe_timeouts_total",
			Help:      "Total liveness probes that went unanswered",
		}),

		pendingCallbacks: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "pending_callbacks",
			Help:      "Requests currently awaiting a response",
		}),

		sessionStatus: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hass",
			Subsystem: "session",
			Name:      "status",
			Help:      "Session state (0 disconnected, 1 connecting, 2 authenticating, 3 ready, 4 stopping)",
		}),
	}

	if err := registry.RegisterCounterVec("session", "frames_received", m.framesReceived); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("session", "requests_sent", m.requestsSent); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("session", "malformed_frames", m.malformedFrames); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("session", "reconnects", m.reconnects); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("session", "probe_timeouts", m.probeTimeouts); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("session", "pending_callbacks", m.pendingCallbacks); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("session", "status", m.sessionStatus); err != nil {
		return nil, err
	}

	return m, nil
}
