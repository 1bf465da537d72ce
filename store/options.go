package store

import (
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/jamalex/home-assistant-customizations/metric"
)

// storeOptions holds configuration applied by functional options
type storeOptions struct {
	metricsReg *metric.Registry
}

// Option configures the store
type Option func(*storeOptions)

// WithMetrics exposes store gauges and counters through the metrics registry
func WithMetrics(registry *metric.Registry) Option {
	return func(o *storeOptions) {
		o.metricsReg = registry
	}
}

// Statistics tracks cache lookup outcomes. Always enabled; Prometheus
// export is optional on top.
type Statistics struct {
	hits   atomic.Int64
	misses atomic.Int64
}

// NewStatistics creates zeroed statistics
func NewStatistics() *Statistics {
	return &Statistics{}
}

// Track records one lookup outcome
func (s *Statistics) Track(hit bool) {
	if hit {
		s.hits.Add(1)
	} else {
		s.misses.Add(1)
	}
}

// Hits returns the number of successful lookups
func (s *Statistics) Hits() int64 {
	return s.hits.Load()
}

// Misses returns the number of failed lookups
func (s *Statistics) Misses() int64 {
	return s.misses.Load()
}

// HitRate returns the fraction of lookups that hit, or 0 with no lookups
func (s *Statistics) HitRate() float64 {
	hits := s.hits.Load()
	total := hits + s.misses.Load()
	if total == 0 {
		return 0
	}
	return float64(hits) / float64(total)
}

// storeMetrics holds Prometheus metrics for the store
type storeMetrics struct {
	registryEntries   *prometheus.GaugeVec
	registryRefreshes *prometheus.CounterVec
	stateEntries      prometheus.Gauge
	stateUpdates      prometheus.Counter
	serviceDomains    prometheus.Gauge
}

// newStoreMetrics creates and registers store metrics
func newStoreMetrics(registry *metric.Registry) (*storeMetrics, error) {
	m := &storeMetrics{
		registryEntries: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "hass",
			Subsystem: "store",
			Name:      "registry_entries",
			Help:      "Current number of records per registry kind",
		}, []string{"kind"}),

		registryRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "store",
			Name:      "registry_refreshes_total",
			Help:      "Total wholesale registry replacements per kind",
		}, []string{"kind"}),

		stateEntries: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hass",
			Subsystem: "store",
			Name:      "state_entries",
			Help:      "Current number of cached entity states",
		}),

		stateUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hass",
			Subsystem: "store",
			Name:      "state_updates_total",
			Help:      "Total incremental state overwrites",
		}),

		serviceDomains: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "hass",
			Subsystem: "store",
			Name:      "service_domains",
			Help:      "Current number of domains in the service catalog",
		}),
	}

	if err := registry.RegisterGaugeVec("store", "registry_entries", m.registryEntries); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounterVec("store", "registry_refreshes", m.registryRefreshes); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("store", "state_entries", m.stateEntries); err != nil {
		return nil, err
	}
	if err := registry.RegisterCounter("store", "state_updates", m.stateUpdates); err != nil {
		return nil, err
	}
	if err := registry.RegisterGauge("store", "service_domains", m.serviceDomains); err != nil {
		return nil, err
	}

	return m, nil
}
