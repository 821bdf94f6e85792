// Package metrics provides Prometheus observability for the venue server.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector bundles the Prometheus metrics for the simulation core and
// provides an HTTP handler to expose them.
type Collector struct {
	gatherer prometheus.Gatherer

	TickDuration   prometheus.Histogram
	PressureLevel  prometheus.Gauge
	BleedTier      prometheus.Gauge
	Contradictions prometheus.Counter
	EventsWritten  prometheus.Counter
	WSConnections  prometheus.Gauge
}

// NewCollector registers the venue metrics against the provided registerer,
// defaulting to the global Prometheus registry when nil.
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gatherer := prometheus.DefaultGatherer
	if g, ok := reg.(prometheus.Gatherer); ok {
		gatherer = g
	}

	tickDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vesper_tick_duration_seconds",
		Help:    "Simulation tick latency in seconds.",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
	if err := register(reg, tickDuration); err != nil {
		return nil, err
	}

	pressure := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_pressure_level",
		Help: "Current ambient pressure level (0-100).",
	})
	if err := register(reg, pressure); err != nil {
		return nil, err
	}

	tier := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_bleed_tier",
		Help: "Current published bleed tier (0-3).",
	})
	if err := register(reg, tier); err != nil {
		return nil, err
	}

	contradictions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vesper_contradictions_total",
		Help: "Total anchor contradictions dispatched.",
	})
	if err := register(reg, contradictions); err != nil {
		return nil, err
	}

	eventsWritten := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vesper_events_written_total",
		Help: "Total immutable events appended to the ledger.",
	})
	if err := register(reg, eventsWritten); err != nil {
		return nil, err
	}

	wsConnections := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vesper_ws_connections",
		Help: "Active WebSocket observer connections.",
	})
	if err := register(reg, wsConnections); err != nil {
		return nil, err
	}

	return &Collector{
		gatherer:       gatherer,
		TickDuration:   tickDuration,
		PressureLevel:  pressure,
		BleedTier:      tier,
		Contradictions: contradictions,
		EventsWritten:  eventsWritten,
		WSConnections:  wsConnections,
	}, nil
}

// Handler returns an HTTP handler serving the registered metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}

// register tolerates double registration so tests can rebuild collectors
// against the default registry.
func register(reg prometheus.Registerer, col prometheus.Collector) error {
	if err := reg.Register(col); err != nil {
		if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
			return nil
		}
		return err
	}
	return nil
}
