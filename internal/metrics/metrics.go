// Package metrics holds the Prometheus collectors of the core. A nil
// *Metrics is valid and records nothing, which keeps tests free of
// registries.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "jabber"

type Metrics struct {
	registry *prometheus.Registry

	commands   *prometheus.CounterVec // by verb and outcome (ok, unknown, panic)
	stanzas    *prometheus.CounterVec // by account and element
	events     *prometheus.CounterVec // by kind
	broadcasts *prometheus.CounterVec // by event name
	dropped    prometheus.Counter     // stream subscriber copies dropped
	panics     *prometheus.CounterVec // by where (command, stanza, handler)

	connects  *prometheus.CounterVec // by outcome (ok, transport, auth)
	connected prometheus.Gauge

	queueDepth prometheus.Gauge
	tickTime   prometheus.Histogram
}

// New creates the collectors on a private registry, together with the Go
// runtime and process collectors.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "commands_total",
			Help:      "Commands consumed by the core loop",
		}, []string{"verb", "outcome"}),
		stanzas: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "stanzas_total",
			Help:      "Stanzas read from live connections",
		}, []string{"account", "element"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "events",
			Name:      "fired_total",
			Help:      "Events produced by composition",
		}, []string{"kind"}),
		broadcasts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "broadcasts_total",
			Help:      "Broadcasts fanned out to subscribers",
		}, []string{"name"}),
		dropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "stream_drops_total",
			Help:      "Broadcast copies dropped for slow stream subscribers",
		}),
		panics: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "recovered_panics_total",
			Help:      "Panics recovered without stopping the loop",
		}, []string{"where"}),
		connects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "connects_total",
			Help:      "Connection attempts by outcome",
		}, []string{"outcome"}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "connected_accounts",
			Help:      "Accounts currently connected",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "hub",
			Name:      "queue_depth",
			Help:      "Commands waiting for the core loop",
		}),
		tickTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "core",
			Name:      "tick_duration_seconds",
			Help:      "Duration of one core loop iteration",
			Buckets:   []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		}),
	}

	for _, c := range []prometheus.Collector{
		m.commands, m.stanzas, m.events, m.broadcasts, m.dropped, m.panics,
		m.connects, m.connected, m.queueDepth, m.tickTime,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Command(verb, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(verb, outcome).Inc()
}

func (m *Metrics) Stanza(account, element string) {
	if m == nil {
		return
	}
	m.stanzas.WithLabelValues(account, element).Inc()
}

func (m *Metrics) Event(kind string) {
	if m == nil {
		return
	}
	m.events.WithLabelValues(kind).Inc()
}

func (m *Metrics) Broadcast(name string) {
	if m == nil {
		return
	}
	m.broadcasts.WithLabelValues(name).Inc()
}

func (m *Metrics) StreamDrop() {
	if m == nil {
		return
	}
	m.dropped.Inc()
}

func (m *Metrics) Panic(where string) {
	if m == nil {
		return
	}
	m.panics.WithLabelValues(where).Inc()
}

func (m *Metrics) Connect(outcome string) {
	if m == nil {
		return
	}
	m.connects.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SetConnected(n int) {
	if m == nil {
		return
	}
	m.connected.Set(float64(n))
}

func (m *Metrics) SetQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) ObserveTick(seconds float64) {
	if m == nil {
		return
	}
	m.tickTime.Observe(seconds)
}
