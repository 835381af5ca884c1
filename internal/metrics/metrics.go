// Package metrics holds the Prometheus collectors of the casa server.
//
// Every method is safe on a nil *Metrics so that components can be built
// without instrumentation in tests.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "casa"

// Outcome labels.
const (
	OutcomeOK       = "ok"
	OutcomeSkipped  = "skipped"
	OutcomeError    = "error"
	OutcomeFallback = "fallback"
)

type Metrics struct {
	registry *prometheus.Registry

	commands          *prometheus.CounterVec
	assistantCalls    *prometheus.CounterVec
	assistantDuration *prometheus.HistogramVec
	eventsPublished   *prometheus.CounterVec
	sessions          prometheus.Gauge
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	rateLimited       prometheus.Counter
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Household commands dispatched, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		assistantCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_calls_total",
			Help:      "Assistant calls, by operation and outcome.",
		}, []string{"call", "outcome"}),
		assistantDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "assistant_call_duration_seconds",
			Help:      "Assistant call latency.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"call"}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_published_total",
			Help:      "Household events sent to the event feed, by outcome.",
		}, []string{"outcome"}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Households currently held in memory.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests, by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		rateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter.",
		}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.commands,
		m.assistantCalls,
		m.assistantDuration,
		m.eventsPublished,
		m.sessions,
		m.httpRequests,
		m.httpDuration,
		m.rateLimited,
	)
	return m
}

// Registry exposes the registry for tests and custom gatherers.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) CommandDispatched(kind, outcome string) {
	if m == nil {
		return
	}
	m.commands.WithLabelValues(kind, outcome).Inc()
}

func (m *Metrics) AssistantCall(call, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.assistantCalls.WithLabelValues(call, outcome).Inc()
	m.assistantDuration.WithLabelValues(call).Observe(elapsed.Seconds())
}

func (m *Metrics) EventPublished(outcome string) {
	if m == nil {
		return
	}
	m.eventsPublished.WithLabelValues(outcome).Inc()
}

func (m *Metrics) SessionOpened() {
	if m == nil {
		return
	}
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	if m == nil {
		return
	}
	m.sessions.Dec()
}

func (m *Metrics) HTTPRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

func (m *Metrics) RateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}
