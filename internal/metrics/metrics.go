// Package metrics provides Prometheus metrics for the stats service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fadedpez/scrapstats/pkg/entities"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "scrapstats"

// Metrics holds every collector on its own registry, so tests and
// multiple instances never collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	eventsRecorded *prometheus.CounterVec
	scrapRecorded  *prometheus.CounterVec
	eventsRejected *prometheus.CounterVec

	flushes       *prometheus.CounterVec
	flushDuration *prometheus.HistogramVec
	ledgerPlayers prometheus.Gauge

	commands *prometheus.CounterVec

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// New creates the collectors on a fresh registry
func New() *Metrics {
	registry := prometheus.NewRegistry()
	auto := promauto.With(registry)

	return &Metrics{
		registry: registry,
		eventsRecorded: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_recorded_total",
			Help:      "Currency-flow events applied to the ledger",
		}, []string{"kind"}),
		scrapRecorded: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "scrap_recorded_total",
			Help:      "Scrap amounts applied to the ledger",
		}, []string{"kind"}),
		eventsRejected: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_rejected_total",
			Help:      "Events that failed validation",
		}, []string{"kind"}),
		flushes: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Ledger flushes by backend and outcome",
		}, []string{"backend", "outcome"}),
		flushDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Time spent writing the ledger to the backend",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend"}),
		ledgerPlayers: auto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "ledger_players",
			Help:      "Players currently held in the ledger",
		}),
		commands: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Chat commands executed",
		}, []string{"command"}),
		httpRequests: auto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		httpRequestDuration: auto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
	}
}

// Registry exposes the registry for scraping and tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// EventRecorded implements ingest.Observer
func (m *Metrics) EventRecorded(kind entities.FlowKind, amount int64) {
	m.eventsRecorded.WithLabelValues(string(kind)).Inc()
	m.scrapRecorded.WithLabelValues(string(kind)).Add(float64(amount))
}

// EventRejected implements ingest.Observer
func (m *Metrics) EventRejected(kind entities.FlowKind) {
	label := string(kind)
	switch kind {
	case entities.FlowSpent, entities.FlowLost, entities.FlowEarned:
	default:
		// Keep label cardinality bounded
		label = "invalid"
	}
	m.eventsRejected.WithLabelValues(label).Inc()
}

// FlushCompleted implements stats.Observer
func (m *Metrics) FlushCompleted(backend string, took time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.flushes.WithLabelValues(backend, outcome).Inc()
	m.flushDuration.WithLabelValues(backend).Observe(took.Seconds())
}

// LedgerSize implements stats.Observer
func (m *Metrics) LedgerSize(players int) {
	m.ledgerPlayers.Set(float64(players))
}

// CommandExecuted counts a chat command
func (m *Metrics) CommandExecuted(command string) {
	m.commands.WithLabelValues(command).Inc()
}

// ObserveRequest records one HTTP request
func (m *Metrics) ObserveRequest(route string, code int, took time.Duration) {
	m.httpRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.httpRequestDuration.WithLabelValues(route).Observe(took.Seconds())
}
