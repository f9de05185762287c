package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robalobadob/historyguesser/internal/history"
)

const namespace = "historyguesser"

// Metrics owns the game's Prometheus collectors on a private registry.
type Metrics struct {
	reg *prometheus.Registry

	sessions      *prometheus.CounterVec
	guesses       *prometheus.CounterVec
	clues         *prometheus.CounterVec
	sourceReqs    *prometheus.CounterVec
	sourceLatency *prometheus.HistogramVec
}

// New registers all collectors, plus the Go and process collectors.
func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.sessions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "sessions_started_total",
		Help:      "Game sessions started by target mode",
	}, []string{"mode"})
	m.guesses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "guesses_total",
		Help:      "Submitted guesses by result",
	}, []string{"result"})
	m.clues = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "clues_total",
		Help:      "Revealed clues by the tier they were found at",
	}, []string{"tier"})
	m.sourceReqs = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "source_requests_total",
		Help:      "Event source lookups by operation and status",
	}, []string{"op", "status"})
	m.sourceLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "source_request_duration_seconds",
		Help:      "Event source lookup latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})

	m.reg.MustRegister(
		m.sessions, m.guesses, m.clues, m.sourceReqs, m.sourceLatency,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry (useful for tests).
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// TrackActiveSessions exports fn as the live-session gauge.
func (m *Metrics) TrackActiveSessions(fn func() int) {
	m.reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "sessions_active",
		Help:      "Sessions currently held in memory",
	}, func() float64 { return float64(fn()) }))
}

func (m *Metrics) SessionStarted(mode string) { m.sessions.WithLabelValues(mode).Inc() }

// Guess counts a guess outcome: won, miss, duplicate, rejected or error.
func (m *Metrics) Guess(result string) { m.guesses.WithLabelValues(result).Inc() }

func (m *Metrics) Clue(tier string) { m.clues.WithLabelValues(tier).Inc() }

// Instrument wraps src so every lookup is counted and timed.
func (m *Metrics) Instrument(src history.Source) history.Source {
	return &instrumented{inner: src, m: m}
}

type instrumented struct {
	inner history.Source
	m     *Metrics
}

func (s *instrumented) Event(ctx context.Context, id int) (history.Event, error) {
	start := time.Now()
	e, err := s.inner.Event(ctx, id)
	s.m.observe("event", start, err)
	return e, err
}

func (s *instrumented) Find(ctx context.Context, q history.Query) ([]history.Event, error) {
	start := time.Now()
	out, err := s.inner.Find(ctx, q)
	s.m.observe("find_"+string(q.Tier()), start, err)
	return out, err
}

func (m *Metrics) observe(op string, start time.Time, err error) {
	m.sourceLatency.WithLabelValues(op).Observe(time.Since(start).Seconds())
	m.sourceReqs.WithLabelValues(op, status(err)).Inc()
}

// status maps a source error onto a small label set.
func status(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, history.ErrNotFound):
		return "not_found"
	case errors.Is(err, history.ErrTransient):
		return "transient"
	case errors.Is(err, history.ErrMalformed):
		return "malformed"
	default:
		return "error"
	}
}
