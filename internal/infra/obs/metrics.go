package obs

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the service collectors on a private registry. A nil *Metrics records nothing.
type Metrics struct {
	registry   *prometheus.Registry
	messages   *prometheus.HistogramVec
	quotes     *prometheus.CounterVec
	recomputes *prometheus.CounterVec
	published  *prometheus.CounterVec
	http       *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		messages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentdesk",
			Name:      "bus_message_duration_seconds",
			Help:      "Command and query handling latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"kind", "key", "outcome"}),
		quotes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentdesk",
			Name:      "quotes_total",
			Help:      "Quotes computed by outcome.",
		}, []string{"outcome"}),
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentdesk",
			Name:      "booking_recomputes_total",
			Help:      "Booking recomputations by status.",
		}, []string{"status"}),
		published: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rentdesk",
			Name:      "outbox_published_total",
			Help:      "Outbox publish attempts by topic and outcome.",
		}, []string{"topic", "outcome"}),
		http: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rentdesk",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	m.registry.MustRegister(
		m.messages, m.quotes, m.recomputes, m.published, m.http,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) ObserveMessage(kind, key string, elapsed time.Duration, err error) {
	if m == nil {
		return
	}
	m.messages.WithLabelValues(kind, key, outcome(err)).Observe(elapsed.Seconds())
}

func (m *Metrics) QuoteComputed(outcome string) {
	if m == nil {
		return
	}
	m.quotes.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Recomputed(status string) {
	if m == nil {
		return
	}
	m.recomputes.WithLabelValues(status).Inc()
}

func (m *Metrics) OutboxPublished(topic string, err error) {
	if m == nil {
		return
	}
	m.published.WithLabelValues(topic, outcome(err)).Inc()
}

func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.http.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
