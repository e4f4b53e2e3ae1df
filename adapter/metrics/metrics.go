// Package metrics provides Prometheus metrics for the EDGAR exchanges and
// lookups.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of a single exchange.
const (
	OutcomeOK        = "ok"
	OutcomeConn      = "conn_error"
	OutcomeNoBody    = "no_body"
	OutcomeEmptyBody = "empty_body"
	OutcomeCanceled  = "canceled"
)

// Results of a lookup or query build.
const (
	ResultHit   = "hit"
	ResultMiss  = "miss"
	ResultError = "error"
)

type Metrics struct {
	Registry *prometheus.Registry

	ExchangesTotal   *prometheus.CounterVec
	ExchangeDuration *prometheus.HistogramVec
	ResponseBytes    prometheus.Histogram

	LookupsTotal      *prometheus.CounterVec
	QueriesBuiltTotal *prometheus.CounterVec
	SyncedTotal       *prometheus.CounterVec
}

// New registers all metrics on a fresh registry so that several instances
// can live side by side in tests.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	m := &Metrics{Registry: reg}

	m.ExchangesTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_exchanges_total",
			Help: "Total number of raw HTTP exchanges by host and outcome",
		},
		[]string{"host", "outcome"},
	)

	m.ExchangeDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "edgar_exchange_duration_seconds",
			Help:    "Duration of raw HTTP exchanges in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"host"},
	)

	m.ResponseBytes = factory.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "edgar_response_bytes",
			Help:    "Size of raw responses in bytes",
			Buckets: prometheus.ExponentialBuckets(256, 4, 10),
		},
	)

	m.LookupsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_directory_lookups_total",
			Help: "Total number of ticker lookups by result",
		},
		[]string{"result"},
	)

	m.QueriesBuiltTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_queries_built_total",
			Help: "Total number of query URLs built by result",
		},
		[]string{"result"},
	)

	m.SyncedTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Name: "edgar_synced_companies_total",
			Help: "Total number of tickers processed by sync runs by result",
		},
		[]string{"result"},
	)

	return m
}

// ObserveExchange records one finished exchange. A nil receiver is a no-op.
func (m *Metrics) ObserveExchange(host, outcome string, start time.Time, size int) {
	if m == nil {
		return
	}
	m.ExchangesTotal.WithLabelValues(host, outcome).Inc()
	m.ExchangeDuration.WithLabelValues(host).Observe(time.Since(start).Seconds())
	if size > 0 {
		m.ResponseBytes.Observe(float64(size))
	}
}

func (m *Metrics) ObserveLookup(result string) {
	if m == nil {
		return
	}
	m.LookupsTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveQuery(result string) {
	if m == nil {
		return
	}
	m.QueriesBuiltTotal.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveSync(result string) {
	if m == nil {
		return
	}
	m.SyncedTotal.WithLabelValues(result).Inc()
}
