package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shiprates/internal/rate"
)

// Metrics holds the service's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	QuotesTotal     *prometheus.CounterVec
	ParcelsPerQuote prometheus.Histogram
	FallbackParcels prometheus.Counter
	ConfigFailures  prometheus.Counter
	QuoteSaveErrors prometheus.Counter
}

// New registers all collectors on a private registry under namespace.
func New(namespace string) *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: registry,
		HTTPRequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		QuotesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quotes_total",
			Help:      "Shipping quotes computed, by pricing mode and free-shipping outcome",
		}, []string{"mode", "free_shipping"}),
		ParcelsPerQuote: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "parcels_per_quote",
			Help:      "Number of parcels produced per quote",
			Buckets:   []float64{1, 2, 3, 4, 6, 8, 12, 20},
		}),
		FallbackParcels: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fallback_parcels_total",
			Help:      "Parcels no carrier accepted and that were priced by the fallback rule",
		}),
		ConfigFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_failures_total",
			Help:      "Quotes answered with the default quote because configuration could not be read",
		}),
		QuoteSaveErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quote_save_errors_total",
			Help:      "Quotes that could not be persisted",
		}),
	}
	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.QuotesTotal,
		m.ParcelsPerQuote,
		m.FallbackParcels,
		m.ConfigFailures,
		m.QuoteSaveErrors,
	)
	return m
}

// ObserveQuote records a computed quote.
func (m *Metrics) ObserveQuote(q rate.Quote) {
	if m == nil {
		return
	}
	m.QuotesTotal.WithLabelValues(string(q.Mode), strconv.FormatBool(q.IsFreeShipping)).Inc()
	m.ParcelsPerQuote.Observe(float64(q.TotalPackages))
	for _, p := range q.Packages {
		if p.Fallback {
			m.FallbackParcels.Inc()
		}
	}
}

// ConfigFailure records a quote answered without configuration.
func (m *Metrics) ConfigFailure() {
	if m == nil {
		return
	}
	m.ConfigFailures.Inc()
}

// QuoteSaveError records a failed quote insert.
func (m *Metrics) QuoteSaveError() {
	if m == nil {
		return
	}
	m.QuoteSaveErrors.Inc()
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
