package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/cashledger/internal/domain"
)

const namespace = "cashledger"

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Entry metrics
	EntriesAppended  *prometheus.CounterVec
	EntryAmount      *prometheus.HistogramVec
	IngestRejections *prometheus.CounterVec

	// Export metrics
	ExportsFinished *prometheus.CounterVec

	// Store metrics
	StoreDuration *prometheus.HistogramVec
	StoreErrors   *prometheus.CounterVec

	// API metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec
	HTTPInFlight prometheus.Gauge

	// Authentication metrics
	AuthFailures *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitHits prometheus.Counter
}

// New creates all metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EntriesAppended: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "entries_appended_total",
				Help:      "Total number of ledger entries appended",
			},
			[]string{"currency", "direction"},
		),
		EntryAmount: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "entry_amount",
				Help:      "Amounts of appended entries",
				Buckets:   []float64{1, 10, 100, 1000, 10000, 100000, 1000000, 10000000},
			},
			[]string{"currency"},
		),
		IngestRejections: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "ingest_rejections_total",
				Help:      "Total number of rejected ingest attempts by reason",
			},
			[]string{"reason"},
		),

		ExportsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "exports_finished_total",
				Help:      "Total number of finished export runs by final state",
			},
			[]string{"state"},
		),

		StoreDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "store_duration_seconds",
				Help:      "Duration of ledger store calls including retries",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		StoreErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "store_errors_total",
				Help:      "Total failed ledger store calls",
			},
			[]string{"operation"},
		),

		HTTPRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Number of HTTP requests currently being processed",
		}),

		AuthFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "auth_failures_total",
				Help:      "Total authentication failures",
			},
			[]string{"reason"},
		),

		RateLimitHits: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limit_hits_total",
			Help:      "Total requests rejected by the rate limiter",
		}),
	}
}

// EntryAppended records a stored entry.
func (m *Metrics) EntryAppended(entry *domain.Entry) {
	m.EntriesAppended.WithLabelValues(string(entry.Currency), string(entry.FlowDirection)).Inc()
	m.EntryAmount.WithLabelValues(string(entry.Currency)).Observe(entry.Amount.InexactFloat64())
}

// IngestRejected records a rejected ingest attempt.
func (m *Metrics) IngestRejected(reason string) {
	m.IngestRejections.WithLabelValues(reason).Inc()
}

// ExportFinished records the final state of an export run.
func (m *Metrics) ExportFinished(state domain.ExportState) {
	m.ExportsFinished.WithLabelValues(string(state)).Inc()
}

// ObserveStore records one store call.
func (m *Metrics) ObserveStore(operation string, duration time.Duration, err error) {
	m.StoreDuration.WithLabelValues(operation).Observe(duration.Seconds())
	if err != nil {
		m.StoreErrors.WithLabelValues(operation).Inc()
	}
}

// AuthFailed records a rejected identity assertion.
func (m *Metrics) AuthFailed(reason string) {
	m.AuthFailures.WithLabelValues(reason).Inc()
}

// RateLimited records a throttled request.
func (m *Metrics) RateLimited() {
	m.RateLimitHits.Inc()
}
