// Package observability provides Prometheus metrics for the chat pipeline.
//
// Metrics implements ports.OutcomeRecorder so the usecases report what
// happened without importing Prometheus. All operations are thread-safe via
// Prometheus's internal locking.
package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/0xcro3dile/ragchat-go/internal/domain/entities"
)

const metricsNamespace = "ragchat"

// Metrics holds the pipeline and HTTP collectors.
type Metrics struct {
	// ChatRequestsTotal counts chat requests by outcome.
	// Labels: outcome (answered, crisis, retrieval_failed, completion_failed, completion_empty)
	ChatRequestsTotal *prometheus.CounterVec

	// ChatDurationSeconds measures end-to-end pipeline duration.
	// Labels: outcome
	ChatDurationSeconds *prometheus.HistogramVec

	// RetrievalDurationSeconds measures retrieval calls.
	// Labels: status (ok, error)
	RetrievalDurationSeconds *prometheus.HistogramVec

	// RetrievedChunks observes how many chunks a successful retrieval returned.
	RetrievedChunks prometheus.Histogram

	// CompletionDurationSeconds measures completion calls.
	// Labels: status (ok, failed, empty)
	CompletionDurationSeconds *prometheus.HistogramVec

	// HTTPRequestsTotal counts served HTTP requests.
	// Labels: route, code
	HTTPRequestsTotal *prometheus.CounterVec
}

// NewMetrics creates and registers the collectors on reg.
// Panics on duplicate registration, like promauto.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ChatRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "chat",
				Name:      "requests_total",
				Help:      "Total chat requests by pipeline outcome",
			},
			[]string{"outcome"},
		),

		ChatDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "chat",
				Name:      "duration_seconds",
				Help:      "End-to-end chat pipeline duration in seconds",
				Buckets:   []float64{0.05, 0.25, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"outcome"},
		),

		RetrievalDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "retrieval",
				Name:      "duration_seconds",
				Help:      "Retrieval backend call duration in seconds",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
			},
			[]string{"status"},
		),

		RetrievedChunks: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "retrieval",
				Name:      "chunks",
				Help:      "Number of chunks returned by successful retrievals",
				Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 20},
			},
		),

		CompletionDurationSeconds: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "completion",
				Name:      "duration_seconds",
				Help:      "LLM completion call duration in seconds",
				Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
			[]string{"status"},
		),

		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total HTTP requests by route and status code",
			},
			[]string{"route", "code"},
		),
	}
}

// RecordChat implements ports.OutcomeRecorder.
func (m *Metrics) RecordChat(outcome entities.Outcome, d time.Duration) {
	m.ChatRequestsTotal.WithLabelValues(string(outcome)).Inc()
	m.ChatDurationSeconds.WithLabelValues(string(outcome)).Observe(d.Seconds())
}

// RecordRetrieval implements ports.OutcomeRecorder.
func (m *Metrics) RecordRetrieval(chunks int, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	} else {
		m.RetrievedChunks.Observe(float64(chunks))
	}
	m.RetrievalDurationSeconds.WithLabelValues(status).Observe(d.Seconds())
}

// RecordCompletion implements ports.OutcomeRecorder.
func (m *Metrics) RecordCompletion(status entities.CompletionStatus, d time.Duration) {
	m.CompletionDurationSeconds.WithLabelValues(string(status)).Observe(d.Seconds())
}

// RecordHTTP counts one served request.
func (m *Metrics) RecordHTTP(route string, code int) {
	if route == "" {
		route = "unmatched"
	}
	m.HTTPRequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
