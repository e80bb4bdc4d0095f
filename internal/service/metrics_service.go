package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/tutor-moderation-api/internal/models"
)

// Result labels for domain counters.
const (
	resultOK       = "ok"
	resultRejected = "rejected"
	resultError    = "error"
)

// MetricsService encapsulates Prometheus instrumentation and provides lightweight snapshots for API consumption.
type MetricsService struct {
	registry               *prometheus.Registry
	handler                http.Handler
	requestDuration        *prometheus.HistogramVec
	requestTotal           *prometheus.CounterVec
	reputationComputations prometheus.Counter
	overrideUpserts        prometheus.Counter
	sessionTransitions     *prometheus.CounterVec
	ticketPolicyWarnings   prometheus.Counter
	ratingsAttached        *prometheus.CounterVec
	rateLimited            prometheus.Counter

	requestCount         uint64
	requestDurationTotal uint64
	reputationCount      uint64
	overrideCount        uint64
	transitionCount      uint64
	policyWarningCount   uint64
	rateLimitedCount     uint64
}

// NewMetricsService registers core Prometheus collectors.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	reputationComputations := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "reputation_computations_total",
		Help: "Weighted reputation scores computed",
	})

	overrideUpserts := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "override_upserts_total",
		Help: "Administrator overrides written",
	})

	sessionTransitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_transitions_total",
		Help: "Session transition attempts by source, target and outcome",
	}, []string{"from", "to", "result"})

	ticketPolicyWarnings := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "ticket_policy_warnings_total",
		Help: "Tickets resolved without an administrator response",
	})

	ratingsAttached := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ratings_attached_total",
		Help: "Rating attach attempts by outcome",
	}, []string{"result"})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "rate_limited_requests_total",
		Help: "Requests rejected by the rate limiter",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, reputationComputations, overrideUpserts, sessionTransitions, ticketPolicyWarnings, ratingsAttached, rateLimited, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:               registry,
		handler:                handler,
		requestDuration:        requestDuration,
		requestTotal:           requestTotal,
		reputationComputations: reputationComputations,
		overrideUpserts:        overrideUpserts,
		sessionTransitions:     sessionTransitions,
		ticketPolicyWarnings:   ticketPolicyWarnings,
		ratingsAttached:        ratingsAttached,
		rateLimited:            rateLimited,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics and aggregates simple stats for snapshots.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordReputationComputation counts a served reputation read.
func (m *MetricsService) RecordReputationComputation() {
	if m == nil {
		return
	}
	m.reputationComputations.Inc()
	atomic.AddUint64(&m.reputationCount, 1)
}

// RecordOverrideUpsert counts a committed override write.
func (m *MetricsService) RecordOverrideUpsert() {
	if m == nil {
		return
	}
	m.overrideUpserts.Inc()
	atomic.AddUint64(&m.overrideCount, 1)
}

// RecordSessionTransition counts a transition attempt with its outcome.
func (m *MetricsService) RecordSessionTransition(from, to models.SessionStatus, result string) {
	if m == nil {
		return
	}
	m.sessionTransitions.WithLabelValues(string(from), string(to), result).Inc()
	if result == resultOK {
		atomic.AddUint64(&m.transitionCount, 1)
	}
}

// RecordTicketPolicyWarning counts a resolution that carried a policy warning.
func (m *MetricsService) RecordTicketPolicyWarning() {
	if m == nil {
		return
	}
	m.ticketPolicyWarnings.Inc()
	atomic.AddUint64(&m.policyWarningCount, 1)
}

// RecordRatingAttach counts a rating attach attempt with its outcome.
func (m *MetricsService) RecordRatingAttach(result string) {
	if m == nil {
		return
	}
	m.ratingsAttached.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a request rejected by the limiter.
func (m *MetricsService) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
	atomic.AddUint64(&m.rateLimitedCount, 1)
}

// Snapshot returns aggregated metrics suitable for the operations endpoint.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{}
	}
	requests := atomic.LoadUint64(&m.requestCount)
	reqDuration := atomic.LoadUint64(&m.requestDurationTotal)

	var avgRequestMs float64
	if requests > 0 {
		avgRequestMs = float64(reqDuration) / float64(requests) / float64(time.Millisecond)
	}

	return models.MetricsSnapshot{
		RequestsTotal:            requests,
		AverageRequestDurationMs: avgRequestMs,
		ReputationComputations:   atomic.LoadUint64(&m.reputationCount),
		OverrideUpserts:          atomic.LoadUint64(&m.overrideCount),
		SessionTransitions:       atomic.LoadUint64(&m.transitionCount),
		TicketPolicyWarnings:     atomic.LoadUint64(&m.policyWarningCount),
		RateLimited:              atomic.LoadUint64(&m.rateLimitedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}
