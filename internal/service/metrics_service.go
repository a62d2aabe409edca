package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the platform.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	approvalsTotal  *prometheus.CounterVec
	pointsAwarded   *prometheus.CounterVec
	levelUps        prometheus.Counter
	assistantCalls  *prometheus.CounterVec
	attemptScores   prometheus.Histogram
}

// NewMetricsService registers the platform's Prometheus collectors.
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

	approvalsTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "submission_approvals_total",
		Help: "Approved submissions by kind",
	}, []string{"kind"})

	pointsAwarded := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "points_awarded_total",
		Help: "Points credited to teachers by activity kind",
	}, []string{"kind"})

	levelUps := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "teacher_level_ups_total",
		Help: "Teacher level threshold crossings",
	})

	assistantCalls := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "assistant_requests_total",
		Help: "Generative assistant requests by outcome",
	}, []string{"outcome"})

	attemptScores := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "test_attempt_score",
		Help:    "Distribution of mock test scores",
		Buckets: prometheus.LinearBuckets(0, 10, 11),
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, approvalsTotal, pointsAwarded, levelUps, assistantCalls, attemptScores, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		approvalsTotal:  approvalsTotal,
		pointsAwarded:   pointsAwarded,
		levelUps:        levelUps,
		assistantCalls:  assistantCalls,
		attemptScores:   attemptScores,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordApproval counts one approved submission.
func (m *MetricsService) RecordApproval(kind string) {
	if m == nil {
		return
	}
	m.approvalsTotal.WithLabelValues(kind).Inc()
}

// RecordPoints counts points credited by activity kind.
func (m *MetricsService) RecordPoints(kind string, points int) {
	if m == nil {
		return
	}
	m.pointsAwarded.WithLabelValues(kind).Add(float64(points))
}

// RecordLevelUp counts a level threshold crossing.
func (m *MetricsService) RecordLevelUp() {
	if m == nil {
		return
	}
	m.levelUps.Inc()
}

// RecordAssistantCall counts one assistant request by outcome.
func (m *MetricsService) RecordAssistantCall(outcome string) {
	if m == nil {
		return
	}
	m.assistantCalls.WithLabelValues(outcome).Inc()
}

// RecordAttemptScore observes one mock test score.
func (m *MetricsService) RecordAttemptScore(score int) {
	if m == nil {
		return
	}
	m.attemptScores.Observe(float64(score))
}
