package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datalab",
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "datalab",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	loginAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datalab",
			Name:      "auth_login_attempts_total",
			Help:      "Total number of login attempts",
		},
		[]string{"status"}, // success/failure/blocked
	)

	loginDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "datalab",
			Name:      "auth_login_duration_seconds",
			Help:      "Login request duration in seconds",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
	)

	sessionVerificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datalab",
			Name:      "auth_session_verifications_total",
			Help:      "Total number of session token verifications",
		},
		[]string{"result"}, // success/invalid/expired
	)

	gateDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "datalab",
			Name:      "gate_decisions_total",
			Help:      "Page gate decisions on protected paths",
		},
		[]string{"outcome"}, // allow/redirect
	)

	rateLimitHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "datalab",
			Name:      "auth_rate_limit_hits_total",
			Help:      "Total number of rate limit hits",
		},
	)
)

// Metrics creates a Prometheus metrics middleware. Requests are labelled by
// route template so path parameters do not explode cardinality.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())

		httpRequestsTotal.WithLabelValues(c.Request.Method, route, status).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
	}
}

// RecordLoginAttempt records a login attempt metric
func RecordLoginAttempt(status string, duration time.Duration) {
	loginAttemptsTotal.WithLabelValues(status).Inc()
	loginDuration.Observe(duration.Seconds())
}

// RecordSessionVerification records a session token verification
func RecordSessionVerification(result string) {
	sessionVerificationsTotal.WithLabelValues(result).Inc()
}

// RecordGateDecision records a gate outcome for a protected path
func RecordGateDecision(outcome string) {
	gateDecisionsTotal.WithLabelValues(outcome).Inc()
}

// RecordRateLimitHit records a rate limit hit
func RecordRateLimitHit() {
	rateLimitHitsTotal.Inc()
}
