// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Login outcome labels.
const (
	OutcomeAuthenticated      = "authenticated"
	OutcomeMissingCsrf        = "missing_csrf"
	OutcomeCsrfMismatch       = "csrf_mismatch"
	OutcomeExchangeFailed     = "exchange_failed"
	OutcomeProfileFetchFailed = "profile_fetch_failed"
)

// Denial reason labels.
const (
	DenialNotLoggedIn   = "not_logged_in"
	DenialNotAuthorized = "not_authorized"
)

// Collector records login, authorization, and HTTP outcomes.
type Collector struct {
	loginOutcomes *prometheus.CounterVec
	authzDenials  *prometheus.CounterVec
	httpStatus    *prometheus.CounterVec
	httpLatency   prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		loginOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clockless_login_total",
			Help: "Login attempts by outcome.",
		}, []string{"outcome"}),
		authzDenials: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clockless_authz_denied_total",
			Help: "Denied gated operations by reason.",
		}, []string{"reason"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "clockless_http_status_total",
			Help: "HTTP responses by status code.",
		}, []string{"status_code"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "clockless_http_latency_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.loginOutcomes,
		c.authzDenials,
		c.httpStatus,
		c.httpLatency,
	)

	return c
}

// RecordLoginOutcome records one login attempt result.
func (c *Collector) RecordLoginOutcome(outcome string) {
	c.loginOutcomes.WithLabelValues(outcome).Inc()
}

// RecordAuthzDenial records one denied gated operation.
func (c *Collector) RecordAuthzDenial(reason string) {
	c.authzDenials.WithLabelValues(reason).Inc()
}

// Middleware records status and latency for every request.
func (c *Collector) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ec echo.Context) error {
			start := time.Now()
			err := next(ec)
			status := ec.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				var httpErr *echo.HTTPError
				if errors.As(err, &httpErr) {
					status = httpErr.Code
				}
			}
			c.httpLatency.Observe(time.Since(start).Seconds())
			c.httpStatus.WithLabelValues(strconv.Itoa(status)).Inc()
			return err
		}
	}
}

// Handler serves the Prometheus exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
