// Copyright (c) 2026 SafraReport. All rights reserved.

/*
Package metrics provides Prometheus collectors for the API server.

It exposes two kinds of instrumentation:

  - HTTP: request counts and latency histograms, labeled by method and status.
  - Auth: authentication outcome counters (success, bad credentials, lockout),
    recorded by the users/auth service through the [AuthRecorder] interface.

The registry is created in main and served on /metrics.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AuthRecorder is the narrow interface the auth service uses to record
// authentication outcomes without depending on Prometheus directly.
type AuthRecorder interface {
	RecordLoginSuccess(pool string)
	RecordLoginFailure(pool string, reason string)
	RecordSessionValidation(pool string, valid bool)
	RecordPasswordReset(stage string)
}

// AdRecorder is the narrow interface the ads service uses to record serving
// outcomes without depending on Prometheus directly.
type AdRecorder interface {
	RecordAdImpression(placement string)
	RecordAdClick()
}

// Collector implements [AuthRecorder] and [AdRecorder] and owns the HTTP metrics.
type Collector struct {
	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec

	loginSuccess   *prometheus.CounterVec
	loginFailure   *prometheus.CounterVec
	sessionChecks  *prometheus.CounterVec
	passwordResets *prometheus.CounterVec

	adImpressions *prometheus.CounterVec
	adClicks      prometheus.Counter
}

// NewCollector creates a Collector and registers all metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safrareport_http_requests_total",
			Help: "Total HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "safrareport_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method"}),
		loginSuccess: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safrareport_auth_login_success_total",
			Help: "Successful logins by session pool.",
		}, []string{"pool"}),
		loginFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safrareport_auth_login_failure_total",
			Help: "Failed logins by session pool and reason.",
		}, []string{"pool", "reason"}),
		sessionChecks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safrareport_auth_session_validations_total",
			Help: "Session validations by pool and outcome.",
		}, []string{"pool", "outcome"}),
		passwordResets: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safrareport_auth_password_resets_total",
			Help: "Password reset flow events by stage (requested, redeemed, rejected).",
		}, []string{"stage"}),
		adImpressions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "safrareport_ads_impressions_total",
			Help: "Ad impressions served, by placement.",
		}, []string{"placement"}),
		adClicks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "safrareport_ads_clicks_total",
			Help: "Ad click-throughs recorded.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.loginSuccess,
		c.loginFailure,
		c.sessionChecks,
		c.passwordResets,
		c.adImpressions,
		c.adClicks,
	)

	return c
}

// RecordHTTPRequest records one finished HTTP request.
func (c *Collector) RecordHTTPRequest(method string, status int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	c.httpLatency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordLoginSuccess implements [AuthRecorder].
func (c *Collector) RecordLoginSuccess(pool string) {
	c.loginSuccess.WithLabelValues(pool).Inc()
}

// RecordLoginFailure implements [AuthRecorder].
func (c *Collector) RecordLoginFailure(pool string, reason string) {
	c.loginFailure.WithLabelValues(pool, reason).Inc()
}

// RecordSessionValidation implements [AuthRecorder].
func (c *Collector) RecordSessionValidation(pool string, valid bool) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	c.sessionChecks.WithLabelValues(pool, outcome).Inc()
}

// RecordPasswordReset implements [AuthRecorder].
func (c *Collector) RecordPasswordReset(stage string) {
	c.passwordResets.WithLabelValues(stage).Inc()
}

// RecordAdImpression implements [AdRecorder].
func (c *Collector) RecordAdImpression(placement string) {
	c.adImpressions.WithLabelValues(placement).Inc()
}

// RecordAdClick implements [AdRecorder].
func (c *Collector) RecordAdClick() {
	c.adClicks.Inc()
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
}

// NopAuthRecorder discards all auth metrics. Used in tests.
type NopAuthRecorder struct{}

func (NopAuthRecorder) RecordLoginSuccess(string)            {}
func (NopAuthRecorder) RecordLoginFailure(string, string)    {}
func (NopAuthRecorder) RecordSessionValidation(string, bool) {}
func (NopAuthRecorder) RecordPasswordReset(string)           {}

// NopAdRecorder discards all ad metrics. Used in tests.
type NopAdRecorder struct{}

func (NopAdRecorder) RecordAdImpression(string) {}
func (NopAdRecorder) RecordAdClick()            {}
