// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels shared by the auth counters. Business rejections use the
// result code itself (EMAIL_IN_USE, INVALID_CREDENTIALS, ...).
const (
	ResultOK      = "ok"
	ResultFault   = "fault"
	ResultInvalid = "invalid"
)

// Metrics holds the clinic's application metrics.
type Metrics struct {
	Registrations      *prometheus.CounterVec
	Logins             *prometheus.CounterVec
	TokenVerifications *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// NewMetrics creates the application metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Registrations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetclinic_registrations_total",
				Help: "User registration attempts by result",
			},
			[]string{"result"},
		),
		Logins: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetclinic_logins_total",
				Help: "Login attempts by result",
			},
			[]string{"result"},
		),
		TokenVerifications: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetclinic_token_verifications_total",
				Help: "Access token verifications by result",
			},
			[]string{"result"},
		),
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vetclinic_http_requests_total",
				Help: "HTTP requests by method, route and status",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vetclinic_http_request_duration_seconds",
				Help:    "HTTP request latency by method and route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}

	reg.MustRegister(
		m.Registrations,
		m.Logins,
		m.TokenVerifications,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

// RecordRegistration counts one registration attempt.
func (m *Metrics) RecordRegistration(result string) {
	m.Registrations.WithLabelValues(result).Inc()
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(result string) {
	m.Logins.WithLabelValues(result).Inc()
}

// RecordTokenVerification counts one token check.
func (m *Metrics) RecordTokenVerification(valid bool) {
	result := ResultInvalid
	if valid {
		result = ResultOK
	}
	m.TokenVerifications.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest records a finished request. route is the matched route
// pattern, not the raw path.
func (m *Metrics) ObserveHTTPRequest(method, route string, status int, elapsed time.Duration) {
	m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}
