// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

var _ auth.Recorder = (*Metrics)(nil)

// Metrics holds the service's Prometheus collectors. It implements
// auth.Recorder so the session service and janitor can report to it.
type Metrics struct {
	LoginsTotal      *prometheus.CounterVec
	RefreshesTotal   *prometheus.CounterVec
	SweptTokensTotal *prometheus.CounterVec
	SweepsTotal      prometheus.Counter
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		LoginsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventoryauth_logins_total",
				Help: "Login attempts by outcome",
			},
			[]string{"outcome"},
		),
		RefreshesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventoryauth_token_refreshes_total",
				Help: "Refresh token exchanges by outcome",
			},
			[]string{"outcome"},
		),
		SweptTokensTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventoryauth_swept_tokens_total",
				Help: "Expired tokens deleted by the janitor, by kind",
			},
			[]string{"kind"},
		),
		SweepsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "inventoryauth_sweeps_total",
			Help: "Completed janitor sweeps",
		}),
		RequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "inventoryauth_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		RequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "inventoryauth_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}

	reg.MustRegister(
		m.LoginsTotal,
		m.RefreshesTotal,
		m.SweptTokensTotal,
		m.SweepsTotal,
		m.RequestsTotal,
		m.RequestDuration,
	)
	return m
}

// RecordLogin counts one login attempt.
func (m *Metrics) RecordLogin(outcome string) {
	m.LoginsTotal.WithLabelValues(outcome).Inc()
}

// RecordRefresh counts one refresh token exchange.
func (m *Metrics) RecordRefresh(outcome string) {
	m.RefreshesTotal.WithLabelValues(outcome).Inc()
}

// RecordSweep adds deleted tokens of kind. The access kind is reported once
// per sweep, so it also advances the sweep counter.
func (m *Metrics) RecordSweep(kind string, deleted int64) {
	m.SweptTokensTotal.WithLabelValues(kind).Add(float64(deleted))
	if kind == auth.KindAccessToken {
		m.SweepsTotal.Inc()
	}
}

// RecordRequest observes one finished HTTP request. Unmatched routes should
// be passed as an empty string and are grouped under "unmatched".
func (m *Metrics) RecordRequest(route string, status int, elapsed time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}
