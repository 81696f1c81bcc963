// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package observability

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"

	"github.com/inventoryapp/inventoryauth/internal/auth"
)

func TestMetrics_Recorder(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordLogin(auth.OutcomeSuccess)
	m.RecordLogin(auth.OutcomeSuccess)
	m.RecordLogin(auth.OutcomeInvalidCredentials)
	m.RecordRefresh(auth.OutcomeAlreadyUsed)

	assert.InDelta(t, 2, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(auth.OutcomeSuccess)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.LoginsTotal.WithLabelValues(auth.OutcomeInvalidCredentials)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RefreshesTotal.WithLabelValues(auth.OutcomeAlreadyUsed)), 0)
}

func TestMetrics_RecordSweep(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordSweep(auth.KindAccessToken, 2)
	m.RecordSweep(auth.KindRefreshToken, 5)
	m.RecordSweep(auth.KindAccessToken, 0)

	assert.InDelta(t, 2, testutil.ToFloat64(m.SweptTokensTotal.WithLabelValues(auth.KindAccessToken)), 0)
	assert.InDelta(t, 5, testutil.ToFloat64(m.SweptTokensTotal.WithLabelValues(auth.KindRefreshToken)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.SweepsTotal), 0)
}

func TestMetrics_RecordRequest(t *testing.T) {
	m := NewMetrics(prometheus.NewRegistry())

	m.RecordRequest("/auth/login", http.StatusOK, 30*time.Millisecond)
	m.RecordRequest("", http.StatusNotFound, time.Millisecond)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("/auth/login", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("unmatched", "404")), 0)
	assert.Equal(t, 2, testutil.CollectAndCount(m.RequestDuration))
}

func TestServer_ExposesRecordedMetrics(t *testing.T) {
	server := startServer(t, nil)
	server.Metrics().RecordLogin(auth.OutcomeSuccess)

	_, body := get(t, server, MetricsPath)
	assert.Contains(t, body, `inventoryauth_logins_total{outcome="success"} 1`)
}

func TestServer_RegistererIsServed(t *testing.T) {
	server := startServer(t, nil)
	gauge := prometheus.NewGauge(prometheus.GaugeOpts{Name: "inventoryauth_test_gauge", Help: "test"})
	server.Registerer().MustRegister(gauge)
	gauge.Set(3)

	_, body := get(t, server, MetricsPath)
	assert.Contains(t, body, "inventoryauth_test_gauge 3")
}
