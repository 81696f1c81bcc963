// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventoryapp/inventoryauth/internal/observability"
	"github.com/inventoryapp/inventoryauth/pkg/errutil"
)

func probeServer(t *testing.T, ready bool) string {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(observability.LivenessPath, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok\n"))
	})
	mux.HandleFunc(observability.ReadinessPath, func(w http.ResponseWriter, _ *http.Request) {
		if !ready {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("not ready\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return strings.TrimPrefix(srv.URL, "http://")
}

func TestStatus_Ready(t *testing.T) {
	isolate(t)
	addr := probeServer(t, true)

	out, err := execute(context.Background(), t, nil, "status", "--metrics-addr", addr)
	require.NoError(t, err)
	assert.Contains(t, out, "PROBE")
	assert.Regexp(t, `liveness\s+ok`, out)
	assert.Regexp(t, `readiness\s+ok`, out)
}

func TestStatus_NotReady(t *testing.T) {
	isolate(t)
	addr := probeServer(t, false)

	out, err := execute(context.Background(), t, nil, "status", "--metrics-addr", addr)
	errutil.AssertErrorCode(t, err, "STATUS_NOT_READY")
	errutil.AssertErrorContext(t, err, "probe", "readiness")
	assert.Regexp(t, `readiness\s+failing\s+not ready`, out)
}

func TestStatus_JSON(t *testing.T) {
	isolate(t)
	addr := probeServer(t, true)

	out, err := execute(context.Background(), t, nil, "status", "--json", "--metrics-addr", addr)
	require.NoError(t, err)

	var probes []ProbeStatus
	require.NoError(t, json.Unmarshal([]byte(out), &probes))
	require.Len(t, probes, 2)
	assert.Equal(t, ProbeStatus{Probe: "liveness", OK: true, Status: 200, Detail: "ok"}, probes[0])
	assert.Equal(t, "readiness", probes[1].Probe)
}

func TestStatus_Unreachable(t *testing.T) {
	isolate(t)
	// Closing the server leaves a port nothing listens on.
	srv := httptest.NewServer(http.NotFoundHandler())
	dead := strings.TrimPrefix(srv.URL, "http://")
	srv.Close()

	out, err := execute(context.Background(), t, nil, "status", "--metrics-addr", dead)
	errutil.AssertErrorCode(t, err, "STATUS_NOT_READY")
	assert.Contains(t, out, "failed to connect")
}

func TestStatus_MetricsDisabled(t *testing.T) {
	isolate(t)

	_, err := execute(context.Background(), t, nil, "status", "--metrics-addr", "")
	errutil.AssertErrorCode(t, err, "CONFIG_INVALID")
}

func TestDialAddr(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{":9101", "127.0.0.1:9101"},
		{"0.0.0.0:9101", "127.0.0.1:9101"},
		{"[::]:9101", "127.0.0.1:9101"},
		{"10.1.2.3:9101", "10.1.2.3:9101"},
		{"metrics.internal:9101", "metrics.internal:9101"},
		{"no-port", "no-port"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, dialAddr(tt.in))
		})
	}
}
