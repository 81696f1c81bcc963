// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 InventoryApp Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/inventoryapp/inventoryauth/internal/observability"
)

const statusTimeout = 2 * time.Second

// ProbeStatus is the outcome of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Status int    `json:"status,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

func newStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of a running inventoryauth",
		Long: `Query the liveness and readiness probes on the metrics address to show
the health of a running inventoryauth. Exits non-zero when it is not ready.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	appCfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if appCfg.Metrics.Addr == "" {
		return oops.Code("CONFIG_INVALID").Errorf("metrics.addr is empty; the probes are not served")
	}

	base := "http://" + dialAddr(appCfg.Metrics.Addr)
	client := &http.Client{Timeout: statusTimeout}
	probes := []ProbeStatus{
		queryProbe(client, "liveness", base+observability.LivenessPath),
		queryProbe(client, "readiness", base+observability.ReadinessPath),
	}

	var output string
	if cfg.jsonOutput {
		data, err := json.MarshalIndent(probes, "", "  ")
		if err != nil {
			return oops.Code("STATUS_FORMAT_FAILED").Wrap(err)
		}
		output = string(data)
	} else {
		output = formatStatusTable(probes)
	}
	cmd.Println(output)

	for _, p := range probes {
		if !p.OK {
			return oops.Code("STATUS_NOT_READY").With("probe", p.Probe).Errorf("%s probe failed", p.Probe)
		}
	}
	return nil
}

// dialAddr turns a listen address into one a client can dial: an empty or
// unspecified host becomes loopback.
func dialAddr(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}
	if ip := net.ParseIP(host); host == "" || (ip != nil && ip.IsUnspecified()) {
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func queryProbe(client *http.Client, name, url string) ProbeStatus {
	status := ProbeStatus{Probe: name}

	resp, err := client.Get(url) //nolint:noctx // bounded by the client timeout
	if err != nil {
		status.Detail = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	status.Status = resp.StatusCode
	status.OK = resp.StatusCode == http.StatusOK
	status.Detail = strings.TrimSpace(string(body))
	return status
}

func formatStatusTable(probes []ProbeStatus) string {
	var b strings.Builder
	w := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tDETAIL")
	_, _ = fmt.Fprintln(w, "-----\t------\t------")
	for _, p := range probes {
		state := "ok"
		if !p.OK {
			state = "failing"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", p.Probe, state, p.Detail)
	}

	_ = w.Flush()
	return b.String()
}
