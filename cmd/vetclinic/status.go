// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 SoftwareVeterinaria Contributors

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"
)

// ProbeStatus is the outcome of one health probe.
type ProbeStatus struct {
	Probe  string `json:"probe"`
	OK     bool   `json:"ok"`
	Detail string `json:"detail,omitempty"`
}

type statusOptions struct {
	jsonOutput bool
}

func newStatusCmd(root *rootOptions, deps *Deps) *cobra.Command {
	opts := &statusOptions{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Probe a running server's health endpoints",
		Long: `Query the liveness and readiness probes on the metrics listener
(--metrics-addr) of a running vetclinic server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, root)
			if err != nil {
				return err
			}
			if cfg.Metrics.Addr == "" {
				return oops.Code("CONFIG_INVALID").With("key", "metrics.addr").Errorf("metrics address is required to query status")
			}
			return runStatus(cmd, deps.HTTPClient, cfg.Metrics.Addr, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

func runStatus(cmd *cobra.Command, client *http.Client, addr string, opts *statusOptions) error {
	statuses := []ProbeStatus{
		queryProbe(client, addr, "liveness"),
		queryProbe(client, addr, "readiness"),
	}

	if opts.jsonOutput {
		data, err := json.MarshalIndent(statuses, "", "  ")
		if err != nil {
			return oops.Wrapf(err, "marshal status")
		}
		_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(data))
	} else {
		_, _ = fmt.Fprint(cmd.OutOrStdout(), formatStatusTable(statuses))
	}

	for _, s := range statuses {
		if !s.OK {
			return oops.Code("SERVER_UNHEALTHY").With("probe", s.Probe).Errorf("%s probe failed: %s", s.Probe, s.Detail)
		}
	}
	return nil
}

func queryProbe(client *http.Client, addr, probe string) ProbeStatus {
	status := ProbeStatus{Probe: probe}

	base := addr
	if !strings.Contains(base, "://") {
		base = "http://" + base
	}
	resp, err := client.Get(base + "/healthz/" + probe)
	if err != nil {
		status.Detail = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024)) //nolint:errcheck // body is informational
	status.Detail = strings.TrimSpace(string(body))
	status.OK = resp.StatusCode == http.StatusOK
	return status
}

func formatStatusTable(statuses []ProbeStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROBE\tSTATUS\tDETAIL")
	for _, s := range statuses {
		state := "ok"
		if !s.OK {
			state = "failing"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\n", s.Probe, state, s.Detail)
	}

	_ = w.Flush()
	return buf.String()
}
