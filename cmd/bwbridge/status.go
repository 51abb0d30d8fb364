// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/bwbridge/internal/control"
)

// ProcessStatus holds the status information for a running bridge.
type ProcessStatus struct {
	Component     string `json:"component"`
	Running       bool   `json:"running"`
	Health        string `json:"health,omitempty"`
	PID           int    `json:"pid,omitempty"`
	UptimeSeconds int64  `json:"uptime_seconds,omitempty"`
	Ready         bool   `json:"ready"`
	Link          string `json:"link,omitempty"`
	Match         string `json:"match,omitempty"`
	SessionID     string `json:"session_id,omitempty"`
	Frame         int32  `json:"frame,omitempty"`
	Agent         bool   `json:"agent_attached"`
	Error         string `json:"error,omitempty"`
}

// statusConfig holds configuration for the status command.
type statusConfig struct {
	jsonOutput bool
}

// NewStatusCmd creates the status subcommand with all flags configured.
func NewStatusCmd() *cobra.Command {
	cfg := &statusConfig{}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show status of the running bridge",
		Long:  `Show the health, engine link, match state and agent of a running bridge.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd, cfg)
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output status as JSON")

	return cmd
}

// runStatus executes the status command.
func runStatus(cmd *cobra.Command, cfg *statusConfig) error {
	status := queryProcessStatus(cmd.Context(), controlComponent)

	if cfg.jsonOutput {
		output, err := formatStatusJSON(status)
		if err != nil {
			return err
		}
		cmd.Println(output)
		return nil
	}

	cmd.Println(formatStatusTable(status))
	return nil
}

// queryProcessStatus queries the control socket of component.
func queryProcessStatus(ctx context.Context, component string) ProcessStatus {
	status := ProcessStatus{Component: component}

	socketPath, err := control.SocketPath(component)
	if err != nil {
		status.Error = fmt.Sprintf("failed to get socket path: %v", err)
		return status
	}
	if _, err := os.Stat(socketPath); os.IsNotExist(err) {
		status.Error = "socket not found"
		return status
	}

	client := control.NewClient(socketPath)

	health, err := client.Health(ctx)
	if err != nil {
		status.Error = fmt.Sprintf("failed to connect: %v", err)
		return status
	}
	status.Running = true
	status.Health = health.Status

	resp, err := client.Status(ctx)
	if err != nil {
		// Health answered, so the process is up even without details.
		return status
	}

	status.Running = resp.Running
	status.PID = resp.PID
	status.UptimeSeconds = resp.UptimeSeconds
	status.Ready = resp.Ready
	status.Link = resp.Bridge.Link
	status.Match = resp.Bridge.Match
	status.SessionID = resp.Bridge.SessionID
	status.Frame = resp.Bridge.Frame
	status.Agent = resp.AgentAttached
	return status
}

// formatStatusTable formats the status as a human-readable table.
func formatStatusTable(status ProcessStatus) string {
	var buf strings.Builder
	w := tabwriter.NewWriter(&buf, 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "PROCESS\tSTATUS\tHEALTH\tPID\tUPTIME\tLINK\tMATCH\tFRAME\tAGENT")
	_, _ = fmt.Fprintln(w, "-------\t------\t------\t---\t------\t----\t-----\t-----\t-----")

	if status.Running {
		agent := "none"
		if status.Agent {
			agent = "attached"
		}
		_, _ = fmt.Fprintf(w, "%s\trunning\t%s\t%d\t%s\t%s\t%s\t%d\t%s\n",
			status.Component, status.Health, status.PID, formatUptime(status.UptimeSeconds),
			dash(status.Link), dash(status.Match), status.Frame, agent)
	} else {
		reason := "not running"
		if status.Error != "" {
			reason = status.Error
		}
		_, _ = fmt.Fprintf(w, "%s\tstopped\t-\t-\t%s\t-\t-\t-\t-\n", status.Component, reason)
	}

	_ = w.Flush()
	return buf.String()
}

// formatStatusJSON formats the status as JSON.
func formatStatusJSON(status ProcessStatus) (string, error) {
	data, err := json.MarshalIndent(status, "", "  ")
	if err != nil {
		return "", oops.Wrapf(err, "marshal status")
	}
	return string(data), nil
}

// formatUptime formats seconds into a human-readable duration.
func formatUptime(seconds int64) string {
	if seconds < 60 {
		return fmt.Sprintf("%ds", seconds)
	}
	if seconds < 3600 {
		return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
	}
	hours := seconds / 3600
	minutes := (seconds % 3600) / 60
	return fmt.Sprintf("%dh %dm", hours, minutes)
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// NewResetCmd creates the reset subcommand.
func NewResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the running bridge's session",
		Long: `Ask the running bridge to end any match, drop the engine link, and
reload the catalog on reconnect. Applied at the next tick.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runControlAction(cmd, (*control.Client).Reset)
		},
	}
}

// NewStopCmd creates the stop subcommand.
func NewStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Short: "Shut down the running bridge",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runControlAction(cmd, (*control.Client).Shutdown)
		},
	}
}

func runControlAction(cmd *cobra.Command, action func(*control.Client, context.Context) (control.ActionResponse, error)) error {
	socketPath, err := control.SocketPath(controlComponent)
	if err != nil {
		return err
	}
	resp, err := action(control.NewClient(socketPath), cmd.Context())
	if err != nil {
		return err
	}
	cmd.Println(resp.Message)
	return nil
}
