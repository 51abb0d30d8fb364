// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/bwbridge/internal/agentrpc"
	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/command"
	"github.com/holomush/bwbridge/internal/config"
	"github.com/holomush/bwbridge/internal/control"
	"github.com/holomush/bwbridge/internal/events"
	"github.com/holomush/bwbridge/internal/link"
	"github.com/holomush/bwbridge/internal/logging"
	"github.com/holomush/bwbridge/internal/observability"
	"github.com/holomush/bwbridge/internal/snapshot"
	"github.com/holomush/bwbridge/pkg/errutil"
)

// shutdownTimeout bounds the graceful stop of each server.
const shutdownTimeout = 5 * time.Second

// NewRunCmd creates the run subcommand with all flags configured.
func NewRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the bridge",
		Long: `Connect to the engine host, listen for an agent, and drive the frame
loop until interrupted. Engine link failures are retried, never fatal.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runWithDeps(cmd.Context(), cfg, cmd, nil)
		},
	}

	config.RegisterFlags(cmd.Flags())

	return cmd
}

// loadConfig reads the config file named by --config plus the command's flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, oops.Wrapf(err, "read --config")
	}
	return config.Load(path, cmd.Flags())
}

// metricRegistrars lists every package that exports metrics.
var metricRegistrars = []observability.Registrar{
	link.RegisterMetrics,
	bridge.RegisterMetrics,
	catalog.RegisterMetrics,
	command.RegisterMetrics,
	events.RegisterMetrics,
	snapshot.RegisterMetrics,
	agentrpc.RegisterMetrics,
}

// runWithDeps runs the bridge with injectable dependencies.
// If deps is nil, default implementations are used.
func runWithDeps(ctx context.Context, cfg *config.Config, cmd *cobra.Command, deps *RunDeps) error {
	if deps == nil {
		deps = &RunDeps{}
	}
	deps.setDefaults()

	if err := cfg.Validate(); err != nil {
		return oops.Wrapf(err, "invalid configuration")
	}

	logger := logging.Setup("bwbridge", version, cfg.Log.Format, cfg.Log.Level, deps.LogOutput)
	slog.SetDefault(logger)

	logger.Info("starting bridge",
		"engine_addr", cfg.Engine.Addr,
		"agent_addr", cfg.Agent.Addr,
		"agent_transport", cfg.Agent.Transport,
	)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	cache, err := deps.TerrainCacheFactory(cfg.Terrain.Cache, logger)
	if err != nil {
		return oops.Wrapf(err, "open terrain cache")
	}

	agent, err := deps.AgentServerFactory(cfg.Agent, logger)
	if err != nil {
		return oops.Wrapf(err, "create agent server")
	}
	if err := agent.Start(ctx); err != nil {
		return oops.Wrapf(err, "start agent server")
	}
	defer stopWithTimeout(logger, "agent server", agent.Stop)

	b := bridge.New(deps.EngineFactory(cfg.Engine, logger),
		bridge.WithAgent(agent),
		bridge.WithLogger(logger),
		bridge.WithTerrainCache(cache),
		bridge.WithSnapshotCapacity(cfg.Snapshot.Capacity),
		bridge.WithRetryInterval(cfg.Engine.RetryInterval),
	)

	controlServer := deps.ControlServerFactory(controlComponent, control.Hooks{
		Status:   b.Status,
		Ready:    b.Ready,
		Attached: agent.Attached,
		Reset:    b.RequestReset,
		Shutdown: cancel,
	}, logger)
	if err := controlServer.Start(); err != nil {
		return oops.Wrapf(err, "start control socket")
	}
	defer stopWithTimeout(logger, "control socket", controlServer.Stop)

	if cfg.Metrics.Addr != "" {
		obsServer := deps.ObservabilityServerFactory(cfg.Metrics.Addr, b.Ready,
			observability.WithLogger(logger),
			observability.WithVersion(version),
			observability.WithCollectors(metricRegistrars...),
			observability.WithStatus(func() any { return b.Status() }),
		)
		obsErrChan, err := obsServer.Start()
		if err != nil {
			return oops.Wrapf(err, "start observability server")
		}
		defer stopWithTimeout(logger, "observability server", obsServer.Stop)
		go monitorServerErrors(ctx, cancel, obsErrChan, "observability")
	}

	sigChan := make(chan os.Signal, 1)
	stopSignals := deps.SignalNotifier(sigChan)
	defer stopSignals()

	bridgeErr := make(chan error, 1)
	go func() { bridgeErr <- b.Run(ctx) }()

	cmd.Println("Bridge started")
	logger.Info("bridge ready", "agent_addr", agent.Addr())

	var runErr error
	select {
	case sig := <-sigChan:
		logger.Info("received shutdown signal", "signal", sig)
	case <-ctx.Done():
		logger.Info("context cancelled, shutting down")
	case err := <-bridgeErr:
		runErr = err
		bridgeErr = nil
	}

	cancel()
	if bridgeErr != nil {
		runErr = <-bridgeErr
	}
	if runErr != nil {
		errutil.LogError(logger, "bridge stopped with error", runErr)
		return oops.Wrapf(runErr, "bridge")
	}

	logger.Info("shutdown complete")
	return nil
}

func stopWithTimeout(logger *slog.Logger, name string, stop func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := stop(ctx); err != nil {
		logger.Warn("error stopping "+name, "error", err)
	}
}

// monitorServerErrors monitors a server's error channel and cancels the context on error.
// It exits when either an error is received, the channel is closed, or the context is cancelled.
func monitorServerErrors(ctx context.Context, cancel context.CancelFunc, errCh <-chan error, serverName string) {
	select {
	case err, ok := <-errCh:
		if !ok {
			return
		}
		if err != nil {
			slog.Error("server error, triggering shutdown",
				"server", serverName,
				"error", err,
			)
			cancel()
		}
	case <-ctx.Done():
	}
}
