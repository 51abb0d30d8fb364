// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/holomush/bwbridge/internal/agentrpc"
	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/config"
	"github.com/holomush/bwbridge/internal/control"
	"github.com/holomush/bwbridge/internal/engine/remote"
	"github.com/holomush/bwbridge/internal/observability"
	"github.com/holomush/bwbridge/internal/terrain"
)

// RunDeps contains injectable dependencies for the run command.
// All fields with nil values will use their default implementations.
type RunDeps struct {
	// EngineFactory creates the engine host client.
	// Default: remote.New
	EngineFactory func(cfg config.EngineConfig, logger *slog.Logger) bridge.Engine

	// AgentServerFactory creates the agent listener.
	// Default: agentrpc.NewServer
	AgentServerFactory func(cfg config.AgentConfig, logger *slog.Logger) (AgentServer, error)

	// TerrainCacheFactory opens the terrain analysis cache.
	// Default: terrain.NewCache
	TerrainCacheFactory func(dir string, logger *slog.Logger) (*terrain.Cache, error)

	// ControlServerFactory creates the control socket server.
	// Default: control.NewServer
	ControlServerFactory func(component string, hooks control.Hooks, logger *slog.Logger) ControlServer

	// ObservabilityServerFactory creates an observability server.
	// Default: observability.NewServer
	ObservabilityServerFactory func(addr string, readinessChecker observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer

	// SignalNotifier subscribes to shutdown signals and returns a stop func.
	// Default: signal.Notify for SIGINT and SIGTERM
	SignalNotifier func(ch chan<- os.Signal) (stop func())

	// LogOutput receives log records.
	// Default: os.Stderr
	LogOutput io.Writer
}

// AgentServer interface wraps the methods used from agentrpc.Server.
type AgentServer interface {
	bridge.Agent
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Addr() string
	Attached() bool
}

// ControlServer interface wraps the methods used from control.Server.
type ControlServer interface {
	Start() error
	Stop(ctx context.Context) error
}

// ObservabilityServer interface wraps the methods used from observability.Server.
type ObservabilityServer interface {
	Start() (<-chan error, error)
	Stop(ctx context.Context) error
	Addr() string
}

func (deps *RunDeps) setDefaults() {
	if deps.EngineFactory == nil {
		deps.EngineFactory = func(cfg config.EngineConfig, logger *slog.Logger) bridge.Engine {
			return remote.New(cfg.Network, cfg.Addr,
				remote.WithDialTimeout(cfg.DialTimeout),
				remote.WithVersion(version),
				remote.WithLogger(logger),
			)
		}
	}
	if deps.AgentServerFactory == nil {
		deps.AgentServerFactory = func(cfg config.AgentConfig, logger *slog.Logger) (AgentServer, error) {
			transport, _ := agentrpc.ParseTransport(cfg.Transport)
			return agentrpc.NewServer(cfg.Network, cfg.Addr,
				agentrpc.WithTransport(transport),
				agentrpc.WithStrict(cfg.Strict),
				agentrpc.WithTurnTimeout(cfg.TurnTimeout),
				agentrpc.WithLogger(logger),
			)
		}
	}
	if deps.TerrainCacheFactory == nil {
		deps.TerrainCacheFactory = terrain.NewCache
	}
	if deps.ControlServerFactory == nil {
		deps.ControlServerFactory = func(component string, hooks control.Hooks, logger *slog.Logger) ControlServer {
			return control.NewServer(component, hooks, logger)
		}
	}
	if deps.ObservabilityServerFactory == nil {
		deps.ObservabilityServerFactory = func(addr string, readinessChecker observability.ReadinessChecker, opts ...observability.Option) ObservabilityServer {
			return observability.NewServer(addr, readinessChecker, opts...)
		}
	}
	if deps.SignalNotifier == nil {
		deps.SignalNotifier = func(ch chan<- os.Signal) func() {
			signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
			return func() { signal.Stop(ch) }
		}
	}
	if deps.LogOutput == nil {
		deps.LogOutput = os.Stderr
	}
}
