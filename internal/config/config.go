// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package config loads bridge settings from an optional YAML file and
// command-line flags. Flags the user sets win over the file; the file wins
// over flag defaults.
package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/holomush/bwbridge/internal/agentrpc"
	"github.com/holomush/bwbridge/internal/engine/remote"
	"github.com/holomush/bwbridge/internal/link"
	"github.com/holomush/bwbridge/internal/logging"
	"github.com/holomush/bwbridge/internal/snapshot"
	"github.com/holomush/bwbridge/internal/xdg"
)

// Error codes for configuration failures.
const (
	CodeLoad    = "CONFIG_LOAD"
	CodeInvalid = "CONFIG_INVALID"
)

// FileName is the config file looked up in the XDG config directory.
const FileName = "config.yaml"

// Default values.
const (
	DefaultEngineNetwork = "tcp"
	DefaultEngineAddr    = "127.0.0.1:5757"
	DefaultAgentNetwork  = "tcp"
	DefaultAgentAddr     = "127.0.0.1:5758"
	DefaultMetricsAddr   = "127.0.0.1:9100"
	DefaultLogFormat     = "json"
	DefaultLogLevel      = "info"
)

// Config is the full bridge configuration.
type Config struct {
	Engine   EngineConfig   `koanf:"engine"`
	Agent    AgentConfig    `koanf:"agent"`
	Metrics  MetricsConfig  `koanf:"metrics"`
	Log      LogConfig      `koanf:"log"`
	Snapshot SnapshotConfig `koanf:"snapshot"`
	Terrain  TerrainConfig  `koanf:"terrain"`
}

// EngineConfig locates the engine host.
type EngineConfig struct {
	Network       string        `koanf:"network"`
	Addr          string        `koanf:"addr"`
	RetryInterval time.Duration `koanf:"retry_interval"`
	DialTimeout   time.Duration `koanf:"dial_timeout"`
}

// AgentConfig sets up the listener the agent attaches to.
type AgentConfig struct {
	Network     string        `koanf:"network"`
	Addr        string        `koanf:"addr"`
	Transport   string        `koanf:"transport"`
	Strict      bool          `koanf:"strict"`
	TurnTimeout time.Duration `koanf:"turn_timeout"`
}

// MetricsConfig holds the observability listener. An empty Addr disables it.
type MetricsConfig struct {
	Addr string `koanf:"addr"`
}

// LogConfig selects log output.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// SnapshotConfig sizes the per-turn snapshot buffer.
type SnapshotConfig struct {
	Capacity int `koanf:"capacity"`
}

// TerrainConfig places the terrain analysis cache. An empty Cache selects
// $XDG_CACHE_HOME/bwbridge/terrain.
type TerrainConfig struct {
	Cache string `koanf:"cache"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		Engine: EngineConfig{
			Network:       DefaultEngineNetwork,
			Addr:          DefaultEngineAddr,
			RetryInterval: link.DefaultInterval,
			DialTimeout:   remote.DefaultDialTimeout,
		},
		Agent: AgentConfig{
			Network:     DefaultAgentNetwork,
			Addr:        DefaultAgentAddr,
			Transport:   string(agentrpc.TransportSocket),
			TurnTimeout: agentrpc.DefaultTurnTimeout,
		},
		Metrics:  MetricsConfig{Addr: DefaultMetricsAddr},
		Log:      LogConfig{Format: DefaultLogFormat, Level: DefaultLogLevel},
		Snapshot: SnapshotConfig{Capacity: snapshot.DefaultCapacity},
	}
}

// flagKeys maps flag names to config keys.
var flagKeys = map[string]string{
	"engine-network":    "engine.network",
	"engine-addr":       "engine.addr",
	"retry-interval":    "engine.retry_interval",
	"dial-timeout":      "engine.dial_timeout",
	"agent-network":     "agent.network",
	"agent-addr":        "agent.addr",
	"agent-transport":   "agent.transport",
	"strict":            "agent.strict",
	"turn-timeout":      "agent.turn_timeout",
	"metrics-addr":      "metrics.addr",
	"log-format":        "log.format",
	"log-level":         "log.level",
	"snapshot-capacity": "snapshot.capacity",
	"terrain-cache":     "terrain.cache",
}

// RegisterFlags adds every configuration flag with its default.
func RegisterFlags(flags *pflag.FlagSet) {
	d := Default()
	RegisterEngineFlags(flags)
	flags.Duration("retry-interval", d.Engine.RetryInterval, "wait between engine connect attempts")
	flags.String("agent-network", d.Agent.Network, "agent listener network (tcp or unix)")
	flags.String("agent-addr", d.Agent.Addr, "agent listener address")
	flags.String("agent-transport", d.Agent.Transport, "agent transport (socket or websocket)")
	flags.Bool("strict", d.Agent.Strict, "validate agent requests against the protocol schema")
	flags.Duration("turn-timeout", d.Agent.TurnTimeout, "longest an agent turn may take before the agent is detached")
	flags.String("metrics-addr", d.Metrics.Addr, "metrics/health HTTP address (empty = disabled)")
	flags.Int("snapshot-capacity", d.Snapshot.Capacity, "initial snapshot buffer size in values")
	flags.String("terrain-cache", d.Terrain.Cache, "terrain cache directory (default: XDG_CACHE_HOME/bwbridge/terrain)")
}

// RegisterEngineFlags adds the flags needed to reach the engine host, for
// commands that only talk to the engine.
func RegisterEngineFlags(flags *pflag.FlagSet) {
	d := Default()
	flags.String("config", "", "config file (default: XDG_CONFIG_HOME/bwbridge/config.yaml if present)")
	flags.String("engine-network", d.Engine.Network, "engine host network (tcp or unix)")
	flags.String("engine-addr", d.Engine.Addr, "engine host address")
	flags.Duration("dial-timeout", d.Engine.DialTimeout, "engine dial timeout")
	flags.String("log-format", d.Log.Format, "log format (json or text)")
	flags.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
}

// Load reads path, or the default config file when path is empty, then
// applies flags. An explicit path must exist; the default one may
// be absent. flags may be nil.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	explicit := path != ""
	if !explicit {
		dir, err := xdg.ConfigDir()
		if err != nil {
			return nil, oops.Code(CodeLoad).Wrapf(err, "locate config directory")
		}
		path = filepath.Join(dir, FileName)
	}
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, oops.Code(CodeLoad).With("path", path).Wrapf(err, "read config file")
		}
	} else if explicit || !errors.Is(err, fs.ErrNotExist) {
		return nil, oops.Code(CodeLoad).With("path", path).Wrapf(err, "stat config file")
	}

	if flags != nil {
		provider := posflag.ProviderWithFlag(flags, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(flags, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return nil, oops.Code(CodeLoad).Wrapf(err, "read flags")
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, oops.Code(CodeLoad).With("path", path).Wrapf(err, "decode config")
	}
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (cfg *Config) Validate() error {
	if cfg.Engine.Addr == "" {
		return invalid("engine.addr", cfg.Engine.Addr, "engine.addr is required")
	}
	if !validNetwork(cfg.Engine.Network) {
		return invalid("engine.network", cfg.Engine.Network, "engine.network must be 'tcp' or 'unix'")
	}
	if cfg.Engine.RetryInterval <= 0 {
		return invalid("engine.retry_interval", cfg.Engine.RetryInterval, "engine.retry_interval must be positive")
	}
	if cfg.Engine.DialTimeout <= 0 {
		return invalid("engine.dial_timeout", cfg.Engine.DialTimeout, "engine.dial_timeout must be positive")
	}
	if cfg.Agent.Addr == "" {
		return invalid("agent.addr", cfg.Agent.Addr, "agent.addr is required")
	}
	if !validNetwork(cfg.Agent.Network) {
		return invalid("agent.network", cfg.Agent.Network, "agent.network must be 'tcp' or 'unix'")
	}
	if _, ok := agentrpc.ParseTransport(cfg.Agent.Transport); !ok {
		return invalid("agent.transport", cfg.Agent.Transport, "agent.transport must be 'socket' or 'websocket'")
	}
	if cfg.Agent.TurnTimeout <= 0 {
		return invalid("agent.turn_timeout", cfg.Agent.TurnTimeout, "agent.turn_timeout must be positive")
	}
	if !slices.Contains(logging.Formats, cfg.Log.Format) {
		return invalid("log.format", cfg.Log.Format, "log.format must be 'json' or 'text'")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return invalid("log.level", cfg.Log.Level, "log.level must be debug, info, warn or error")
	}
	if cfg.Snapshot.Capacity < 0 {
		return invalid("snapshot.capacity", cfg.Snapshot.Capacity, "snapshot.capacity must not be negative")
	}
	return nil
}

func validNetwork(n string) bool {
	return n == "tcp" || n == "unix"
}

func invalid(key string, value any, msg string) error {
	return oops.Code(CodeInvalid).With("key", key).With("value", value).Errorf("%s", msg)
}
