// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/holomush/bwbridge/pkg/errutil"
)

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func newFlags(t *testing.T, args ...string) *pflag.FlagSet {
	t.Helper()
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse(args))
	return fs
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())
}

func TestLoad_NilFlagSet(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
engine:
  network: unix
  addr: /tmp/engine.sock
  retry_interval: 250ms
agent:
  transport: websocket
  strict: true
  turn_timeout: 3s
log:
  level: debug
snapshot:
  capacity: 1024
terrain:
  cache: /var/cache/terrain
`)

	cfg, err := Load(path, newFlags(t))
	require.NoError(t, err)

	assert.Equal(t, "unix", cfg.Engine.Network)
	assert.Equal(t, "/tmp/engine.sock", cfg.Engine.Addr)
	assert.Equal(t, 250*time.Millisecond, cfg.Engine.RetryInterval)
	assert.Equal(t, Default().Engine.DialTimeout, cfg.Engine.DialTimeout)
	assert.Equal(t, "websocket", cfg.Agent.Transport)
	assert.True(t, cfg.Agent.Strict)
	assert.Equal(t, 3*time.Second, cfg.Agent.TurnTimeout)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, DefaultLogFormat, cfg.Log.Format)
	assert.Equal(t, 1024, cfg.Snapshot.Capacity)
	assert.Equal(t, "/var/cache/terrain", cfg.Terrain.Cache)
	require.NoError(t, cfg.Validate())
}

func TestLoad_ChangedFlagsOverrideFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), `
engine:
  addr: 10.0.0.1:5757
log:
  format: text
`)

	cfg, err := Load(path, newFlags(t, "--engine-addr", "10.0.0.2:6000", "--retry-interval", "2s"))
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2:6000", cfg.Engine.Addr)
	assert.Equal(t, 2*time.Second, cfg.Engine.RetryInterval)
	assert.Equal(t, "text", cfg.Log.Format, "unchanged flag must not override the file")
}

func TestLoad_DefaultFileFromXDG(t *testing.T) {
	home := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", home)
	dir := filepath.Join(home, "bwbridge")
	require.NoError(t, os.MkdirAll(dir, 0o700))
	writeFile(t, dir, "metrics:\n  addr: \"\"\n")

	cfg, err := Load("", newFlags(t))
	require.NoError(t, err)
	assert.Empty(t, cfg.Metrics.Addr)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"), nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeLoad)
}

func TestLoad_MalformedFile(t *testing.T) {
	path := writeFile(t, t.TempDir(), "engine: [unterminated\n")

	_, err := Load(path, nil)
	require.Error(t, err)
	errutil.AssertErrorCode(t, err, CodeLoad)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		key    string
	}{
		{"engine addr", func(c *Config) { c.Engine.Addr = "" }, "engine.addr"},
		{"engine network", func(c *Config) { c.Engine.Network = "udp" }, "engine.network"},
		{"retry interval", func(c *Config) { c.Engine.RetryInterval = 0 }, "engine.retry_interval"},
		{"dial timeout", func(c *Config) { c.Engine.DialTimeout = -time.Second }, "engine.dial_timeout"},
		{"agent addr", func(c *Config) { c.Agent.Addr = "" }, "agent.addr"},
		{"agent network", func(c *Config) { c.Agent.Network = "pipe" }, "agent.network"},
		{"agent transport", func(c *Config) { c.Agent.Transport = "grpc" }, "agent.transport"},
		{"turn timeout", func(c *Config) { c.Agent.TurnTimeout = 0 }, "agent.turn_timeout"},
		{"log format", func(c *Config) { c.Log.Format = "xml" }, "log.format"},
		{"log level", func(c *Config) { c.Log.Level = "loud" }, "log.level"},
		{"snapshot capacity", func(c *Config) { c.Snapshot.Capacity = -1 }, "snapshot.capacity"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			errutil.AssertErrorCode(t, err, CodeInvalid)
			errutil.AssertErrorContext(t, err, "key", tt.key)
		})
	}
}

func TestValidate_EmptyMetricsAddrDisablesMetrics(t *testing.T) {
	cfg := Default()
	cfg.Metrics.Addr = ""
	assert.NoError(t, cfg.Validate())
}

func TestRegisterEngineFlags_LoadsEngineSubset(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	fs := pflag.NewFlagSet("catalog", pflag.ContinueOnError)
	RegisterEngineFlags(fs)
	require.NoError(t, fs.Parse([]string{"--engine-addr", "host:1"}))

	assert.Nil(t, fs.Lookup("agent-addr"))

	cfg, err := Load("", fs)
	require.NoError(t, err)
	assert.Equal(t, "host:1", cfg.Engine.Addr)
	assert.Equal(t, DefaultAgentAddr, cfg.Agent.Addr)
}
