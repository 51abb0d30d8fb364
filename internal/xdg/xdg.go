// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package xdg resolves the XDG base directories bwbridge keeps its files in:
// config.yaml under config, terrain analyses under cache, and the control
// socket under runtime.
package xdg

import (
	"os"
	"path/filepath"

	"github.com/samber/oops"
)

const appName = "bwbridge"

// appDir resolves $env/bwbridge, or ~/<fallback...>/bwbridge when env is unset.
func appDir(env string, fallback ...string) (string, error) {
	if dir := os.Getenv(env); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	home := os.Getenv("HOME")
	if home == "" {
		var err error
		if home, err = os.UserHomeDir(); err != nil {
			return "", oops.With("env", env).Wrapf(err, "resolve home directory")
		}
	}
	parts := append([]string{home}, fallback...)
	return filepath.Join(append(parts, appName)...), nil
}

// ConfigDir holds config.yaml. XDG_CONFIG_HOME, else ~/.config.
func ConfigDir() (string, error) {
	return appDir("XDG_CONFIG_HOME", ".config")
}

// StateDir is XDG_STATE_HOME, else ~/.local/state.
func StateDir() (string, error) {
	return appDir("XDG_STATE_HOME", ".local", "state")
}

// CacheDir holds terrain analyses keyed by map hash. XDG_CACHE_HOME, else
// ~/.cache.
func CacheDir() (string, error) {
	return appDir("XDG_CACHE_HOME", ".cache")
}

// RuntimeDir holds control sockets. XDG_RUNTIME_DIR, else StateDir()/run.
func RuntimeDir() (string, error) {
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return filepath.Join(dir, appName), nil
	}
	state, err := StateDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(state, "run"), nil
}

// EnsureDir creates path and its parents with 0700 permissions.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o700); err != nil {
		return oops.With("path", path).Wrapf(err, "create directory")
	}
	return nil
}
