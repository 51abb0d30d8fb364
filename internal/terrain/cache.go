// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package terrain

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/samber/oops"
	"gopkg.in/yaml.v3"

	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/xdg"
	"github.com/holomush/bwbridge/pkg/errutil"
)

// Error codes for terrain cache failures.
const (
	CodeBadMapHash   = "TERRAIN_BAD_MAP_HASH"
	CodeCorruptCache = "TERRAIN_CORRUPT_CACHE"
	CodeAnalyze      = "TERRAIN_ANALYZE_FAILED"
)

// Source runs the engine-side region analysis for the current map.
type Source interface {
	Map() engine.Map
	Terrain(ctx context.Context) (engine.Terrain, error)
}

// Cache keeps analyses on disk keyed by map hash.
type Cache struct {
	dir    string
	logger *slog.Logger
}

// NewCache returns a cache rooted at dir. An empty dir selects
// $XDG_CACHE_HOME/bwbridge/terrain.
func NewCache(dir string, logger *slog.Logger) (*Cache, error) {
	if dir == "" {
		cacheDir, err := xdg.CacheDir()
		if err != nil {
			return nil, err
		}
		dir = filepath.Join(cacheDir, "terrain")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{dir: dir, logger: logger}, nil
}

// Dir returns the cache directory.
func (c *Cache) Dir() string { return c.dir }

func (c *Cache) path(hash string) (string, error) {
	if hash == "" || strings.ContainsAny(hash, `/\.`) {
		return "", oops.Code(CodeBadMapHash).With("map_hash", hash).Errorf("unusable map hash %q", hash)
	}
	return filepath.Join(c.dir, hash+".yaml"), nil
}

// Load reads a cached analysis. A missing entry is not an error.
func (c *Cache) Load(hash string) (*Analysis, bool, error) {
	p, err := c.path(hash)
	if err != nil {
		return nil, false, err
	}
	data, err := os.ReadFile(p) //nolint:gosec // path is built from a validated hash
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, oops.With("path", p).Wrapf(err, "read terrain cache")
	}
	var a Analysis
	if err := yaml.Unmarshal(data, &a); err != nil {
		return nil, false, oops.Code(CodeCorruptCache).With("path", p).Wrapf(err, "decode terrain cache")
	}
	if a.MapHash != hash {
		return nil, false, oops.Code(CodeCorruptCache).
			With("path", p).
			With("map_hash", a.MapHash).
			Errorf("cache entry belongs to another map")
	}
	return &a, true, nil
}

// Store writes a atomically through a temp file in the cache directory.
func (c *Cache) Store(a *Analysis) error {
	p, err := c.path(a.MapHash)
	if err != nil {
		return err
	}
	if err := xdg.EnsureDir(c.dir); err != nil {
		return err
	}
	data, err := yaml.Marshal(a)
	if err != nil {
		return oops.With("map_hash", a.MapHash).Wrapf(err, "encode terrain cache")
	}
	tmp, err := os.CreateTemp(c.dir, a.MapHash+".*.tmp")
	if err != nil {
		return oops.With("dir", c.dir).Wrapf(err, "create temp file")
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // gone after rename
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return oops.With("path", tmp.Name()).Wrapf(err, "write terrain cache")
	}
	if err := tmp.Close(); err != nil {
		return oops.With("path", tmp.Name()).Wrapf(err, "close terrain cache")
	}
	if err := os.Rename(tmp.Name(), p); err != nil {
		return oops.With("path", p).Wrapf(err, "install terrain cache")
	}
	return nil
}

// Get returns the analysis for the source's current map, running the engine
// analysis only on a cache miss. Cache read and write failures are logged and
// fall back to a fresh analysis.
func (c *Cache) Get(ctx context.Context, src Source) (*Analysis, error) {
	m := src.Map()
	if a, ok, err := c.Load(m.Hash); err != nil {
		errutil.LogError(c.logger, "terrain cache unreadable", err)
	} else if ok {
		c.logger.Debug("terrain cache hit", "map_hash", m.Hash)
		return a, nil
	}

	c.logger.Info("analyzing terrain", "map", m.Name, "map_hash", m.Hash)
	raw, err := src.Terrain(ctx)
	if err != nil {
		return nil, oops.Code(CodeAnalyze).With("map_hash", m.Hash).Wrapf(err, "analyze terrain")
	}
	a := Analyze(m, raw)
	if err := c.Store(a); err != nil {
		errutil.LogError(c.logger, "terrain cache write failed", err)
	}
	return a, nil
}
