// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package snapshot flattens per-frame world state into fixed-stride int32
// records for the agent.
//
// Every encode method writes into one buffer owned by the Encoder and returns
// a slice of it. The returned slice is valid until the next encode call on
// the same Encoder; callers that need to keep data must copy it.
package snapshot

import (
	"log/slog"
	"time"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/terrain"
)

// Record widths.
const (
	PlayerFields       = 11
	PlayerUpdateFields = 10
	StatusFields       = 3
	UnitFields         = 71 + engine.UnitFlagCount
	BaseFields         = 10
	RegionFields       = 3
	ChokePointFields   = 9
)

// DefaultCapacity is the initial buffer size in int32s when none is given.
const DefaultCapacity = 1 << 16

// World is the frame state the encoder reads.
type World interface {
	Replay() bool
	Players() []engine.Player
	Player(h engine.Handle) (engine.Player, bool)
	Units() []engine.Unit
	Unit(h engine.Handle) (engine.Unit, bool)
	UnitsOnTile(t engine.TilePosition) []engine.Handle
	Map() engine.Map
}

// Encoder owns the session's scratch buffer. It is not safe for concurrent
// use.
type Encoder struct {
	world   World
	catalog *catalog.Catalog
	terrain *terrain.Analysis
	buf     []int32
	logger  *slog.Logger
}

// Option configures an Encoder.
type Option func(*Encoder)

// WithCapacity presizes the scratch buffer.
func WithCapacity(n int) Option {
	return func(e *Encoder) {
		if n > 0 {
			e.buf = make([]int32, 0, n)
		}
	}
}

// WithLogger sets the encoder's logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Encoder) {
		e.logger = l
	}
}

// NewEncoder returns an encoder reading from world.
func NewEncoder(world World, cat *catalog.Catalog, opts ...Option) *Encoder {
	e := &Encoder{world: world, catalog: cat, logger: slog.Default()}
	for _, opt := range opts {
		opt(e)
	}
	if e.buf == nil {
		e.buf = make([]int32, 0, DefaultCapacity)
	}
	return e
}

// SetTerrain installs the analysis used by region-aware encodes. A nil
// analysis clears it.
func (e *Encoder) SetTerrain(a *terrain.Analysis) {
	e.terrain = a
}

// Terrain returns the installed analysis, nil before analysis.
func (e *Encoder) Terrain() *terrain.Analysis {
	return e.terrain
}

// begin resets the buffer for a new encode.
func (e *Encoder) begin() []int32 {
	return e.buf[:0]
}

// end stores the grown buffer so later encodes reuse its capacity.
func (e *Encoder) end(kind string, start time.Time, out []int32) []int32 {
	if cap(out) > cap(e.buf) {
		e.logger.Debug("snapshot buffer grown", "kind", kind, "capacity", cap(out))
	}
	e.buf = out
	encodeSeconds.WithLabelValues(kind).Observe(time.Since(start).Seconds())
	return out
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
