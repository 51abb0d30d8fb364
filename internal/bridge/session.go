// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bridge

import (
	"context"
	"crypto/rand"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/command"
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/snapshot"
	"github.com/holomush/bwbridge/internal/terrain"
)

var (
	entropy     = ulid.Monotonic(rand.Reader, 0)
	entropyLock sync.Mutex
)

// NewSessionID generates a new session id.
func NewSessionID() ulid.ULID {
	entropyLock.Lock()
	defer entropyLock.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy)
}

// Engine is everything the bridge needs from the engine host.
type Engine interface {
	engine.Link
	engine.Game
	engine.Actuator
	catalog.Source
}

// Session is one catalog epoch of the link. It survives reconnects and is
// replaced only on reset. Handles in its frames mean nothing to another
// session.
type Session struct {
	id       ulid.ULID
	started  time.Time
	game     engine.Game
	catalog  *catalog.Catalog
	encoder  *snapshot.Encoder
	commands *command.Dispatcher
	terrain  *terrain.Cache
	logger   *slog.Logger
}

// NewSession creates a session over eng with a loaded catalog. The bridge
// makes one per catalog load; cache may be nil.
func NewSession(eng Engine, cat *catalog.Catalog, cache *terrain.Cache, capacity int, logger *slog.Logger) *Session {
	id := NewSessionID()
	logger = logger.With("session_id", id.String())
	return &Session{
		id:       id,
		started:  time.Now(),
		game:     eng,
		catalog:  cat,
		encoder:  snapshot.NewEncoder(eng, cat, snapshot.WithCapacity(capacity), snapshot.WithLogger(logger)),
		commands: command.NewDispatcher(eng, cat, eng, command.WithLogger(logger)),
		terrain:  cache,
		logger:   logger,
	}
}

// ID returns the session id.
func (s *Session) ID() ulid.ULID { return s.id }

// Started returns when the catalog for this session was loaded.
func (s *Session) Started() time.Time { return s.started }

// Game returns the engine's current frame.
func (s *Session) Game() engine.Game { return s.game }

// Catalog returns the session's type catalog.
func (s *Session) Catalog() *catalog.Catalog { return s.catalog }

// Snapshot returns the encoder that owns the session's scratch buffer.
func (s *Session) Snapshot() *snapshot.Encoder { return s.encoder }

// Commands returns the session's command dispatcher.
func (s *Session) Commands() *command.Dispatcher { return s.commands }

// Logger returns a logger tagged with the session id.
func (s *Session) Logger() *slog.Logger { return s.logger }

// AnalyzeTerrain runs or fetches the region analysis for the current map and
// installs it for region-aware encodes. Region ids are dense from 1. Without
// a cache the engine analysis runs every time.
func (s *Session) AnalyzeTerrain(ctx context.Context) (*terrain.Analysis, error) {
	if s.terrain != nil {
		a, err := s.terrain.Get(ctx, s.game)
		if err != nil {
			return nil, err
		}
		s.encoder.SetTerrain(a)
		return a, nil
	}
	m := s.game.Map()
	raw, err := s.game.Terrain(ctx)
	if err != nil {
		return nil, oops.Code(terrain.CodeAnalyze).With("map_hash", m.Hash).Wrapf(err, "analyze terrain")
	}
	a := terrain.Analyze(m, raw)
	s.encoder.SetTerrain(a)
	return a, nil
}

// clearTerrain drops the previous map's analysis at match start.
func (s *Session) clearTerrain() {
	s.encoder.SetTerrain(nil)
}
