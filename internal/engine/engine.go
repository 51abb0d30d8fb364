// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package engine defines the contract between the bridge and the native
// simulation engine: the link, the per-frame game state, and the actuator
// that forwards unit orders, queries and drawing calls.
package engine

import (
	"context"
)

// Handle is an opaque per-session identifier the engine assigns to a unit or
// player. Handles are only meaningful for the session that produced them.
type Handle int32

// NoHandle marks an absent reference on the wire.
const NoHandle Handle = -1

// Valid reports whether h refers to something (it may still be stale).
func (h Handle) Valid() bool {
	return h >= 0
}

// Position is a pixel coordinate on the map.
type Position struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
}

// TilePosition is a build-tile coordinate (32x32 pixels).
type TilePosition struct {
	X int32 `json:"x" yaml:"x"`
	Y int32 `json:"y" yaml:"y"`
}

// Link is the connection to the engine host.
type Link interface {
	// Connect makes a single connection attempt. Retrying is the caller's job.
	Connect(ctx context.Context) error
	// Connected reports whether the last poll saw a live link.
	Connected() bool
	// Update advances the engine by one tick and refreshes the cached frame.
	// It blocks until the engine has produced the next frame.
	Update(ctx context.Context) error
	Close() error
}

// Game exposes the state of the most recently polled frame.
type Game interface {
	InGame() bool
	Replay() bool
	Frame() int32
	ReplayFrameTotal() int32
	RemainingLatencyFrames() int32
	LastError() int32
	// Self is the controlled player. It is absent in replays.
	Self() (Handle, bool)
	// Events returns the frame's event queue in engine order.
	Events() []Event
	KeyState(code int) bool
	Players() []Player
	Player(h Handle) (Player, bool)
	Units() []Unit
	Unit(h Handle) (Unit, bool)
	UnitsOnTile(t TilePosition) []Handle
	Map() Map
	// Terrain runs (or fetches) the region analysis for the current map.
	Terrain(ctx context.Context) (Terrain, error)
}

// Actuator forwards validated requests into the engine.
type Actuator interface {
	Issue(o Order) bool
	Ask(q Query) bool
	Draw(d Drawing)
	SendText(text string)
	SetOption(opt Option, value int32)
	LeaveGame()
}
