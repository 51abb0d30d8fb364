// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package enginetest provides a scripted in-memory engine for tests.
package enginetest

import (
	"context"
	"errors"
	"slices"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// ErrRefused is returned by Connect while FailConnects is positive.
var ErrRefused = errors.New("enginetest: connection refused")

// ErrNotConnected is returned by Update without a live link.
var ErrNotConnected = errors.New("enginetest: not connected")

// Frame is the state the engine presents after one Update.
type Frame struct {
	InGame  bool
	Replay  bool
	Events  []engine.Event
	Keys    []int
	Players []engine.Player
	Units   []engine.Unit
	// Drop disconnects the link once this frame has been polled.
	Drop bool
}

// Engine is a scripted engine. Each Update pops the next Frame; once the
// script is exhausted OnExhausted runs and the engine idles outside a match.
// It is not safe for concurrent use.
type Engine struct {
	// FailConnects refuses that many Connect calls before accepting.
	FailConnects int
	Frames       []Frame
	Tables       catalog.Tables
	TablesErr    error
	MapData      engine.Map
	TerrainData  engine.Terrain
	TerrainErr   error
	// Reject makes Issue report every order as refused.
	Reject bool
	// AskResult answers queries; nil answers false.
	AskResult   func(engine.Query) bool
	OnExhausted func()

	// Recorded calls.
	Connects     int
	Updates      int
	TableLoads   int
	TerrainCalls int
	Orders       []engine.Order
	Queries      []engine.Query
	Drawings     []engine.Drawing
	Texts        []string
	Options      map[engine.Option]int32
	Left         bool

	connected bool
	cur       Frame
	next      int
	frame     int32
}

// New returns an engine that plays frames in order.
func New(frames ...Frame) *Engine {
	return &Engine{Frames: frames, Options: map[engine.Option]int32{}}
}

// Connect implements engine.Link.
func (e *Engine) Connect(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.Connects++
	if e.FailConnects > 0 {
		e.FailConnects--
		return ErrRefused
	}
	e.connected = true
	return nil
}

// Connected implements engine.Link.
func (e *Engine) Connected() bool { return e.connected }

// Update implements engine.Link.
func (e *Engine) Update(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !e.connected {
		return ErrNotConnected
	}
	e.Updates++
	if e.next >= len(e.Frames) {
		e.cur = Frame{}
		if e.OnExhausted != nil {
			e.OnExhausted()
		}
		return nil
	}
	e.cur = e.Frames[e.next]
	e.next++
	if e.cur.InGame {
		e.frame++
	} else {
		e.frame = 0
	}
	if e.cur.Drop {
		e.connected = false
	}
	return nil
}

// Close implements engine.Link.
func (e *Engine) Close() error {
	e.connected = false
	return nil
}

// Drop disconnects the link immediately.
func (e *Engine) Drop() { e.connected = false }

// Remaining returns the number of unplayed frames.
func (e *Engine) Remaining() int { return len(e.Frames) - e.next }

// LoadTables implements catalog.Source.
func (e *Engine) LoadTables(ctx context.Context) (catalog.Tables, error) {
	if err := ctx.Err(); err != nil {
		return catalog.Tables{}, err
	}
	e.TableLoads++
	return e.Tables, e.TablesErr
}

// InGame implements engine.Game.
func (e *Engine) InGame() bool { return e.cur.InGame }

// Replay implements engine.Game.
func (e *Engine) Replay() bool { return e.cur.Replay }

// Frame implements engine.Game.
func (e *Engine) Frame() int32 { return e.frame }

// ReplayFrameTotal implements engine.Game.
func (e *Engine) ReplayFrameTotal() int32 { return 0 }

// RemainingLatencyFrames implements engine.Game.
func (e *Engine) RemainingLatencyFrames() int32 { return 0 }

// LastError implements engine.Game.
func (e *Engine) LastError() int32 { return 0 }

// Self implements engine.Game.
func (e *Engine) Self() (engine.Handle, bool) {
	if e.cur.Replay {
		return engine.NoHandle, false
	}
	for _, p := range e.cur.Players {
		if p.Self {
			return p.Handle, true
		}
	}
	return engine.NoHandle, false
}

// Events implements engine.Game.
func (e *Engine) Events() []engine.Event { return e.cur.Events }

// KeyState implements engine.Game.
func (e *Engine) KeyState(code int) bool { return slices.Contains(e.cur.Keys, code) }

// Players implements engine.Game.
func (e *Engine) Players() []engine.Player { return e.cur.Players }

// Player implements engine.Game.
func (e *Engine) Player(h engine.Handle) (engine.Player, bool) {
	for _, p := range e.cur.Players {
		if p.Handle == h {
			return p, true
		}
	}
	return engine.Player{}, false
}

// Units implements engine.Game.
func (e *Engine) Units() []engine.Unit { return e.cur.Units }

// Unit implements engine.Game.
func (e *Engine) Unit(h engine.Handle) (engine.Unit, bool) {
	for _, u := range e.cur.Units {
		if u.Handle == h {
			return u, true
		}
	}
	return engine.Unit{}, false
}

// UnitsOnTile implements engine.Game.
func (e *Engine) UnitsOnTile(t engine.TilePosition) []engine.Handle {
	var out []engine.Handle
	for _, u := range e.cur.Units {
		if u.Tile == t {
			out = append(out, u.Handle)
		}
	}
	return out
}

// Map implements engine.Game.
func (e *Engine) Map() engine.Map { return e.MapData }

// Terrain implements engine.Game.
func (e *Engine) Terrain(ctx context.Context) (engine.Terrain, error) {
	if err := ctx.Err(); err != nil {
		return engine.Terrain{}, err
	}
	e.TerrainCalls++
	return e.TerrainData, e.TerrainErr
}

// Issue implements engine.Actuator.
func (e *Engine) Issue(o engine.Order) bool {
	e.Orders = append(e.Orders, o)
	return !e.Reject
}

// Ask implements engine.Actuator.
func (e *Engine) Ask(q engine.Query) bool {
	e.Queries = append(e.Queries, q)
	if e.AskResult == nil {
		return false
	}
	return e.AskResult(q)
}

// Draw implements engine.Actuator.
func (e *Engine) Draw(d engine.Drawing) { e.Drawings = append(e.Drawings, d) }

// SendText implements engine.Actuator.
func (e *Engine) SendText(text string) { e.Texts = append(e.Texts, text) }

// SetOption implements engine.Actuator.
func (e *Engine) SetOption(opt engine.Option, value int32) {
	if e.Options == nil {
		e.Options = map[engine.Option]int32{}
	}
	e.Options[opt] = value
}

// LeaveGame implements engine.Actuator.
func (e *Engine) LeaveGame() { e.Left = true }

var (
	_ engine.Link     = (*Engine)(nil)
	_ engine.Game     = (*Engine)(nil)
	_ engine.Actuator = (*Engine)(nil)
	_ catalog.Source  = (*Engine)(nil)
)
