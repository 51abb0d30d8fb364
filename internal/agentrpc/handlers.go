// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package agentrpc

import (
	"context"
	"encoding/json"

	"github.com/samber/oops"

	"github.com/holomush/bwbridge/internal/bridge"
	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/command"
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/snapshot"
	"github.com/holomush/bwbridge/internal/wire"
)

// Error codes in replies.
const (
	CodeUnknownRequest = "UNKNOWN_REQUEST"
	CodeBadArgument    = "BAD_ARGUMENT"
	CodeNotFound       = "NOT_FOUND"
)

// handler serves one request type within a turn. Slices it returns may alias
// the session's snapshot buffer and must be marshalled before the next call.
type handler func(ctx context.Context, s *bridge.Session, env wire.Envelope) (any, error)

func decode[T any](env wire.Envelope) (T, error) {
	var v T
	if len(env.Data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(env.Data, &v); err != nil {
		return v, oops.Code(CodeBadArgument).With("request", env.Type).Wrapf(err, "decode payload")
	}
	return v, nil
}

func badArg(req, field, value string) error {
	return oops.Code(CodeBadArgument).
		With("request", req).
		With(field, value).
		Errorf("unknown %s %q", field, value)
}

// noArgs adapts an encoder call that takes no arguments.
func noArgs(f func(s *bridge.Session) []int32) handler {
	return func(_ context.Context, s *bridge.Session, _ wire.Envelope) (any, error) {
		return f(s), nil
	}
}

// byPlayer adapts an encoder call keyed by player handle.
func byPlayer(f func(e *snapshot.Encoder, h engine.Handle) []int32) handler {
	return func(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
		r, err := decode[PlayerRequest](env)
		if err != nil {
			return nil, err
		}
		return f(s.Snapshot(), engine.Handle(r.Player)), nil
	}
}

// byUnit adapts an encoder call keyed by unit handle.
func byUnit(f func(e *snapshot.Encoder, h engine.Handle) []int32) handler {
	return func(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
		r, err := decode[UnitRequest](env)
		if err != nil {
			return nil, err
		}
		return f(s.Snapshot(), engine.Handle(r.Unit)), nil
	}
}

func newHandlers() map[string]handler {
	return map[string]handler{
		ReqPlayers:        noArgs(func(s *bridge.Session) []int32 { return s.Snapshot().Players() }),
		ReqPlayerUpdate:   byPlayer((*snapshot.Encoder).PlayerUpdate),
		ReqPlayerName:     handlePlayerName,
		ReqResearch:       byPlayer((*snapshot.Encoder).Research),
		ReqUpgrades:       byPlayer((*snapshot.Encoder).Upgrades),
		ReqUnits:          noArgs(func(s *bridge.Session) []int32 { return s.Snapshot().Units() }),
		ReqLoadedUnits:    byUnit((*snapshot.Encoder).LoadedUnits),
		ReqInterceptors:   byUnit((*snapshot.Encoder).Interceptors),
		ReqLarva:          byUnit((*snapshot.Encoder).Larva),
		ReqTrainingQueue:  byUnit((*snapshot.Encoder).TrainingQueue),
		ReqUnitsOnTile:    handleUnitsOnTile,
		ReqMapLayer:       handleMapLayer,
		ReqCatalog:        handleCatalog,
		ReqCatalogMatch:   handleCatalogMatch,
		ReqRequiredUnits:  handleRequiredUnits,
		ReqAnalyzeTerrain: handleAnalyzeTerrain,
		ReqBaseLocations:  noArgs(func(s *bridge.Session) []int32 { return s.Snapshot().BaseLocations() }),
		ReqRegions:        noArgs(func(s *bridge.Session) []int32 { return s.Snapshot().Regions() }),
		ReqChokePoints:    noArgs(func(s *bridge.Session) []int32 { return s.Snapshot().ChokePoints() }),
		ReqPolygon:        handlePolygon,
		ReqCommand:        handleCommand,
		ReqQuery:          handleQuery,
		ReqDraw:           handleDraw,
		ReqSendText:       handleSendText,
		ReqSetOption:      handleSetOption,
		ReqLeaveGame:      handleLeaveGame,
		ReqGameInfo: func(_ context.Context, s *bridge.Session, _ wire.Envelope) (any, error) {
			return gameInfo(s.Game()), nil
		},
	}
}

func gameInfo(g engine.Game) GameInfo {
	m := g.Map()
	self := engine.NoHandle
	if h, ok := g.Self(); ok {
		self = h
	}
	return GameInfo{
		Frame:                  g.Frame(),
		Replay:                 g.Replay(),
		ReplayFrameTotal:       g.ReplayFrameTotal(),
		RemainingLatencyFrames: g.RemainingLatencyFrames(),
		LastError:              g.LastError(),
		Self:                   int32(self),
		Map: MapInfo{
			Name:     m.Name,
			FileName: m.FileName,
			Hash:     m.Hash,
			Width:    m.Width,
			Height:   m.Height,
		},
	}
}

func connectedInfo(s *bridge.Session) Connected {
	sizes := make(map[string]int, len(catalog.Categories()))
	for _, c := range catalog.Categories() {
		sizes[c.String()] = s.Catalog().Len(c)
	}
	return Connected{SessionID: s.ID().String(), Catalog: sizes}
}

func handlePlayerName(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[PlayerRequest](env)
	if err != nil {
		return nil, err
	}
	p, ok := s.Game().Player(engine.Handle(r.Player))
	if !ok {
		return nil, oops.Code(CodeNotFound).With("player", r.Player).Errorf("no such player")
	}
	return p.Name, nil
}

func handleUnitsOnTile(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[TileRequest](env)
	if err != nil {
		return nil, err
	}
	return s.Snapshot().UnitsOnTile(engine.TilePosition{X: r.X, Y: r.Y}), nil
}

func handleMapLayer(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[LayerRequest](env)
	if err != nil {
		return nil, err
	}
	l, ok := snapshot.ParseLayer(r.Layer)
	if !ok {
		return nil, badArg(env.Type, "layer", r.Layer)
	}
	return s.Snapshot().MapLayer(l), nil
}

func handleCatalog(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[CatalogRequest](env)
	if err != nil {
		return nil, err
	}
	c, ok := catalog.ParseCategory(r.Category)
	if !ok {
		return nil, badArg(env.Type, "category", r.Category)
	}
	return s.Snapshot().CatalogRows(c), nil
}

func handleCatalogMatch(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[CatalogMatchRequest](env)
	if err != nil {
		return nil, err
	}
	c, ok := catalog.ParseCategory(r.Category)
	if !ok {
		return nil, badArg(env.Type, "category", r.Category)
	}
	found, err := s.Catalog().Match(c, r.Pattern)
	if err != nil {
		return nil, err
	}
	out := make([]catalog.Ident, len(found))
	for i, d := range found {
		out[i] = d.Identity()
	}
	return out, nil
}

func handleRequiredUnits(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[RequiredUnitsRequest](env)
	if err != nil {
		return nil, err
	}
	return s.Snapshot().RequiredUnits(r.UnitType), nil
}

func handleAnalyzeTerrain(ctx context.Context, s *bridge.Session, _ wire.Envelope) (any, error) {
	a, err := s.AnalyzeTerrain(ctx)
	if err != nil {
		return nil, err
	}
	return TerrainSummary{
		MapHash:     a.MapHash,
		Regions:     len(a.Regions),
		ChokePoints: len(a.ChokePoints),
		Bases:       len(a.Bases),
	}, nil
}

func handlePolygon(_ context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[RegionRequest](env)
	if err != nil {
		return nil, err
	}
	return s.Snapshot().Polygon(r.Region), nil
}

// handleCommand reports the dispatcher's verdict. A refused command is a
// false result, not a failed request.
func handleCommand(ctx context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[CommandRequest](env)
	if err != nil {
		return nil, err
	}
	if r.Unit == nil {
		return nil, command.ErrMissingArg(env.Type, "unit")
	}
	action, ok := engine.ParseAction(r.Action)
	if !ok {
		return nil, badArg(env.Type, "action", r.Action)
	}
	shape, ok := engine.ParseShape(r.Shape)
	if !ok {
		return nil, badArg(env.Type, "shape", r.Shape)
	}
	cmd := command.Command{
		Unit:   engine.Handle(*r.Unit),
		Action: action,
		Shape:  shape,
		Target: handle(r.Target),
		Type:   typeID(r.Type),
		Slot:   r.Slot,
	}
	switch shape {
	case engine.ShapePosition:
		cmd.Position = engine.Position{X: r.X, Y: r.Y}
	case engine.ShapeTile:
		cmd.Tile = engine.TilePosition{X: r.X, Y: r.Y}
	}
	return s.Commands().Dispatch(ctx, cmd), nil
}

func handleQuery(ctx context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[QueryRequest](env)
	if err != nil {
		return nil, err
	}
	kind, ok := engine.ParseQueryKind(r.Kind)
	if !ok {
		return nil, badArg(env.Type, "kind", r.Kind)
	}
	q := engine.Query{
		Kind:   kind,
		Unit:   handle(r.Unit),
		Target: handle(r.Target),
		Player: handle(r.Player),
		Width:  r.Width,
		Height: r.Height,
		Type:   typeID(r.Type),
		Flag:   r.Flag,
	}
	if r.From != nil {
		q.From = engine.Position{X: r.From.X, Y: r.From.Y}
	}
	if r.To != nil {
		q.To = engine.Position{X: r.To.X, Y: r.To.Y}
	}
	if r.Tile != nil {
		q.Tile = engine.TilePosition{X: r.Tile.X, Y: r.Tile.Y}
	}
	return s.Commands().Ask(ctx, q), nil
}

func handleDraw(ctx context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[DrawRequest](env)
	if err != nil {
		return nil, err
	}
	kind, ok := engine.ParseDrawKind(r.Kind)
	if !ok {
		return nil, badArg(env.Type, "kind", r.Kind)
	}
	return nil, s.Commands().Draw(ctx, engine.Drawing{
		Kind:   kind,
		Screen: r.Screen,
		X:      r.X,
		Y:      r.Y,
		X2:     r.X2,
		Y2:     r.Y2,
		Color:  r.Color,
		Fill:   r.Fill,
		Text:   r.Text,
	})
}

func handleSendText(ctx context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[TextRequest](env)
	if err != nil {
		return nil, err
	}
	return nil, s.Commands().SendText(ctx, r.Text)
}

func handleSetOption(ctx context.Context, s *bridge.Session, env wire.Envelope) (any, error) {
	r, err := decode[OptionRequest](env)
	if err != nil {
		return nil, err
	}
	opt, ok := engine.ParseOption(r.Option)
	if !ok {
		return nil, badArg(env.Type, "option", r.Option)
	}
	return nil, s.Commands().SetOption(ctx, opt, r.Value)
}

func handleLeaveGame(ctx context.Context, s *bridge.Session, _ wire.Envelope) (any, error) {
	s.Commands().LeaveGame(ctx)
	return nil, nil
}
