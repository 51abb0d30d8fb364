// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package snapshot

import (
	"time"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// Players encodes one PlayerFields record per player:
//
//	handle, race, type, start tile x, start tile y, self, ally, enemy,
//	neutral, observer, color
//
// Self, ally and enemy are relative to a controlled player and are zero in
// replays. The observer flag is passed through as the engine reports it.
func (e *Encoder) Players() []int32 {
	start := time.Now()
	out := e.begin()
	replay := e.world.Replay()
	for _, p := range e.world.Players() {
		self, ally, enemy := p.Self, p.Ally, p.Enemy
		if replay {
			self, ally, enemy = false, false, false
		}
		out = append(out,
			int32(p.Handle), p.Race, p.Type, p.StartTile.X, p.StartTile.Y,
			boolInt(self), boolInt(ally), boolInt(enemy),
			boolInt(p.Neutral), boolInt(p.Observer), p.Color,
		)
	}
	return e.end("players", start, out)
}

// PlayerUpdate encodes the PlayerUpdateFields-wide resource and score record of h:
//
//	minerals, gas, supply used, supply total, gathered minerals, gathered gas,
//	unit score, kill score, building score, razing score
//
// An unknown handle yields an empty slice.
func (e *Encoder) PlayerUpdate(h engine.Handle) []int32 {
	start := time.Now()
	out := e.begin()
	if p, ok := e.world.Player(h); ok {
		out = append(out,
			p.Minerals, p.Gas, p.SupplyUsed, p.SupplyTotal,
			p.GatheredMinerals, p.GatheredGas,
			p.UnitScore, p.KillScore, p.BuildingScore, p.RazingScore,
		)
	}
	return e.end("player_update", start, out)
}

// Research encodes (tech id, researched, researching) for every catalog tech,
// in catalog order.
func (e *Encoder) Research(h engine.Handle) []int32 {
	start := time.Now()
	out := e.begin()
	if p, ok := e.world.Player(h); ok {
		for _, id := range e.catalog.IDs(catalog.Techs) {
			st := p.Research[id]
			out = append(out, id, boolInt(st.Researched), boolInt(st.Researching))
		}
	}
	return e.end("research", start, out)
}

// Upgrades encodes (upgrade id, level, upgrading) for every catalog upgrade,
// in catalog order.
func (e *Encoder) Upgrades(h engine.Handle) []int32 {
	start := time.Now()
	out := e.begin()
	if p, ok := e.world.Player(h); ok {
		for _, id := range e.catalog.IDs(catalog.Upgrades) {
			st := p.Upgrades[id]
			out = append(out, id, st.Level, boolInt(st.Upgrading))
		}
	}
	return e.end("upgrades", start, out)
}
