// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package snapshot

import (
	"math"
	"time"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// Units encodes one UnitFields record per unit the engine reports. Fields, in order:
//
//	 0 handle            1 replay id         2 owner              3 type
//	 4 x                 5 y                 6 tile x             7 tile y
//	 8 angle (degrees)   9 velocity x*100   10 velocity y*100    11 hit points
//	12 shields          13 energy           14 resources         15 resource group
//	16 last cmd frame   17 last cmd type    18 last attacker     19 initial type
//	20 initial x        21 initial y        22 initial tile x    23 initial tile y
//	24 initial hp       25 initial res.     26 kill count        27 acid spores
//	28 interceptors     29 scarabs          30 spider mines      31 ground cooldown
//	32 air cooldown     33 spell cooldown   34 dmatrix points    35 dmatrix timer
//	36 ensnare timer    37 irradiate timer  38 lockdown timer    39 maelstrom timer
//	40 order timer      41 plague timer     42 remove timer      43 stasis timer
//	44 stim timer       45 build type       46 queue size        47 tech
//	48 upgrade          49 rem. build       50 rem. train        51 rem. research
//	52 rem. upgrade     53 build unit       54 target            55 target x
//	56 target y         57 order            58 order target      59 secondary order
//	60 rally x          61 rally y          62 rally unit        63 addon
//	64 nydus exit       65 transport        66 loaded count      67 carrier
//	68 hatchery         69 larva count      70 power up
//	71.. one 0/1 field per engine.UnitFlags bit, lowest bit first
//
// Absent references are -1.
func (e *Encoder) Units() []int32 {
	start := time.Now()
	out := e.begin()
	units := e.world.Units()
	for i := range units {
		out = e.appendUnit(out, &units[i])
	}
	return e.end("units", start, out)
}

func (e *Encoder) appendUnit(out []int32, u *engine.Unit) []int32 {
	out = append(out,
		int32(u.Handle), u.ReplayID, int32(u.Player), u.Type,
		u.Position.X, u.Position.Y, u.Tile.X, u.Tile.Y,
		Degrees(u.Angle), Fixed(u.VelocityX), Fixed(u.VelocityY),
		u.HitPoints, u.Shields, u.Energy, u.Resources, u.ResourceGroup,
		u.LastCommandFrame, u.LastCommand, e.attacker(u.LastAttackingPlayer),
		u.InitialType, u.InitialPosition.X, u.InitialPosition.Y,
		u.InitialTile.X, u.InitialTile.Y, u.InitialHitPoints, u.InitialResources,
		u.KillCount, u.AcidSporeCount, u.InterceptorCount, u.ScarabCount, u.SpiderMineCount,
		u.GroundWeaponCooldown, u.AirWeaponCooldown, u.SpellCooldown,
		u.DefenseMatrixPoints, u.DefenseMatrixTimer, u.EnsnareTimer, u.IrradiateTimer,
		u.LockdownTimer, u.MaelstromTimer, u.OrderTimer, u.PlagueTimer,
		u.RemoveTimer, u.StasisTimer, u.StimTimer,
		u.BuildType, int32(len(u.TrainingQueue)), u.Tech, u.Upgrade,
		u.RemainingBuildTime, u.RemainingTrainTime, u.RemainingResearchTime, u.RemainingUpgradeTime,
		int32(u.BuildUnit), int32(u.Target), u.TargetPosition.X, u.TargetPosition.Y,
		u.Order, int32(u.OrderTarget), u.SecondaryOrder,
		u.RallyPosition.X, u.RallyPosition.Y, int32(u.RallyUnit),
		int32(u.Addon), int32(u.NydusExit), int32(u.Transport),
		int32(len(u.LoadedUnits)), int32(u.Carrier), int32(u.Hatchery),
		int32(len(u.Larva)), int32(u.PowerUp),
	)
	for bit := range engine.UnitFlagCount {
		out = append(out, boolInt(u.Flags&(1<<bit) != 0))
	}
	return out
}

// attacker resolves the last attacking player. The engine reports a
// placeholder player of type None when nobody attacked; that and any handle
// it cannot resolve encode as -1.
func (e *Encoder) attacker(h engine.Handle) int32 {
	if !h.Valid() {
		return int32(engine.NoHandle)
	}
	p, ok := e.world.Player(h)
	if !ok || !p.Reportable() {
		return int32(engine.NoHandle)
	}
	return int32(h)
}

// LoadedUnits encodes the handles carried by transport h.
func (e *Encoder) LoadedUnits(h engine.Handle) []int32 {
	return e.members("loaded_units", h, func(u *engine.Unit) []engine.Handle { return u.LoadedUnits })
}

// Interceptors encodes the interceptor handles of carrier h.
func (e *Encoder) Interceptors(h engine.Handle) []int32 {
	return e.members("interceptors", h, func(u *engine.Unit) []engine.Handle { return u.Interceptors })
}

// Larva encodes the larva handles of hatchery h.
func (e *Encoder) Larva(h engine.Handle) []int32 {
	return e.members("larva", h, func(u *engine.Unit) []engine.Handle { return u.Larva })
}

// TrainingQueue encodes the unit type ids queued at h.
func (e *Encoder) TrainingQueue(h engine.Handle) []int32 {
	start := time.Now()
	out := e.begin()
	if u, ok := e.world.Unit(h); ok {
		out = append(out, u.TrainingQueue...)
	}
	return e.end("training_queue", start, out)
}

func (e *Encoder) members(kind string, h engine.Handle, pick func(*engine.Unit) []engine.Handle) []int32 {
	start := time.Now()
	out := e.begin()
	if u, ok := e.world.Unit(h); ok {
		for _, m := range pick(&u) {
			out = append(out, int32(m))
		}
	}
	return e.end(kind, start, out)
}

// UnitsOnTile encodes the handles of units standing on build tile t.
func (e *Encoder) UnitsOnTile(t engine.TilePosition) []int32 {
	start := time.Now()
	out := e.begin()
	for _, h := range e.world.UnitsOnTile(t) {
		out = append(out, int32(h))
	}
	return e.end("units_on_tile", start, out)
}

// CatalogRows encodes every row of one catalog table.
func (e *Encoder) CatalogRows(cat catalog.Category) []int32 {
	start := time.Now()
	out := e.catalog.AppendRows(e.begin(), cat)
	return e.end("catalog", start, out)
}

// RequiredUnits encodes (unit type, count) pairs needed to make unitType.
func (e *Encoder) RequiredUnits(unitType int32) []int32 {
	start := time.Now()
	out := e.catalog.AppendRequiredUnits(e.begin(), unitType)
	return e.end("required_units", start, out)
}

// Degrees converts radians to truncated integer degrees.
func Degrees(rad float64) int32 {
	return int32(rad * 180 / math.Pi)
}

// Fixed converts a fractional value to truncated hundredths.
func Fixed(v float64) int32 {
	return int32(v * catalog.FixedScale)
}
