// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package catalog

import "math/bits"

// Fixed row widths of each descriptor kind.
const (
	UnitTypeFields = 57
	RaceFields     = 6
	TechFields     = 10
	UpgradeFields  = 10
	WeaponFields   = 24
	NamedFields    = 1
)

// FixedScale converts fractional engine values to integers.
const FixedScale = 100.0

// Descriptor is one immutable catalog entry.
type Descriptor interface {
	Identity() Ident
	// AppendRow appends the descriptor's fixed-field integer row.
	AppendRow(dst []int32) []int32
}

// Ident names a catalog entry. Categories that carry nothing else use it
// directly as their descriptor.
type Ident struct {
	ID   int32  `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// Identity returns the entry's id and name.
func (i Ident) Identity() Ident { return i }

// AppendRow appends the id.
func (i Ident) AppendRow(dst []int32) []int32 { return append(dst, i.ID) }

// UnitTypeFlags holds the boolean properties of a unit type.
type UnitTypeFlags uint32

// Unit type properties, in row order.
const (
	CanProduce UnitTypeFlags = 1 << iota
	CanAttack
	CanMove
	Flyer
	RegeneratesHP
	Spellcaster
	Invincible
	Organic
	Mechanical
	Robotic
	Detector
	ResourceContainer
	Refinery
	Worker
	RequiresPsi
	RequiresCreep
	Burrowable
	Cloakable
	Building
	Addon
	FlyingBuilding
	Spell
)

const unitTypeFlagCount = 22

var unitTypeFlagNames = [unitTypeFlagCount]string{
	"can_produce", "can_attack", "can_move", "flyer", "regenerates_hp",
	"spellcaster", "invincible", "organic", "mechanical", "robotic",
	"detector", "resource_container", "refinery", "worker", "requires_psi",
	"requires_creep", "burrowable", "cloakable", "building", "addon",
	"flying_building", "spell",
}

// Has reports whether every bit in f is set.
func (u UnitTypeFlags) Has(f UnitTypeFlags) bool { return u&f == f }

// Names lists the set properties.
func (u UnitTypeFlags) Names() []string {
	names := make([]string, 0, bits.OnesCount32(uint32(u)))
	for i := range unitTypeFlagCount {
		if u&(1<<i) != 0 {
			names = append(names, unitTypeFlagNames[i])
		}
	}
	return names
}

// MarshalYAML writes the flags as a list of property names.
func (u UnitTypeFlags) MarshalYAML() (any, error) {
	return u.Names(), nil
}

// UnitType describes a unit kind.
type UnitType struct {
	Ident          `yaml:",inline"`
	Race           int32 `json:"race" yaml:"race"`
	WhatBuilds     int32 `json:"what_builds" yaml:"what_builds"`
	RequiredTech   int32 `json:"required_tech" yaml:"required_tech"`
	ArmorUpgrade   int32 `json:"armor_upgrade" yaml:"armor_upgrade"`
	MaxHitPoints   int32 `json:"max_hit_points" yaml:"max_hit_points"`
	MaxShields     int32 `json:"max_shields" yaml:"max_shields"`
	MaxEnergy      int32 `json:"max_energy" yaml:"max_energy"`
	Armor          int32 `json:"armor" yaml:"armor"`
	MineralPrice   int32 `json:"mineral_price" yaml:"mineral_price"`
	GasPrice       int32 `json:"gas_price" yaml:"gas_price"`
	BuildTime      int32 `json:"build_time" yaml:"build_time"`
	SupplyRequired int32 `json:"supply_required" yaml:"supply_required"`
	SupplyProvided int32 `json:"supply_provided" yaml:"supply_provided"`
	SpaceRequired  int32 `json:"space_required" yaml:"space_required"`
	SpaceProvided  int32 `json:"space_provided" yaml:"space_provided"`
	BuildScore     int32 `json:"build_score" yaml:"build_score"`
	DestroyScore   int32 `json:"destroy_score" yaml:"destroy_score"`
	Size           int32 `json:"size" yaml:"size"`
	TileWidth      int32 `json:"tile_width" yaml:"tile_width"`
	TileHeight     int32 `json:"tile_height" yaml:"tile_height"`
	DimensionLeft  int32 `json:"dimension_left" yaml:"dimension_left"`
	DimensionUp    int32 `json:"dimension_up" yaml:"dimension_up"`
	DimensionRight int32 `json:"dimension_right" yaml:"dimension_right"`
	DimensionDown  int32 `json:"dimension_down" yaml:"dimension_down"`
	SeekRange      int32 `json:"seek_range" yaml:"seek_range"`
	SightRange     int32 `json:"sight_range" yaml:"sight_range"`
	GroundWeapon   int32 `json:"ground_weapon" yaml:"ground_weapon"`
	MaxGroundHits  int32 `json:"max_ground_hits" yaml:"max_ground_hits"`
	AirWeapon      int32 `json:"air_weapon" yaml:"air_weapon"`
	MaxAirHits     int32 `json:"max_air_hits" yaml:"max_air_hits"`
	// TopSpeed is in pixels per frame.
	TopSpeed     float64       `json:"top_speed" yaml:"top_speed"`
	Acceleration int32         `json:"acceleration" yaml:"acceleration"`
	HaltDistance int32         `json:"halt_distance" yaml:"halt_distance"`
	TurnRadius   int32         `json:"turn_radius" yaml:"turn_radius"`
	Flags        UnitTypeFlags `json:"flags" yaml:"flags"`
	// RequiredUnits maps a prerequisite unit type to the count needed.
	RequiredUnits map[int32]int32 `json:"required_units,omitempty" yaml:"required_units,omitempty"`
}

// AppendRow appends the 57-field unit type row.
func (u UnitType) AppendRow(dst []int32) []int32 {
	dst = append(dst,
		u.ID, u.Race, u.WhatBuilds, u.RequiredTech, u.ArmorUpgrade,
		u.MaxHitPoints, u.MaxShields, u.MaxEnergy, u.Armor,
		u.MineralPrice, u.GasPrice, u.BuildTime,
		u.SupplyRequired, u.SupplyProvided, u.SpaceRequired, u.SpaceProvided,
		u.BuildScore, u.DestroyScore, u.Size, u.TileWidth, u.TileHeight,
		u.DimensionLeft, u.DimensionUp, u.DimensionRight, u.DimensionDown,
		u.SeekRange, u.SightRange,
		u.GroundWeapon, u.MaxGroundHits, u.AirWeapon, u.MaxAirHits,
		int32(u.TopSpeed*FixedScale), u.Acceleration, u.HaltDistance, u.TurnRadius,
	)
	for i := range unitTypeFlagCount {
		dst = append(dst, boolInt(u.Flags&(1<<i) != 0))
	}
	return dst
}

// Race describes a playable race.
type Race struct {
	Ident          `yaml:",inline"`
	Worker         int32 `json:"worker" yaml:"worker"`
	Center         int32 `json:"center" yaml:"center"`
	Refinery       int32 `json:"refinery" yaml:"refinery"`
	Transport      int32 `json:"transport" yaml:"transport"`
	SupplyProvider int32 `json:"supply_provider" yaml:"supply_provider"`
}

// AppendRow appends the 6-field race row.
func (r Race) AppendRow(dst []int32) []int32 {
	return append(dst, r.ID, r.Worker, r.Center, r.Refinery, r.Transport, r.SupplyProvider)
}

// TechType describes a researchable ability.
type TechType struct {
	Ident           `yaml:",inline"`
	Race            int32 `json:"race" yaml:"race"`
	MineralPrice    int32 `json:"mineral_price" yaml:"mineral_price"`
	GasPrice        int32 `json:"gas_price" yaml:"gas_price"`
	ResearchTime    int32 `json:"research_time" yaml:"research_time"`
	EnergyUsed      int32 `json:"energy_used" yaml:"energy_used"`
	WhatResearches  int32 `json:"what_researches" yaml:"what_researches"`
	Weapon          int32 `json:"weapon" yaml:"weapon"`
	TargetsUnit     bool  `json:"targets_unit" yaml:"targets_unit"`
	TargetsPosition bool  `json:"targets_position" yaml:"targets_position"`
}

// AppendRow appends the 10-field tech row.
func (t TechType) AppendRow(dst []int32) []int32 {
	return append(dst, t.ID, t.Race, t.MineralPrice, t.GasPrice, t.ResearchTime,
		t.EnergyUsed, t.WhatResearches, t.Weapon, boolInt(t.TargetsUnit), boolInt(t.TargetsPosition))
}

// UpgradeType describes a levelled upgrade.
type UpgradeType struct {
	Ident              `yaml:",inline"`
	Race               int32 `json:"race" yaml:"race"`
	MineralPrice       int32 `json:"mineral_price" yaml:"mineral_price"`
	MineralPriceFactor int32 `json:"mineral_price_factor" yaml:"mineral_price_factor"`
	GasPrice           int32 `json:"gas_price" yaml:"gas_price"`
	GasPriceFactor     int32 `json:"gas_price_factor" yaml:"gas_price_factor"`
	UpgradeTime        int32 `json:"upgrade_time" yaml:"upgrade_time"`
	UpgradeTimeFactor  int32 `json:"upgrade_time_factor" yaml:"upgrade_time_factor"`
	MaxRepeats         int32 `json:"max_repeats" yaml:"max_repeats"`
	WhatUpgrades       int32 `json:"what_upgrades" yaml:"what_upgrades"`
}

// AppendRow appends the 10-field upgrade row.
func (u UpgradeType) AppendRow(dst []int32) []int32 {
	return append(dst, u.ID, u.Race, u.MineralPrice, u.MineralPriceFactor, u.GasPrice,
		u.GasPriceFactor, u.UpgradeTime, u.UpgradeTimeFactor, u.MaxRepeats, u.WhatUpgrades)
}

// WeaponType describes a weapon.
type WeaponType struct {
	Ident              `yaml:",inline"`
	Tech               int32 `json:"tech" yaml:"tech"`
	WhatUses           int32 `json:"what_uses" yaml:"what_uses"`
	DamageAmount       int32 `json:"damage_amount" yaml:"damage_amount"`
	DamageBonus        int32 `json:"damage_bonus" yaml:"damage_bonus"`
	DamageCooldown     int32 `json:"damage_cooldown" yaml:"damage_cooldown"`
	DamageFactor       int32 `json:"damage_factor" yaml:"damage_factor"`
	Upgrade            int32 `json:"upgrade" yaml:"upgrade"`
	DamageType         int32 `json:"damage_type" yaml:"damage_type"`
	ExplosionType      int32 `json:"explosion_type" yaml:"explosion_type"`
	MinRange           int32 `json:"min_range" yaml:"min_range"`
	MaxRange           int32 `json:"max_range" yaml:"max_range"`
	InnerSplashRadius  int32 `json:"inner_splash_radius" yaml:"inner_splash_radius"`
	MedianSplashRadius int32 `json:"median_splash_radius" yaml:"median_splash_radius"`
	OuterSplashRadius  int32 `json:"outer_splash_radius" yaml:"outer_splash_radius"`
	TargetsAir         bool  `json:"targets_air" yaml:"targets_air"`
	TargetsGround      bool  `json:"targets_ground" yaml:"targets_ground"`
	TargetsMechanical  bool  `json:"targets_mechanical" yaml:"targets_mechanical"`
	TargetsOrganic     bool  `json:"targets_organic" yaml:"targets_organic"`
	TargetsNonBuilding bool  `json:"targets_non_building" yaml:"targets_non_building"`
	TargetsNonRobotic  bool  `json:"targets_non_robotic" yaml:"targets_non_robotic"`
	TargetsTerrain     bool  `json:"targets_terrain" yaml:"targets_terrain"`
	TargetsOrgOrMech   bool  `json:"targets_org_or_mech" yaml:"targets_org_or_mech"`
	TargetsOwn         bool  `json:"targets_own" yaml:"targets_own"`
}

// AppendRow appends the 24-field weapon row.
func (w WeaponType) AppendRow(dst []int32) []int32 {
	return append(dst, w.ID, w.Tech, w.WhatUses, w.DamageAmount, w.DamageBonus,
		w.DamageCooldown, w.DamageFactor, w.Upgrade, w.DamageType, w.ExplosionType,
		w.MinRange, w.MaxRange, w.InnerSplashRadius, w.MedianSplashRadius, w.OuterSplashRadius,
		boolInt(w.TargetsAir), boolInt(w.TargetsGround), boolInt(w.TargetsMechanical),
		boolInt(w.TargetsOrganic), boolInt(w.TargetsNonBuilding), boolInt(w.TargetsNonRobotic),
		boolInt(w.TargetsTerrain), boolInt(w.TargetsOrgOrMech), boolInt(w.TargetsOwn))
}

func boolInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
