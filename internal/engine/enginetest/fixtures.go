// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package enginetest

import (
	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// Well-known ids in the sample catalog.
const (
	MarineType    int32 = 0
	SCVType       int32 = 7
	CommandCenter int32 = 106
	Barracks      int32 = 111
	StimPacks     int32 = 0
	Lockdown      int32 = 1
	InfantryArmor int32 = 0
	TerranRace    int32 = 1
	UnknownTypeID int32 = 999
)

// Sample player handles.
const (
	SelfPlayer    engine.Handle = 0
	EnemyPlayer   engine.Handle = 1
	NeutralPlayer engine.Handle = 11
)

// SampleTables is a small Terran-only catalog.
func SampleTables() catalog.Tables {
	return catalog.Tables{
		UnitTypes: []catalog.UnitType{
			{Ident: catalog.Ident{ID: MarineType, Name: "Terran_Marine"}, Race: TerranRace, WhatBuilds: Barracks,
				MaxHitPoints: 40, MineralPrice: 50, BuildTime: 360, SupplyRequired: 2, TopSpeed: 4,
				Flags: catalog.CanAttack | catalog.CanMove | catalog.Organic},
			{Ident: catalog.Ident{ID: SCVType, Name: "Terran_SCV"}, Race: TerranRace, WhatBuilds: CommandCenter,
				MaxHitPoints: 60, MineralPrice: 50, Flags: catalog.CanAttack | catalog.CanMove | catalog.Worker | catalog.Mechanical},
			{Ident: catalog.Ident{ID: CommandCenter, Name: "Terran_Command_Center"}, Race: TerranRace,
				MaxHitPoints: 1500, MineralPrice: 400, TileWidth: 4, TileHeight: 3, SupplyProvided: 20,
				Flags: catalog.Building | catalog.CanProduce | catalog.FlyingBuilding, RequiredUnits: map[int32]int32{SCVType: 1}},
			{Ident: catalog.Ident{ID: Barracks, Name: "Terran_Barracks"}, Race: TerranRace,
				MaxHitPoints: 1000, MineralPrice: 150, TileWidth: 4, TileHeight: 3,
				Flags: catalog.Building | catalog.CanProduce, RequiredUnits: map[int32]int32{SCVType: 1, CommandCenter: 1}},
		},
		Races: []catalog.Race{
			{Ident: catalog.Ident{ID: TerranRace, Name: "Terran"}, Worker: SCVType, Center: CommandCenter},
		},
		Techs: []catalog.TechType{
			{Ident: catalog.Ident{ID: StimPacks, Name: "Stim_Packs"}, Race: TerranRace, MineralPrice: 100, GasPrice: 100},
			{Ident: catalog.Ident{ID: Lockdown, Name: "Lockdown"}, Race: TerranRace, EnergyUsed: 100, TargetsUnit: true},
		},
		Upgrades: []catalog.UpgradeType{
			{Ident: catalog.Ident{ID: InfantryArmor, Name: "Terran_Infantry_Armor"}, Race: TerranRace, MaxRepeats: 3},
		},
		Weapons: []catalog.WeaponType{
			{Ident: catalog.Ident{ID: 0, Name: "Gauss_Rifle"}, WhatUses: MarineType, DamageAmount: 6, MaxRange: 128,
				TargetsAir: true, TargetsGround: true},
		},
		UnitSizes:    []catalog.Ident{{ID: 0, Name: "Independent"}, {ID: 1, Name: "Small"}},
		Bullets:      []catalog.Ident{{ID: 0, Name: "Melee"}},
		Damages:      []catalog.Ident{{ID: 0, Name: "Independent"}, {ID: 3, Name: "Normal"}},
		Explosions:   []catalog.Ident{{ID: 0, Name: "None"}},
		UnitCommands: []catalog.Ident{{ID: 0, Name: "Attack_Move"}},
		Orders:       []catalog.Ident{{ID: 0, Name: "Die"}, {ID: 3, Name: "Guard"}},
	}
}

// SamplePlayers returns self, an enemy and the neutral player.
func SamplePlayers() []engine.Player {
	return []engine.Player{
		{Handle: SelfPlayer, Name: "bridge", Race: TerranRace, Type: engine.PlayerTypeComputer,
			StartTile: engine.TilePosition{X: 7, Y: 8}, Self: true, Color: 111,
			Minerals: 50, SupplyUsed: 8, SupplyTotal: 20,
			Research: map[int32]engine.ResearchState{Lockdown: {Researching: true}},
			Upgrades: map[int32]engine.UpgradeState{InfantryArmor: {Level: 1, Upgrading: true}}},
		{Handle: EnemyPlayer, Name: "opponent", Race: 0, Type: engine.PlayerTypeHuman,
			StartTile: engine.TilePosition{X: 117, Y: 118}, Enemy: true, Color: 117},
		{Handle: NeutralPlayer, Name: "Neutral", Race: 3, Type: engine.PlayerTypeNeutral, Neutral: true},
	}
}

// Marine returns a live marine owned by SelfPlayer.
func Marine(h engine.Handle, x, y int32) engine.Unit {
	u := engine.NewUnit(h)
	u.Player = SelfPlayer
	u.Type = MarineType
	u.Position = engine.Position{X: x, Y: y}
	u.Tile = engine.TilePosition{X: x / 32, Y: y / 32}
	u.HitPoints = 40
	u.Flags = engine.FlagExists | engine.FlagCompleted | engine.FlagIdle | engine.FlagVisible
	return u
}

// SampleMap returns a 4x2 tile map.
func SampleMap() engine.Map {
	m := engine.Map{Name: "Tiny", FileName: "tiny.scx", Hash: "0ddba11", Width: 4, Height: 2}
	m.Ground = []int32{0, 0, 1, 2, 0, 1, 1, 2}
	m.Buildable = []bool{true, true, false, false, true, false, false, true}
	m.Walkable = make([]bool, m.Tiles()*16)
	for i := range m.Walkable {
		m.Walkable[i] = i%2 == 0
	}
	return m
}
