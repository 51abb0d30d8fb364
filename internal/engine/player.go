// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

// PlayerType ids as the engine reports them.
const (
	PlayerTypeNone     int32 = 0
	PlayerTypeComputer int32 = 1
	PlayerTypeHuman    int32 = 2
	PlayerTypeNeutral  int32 = 7
	PlayerTypeObserver int32 = 9
)

// Player is the engine's view of one player for the current frame.
// Self, Ally and Enemy are relative to the controlled player.
type Player struct {
	Handle    Handle       `json:"handle"`
	Name      string       `json:"name"`
	Race      int32        `json:"race"`
	Type      int32        `json:"type"`
	StartTile TilePosition `json:"start_tile"`
	Self      bool         `json:"self"`
	Ally      bool         `json:"ally"`
	Enemy     bool         `json:"enemy"`
	Neutral   bool         `json:"neutral"`
	Observer  bool         `json:"observer"`
	Color     int32        `json:"color"`

	Minerals         int32 `json:"minerals"`
	Gas              int32 `json:"gas"`
	SupplyUsed       int32 `json:"supply_used"`
	SupplyTotal      int32 `json:"supply_total"`
	GatheredMinerals int32 `json:"gathered_minerals"`
	GatheredGas      int32 `json:"gathered_gas"`
	UnitScore        int32 `json:"unit_score"`
	KillScore        int32 `json:"kill_score"`
	BuildingScore    int32 `json:"building_score"`
	RazingScore      int32 `json:"razing_score"`

	// Research and Upgrades are keyed by catalog id. Missing entries mean
	// nothing researched and level zero.
	Research map[int32]ResearchState `json:"research,omitempty"`
	Upgrades map[int32]UpgradeState  `json:"upgrades,omitempty"`
}

// ResearchState is the player's progress on one tech.
type ResearchState struct {
	Researched  bool `json:"researched"`
	Researching bool `json:"researching"`
}

// UpgradeState is the player's progress on one upgrade.
type UpgradeState struct {
	Level     int32 `json:"level"`
	Upgrading bool  `json:"upgrading"`
}

// Reportable reports whether the player can be referenced as an attacker.
// The engine hands back a placeholder player of type None instead of nothing.
func (p Player) Reportable() bool {
	return p.Type != PlayerTypeNone
}
