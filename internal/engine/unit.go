// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import "encoding/json"

// UnitFlags is the set of boolean unit states, one bit each.
type UnitFlags uint64

// Unit state bits. The order is the order in which they are encoded.
const (
	FlagExists UnitFlags = 1 << iota
	FlagHasNuke
	FlagAccelerating
	FlagAttacking
	FlagAttackFrame
	FlagBeingConstructed
	FlagBeingGathered
	FlagBeingHealed
	FlagBlind
	FlagBraking
	FlagBurrowed
	FlagCarryingGas
	FlagCarryingMinerals
	FlagCloaked
	FlagCompleted
	FlagConstructing
	FlagDefenseMatrixed
	FlagDetected
	FlagEnsnared
	FlagFollowing
	FlagGatheringGas
	FlagGatheringMinerals
	FlagHallucination
	FlagHoldingPosition
	FlagIdle
	FlagInterruptible
	FlagInvincible
	FlagIrradiated
	FlagLifted
	FlagLoaded
	FlagLockedDown
	FlagMaelstrommed
	FlagMorphing
	FlagMoving
	FlagParasited
	FlagPatrolling
	FlagPlagued
	FlagRepairing
	FlagSelected
	FlagSieged
	FlagStartingAttack
	FlagStasised
	FlagStimmed
	FlagStuck
	FlagTraining
	FlagUnderAttack
	FlagUnderDarkSwarm
	FlagUnderDisruptionWeb
	FlagUnderStorm
	FlagUnpowered
	FlagUpgrading
	FlagVisible

	flagSentinel
)

// UnitFlagCount is the number of defined unit state bits.
const UnitFlagCount = 52

// Has reports whether every bit in f is set.
func (u UnitFlags) Has(f UnitFlags) bool {
	return u&f == f
}

// Unit is the engine's view of one unit for the current frame.
// Absent references carry NoHandle.
type Unit struct {
	Handle    Handle       `json:"handle"`
	ReplayID  int32        `json:"replay_id"`
	Player    Handle       `json:"player"`
	Type      int32        `json:"type"`
	Position  Position     `json:"position"`
	Tile      TilePosition `json:"tile"`
	Angle     float64      `json:"angle"` // radians
	VelocityX float64      `json:"velocity_x"`
	VelocityY float64      `json:"velocity_y"`

	HitPoints           int32  `json:"hit_points"`
	Shields             int32  `json:"shields"`
	Energy              int32  `json:"energy"`
	Resources           int32  `json:"resources"`
	ResourceGroup       int32  `json:"resource_group"`
	LastCommandFrame    int32  `json:"last_command_frame"`
	LastCommand         int32  `json:"last_command"`
	LastAttackingPlayer Handle `json:"last_attacking_player"`

	InitialType      int32        `json:"initial_type"`
	InitialPosition  Position     `json:"initial_position"`
	InitialTile      TilePosition `json:"initial_tile"`
	InitialHitPoints int32        `json:"initial_hit_points"`
	InitialResources int32        `json:"initial_resources"`
	KillCount        int32        `json:"kill_count"`
	AcidSporeCount   int32        `json:"acid_spore_count"`
	InterceptorCount int32        `json:"interceptor_count"`
	ScarabCount      int32        `json:"scarab_count"`
	SpiderMineCount  int32        `json:"spider_mine_count"`

	GroundWeaponCooldown int32 `json:"ground_weapon_cooldown"`
	AirWeaponCooldown    int32 `json:"air_weapon_cooldown"`
	SpellCooldown        int32 `json:"spell_cooldown"`
	DefenseMatrixPoints  int32 `json:"defense_matrix_points"`
	DefenseMatrixTimer   int32 `json:"defense_matrix_timer"`
	EnsnareTimer         int32 `json:"ensnare_timer"`
	IrradiateTimer       int32 `json:"irradiate_timer"`
	LockdownTimer        int32 `json:"lockdown_timer"`
	MaelstromTimer       int32 `json:"maelstrom_timer"`
	OrderTimer           int32 `json:"order_timer"`
	PlagueTimer          int32 `json:"plague_timer"`
	RemoveTimer          int32 `json:"remove_timer"`
	StasisTimer          int32 `json:"stasis_timer"`
	StimTimer            int32 `json:"stim_timer"`

	BuildType             int32   `json:"build_type"`
	TrainingQueue         []int32 `json:"training_queue,omitempty"`
	Tech                  int32   `json:"tech"`
	Upgrade               int32   `json:"upgrade"`
	RemainingBuildTime    int32   `json:"remaining_build_time"`
	RemainingTrainTime    int32   `json:"remaining_train_time"`
	RemainingResearchTime int32   `json:"remaining_research_time"`
	RemainingUpgradeTime  int32   `json:"remaining_upgrade_time"`

	BuildUnit      Handle   `json:"build_unit"`
	Target         Handle   `json:"target"`
	TargetPosition Position `json:"target_position"`
	Order          int32    `json:"order"`
	OrderTarget    Handle   `json:"order_target"`
	SecondaryOrder int32    `json:"secondary_order"`
	RallyPosition  Position `json:"rally_position"`
	RallyUnit      Handle   `json:"rally_unit"`
	Addon          Handle   `json:"addon"`
	NydusExit      Handle   `json:"nydus_exit"`
	Transport      Handle   `json:"transport"`
	LoadedUnits    []Handle `json:"loaded_units,omitempty"`
	Carrier        Handle   `json:"carrier"`
	Interceptors   []Handle `json:"interceptors,omitempty"`
	Hatchery       Handle   `json:"hatchery"`
	Larva          []Handle `json:"larva,omitempty"`
	PowerUp        Handle   `json:"power_up"`

	Flags UnitFlags `json:"flags"`
}

// NewUnit returns a unit with every reference set to NoHandle.
func NewUnit(h Handle) Unit {
	return Unit{
		Handle:              h,
		Player:              NoHandle,
		LastAttackingPlayer: NoHandle,
		BuildUnit:           NoHandle,
		Target:              NoHandle,
		OrderTarget:         NoHandle,
		RallyUnit:           NoHandle,
		Addon:               NoHandle,
		NydusExit:           NoHandle,
		Transport:           NoHandle,
		Carrier:             NoHandle,
		Hatchery:            NoHandle,
		PowerUp:             NoHandle,
	}
}

// UnmarshalJSON decodes a unit. References the host leaves out stay NoHandle.
func (u *Unit) UnmarshalJSON(data []byte) error {
	type plain Unit
	p := plain(NewUnit(NoHandle))
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*u = Unit(p)
	return nil
}
