// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

import "fmt"

// Action is a unit verb.
type Action uint8

// Unit verbs.
const (
	ActionAttack Action = iota + 1
	ActionBuild
	ActionBuildAddon
	ActionTrain
	ActionMorph
	ActionResearch
	ActionUpgrade
	ActionSetRallyPoint
	ActionMove
	ActionPatrol
	ActionHoldPosition
	ActionStop
	ActionFollow
	ActionGather
	ActionReturnCargo
	ActionRepair
	ActionBurrow
	ActionUnburrow
	ActionCloak
	ActionDecloak
	ActionSiege
	ActionUnsiege
	ActionLift
	ActionLand
	ActionLoad
	ActionUnload
	ActionUnloadAll
	ActionRightClick
	ActionHaltConstruction
	ActionCancelConstruction
	ActionCancelAddon
	ActionCancelTrain
	ActionCancelMorph
	ActionCancelResearch
	ActionCancelUpgrade
	ActionUseTech
	ActionPlaceCOP
)

var actionNames = map[Action]string{
	ActionAttack:             "attack",
	ActionBuild:              "build",
	ActionBuildAddon:         "build_addon",
	ActionTrain:              "train",
	ActionMorph:              "morph",
	ActionResearch:           "research",
	ActionUpgrade:            "upgrade",
	ActionSetRallyPoint:      "set_rally_point",
	ActionMove:               "move",
	ActionPatrol:             "patrol",
	ActionHoldPosition:       "hold_position",
	ActionStop:               "stop",
	ActionFollow:             "follow",
	ActionGather:             "gather",
	ActionReturnCargo:        "return_cargo",
	ActionRepair:             "repair",
	ActionBurrow:             "burrow",
	ActionUnburrow:           "unburrow",
	ActionCloak:              "cloak",
	ActionDecloak:            "decloak",
	ActionSiege:              "siege",
	ActionUnsiege:            "unsiege",
	ActionLift:               "lift",
	ActionLand:               "land",
	ActionLoad:               "load",
	ActionUnload:             "unload",
	ActionUnloadAll:          "unload_all",
	ActionRightClick:         "right_click",
	ActionHaltConstruction:   "halt_construction",
	ActionCancelConstruction: "cancel_construction",
	ActionCancelAddon:        "cancel_addon",
	ActionCancelTrain:        "cancel_train",
	ActionCancelMorph:        "cancel_morph",
	ActionCancelResearch:     "cancel_research",
	ActionCancelUpgrade:      "cancel_upgrade",
	ActionUseTech:            "use_tech",
	ActionPlaceCOP:           "place_cop",
}

var actionsByName = func() map[string]Action {
	m := make(map[string]Action, len(actionNames))
	for a, n := range actionNames {
		m[n] = a
	}
	return m
}()

func (a Action) String() string {
	if n, ok := actionNames[a]; ok {
		return n
	}
	return fmt.Sprintf("action(%d)", uint8(a))
}

// ParseAction resolves a verb by name.
func ParseAction(name string) (Action, bool) {
	a, ok := actionsByName[name]
	return a, ok
}

// Actions returns every defined verb in declaration order.
func Actions() []Action {
	out := make([]Action, 0, len(actionNames))
	for a := ActionAttack; a <= ActionPlaceCOP; a++ {
		out = append(out, a)
	}
	return out
}

// Shape says which argument a verb is aimed at.
type Shape uint8

// Argument shapes.
const (
	ShapeNone Shape = iota
	ShapePosition
	ShapeTile
	ShapeUnit
)

var shapeNames = [...]string{"none", "position", "tile", "unit"}

func (s Shape) String() string {
	if int(s) < len(shapeNames) {
		return shapeNames[s]
	}
	return fmt.Sprintf("shape(%d)", uint8(s))
}

// ParseShape resolves a shape by name. The empty string means none.
func ParseShape(name string) (Shape, bool) {
	if name == "" {
		return ShapeNone, true
	}
	for i, n := range shapeNames {
		if n == name {
			return Shape(i), true
		}
	}
	return 0, false
}

// Order is a validated unit command ready for the engine.
type Order struct {
	Unit     Handle       `json:"unit"`
	Action   Action       `json:"action"`
	Shape    Shape        `json:"shape"`
	Target   Handle       `json:"target"`
	Position Position     `json:"position"`
	Tile     TilePosition `json:"tile"`
	Type     int32        `json:"type"`
	Slot     int32        `json:"slot"`
}

// QueryKind selects an engine predicate.
type QueryKind uint8

// Engine predicates.
const (
	QueryVisible QueryKind = iota + 1
	QueryExplored
	QueryBuildable
	QueryCreep
	QueryPower
	QueryPowerPrecise
	QueryPath
	QueryCanBuildHere
	QueryCanMake
	QueryCanResearch
	QueryCanUpgrade
	QueryVisibleToPlayer
)

var queryNames = map[QueryKind]string{
	QueryVisible:         "is_visible",
	QueryExplored:        "is_explored",
	QueryBuildable:       "is_buildable",
	QueryCreep:           "has_creep",
	QueryPower:           "has_power",
	QueryPowerPrecise:    "has_power_precise",
	QueryPath:            "has_path",
	QueryCanBuildHere:    "can_build_here",
	QueryCanMake:         "can_make",
	QueryCanResearch:     "can_research",
	QueryCanUpgrade:      "can_upgrade",
	QueryVisibleToPlayer: "is_visible_to_player",
}

func (k QueryKind) String() string {
	if n, ok := queryNames[k]; ok {
		return n
	}
	return fmt.Sprintf("query(%d)", uint8(k))
}

// ParseQueryKind resolves a predicate by name.
func ParseQueryKind(name string) (QueryKind, bool) {
	for k, n := range queryNames {
		if n == name {
			return k, true
		}
	}
	return 0, false
}

// NoType marks an unused type id in a Query.
const NoType int32 = -1

// Query is a validated engine predicate. Unit, Target and Player are
// NoHandle and Type is NoType when unused; Width and Height are zero for
// single-tile checks. Flag selects a variant: include buildings for
// is_buildable, check explored for can_build_here.
type Query struct {
	Kind   QueryKind    `json:"kind"`
	Unit   Handle       `json:"unit"`
	Target Handle       `json:"target"`
	Player Handle       `json:"player"`
	From   Position     `json:"from"`
	To     Position     `json:"to"`
	Tile   TilePosition `json:"tile"`
	Width  int32        `json:"width"`
	Height int32        `json:"height"`
	Type   int32        `json:"type"`
	Flag   bool         `json:"flag"`
}

// DrawKind selects a drawing primitive.
type DrawKind uint8

// Drawing primitives.
const (
	DrawText DrawKind = iota + 1
	DrawLine
	DrawBox
	DrawEllipse
	DrawCircle
)

var drawNames = map[string]DrawKind{
	"text":    DrawText,
	"line":    DrawLine,
	"box":     DrawBox,
	"ellipse": DrawEllipse,
	"circle":  DrawCircle,
}

// ParseDrawKind resolves a primitive by name.
func ParseDrawKind(name string) (DrawKind, bool) {
	k, ok := drawNames[name]
	return k, ok
}

// Drawing is passed through to the engine overlay. For lines X2/Y2 is the
// end point, for boxes the width and height, for ellipses the radii and for
// circles X2 is the radius.
type Drawing struct {
	Kind   DrawKind `json:"kind"`
	Screen bool     `json:"screen"`
	X      int32    `json:"x"`
	Y      int32    `json:"y"`
	X2     int32    `json:"x2"`
	Y2     int32    `json:"y2"`
	Color  int32    `json:"color"`
	Fill   bool     `json:"fill"`
	Text   string   `json:"text,omitempty"`
}

// Option is a game setting the agent may change.
type Option uint8

// Game settings.
const (
	OptionUserInput Option = iota + 1
	OptionPerfectInformation
	OptionLocalSpeed
	OptionFrameSkip
	OptionCommandOptimization
)

var optionNames = map[string]Option{
	"user_input":           OptionUserInput,
	"perfect_information":  OptionPerfectInformation,
	"local_speed":          OptionLocalSpeed,
	"frame_skip":           OptionFrameSkip,
	"command_optimization": OptionCommandOptimization,
}

// ParseOption resolves a setting by name.
func ParseOption(name string) (Option, bool) {
	o, ok := optionNames[name]
	return o, ok
}
