// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package command

import (
	"slices"

	"github.com/holomush/bwbridge/internal/catalog"
	"github.com/holomush/bwbridge/internal/engine"
)

// rule describes the arguments one action takes.
type rule struct {
	shapes   []engine.Shape
	typed    bool
	category catalog.Category
	slot     bool
}

func (r rule) allows(s engine.Shape) bool {
	return slices.Contains(r.shapes, s)
}

var (
	none      = []engine.Shape{engine.ShapeNone}
	position  = []engine.Shape{engine.ShapePosition}
	tile      = []engine.Shape{engine.ShapeTile}
	unit      = []engine.Shape{engine.ShapeUnit}
	posOrUnit = []engine.Shape{engine.ShapePosition, engine.ShapeUnit}
)

func unitType(shapes []engine.Shape) rule {
	return rule{shapes: shapes, typed: true, category: catalog.UnitTypes}
}

var actionRules = map[engine.Action]rule{
	engine.ActionAttack:        {shapes: posOrUnit},
	engine.ActionBuild:         unitType(tile),
	engine.ActionBuildAddon:    unitType(none),
	engine.ActionTrain:         unitType(none),
	engine.ActionMorph:         unitType(none),
	engine.ActionResearch:      {shapes: none, typed: true, category: catalog.Techs},
	engine.ActionUpgrade:       {shapes: none, typed: true, category: catalog.Upgrades},
	engine.ActionSetRallyPoint: {shapes: posOrUnit},
	engine.ActionMove:          {shapes: position},
	engine.ActionPatrol:        {shapes: position},
	engine.ActionHoldPosition:  {shapes: none},
	engine.ActionStop:          {shapes: none},
	engine.ActionFollow:        {shapes: unit},
	engine.ActionGather:        {shapes: unit},
	engine.ActionReturnCargo:   {shapes: none},
	engine.ActionRepair:        {shapes: unit},
	engine.ActionBurrow:        {shapes: none},
	engine.ActionUnburrow:      {shapes: none},
	engine.ActionCloak:         {shapes: none},
	engine.ActionDecloak:       {shapes: none},
	engine.ActionSiege:         {shapes: none},
	engine.ActionUnsiege:       {shapes: none},
	engine.ActionLift:          {shapes: none},
	engine.ActionLand:          {shapes: tile},
	engine.ActionLoad:          {shapes: unit},
	engine.ActionUnload:        {shapes: unit},
	engine.ActionUnloadAll: {
		shapes: []engine.Shape{engine.ShapeNone, engine.ShapePosition},
	},
	engine.ActionRightClick:         {shapes: posOrUnit},
	engine.ActionHaltConstruction:   {shapes: none},
	engine.ActionCancelConstruction: {shapes: none},
	engine.ActionCancelAddon:        {shapes: none},
	engine.ActionCancelTrain:        {shapes: none, slot: true},
	engine.ActionCancelMorph:        {shapes: none},
	engine.ActionCancelResearch:     {shapes: none},
	engine.ActionCancelUpgrade:      {shapes: none},
	engine.ActionUseTech: {
		shapes:   []engine.Shape{engine.ShapeNone, engine.ShapePosition, engine.ShapeUnit},
		typed:    true,
		category: catalog.Techs,
	},
	engine.ActionPlaceCOP: {shapes: tile},
}

// Shapes returns the argument shapes action accepts, nil for an unknown
// action.
func Shapes(a engine.Action) []engine.Shape {
	r, ok := actionRules[a]
	if !ok {
		return nil
	}
	return slices.Clone(r.shapes)
}

// TypeCategory returns the catalog category action's type id must resolve
// in, and false for actions without a type id.
func TypeCategory(a engine.Action) (catalog.Category, bool) {
	r, ok := actionRules[a]
	if !ok || !r.typed {
		return 0, false
	}
	return r.category, true
}
