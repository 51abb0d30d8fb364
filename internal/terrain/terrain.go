// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package terrain turns the engine's raw region analysis into the dense,
// session-stable form the snapshot encoder reports: regions numbered from 1
// in analysis order, with 0 for tiles outside every region.
package terrain

import "github.com/holomush/bwbridge/internal/engine"

// NoRegion is the dense id of a tile outside every region.
const NoRegion int32 = 0

// Region is one analysed region.
type Region struct {
	ID      int32             `yaml:"id"`
	Center  engine.Position   `yaml:"center"`
	Polygon []engine.Position `yaml:"polygon,omitempty"`
}

// ChokePoint is the narrowest passage between two regions.
type ChokePoint struct {
	Center engine.Position    `yaml:"center"`
	Radius float64            `yaml:"radius"`
	First  int32              `yaml:"first"`
	Second int32              `yaml:"second"`
	Sides  [2]engine.Position `yaml:"sides,flow"`
}

// Base is a candidate expansion location.
type Base struct {
	Position      engine.Position     `yaml:"position"`
	Tile          engine.TilePosition `yaml:"tile"`
	Region        int32               `yaml:"region"`
	Minerals      int32               `yaml:"minerals"`
	Gas           int32               `yaml:"gas"`
	Island        bool                `yaml:"island"`
	MineralOnly   bool                `yaml:"mineral_only"`
	StartLocation bool                `yaml:"start_location"`
}

// Analysis is the terrain of one map with dense region ids.
type Analysis struct {
	MapHash string `yaml:"map_hash"`
	Width   int32  `yaml:"width"`
	Height  int32  `yaml:"height"`
	// RegionMap is row-major over build tiles.
	RegionMap   []int32      `yaml:"region_map,flow"`
	Regions     []Region     `yaml:"regions"`
	ChokePoints []ChokePoint `yaml:"choke_points"`
	Bases       []Base       `yaml:"bases"`
}

// Analyze assigns dense ids to raw. Region keys the analysis never listed
// resolve to NoRegion.
func Analyze(m engine.Map, raw engine.Terrain) *Analysis {
	ids := make(map[engine.RegionKey]int32, len(raw.Regions))
	a := &Analysis{
		MapHash:     m.Hash,
		Width:       m.Width,
		Height:      m.Height,
		Regions:     make([]Region, 0, len(raw.Regions)),
		ChokePoints: make([]ChokePoint, 0, len(raw.ChokePoints)),
		Bases:       make([]Base, 0, len(raw.Bases)),
	}
	for _, r := range raw.Regions {
		if _, dup := ids[r.Key]; dup || r.Key == engine.NoRegion {
			continue
		}
		id := int32(len(a.Regions) + 1) //nolint:gosec // region counts are small
		ids[r.Key] = id
		a.Regions = append(a.Regions, Region{ID: id, Center: r.Center, Polygon: r.Polygon})
	}

	dense := func(k engine.RegionKey) int32 {
		if id, ok := ids[k]; ok {
			return id
		}
		return NoRegion
	}

	a.RegionMap = make([]int32, m.Tiles())
	for i := range a.RegionMap {
		if i < len(raw.TileRegions) {
			a.RegionMap[i] = dense(raw.TileRegions[i])
		}
	}
	for _, c := range raw.ChokePoints {
		a.ChokePoints = append(a.ChokePoints, ChokePoint{
			Center: c.Center,
			Radius: c.Radius,
			First:  dense(c.First),
			Second: dense(c.Second),
			Sides:  c.Sides,
		})
	}
	for _, b := range raw.Bases {
		a.Bases = append(a.Bases, Base{
			Position:      b.Position,
			Tile:          b.Tile,
			Region:        dense(b.Region),
			Minerals:      b.Minerals,
			Gas:           b.Gas,
			Island:        b.Island,
			MineralOnly:   b.MineralOnly,
			StartLocation: b.StartLocation,
		})
	}
	return a
}

// RegionAt returns the dense region id of a build tile, NoRegion when the
// tile is off the map.
func (a *Analysis) RegionAt(t engine.TilePosition) int32 {
	if t.X < 0 || t.Y < 0 || t.X >= a.Width || t.Y >= a.Height {
		return NoRegion
	}
	i := int(t.Y)*int(a.Width) + int(t.X)
	if i >= len(a.RegionMap) {
		return NoRegion
	}
	return a.RegionMap[i]
}

// Region returns the region with the given dense id.
func (a *Analysis) Region(id int32) (Region, bool) {
	if id <= NoRegion || int(id) > len(a.Regions) {
		return Region{}, false
	}
	return a.Regions[id-1], true
}
