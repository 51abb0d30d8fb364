// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package snapshot

import (
	"fmt"
	"time"
)

// Layer selects a per-tile map layer.
type Layer uint8

// Map layers.
const (
	// LayerGround is the ground height per build tile.
	LayerGround Layer = iota
	// LayerBuildable is 0/1 per build tile.
	LayerBuildable
	// LayerWalkable is 0/1 per walk tile, four per build tile on each axis.
	LayerWalkable
	// LayerRegions is the dense region id per build tile, 0 outside every
	// region and everywhere before terrain analysis.
	LayerRegions
)

var layerNames = [...]string{"ground", "buildable", "walkable", "regions"}

func (l Layer) String() string {
	if int(l) < len(layerNames) {
		return layerNames[l]
	}
	return fmt.Sprintf("layer(%d)", uint8(l))
}

// ParseLayer resolves a layer by name.
func ParseLayer(name string) (Layer, bool) {
	for i, n := range layerNames {
		if n == name {
			return Layer(i), true
		}
	}
	return 0, false
}

// MapLayer encodes one layer, row-major. An unknown layer yields an empty
// slice.
func (e *Encoder) MapLayer(l Layer) []int32 {
	start := time.Now()
	out := e.begin()
	m := e.world.Map()
	switch l {
	case LayerGround:
		out = append(out, m.Ground...)
	case LayerBuildable:
		for _, b := range m.Buildable {
			out = append(out, boolInt(b))
		}
	case LayerWalkable:
		for _, w := range m.Walkable {
			out = append(out, boolInt(w))
		}
	case LayerRegions:
		if e.terrain != nil && len(e.terrain.RegionMap) == m.Tiles() {
			out = append(out, e.terrain.RegionMap...)
		} else {
			for range m.Tiles() {
				out = append(out, 0)
			}
		}
	}
	return e.end("map_"+l.String(), start, out)
}

// BaseLocations encodes one BaseFields record per base:
//
//	x, y, tile x, tile y, region, minerals, gas, island, mineral only,
//	start location
func (e *Encoder) BaseLocations() []int32 {
	start := time.Now()
	out := e.begin()
	if e.terrain != nil {
		for _, b := range e.terrain.Bases {
			out = append(out,
				b.Position.X, b.Position.Y, b.Tile.X, b.Tile.Y, b.Region,
				b.Minerals, b.Gas,
				boolInt(b.Island), boolInt(b.MineralOnly), boolInt(b.StartLocation),
			)
		}
	}
	return e.end("base_locations", start, out)
}

// Regions encodes (id, center x, center y) per region.
func (e *Encoder) Regions() []int32 {
	start := time.Now()
	out := e.begin()
	if e.terrain != nil {
		for _, r := range e.terrain.Regions {
			out = append(out, r.ID, r.Center.X, r.Center.Y)
		}
	}
	return e.end("regions", start, out)
}

// ChokePoints encodes one ChokePointFields record per choke point:
//
//	center x, center y, radius*100, first region, second region,
//	first side x, first side y, second side x, second side y
func (e *Encoder) ChokePoints() []int32 {
	start := time.Now()
	out := e.begin()
	if e.terrain != nil {
		for _, c := range e.terrain.ChokePoints {
			out = append(out,
				c.Center.X, c.Center.Y, Fixed(c.Radius), c.First, c.Second,
				c.Sides[0].X, c.Sides[0].Y, c.Sides[1].X, c.Sides[1].Y,
			)
		}
	}
	return e.end("choke_points", start, out)
}

// Polygon encodes the outline of region id as x, y pairs.
func (e *Encoder) Polygon(id int32) []int32 {
	start := time.Now()
	out := e.begin()
	if e.terrain != nil {
		if r, ok := e.terrain.Region(id); ok {
			for _, p := range r.Polygon {
				out = append(out, p.X, p.Y)
			}
		}
	}
	return e.end("polygon", start, out)
}
