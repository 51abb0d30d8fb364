// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package engine

// Map describes the current map. Layers are row-major, y then x.
type Map struct {
	Name      string  `json:"name"`
	FileName  string  `json:"file_name"`
	Hash      string  `json:"hash"`
	Width     int32   `json:"width"`  // build tiles
	Height    int32   `json:"height"` // build tiles
	Ground    []int32 `json:"ground"`
	Buildable []bool  `json:"buildable"`
	// Walkable has four walk tiles per build tile on each axis.
	Walkable []bool `json:"walkable"`
}

// Tiles returns the number of build tiles.
func (m Map) Tiles() int {
	return int(m.Width) * int(m.Height)
}

// RegionKey identifies a region inside one terrain analysis run.
type RegionKey int64

// NoRegion marks a tile outside every region.
const NoRegion RegionKey = -1

// Terrain is the raw output of the region analysis.
type Terrain struct {
	// TileRegions is row-major over build tiles.
	TileRegions []RegionKey     `json:"tile_regions"`
	Regions     []RawRegion     `json:"regions"`
	ChokePoints []RawChokePoint `json:"choke_points"`
	Bases       []RawBase       `json:"bases"`
}

// RawRegion is one analysed region.
type RawRegion struct {
	Key     RegionKey  `json:"key"`
	Center  Position   `json:"center"`
	Polygon []Position `json:"polygon"`
}

// RawChokePoint joins two regions.
type RawChokePoint struct {
	Center Position    `json:"center"`
	Radius float64     `json:"radius"`
	First  RegionKey   `json:"first"`
	Second RegionKey   `json:"second"`
	Sides  [2]Position `json:"sides"`
}

// RawBase is one candidate base location.
type RawBase struct {
	Position      Position     `json:"position"`
	Tile          TilePosition `json:"tile"`
	Region        RegionKey    `json:"region"`
	Minerals      int32        `json:"minerals"`
	Gas           int32        `json:"gas"`
	Island        bool         `json:"island"`
	MineralOnly   bool         `json:"mineral_only"`
	StartLocation bool         `json:"start_location"`
}
