// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package agentrpc

import (
	"github.com/holomush/bwbridge/internal/engine"
	"github.com/holomush/bwbridge/internal/events"
)

// ProtocolVersion is the agent protocol this bridge speaks.
const ProtocolVersion = "1.0.0"

// ProtocolConstraint is the range of agent protocol versions accepted at
// handshake.
const ProtocolConstraint = "^1.0"

// Handshake messages.
const (
	MsgHello = "hello"
	MsgAck   = "ack"
	MsgNack  = "nack"
)

// Notifications, bridge to agent. Each opens a turn.
const (
	MsgConnected  = "connected"
	MsgMatchStart = "match_start"
	MsgRefresh    = "refresh"
	MsgEvent      = "event"
	MsgKey        = "key"
	MsgMatchEnd   = "match_end"
)

// Turn control.
const (
	MsgReply = "reply"
	MsgDone  = "done"
)

// Requests, agent to bridge. Each is answered with a reply.
const (
	ReqPlayers        = "players"
	ReqPlayerUpdate   = "player_update"
	ReqPlayerName     = "player_name"
	ReqResearch       = "research"
	ReqUpgrades       = "upgrades"
	ReqUnits          = "units"
	ReqLoadedUnits    = "loaded_units"
	ReqInterceptors   = "interceptors"
	ReqLarva          = "larva"
	ReqTrainingQueue  = "training_queue"
	ReqUnitsOnTile    = "units_on_tile"
	ReqMapLayer       = "map_layer"
	ReqCatalog        = "catalog"
	ReqCatalogMatch   = "catalog_match"
	ReqRequiredUnits  = "required_units"
	ReqAnalyzeTerrain = "analyze_terrain"
	ReqBaseLocations  = "base_locations"
	ReqRegions        = "regions"
	ReqChokePoints    = "chokepoints"
	ReqPolygon        = "polygon"
	ReqCommand        = "command"
	ReqQuery          = "query"
	ReqDraw           = "draw"
	ReqSendText       = "send_text"
	ReqSetOption      = "set_option"
	ReqLeaveGame      = "leave_game"
	ReqGameInfo       = "game_info"
)

// Hello opens the handshake.
type Hello struct {
	Protocol string `json:"protocol" jsonschema:"description=Agent protocol version (semver)"`
	Name     string `json:"name,omitempty"`
}

// Ack accepts the agent.
type Ack struct {
	Protocol string `json:"protocol"`
	Bridge   string `json:"bridge"`
}

// Nack refuses the agent; the connection is closed after it.
type Nack struct {
	Reason string `json:"reason"`
}

// Reply answers one request. Result is the request's payload when OK.
type Reply struct {
	Request string `json:"request"`
	OK      bool   `json:"ok"`
	Code    string `json:"code,omitempty"`
	Error   string `json:"error,omitempty"`
	Result  any    `json:"result"`
}

// Empty is the payload of requests that take no arguments.
type Empty struct{}

// Connected is sent once per session and to every newly attached agent.
type Connected struct {
	SessionID string         `json:"session_id"`
	Catalog   map[string]int `json:"catalog" jsonschema:"description=Entries per catalog category"`
}

// MapInfo describes the current map.
type MapInfo struct {
	Name     string `json:"name"`
	FileName string `json:"file_name"`
	Hash     string `json:"hash"`
	Width    int32  `json:"width"`
	Height   int32  `json:"height"`
}

// GameInfo is the match_start payload and the game_info result.
type GameInfo struct {
	Frame                  int32   `json:"frame"`
	Replay                 bool    `json:"replay"`
	ReplayFrameTotal       int32   `json:"replay_frame_total"`
	RemainingLatencyFrames int32   `json:"remaining_latency_frames"`
	LastError              int32   `json:"last_error"`
	Self                   int32   `json:"self" jsonschema:"description=Controlled player handle; -1 in replays"`
	Map                    MapInfo `json:"map"`
}

// Refresh opens every in-match tick.
type Refresh struct {
	Frame int32 `json:"frame"`
}

// Key reports a key that went down since the previous tick.
type Key struct {
	Code int `json:"code"`
}

// MatchEnd closes a match.
type MatchEnd struct {
	Frame int32 `json:"frame"`
}

// PlayerRequest names a player.
type PlayerRequest struct {
	Player int32 `json:"player"`
}

// UnitRequest names a unit.
type UnitRequest struct {
	Unit int32 `json:"unit"`
}

// TileRequest names a build tile.
type TileRequest struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// LayerRequest selects a map layer.
type LayerRequest struct {
	Layer string `json:"layer" jsonschema:"enum=ground,enum=buildable,enum=walkable,enum=regions"`
}

// CatalogRequest selects a catalog category.
type CatalogRequest struct {
	Category string `json:"category" jsonschema:"enum=unit_types,enum=races,enum=techs,enum=upgrades,enum=weapons,enum=unit_sizes,enum=bullets,enum=damage_types,enum=explosion_types,enum=unit_commands,enum=orders"`
}

// CatalogMatchRequest finds catalog entries whose names match a glob.
type CatalogMatchRequest struct {
	Category string `json:"category"`
	Pattern  string `json:"pattern"`
}

// RequiredUnitsRequest names a unit type.
type RequiredUnitsRequest struct {
	UnitType int32 `json:"unit_type"`
}

// RegionRequest names an analysed region.
type RegionRequest struct {
	Region int32 `json:"region"`
}

// Point is a pixel or tile coordinate, by context.
type Point struct {
	X int32 `json:"x"`
	Y int32 `json:"y"`
}

// CommandRequest is a unit order. X and Y are pixels for the position shape
// and tiles for the tile shape.
type CommandRequest struct {
	Unit   *int32 `json:"unit"`
	Action string `json:"action"`
	Shape  string `json:"shape,omitempty" jsonschema:"enum=none,enum=position,enum=tile,enum=unit"`
	Target *int32 `json:"target,omitempty"`
	X      int32  `json:"x,omitempty"`
	Y      int32  `json:"y,omitempty"`
	Type   *int32 `json:"type,omitempty"`
	Slot   int32  `json:"slot,omitempty"`
}

// QueryRequest is an engine predicate. Absent references stay unused.
type QueryRequest struct {
	Kind   string `json:"kind"`
	Unit   *int32 `json:"unit,omitempty"`
	Target *int32 `json:"target,omitempty"`
	Player *int32 `json:"player,omitempty"`
	From   *Point `json:"from,omitempty"`
	To     *Point `json:"to,omitempty"`
	Tile   *Point `json:"tile,omitempty"`
	Width  int32  `json:"width,omitempty"`
	Height int32  `json:"height,omitempty"`
	Type   *int32 `json:"type,omitempty"`
	Flag   bool   `json:"flag,omitempty"`
}

// DrawRequest is an overlay primitive.
type DrawRequest struct {
	Kind   string `json:"kind" jsonschema:"enum=text,enum=line,enum=box,enum=ellipse,enum=circle"`
	Screen bool   `json:"screen,omitempty"`
	X      int32  `json:"x"`
	Y      int32  `json:"y"`
	X2     int32  `json:"x2,omitempty"`
	Y2     int32  `json:"y2,omitempty"`
	Color  int32  `json:"color,omitempty"`
	Fill   bool   `json:"fill,omitempty"`
	Text   string `json:"text,omitempty" jsonschema:"maxLength=255"`
}

// TextRequest is a chat line.
type TextRequest struct {
	Text string `json:"text" jsonschema:"minLength=1"`
}

// OptionRequest changes a game setting.
type OptionRequest struct {
	Option string `json:"option" jsonschema:"enum=user_input,enum=perfect_information,enum=local_speed,enum=frame_skip,enum=command_optimization"`
	Value  int32  `json:"value"`
}

// TerrainSummary is the analyze_terrain result.
type TerrainSummary struct {
	MapHash     string `json:"map_hash"`
	Regions     int    `json:"regions"`
	ChokePoints int    `json:"chokepoints"`
	Bases       int    `json:"bases"`
}

// Requests documents every request payload, keyed by request type.
type Requests struct {
	Players        Empty                `json:"players"`
	PlayerUpdate   PlayerRequest        `json:"player_update"`
	PlayerName     PlayerRequest        `json:"player_name"`
	Research       PlayerRequest        `json:"research"`
	Upgrades       PlayerRequest        `json:"upgrades"`
	Units          Empty                `json:"units"`
	LoadedUnits    UnitRequest          `json:"loaded_units"`
	Interceptors   UnitRequest          `json:"interceptors"`
	Larva          UnitRequest          `json:"larva"`
	TrainingQueue  UnitRequest          `json:"training_queue"`
	UnitsOnTile    TileRequest          `json:"units_on_tile"`
	MapLayer       LayerRequest         `json:"map_layer"`
	Catalog        CatalogRequest       `json:"catalog"`
	CatalogMatch   CatalogMatchRequest  `json:"catalog_match"`
	RequiredUnits  RequiredUnitsRequest `json:"required_units"`
	AnalyzeTerrain Empty                `json:"analyze_terrain"`
	BaseLocations  Empty                `json:"base_locations"`
	Regions        Empty                `json:"regions"`
	ChokePoints    Empty                `json:"chokepoints"`
	Polygon        RegionRequest        `json:"polygon"`
	Command        CommandRequest       `json:"command"`
	Query          QueryRequest         `json:"query"`
	Draw           DrawRequest          `json:"draw"`
	SendText       TextRequest          `json:"send_text"`
	SetOption      OptionRequest        `json:"set_option"`
	LeaveGame      Empty                `json:"leave_game"`
	GameInfo       Empty                `json:"game_info"`
}

// Notifications documents every notification payload, keyed by type.
type Notifications struct {
	Connected  Connected           `json:"connected"`
	MatchStart GameInfo            `json:"match_start"`
	Refresh    Refresh             `json:"refresh"`
	Event      events.Notification `json:"event"`
	Key        Key                 `json:"key"`
	MatchEnd   MatchEnd            `json:"match_end"`
}

// Protocol is the root of the generated schema.
type Protocol struct {
	Hello         Hello         `json:"hello"`
	Requests      Requests      `json:"requests"`
	Notifications Notifications `json:"notifications"`
	Reply         Reply         `json:"reply"`
}

func handle(v *int32) engine.Handle {
	if v == nil {
		return engine.NoHandle
	}
	return engine.Handle(*v)
}

func typeID(v *int32) int32 {
	if v == nil {
		return engine.NoType
	}
	return *v
}
